package bpfmap

import (
	"sync"
	"sync/atomic"

	"github.com/utkarshm/axiom-bpf/profile"
)

// ringRecord is one committed variable-length record. Once appended it is
// never mutated, so concurrent readers may walk the slice up to
// committed.Load() without holding any lock: the atomic load is the only
// synchronisation point they need (single-producer/multi-consumer).
type ringRecord struct {
	data []byte
}

// RingBuffer implements the reserve/commit map type (§4.4). The producer
// side (Reserve/Commit) is exclusive, guarded by mu; readers only ever
// atomic-load committed and then index into records up to that point,
// which is safe because records are append-only and never resized in
// place.
type RingBuffer[P profile.Physical] struct {
	mu          sync.Mutex // producer exclusion
	def         MapDef
	capacity    int
	usedBytes   int
	records     []ringRecord
	committed   atomic.Int64
	pending     *ringRecord
}

func NewRingBuffer[P profile.Physical](def MapDef) (*RingBuffer[P], error) {
	if def.Type != TypeRingBuf {
		return nil, ErrInvalidMapType()
	}
	if def.MaxEntries == 0 {
		return nil, ErrInvalidValue()
	}
	var p P
	capacity := int(def.MaxEntries) * int(def.ValueSize)
	if capacity <= 0 {
		capacity = int(def.MaxEntries)
	}
	if budget := p.MemoryBudget(); budget > 0 && uint64(capacity) > uint64(budget) {
		return nil, ErrOutOfMemory()
	}
	return &RingBuffer[P]{def: def, capacity: capacity}, nil
}

func (m *RingBuffer[P]) Def() MapDef { return m.def }

// Reservation is a producer's exclusive handle on a not-yet-visible byte
// range. Callers write into Bytes() then call Commit to make the record
// visible to readers in order.
type Reservation struct {
	buf    []byte
	commit func()
}

func (r *Reservation) Bytes() []byte { return r.buf }
func (r *Reservation) Commit()       { r.commit() }

// Reserve claims size bytes for the next record. It fails with MapFull if
// size does not fit in the remaining capacity.
func (m *RingBuffer[P]) Reserve(size int) (*Reservation, error) {
	m.mu.Lock()
	if m.usedBytes+size > m.capacity {
		m.mu.Unlock()
		return nil, ErrMapFull()
	}
	buf := make([]byte, size)
	m.usedBytes += size
	rec := &ringRecord{data: buf}
	m.pending = rec
	return &Reservation{
		buf: buf,
		commit: func() {
			defer m.mu.Unlock()
			m.records = append(m.records, *rec)
			m.committed.Add(1)
			m.pending = nil
		},
	}, nil
}

// CommittedCount is the number of records visible to readers.
func (m *RingBuffer[P]) CommittedCount() int {
	return int(m.committed.Load())
}

// ReadFrom returns the committed records starting at index from, in commit
// order. Safe to call without holding the producer lock.
func (m *RingBuffer[P]) ReadFrom(from int) [][]byte {
	n := int(m.committed.Load())
	if from >= n {
		return nil
	}
	out := make([][]byte, 0, n-from)
	for i := from; i < n; i++ {
		out = append(out, m.records[i].data)
	}
	return out
}

// Lookup/Update/Delete satisfy the Map interface for registry uniformity;
// ring buffers are accessed through Reserve/Commit/ReadFrom instead.
func (m *RingBuffer[P]) Lookup(key []byte) ([]byte, bool) { return nil, false }

func (m *RingBuffer[P]) Update(key, value []byte, flag UpdateFlag) error {
	res, err := m.Reserve(len(value))
	if err != nil {
		return err
	}
	copy(res.Bytes(), value)
	res.Commit()
	return nil
}

func (m *RingBuffer[P]) Delete(key []byte) error { return ErrNotSupported() }
