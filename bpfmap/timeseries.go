package bpfmap

import (
	"encoding/binary"
	"sync"

	"github.com/utkarshm/axiom-bpf/profile"
)

// tsEntry is one (monotonic key, value) pair.
type tsEntry struct {
	key   uint64
	value []byte
}

// TimeSeriesMap is a fixed-capacity FIFO of (u64 monotonic key, fixed-size
// value) pairs; oldest entries are evicted on overflow. Lookup does not
// search by key: it reads its 4-byte key argument as a little-endian u32
// count, per §4.4, and returns the most recent count entries serialised as
// key||value, newest first.
type TimeSeriesMap[P profile.Physical] struct {
	mu       sync.RWMutex
	def      MapDef
	entries  []tsEntry
	capacity int
	next     uint64
}

func NewTimeSeriesMap[P profile.Physical](def MapDef) (*TimeSeriesMap[P], error) {
	if def.Type != TypeTimeSeries {
		return nil, ErrInvalidMapType()
	}
	if def.MaxEntries == 0 || def.ValueSize == 0 {
		return nil, ErrInvalidValue()
	}
	var p P
	if budget := p.MemoryBudget(); budget > 0 && def.TotalSize() > uint64(budget) {
		return nil, ErrOutOfMemory()
	}
	return &TimeSeriesMap[P]{def: def, capacity: int(def.MaxEntries)}, nil
}

func (m *TimeSeriesMap[P]) Def() MapDef { return m.def }

// Push appends value with the next monotonic key, evicting the oldest
// entry if the map is at capacity.
func (m *TimeSeriesMap[P]) Push(value []byte) (uint64, error) {
	if uint32(len(value)) != m.def.ValueSize {
		return 0, ErrInvalidValue()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	key := m.next
	m.next++
	m.entries = append(m.entries, tsEntry{key: key, value: v})
	if len(m.entries) > m.capacity {
		m.entries = m.entries[len(m.entries)-m.capacity:]
	}
	return key, nil
}

// Lookup treats key as a little-endian u32 count and returns the count
// most recent entries serialised as key(8 bytes LE) || value, newest first.
func (m *TimeSeriesMap[P]) Lookup(key []byte) ([]byte, bool) {
	if len(key) != 4 {
		return nil, false
	}
	count := binary.LittleEndian.Uint32(key)
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.entries) == 0 {
		return nil, false
	}
	if int(count) > len(m.entries) {
		count = uint32(len(m.entries))
	}
	out := make([]byte, 0, int(count)*(8+int(m.def.ValueSize)))
	for i := 0; i < int(count); i++ {
		e := m.entries[len(m.entries)-1-i]
		var keyBuf [8]byte
		binary.LittleEndian.PutUint64(keyBuf[:], e.key)
		out = append(out, keyBuf[:]...)
		out = append(out, e.value...)
	}
	return out, true
}

func (m *TimeSeriesMap[P]) Update(key, value []byte, flag UpdateFlag) error {
	_, err := m.Push(value)
	return err
}

func (m *TimeSeriesMap[P]) Delete(key []byte) error { return ErrNotSupported() }
