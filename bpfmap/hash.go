package bpfmap

import (
	"bytes"
	"hash/fnv"
	"sync"

	"github.com/utkarshm/axiom-bpf/profile"
)

type hashSlot struct {
	used  bool
	tomb  bool
	key   []byte
	value []byte
}

// HashMap is an open-addressed hash map with a deterministic secondary
// probe (double hashing). Cloud builds may grow it via Resize (see
// hash_resize_cloud.go); embedded builds reject updates past a 0.75 load
// factor with MapFull since Resize does not exist on this build.
type HashMap[P profile.Physical] struct {
	mu    sync.RWMutex
	def   MapDef
	slots []hashSlot
	count int
}

func NewHashMap[P profile.Physical](def MapDef) (*HashMap[P], error) {
	if def.Type != TypeHash {
		return nil, ErrInvalidMapType()
	}
	if def.KeySize == 0 || def.ValueSize == 0 || def.MaxEntries == 0 {
		return nil, ErrInvalidValue()
	}
	var p P
	if budget := p.MemoryBudget(); budget > 0 && def.TotalSize() > uint64(budget) {
		return nil, ErrOutOfMemory()
	}
	slotCount := nextPow2(def.MaxEntries*4/3 + 1)
	return &HashMap[P]{def: def, slots: make([]hashSlot, slotCount)}, nil
}

func nextPow2(v uint32) uint32 {
	if v == 0 {
		return 1
	}
	n := uint32(1)
	for n < v {
		n <<= 1
	}
	return n
}

func hash1(key []byte) uint32 {
	h := fnv.New32a()
	h.Write(key)
	return h.Sum32()
}

func hash2(key []byte) uint32 {
	h := fnv.New32()
	h.Write(key)
	return h.Sum32()
}

// probe walks slots starting at hash1(key) with a deterministic secondary
// step, returning the first slot index matching key, or (insert slot, false)
// where insert slot is the first free-or-tombstoned slot seen along the
// probe sequence.
func (m *HashMap[P]) probe(key []byte) (found int, foundOK bool, insertAt int, insertOK bool) {
	n := uint32(len(m.slots))
	idx := hash1(key) % n
	step := (hash2(key) | 1) % n
	if step == 0 {
		step = 1
	}
	insertAt = -1
	for i := uint32(0); i < n; i++ {
		s := &m.slots[idx]
		if !s.used {
			if insertAt == -1 {
				insertAt = int(idx)
			}
			return 0, false, insertAt, true
		}
		if s.tomb {
			if insertAt == -1 {
				insertAt = int(idx)
			}
		} else if bytes.Equal(s.key, key) {
			return int(idx), true, 0, false
		}
		idx = (idx + step) % n
	}
	return 0, false, insertAt, insertAt != -1
}

func (m *HashMap[P]) Def() MapDef { return m.def }

func (m *HashMap[P]) Lookup(key []byte) ([]byte, bool) {
	if uint32(len(key)) != m.def.KeySize {
		return nil, false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	idx, ok, _, _ := m.probe(key)
	if !ok {
		return nil, false
	}
	out := make([]byte, len(m.slots[idx].value))
	copy(out, m.slots[idx].value)
	return out, true
}

func (m *HashMap[P]) Update(key, value []byte, flag UpdateFlag) error {
	if uint32(len(key)) != m.def.KeySize {
		return ErrInvalidKey()
	}
	if uint32(len(value)) != m.def.ValueSize {
		return ErrInvalidValue()
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	idx, found, insertAt, canInsert := m.probe(key)
	if found {
		if flag == FlagNoExist {
			return ErrKeyExists()
		}
		v := make([]byte, len(value))
		copy(v, value)
		m.slots[idx].value = v
		return nil
	}
	if flag == FlagExist {
		return ErrKeyNotFound()
	}
	if !canInsert {
		return ErrMapFull()
	}
	loadFactor := float64(m.count+1) / float64(len(m.slots))
	if loadFactor > 0.75 {
		if !m.tryGrow() {
			return ErrMapFull()
		}
		idx, found, insertAt, canInsert = m.probe(key)
		if found {
			v := make([]byte, len(value))
			copy(v, value)
			m.slots[idx].value = v
			return nil
		}
		if !canInsert {
			return ErrMapFull()
		}
	}
	k := make([]byte, len(key))
	copy(k, key)
	v := make([]byte, len(value))
	copy(v, value)
	m.slots[insertAt] = hashSlot{used: true, key: k, value: v}
	m.count++
	return nil
}

func (m *HashMap[P]) Delete(key []byte) error {
	if uint32(len(key)) != m.def.KeySize {
		return ErrInvalidKey()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	idx, found, _, _ := m.probe(key)
	if !found {
		return ErrKeyNotFound()
	}
	m.slots[idx] = hashSlot{tomb: true, used: true}
	m.count--
	return nil
}

// tryGrow doubles the slot table when the profile permits resizing
// (Cloud.ResizeAllowed, see profile.Physical); on a profile that doesn't
// (Embedded), it always fails, so load factor overflow surfaces as
// MapFull there. This is decided through P itself rather than a
// process-wide switch, so a HashMap[profile.Embedded] never grows even
// in a binary built alongside cloud-profile code.
func (m *HashMap[P]) tryGrow() bool {
	var p P
	if !p.ResizeAllowed() {
		return false
	}
	newSize := uint32(len(m.slots)) * 2
	old := m.slots
	m.slots = make([]hashSlot, newSize)
	m.count = 0
	for _, s := range old {
		if s.used && !s.tomb {
			_, _, insertAt, canInsert := m.probe(s.key)
			if !canInsert {
				return false
			}
			m.slots[insertAt] = s
			m.count++
		}
	}
	return true
}
