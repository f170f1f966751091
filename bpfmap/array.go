package bpfmap

import (
	"encoding/binary"
	"sync"

	"github.com/utkarshm/axiom-bpf/profile"
)

// ArrayMap is a u32-indexed fixed-slot map. Delete is unsupported: values
// persist until overwritten, per §4.4.
type ArrayMap[P profile.Physical] struct {
	mu    sync.RWMutex
	def   MapDef
	data  []byte
}

// NewArrayMap validates def and allocates its backing storage from the
// profile's allocator, enforcing the embedded memory budget where it
// applies.
func NewArrayMap[P profile.Physical](def MapDef) (*ArrayMap[P], error) {
	if def.Type != TypeArray {
		return nil, ErrInvalidMapType()
	}
	if def.KeySize != 4 || def.ValueSize == 0 || def.MaxEntries == 0 {
		return nil, ErrInvalidValue()
	}
	var p P
	if budget := p.MemoryBudget(); budget > 0 && def.TotalSize() > uint64(budget) {
		return nil, ErrOutOfMemory()
	}
	buf := defaultAllocator.Allocate(int(def.TotalSize()))
	if buf == nil {
		return nil, ErrOutOfMemory()
	}
	return &ArrayMap[P]{def: def, data: buf}, nil
}

func (m *ArrayMap[P]) Def() MapDef { return m.def }

func parseArrayKey(key []byte) (uint32, bool) {
	if len(key) != 4 {
		return 0, false
	}
	return binary.LittleEndian.Uint32(key), true
}

func (m *ArrayMap[P]) Lookup(key []byte) ([]byte, bool) {
	idx, ok := parseArrayKey(key)
	if !ok || idx >= m.def.MaxEntries {
		return nil, false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	start := idx * m.def.ValueSize
	out := make([]byte, m.def.ValueSize)
	copy(out, m.data[start:start+m.def.ValueSize])
	return out, true
}

func (m *ArrayMap[P]) Update(key, value []byte, flag UpdateFlag) error {
	idx, ok := parseArrayKey(key)
	if !ok {
		return ErrInvalidKey()
	}
	if idx >= m.def.MaxEntries {
		return ErrInvalidKey()
	}
	if uint32(len(value)) != m.def.ValueSize {
		return ErrInvalidValue()
	}
	if flag == FlagNoExist {
		// Array slots always "exist" once allocated, so NOEXIST can never
		// succeed on a slot that has already been initialised. Since there
		// is no initialised/uninitialised distinction at the byte level,
		// NOEXIST is accepted as equivalent to ANY here, matching the
		// original source's array map which does not special-case it.
		_ = flag
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	start := idx * m.def.ValueSize
	copy(m.data[start:start+m.def.ValueSize], value)
	return nil
}

func (m *ArrayMap[P]) Delete(key []byte) error {
	return ErrNotSupported()
}
