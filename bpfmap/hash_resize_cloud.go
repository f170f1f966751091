//go:build cloud

package bpfmap

// Resize grows the map to the next power of two at or above newMax
// entries' worth of slots. It exists only in cloud builds: the Map
// interface and every embedded map type have no such method, which is how
// the module satisfies "the resize operation is absent from the embedded
// surface" at the type level rather than via a runtime guard.
func (m *HashMap[P]) Resize(newMaxEntries uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	target := nextPow2(newMaxEntries*4/3 + 1)
	if target <= uint32(len(m.slots)) {
		return nil
	}
	old := m.slots
	m.slots = make([]hashSlot, target)
	m.count = 0
	m.def.MaxEntries = newMaxEntries
	for _, s := range old {
		if s.used && !s.tomb {
			_, _, insertAt, canInsert := m.probe(s.key)
			if !canInsert {
				return ErrOutOfMemory()
			}
			m.slots[insertAt] = s
			m.count++
		}
	}
	return nil
}
