//go:build cloud

package engine

import (
	"github.com/utkarshm/axiom-bpf/bpfmap"
	"github.com/utkarshm/axiom-bpf/profile"
)

// MapResize grows the map at id to newCapacity. Cloud only: this method
// does not exist in an embedded build, the same compile-time erasure the
// map registry itself relies on for bpfmap.Registry.Resize and
// bpfmap.HashMap[P].Resize.
func (k *Kernel[P]) MapResize(id bpfmap.MapID, newCapacity uint32) error {
	var p P
	if p.Name() != profile.NameCloud {
		return bpfmap.ErrResizeNotAllowed()
	}
	return k.Maps.Resize(id, newCapacity)
}
