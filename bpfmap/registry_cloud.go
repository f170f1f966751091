//go:build cloud

package bpfmap

// CreateCloud constructs map types that exist only under the cloud profile
// (LRU hash, LPM trie) in addition to the profile-generic set handled by
// Create. Kept separate rather than folded into Create's switch so that
// embedded builds never reference TypeLRUHash/TypeLPMTrie construction at
// all.
func CreateCloud(r *Registry, def MapDef) (Handle, error) {
	var m Map
	var err error
	switch def.Type {
	case TypeLRUHash:
		m, err = NewLRUHashMap(def)
	case TypeLPMTrie:
		m, err = NewLPMTrie(def)
	default:
		return Handle{}, ErrInvalidMapType()
	}
	if err != nil {
		return Handle{}, err
	}
	return r.register(m), nil
}

// resizer is satisfied by the one map type that supports growth: HashMap's
// cloud-only Resize method (see hash_resize_cloud.go).
type resizer interface {
	Resize(newMaxEntries uint32) error
}

// Resize grows the map at id to newMaxEntries. It fails with ErrKeyNotFound
// if no map has that id, and with ErrResizeNotAllowed if the map's concrete
// type does not support resizing. This method exists only in cloud builds.
func (r *Registry) Resize(id MapID, newMaxEntries uint32) error {
	m, ok := r.get(id)
	if !ok {
		return ErrKeyNotFound()
	}
	rs, ok := m.(resizer)
	if !ok {
		return ErrResizeNotAllowed()
	}
	return rs.Resize(newMaxEntries)
}
