package bpfmap

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/utkarshm/axiom-bpf/profile"
)

// MapID is a map's process-wide unique identifier, stable for the life of
// the map.
type MapID uint32

// Handle is what programs and userspace callers hold instead of the map
// itself: an id plus a reference into the registry. Cloning a Handle is
// cheap and safe to share across goroutines; all mutation goes through the
// registry's per-map lock inside the underlying Map implementation.
type Handle struct {
	ID       MapID
	External uuid.UUID
	registry *Registry
}

func (h Handle) Lookup(key []byte) ([]byte, bool) {
	m, ok := h.registry.get(h.ID)
	if !ok {
		return nil, false
	}
	return m.Lookup(key)
}

func (h Handle) Update(key, value []byte, flag UpdateFlag) error {
	m, ok := h.registry.get(h.ID)
	if !ok {
		return ErrInvalidMapType()
	}
	return m.Update(key, value, flag)
}

func (h Handle) Delete(key []byte) error {
	m, ok := h.registry.get(h.ID)
	if !ok {
		return ErrInvalidMapType()
	}
	return m.Delete(key)
}

func (h Handle) Def() MapDef {
	m, ok := h.registry.get(h.ID)
	if !ok {
		return MapDef{}
	}
	return m.Def()
}

// Registry owns every live map by identifier. Programs and userspace
// callers never hold a map directly, only a Handle; this is the "shared
// mutable maps via registry" pattern from §9.
type Registry struct {
	mu     sync.RWMutex
	maps   map[MapID]Map
	nextID atomic.Uint32
}

func NewRegistry() *Registry {
	return &Registry{maps: make(map[MapID]Map)}
}

func (r *Registry) get(id MapID) (Map, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.maps[id]
	return m, ok
}

// Create constructs a new map of def.Type under profile P and registers it,
// returning a Handle.
func Create[P profile.Physical](r *Registry, def MapDef) (Handle, error) {
	var m Map
	var err error
	switch def.Type {
	case TypeArray:
		m, err = NewArrayMap[P](def)
	case TypeHash:
		m, err = NewHashMap[P](def)
	case TypeRingBuf:
		m, err = NewRingBuffer[P](def)
	case TypeTimeSeries:
		m, err = NewTimeSeriesMap[P](def)
	default:
		return Handle{}, ErrInvalidMapType()
	}
	if err != nil {
		return Handle{}, err
	}
	return r.register(m), nil
}

func (r *Registry) register(m Map) Handle {
	id := MapID(r.nextID.Add(1))
	r.mu.Lock()
	r.maps[id] = m
	r.mu.Unlock()
	return Handle{ID: id, External: uuid.New(), registry: r}
}

// Destroy removes a map from the registry. The caller must ensure no
// program or userspace handle still references it.
func (r *Registry) Destroy(id MapID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.maps, id)
}

// Get returns the underlying Map for id, for callers (such as the cloud
// Resize path) that need the concrete type rather than the narrow Handle
// surface.
func (r *Registry) Get(id MapID) (Map, bool) {
	return r.get(id)
}
