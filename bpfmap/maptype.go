// Package bpfmap implements the keyed shared-storage map subsystem: array,
// hash, ring buffer and time-series maps on every profile, plus cloud-only
// LRU hash and longest-prefix-match trie maps.
package bpfmap

import (
	"fmt"

	"github.com/utkarshm/axiom-bpf/bpferr"
)

// MapType identifies the storage strategy of a map.
type MapType uint8

const (
	TypeUnspec MapType = iota
	TypeArray
	TypeHash
	TypeRingBuf
	TypeTimeSeries
	TypeLRUHash // cloud only
	TypeLPMTrie // cloud only
)

func (t MapType) String() string {
	switch t {
	case TypeArray:
		return "array"
	case TypeHash:
		return "hash"
	case TypeRingBuf:
		return "ringbuf"
	case TypeTimeSeries:
		return "timeseries"
	case TypeLRUHash:
		return "lru_hash"
	case TypeLPMTrie:
		return "lpm_trie"
	default:
		return "unspec"
	}
}

// MapDef is the definition record supplied to map_create.
type MapDef struct {
	Type        MapType
	KeySize     uint32
	ValueSize   uint32
	MaxEntries  uint32
	Flags       uint32
}

// TotalSize is the map's worst-case byte footprint, checked against the
// embedded memory budget at creation time.
func (d MapDef) TotalSize() uint64 {
	return uint64(d.KeySize+d.ValueSize) * uint64(d.MaxEntries)
}

// UpdateFlag selects insert-vs-overwrite semantics for Update.
type UpdateFlag uint8

const (
	FlagAny     UpdateFlag = iota // insert or overwrite
	FlagNoExist                   // insert only
	FlagExist                     // overwrite only
)

// Error is the map-operation error taxonomy from §7.
type Error struct{ msg string }

func (e *Error) Error() string { return "bpfmap: " + e.msg }

func (e *Error) Category() bpferr.Category { return bpferr.CategoryMap }

func newErr(format string, args ...any) *Error { return &Error{msg: fmt.Sprintf(format, args...)} }

func ErrKeyNotFound() *Error      { return newErr("key not found") }
func ErrKeyExists() *Error        { return newErr("key exists") }
func ErrMapFull() *Error          { return newErr("map full") }
func ErrInvalidKey() *Error       { return newErr("invalid key") }
func ErrInvalidValue() *Error     { return newErr("invalid value") }
func ErrOutOfMemory() *Error      { return newErr("out of memory") }
func ErrInvalidMapType() *Error   { return newErr("invalid map type") }
func ErrNotSupported() *Error     { return newErr("operation not supported") }
func ErrResizeNotAllowed() *Error { return newErr("resize not allowed on this profile") }

// Map is the operation set every map type exposes. Resize is intentionally
// absent here: it exists only on the cloud-only concrete map types defined
// in *_cloud.go files, which is how the module erases it from embedded
// builds at the type level rather than gating it at runtime.
type Map interface {
	Lookup(key []byte) ([]byte, bool)
	Update(key, value []byte, flag UpdateFlag) error
	Delete(key []byte) error
	Def() MapDef
}
