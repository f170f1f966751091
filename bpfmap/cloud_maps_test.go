//go:build cloud

package bpfmap

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/utkarshm/axiom-bpf/profile"
)

func TestLRUHashMapEvictsLeastRecentlyUsed(t *testing.T) {
	m, err := NewLRUHashMap(MapDef{Type: TypeLRUHash, KeySize: 4, ValueSize: 4, MaxEntries: 2})
	require.NoError(t, err)

	require.NoError(t, m.Update([]byte{1, 0, 0, 0}, []byte{1, 0, 0, 0}, FlagAny))
	require.NoError(t, m.Update([]byte{2, 0, 0, 0}, []byte{2, 0, 0, 0}, FlagAny))

	// touch key 1 so key 2 becomes the least recently used entry
	_, ok := m.Lookup([]byte{1, 0, 0, 0})
	require.True(t, ok)

	require.NoError(t, m.Update([]byte{3, 0, 0, 0}, []byte{3, 0, 0, 0}, FlagAny))

	_, ok = m.Lookup([]byte{2, 0, 0, 0})
	require.False(t, ok, "key 2 should have been evicted as least recently used")

	v, ok := m.Lookup([]byte{1, 0, 0, 0})
	require.True(t, ok)
	require.Equal(t, []byte{1, 0, 0, 0}, v)
}

func TestLRUHashMapDeleteAndFlags(t *testing.T) {
	m, err := NewLRUHashMap(MapDef{Type: TypeLRUHash, KeySize: 4, ValueSize: 4, MaxEntries: 4})
	require.NoError(t, err)
	key := []byte{1, 0, 0, 0}
	require.NoError(t, m.Update(key, []byte{1, 0, 0, 0}, FlagAny))
	require.Error(t, m.Update(key, []byte{2, 0, 0, 0}, FlagNoExist))
	require.NoError(t, m.Delete(key))
	require.Error(t, m.Delete(key))
}

func lpmKey(bits uint32, addr []byte) []byte {
	out := make([]byte, 4+len(addr))
	binary.LittleEndian.PutUint32(out, bits)
	copy(out[4:], addr)
	return out
}

func TestLPMTrieLookupReturnsLongestMatch(t *testing.T) {
	m, err := NewLPMTrie(MapDef{Type: TypeLPMTrie, KeySize: 8, ValueSize: 1, MaxEntries: 8})
	require.NoError(t, err)

	require.NoError(t, m.Update(lpmKey(16, []byte{10, 0, 0, 0}), []byte{1}, FlagAny))
	require.NoError(t, m.Update(lpmKey(24, []byte{10, 0, 0, 0}), []byte{2}, FlagAny))

	v, ok := m.Lookup(lpmKey(32, []byte{10, 0, 0, 5}))
	require.True(t, ok)
	require.Equal(t, []byte{2}, v, "the /24 entry is the longer matching prefix")

	v, ok = m.Lookup(lpmKey(32, []byte{10, 0, 1, 5}))
	require.True(t, ok)
	require.Equal(t, []byte{1}, v, "only the /16 entry covers this address")

	_, ok = m.Lookup(lpmKey(32, []byte{11, 0, 0, 1}))
	require.False(t, ok)
}

func TestLPMTrieDeleteAndMapFull(t *testing.T) {
	m, err := NewLPMTrie(MapDef{Type: TypeLPMTrie, KeySize: 8, ValueSize: 1, MaxEntries: 1})
	require.NoError(t, err)
	k := lpmKey(16, []byte{192, 168, 0, 0})
	require.NoError(t, m.Update(k, []byte{1}, FlagAny))
	require.Error(t, m.Update(lpmKey(24, []byte{192, 168, 1, 0}), []byte{2}, FlagAny))
	require.NoError(t, m.Delete(k))
	require.Error(t, m.Delete(k))
}

func TestCreateCloudRejectsUnknownType(t *testing.T) {
	reg := NewRegistry()
	_, err := CreateCloud(reg, MapDef{Type: TypeHash})
	require.Error(t, err)
}

func TestHashMapResizeGrowsAndPreservesEntries(t *testing.T) {
	m, err := NewHashMap[profile.Cloud](MapDef{Type: TypeHash, KeySize: 4, ValueSize: 4, MaxEntries: 4})
	require.NoError(t, err)

	for i := uint32(0); i < 6; i++ {
		key := make([]byte, 4)
		binary.LittleEndian.PutUint32(key, i)
		require.NoError(t, m.Update(key, key, FlagAny))
	}

	require.NoError(t, m.Resize(64))

	for i := uint32(0); i < 6; i++ {
		key := make([]byte, 4)
		binary.LittleEndian.PutUint32(key, i)
		v, ok := m.Lookup(key)
		require.True(t, ok)
		require.Equal(t, key, v)
	}
}

func TestRegistryResizeRejectsNonResizableMap(t *testing.T) {
	reg := NewRegistry()
	h, err := Create[profile.Cloud](reg, MapDef{Type: TypeRingBuf, ValueSize: 4, MaxEntries: 4})
	require.NoError(t, err)
	require.Error(t, reg.Resize(h.ID, 16))
}

func TestRegistryResizeGrowsHashMap(t *testing.T) {
	reg := NewRegistry()
	h, err := Create[profile.Cloud](reg, MapDef{Type: TypeHash, KeySize: 4, ValueSize: 4, MaxEntries: 4})
	require.NoError(t, err)
	require.NoError(t, reg.Resize(h.ID, 64))
}
