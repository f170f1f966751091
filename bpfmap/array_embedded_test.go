//go:build embedded

package bpfmap

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/utkarshm/axiom-bpf/profile"
)

func TestArrayMapUpdateLookupEmbedded(t *testing.T) {
	m, err := NewArrayMap[profile.Embedded](MapDef{Type: TypeArray, KeySize: 4, ValueSize: 4, MaxEntries: 4})
	require.NoError(t, err)

	key := []byte{1, 0, 0, 0}
	val := []byte{3, 3, 3, 3}
	require.NoError(t, m.Update(key, val, FlagAny))
	got, ok := m.Lookup(key)
	require.True(t, ok)
	require.Equal(t, val, got)
}

// TestArrayMapCreateRejectsOverMemoryBudget exercises the embedded-only
// memory-budget check: a map whose worst-case footprint exceeds the
// profile's fixed allocation budget is rejected at creation rather than
// allowed to exhaust the static pool.
func TestArrayMapCreateRejectsOverMemoryBudget(t *testing.T) {
	var p profile.Embedded
	budget := p.MemoryBudget()
	require.Greater(t, budget, 0)

	def := MapDef{Type: TypeArray, KeySize: 4, ValueSize: 4, MaxEntries: uint32(budget)/4 + 1024}
	_, err := NewArrayMap[profile.Embedded](def)
	require.Error(t, err)
}
