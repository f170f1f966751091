//go:build cloud

package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/utkarshm/axiom-bpf/bpfmap"
)

func TestMapResizeAllowedOnCloud(t *testing.T) {
	k := newTestKernel(t)
	h, err := k.MapCreate(bpfmap.MapDef{Type: bpfmap.TypeHash, KeySize: 8, ValueSize: 8, MaxEntries: 4})
	require.NoError(t, err)
	require.NoError(t, k.MapResize(h.ID, 1024))
}
