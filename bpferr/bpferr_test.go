package bpferr_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/utkarshm/axiom-bpf/bpferr"
	"github.com/utkarshm/axiom-bpf/bpfmap"
	"github.com/utkarshm/axiom-bpf/sched"
	"github.com/utkarshm/axiom-bpf/vm"
)

func TestCategoryClassification(t *testing.T) {
	require.True(t, bpferr.Is(bpfmap.ErrKeyNotFound(), bpferr.CategoryMap))
	require.True(t, bpferr.Is(sched.ErrQueueFull(), bpferr.CategoryScheduling))
	require.True(t, bpferr.Is(vm.ErrTimeout(3), bpferr.CategoryExecution))

	require.False(t, bpferr.Is(bpfmap.ErrKeyNotFound(), bpferr.CategoryExecution))
}
