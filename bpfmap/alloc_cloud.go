//go:build cloud

package bpfmap

type heapAllocator struct{}

func (heapAllocator) Allocate(size int) []byte { return make([]byte, size) }

func init() { defaultAllocator = heapAllocator{} }
