//go:build embedded

package bpfmap

func init() { defaultAllocator = NewStaticPool(DefaultPoolSize) }
