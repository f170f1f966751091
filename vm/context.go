// Package vm implements the fetch/decode/dispatch interpreter that executes
// verified programs, plus the helper table programs call into.
package vm

// Context is the byte region and optional metadata pointer presented to a
// program at dispatch. Data and Meta are owned by the event source for the
// duration of a single dispatch; the interpreter never retains a reference
// past Run returning.
type Context struct {
	Data []byte
	Meta []byte
}

// DataLen is the accessible length of the context's primary data region,
// data_end - data in the source material's terms.
func (c *Context) DataLen() int {
	return len(c.Data)
}

// NewContext wraps a raw event byte slice with no metadata.
func NewContext(data []byte) *Context {
	return &Context{Data: data}
}

// NewContextWithMeta wraps a raw event byte slice plus an auxiliary
// metadata region (e.g. packet headers parsed out-of-band).
func NewContextWithMeta(data, meta []byte) *Context {
	return &Context{Data: data, Meta: meta}
}
