//go:build !cloud && !embedded

package profile

// No profile build tag was supplied. The package still compiles (so that
// `go vet` and editors work), but init panics, so any binary or test run
// built without a tag stops at startup: every build must pass exactly one
// of -tags cloud or -tags embedded; mixing both tags is
// rejected at compile time by the duplicate `Active` declaration in
// active_cloud.go and active_embedded.go.
type Active = Embedded

func init() {
	panic("axiom-bpf: build with exactly one of -tags cloud or -tags embedded")
}
