//go:build cloud

package profile

// Active is the profile selected by this build. Exactly one of the `cloud`
// or `embedded` build tags must be passed to `go build`/`go test`.
type Active = Cloud
