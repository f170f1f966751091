// Command bpfctl loads, attaches and dispatches bpf programs against the
// core eBPF subsystem for whichever physical profile this binary was built
// with (cloud or embedded, selected by build tag).
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
