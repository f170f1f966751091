//go:build cloud

package main

import (
	"github.com/sirupsen/logrus"

	"github.com/utkarshm/axiom-bpf/engine"
	"github.com/utkarshm/axiom-bpf/profile"
	"github.com/utkarshm/axiom-bpf/sched"
)

func newRuntime(log *logrus.Logger) Runtime {
	return engine.New[profile.Cloud](engine.Config[profile.Cloud]{
		Policy: sched.NewThroughputPolicy(),
		Log:    log,
	})
}

func profileName() string { return string(profile.NameCloud) }
