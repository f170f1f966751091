//go:build embedded

package main

import (
	"github.com/sirupsen/logrus"

	"github.com/utkarshm/axiom-bpf/engine"
	"github.com/utkarshm/axiom-bpf/profile"
	"github.com/utkarshm/axiom-bpf/sched"
)

func newRuntime(log *logrus.Logger) Runtime {
	return engine.New[profile.Embedded](engine.Config[profile.Embedded]{
		Policy: sched.NewDeadlinePolicy(),
		Log:    log,
	})
}

func profileName() string { return string(profile.NameEmbedded) }
