package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var logLevel string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bpfctl",
		Short: "Load, attach and dispatch bpf programs against the " + profileName() + " profile",
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	cmd.AddCommand(newDemoCmd(), newMapCmd())
	return cmd
}

func newLogger() *logrus.Logger {
	log := logrus.New()
	lvl, err := logrus.ParseLevel(logLevel)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}

// Execute runs the bpfctl CLI, returning the first command error.
func Execute() error {
	return newRootCmd().Execute()
}
