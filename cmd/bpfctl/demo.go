package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/utkarshm/axiom-bpf/bpfmap"
	"github.com/utkarshm/axiom-bpf/bytecode"
)

func newDemoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run one of the built-in end-to-end scenarios",
	}
	cmd.AddCommand(
		newDemoScenarioCmd("minimal-return", bytecode.ProgTypeUnspec, scenarioMinimalReturn, nil),
		newDemoScenarioCmd("arithmetic", bytecode.ProgTypeUnspec, scenarioArithmetic, nil),
		newDemoScenarioCmd("bounded-loop", bytecode.ProgTypeUnspec, scenarioBoundedLoop, nil),
		newDemoScenarioCmd("division-by-zero", bytecode.ProgTypeUnspec, scenarioDivisionByZero, nil),
		newDemoScenarioCmd("gpio-filter", bytecode.ProgTypeGPIO, scenarioGpioFilter, gpioFilterContext),
		newHashMapDemoCmd(),
	)
	return cmd
}

func gpioFilterContext() []byte {
	data := make([]byte, 24)
	data[12] = 17 // line field matches the filter
	return data
}

// newDemoScenarioCmd wires one fixed instruction sequence into load + verify
// + a synchronous run, printing the result or the error it terminated with.
func newDemoScenarioCmd(name string, progType bytecode.ProgType, build func() []bytecode.Instruction, ctx func() []byte) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: "Run the " + name + " scenario",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := newRuntime(newLogger())
			id, err := rt.Load(progType, build())
			if err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "load rejected: %v\n", err)
				return nil
			}
			var ctxBytes []byte
			if ctx != nil {
				ctxBytes = ctx()
			}
			res, err := rt.RunSync(id, ctxBytes)
			if err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "execution error: %v\n", err)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "r0=%d steps=%d\n", res.R0, res.Steps)
			return nil
		},
	}
}

func newHashMapDemoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hashmap-roundtrip",
		Short: "Create a hash map, update a key, then dispatch a program that looks it up",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := newRuntime(newLogger())
			h, err := rt.MapCreate(bpfmap.MapDef{
				Type: bpfmap.TypeHash, KeySize: 8, ValueSize: 8, MaxEntries: 1024,
			})
			if err != nil {
				return err
			}
			id, err := rt.Load(bytecode.ProgTypeUnspec, scenarioHashMapRoundTrip(uint64(h.ID)))
			if err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "load rejected: %v\n", err)
				return nil
			}
			res, err := rt.RunSync(id, nil)
			if err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "execution error: %v\n", err)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "r0=0x%x (expect 0xaaaaaaaa)\n", res.R0)
			return nil
		},
	}
}
