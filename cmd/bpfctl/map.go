package main

import (
	"encoding/binary"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/utkarshm/axiom-bpf/bpfmap"
)

func newMapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "map",
		Short: "Exercise map_create/update/lookup/delete against a fresh hash map",
	}
	cmd.AddCommand(newMapRoundtripCmd())
	return cmd
}

// newMapRoundtripCmd creates a hash map, updates one key, looks it up, then
// deletes it, printing the outcome of each step. A single process has
// nowhere to persist a map handle across separate CLI invocations, so the
// round trip runs as one command rather than four.
func newMapRoundtripCmd() *cobra.Command {
	var keyU64, valU64 uint64

	cmd := &cobra.Command{
		Use:   "roundtrip",
		Short: "Create a hash map and run update/lookup/delete against one key",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := newRuntime(newLogger())
			out := cmd.OutOrStdout()

			h, err := rt.MapCreate(bpfmap.MapDef{
				Type: bpfmap.TypeHash, KeySize: 8, ValueSize: 8, MaxEntries: 1024,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "created map id=%d\n", h.ID)

			key := make([]byte, 8)
			val := make([]byte, 8)
			binary.LittleEndian.PutUint64(key, keyU64)
			binary.LittleEndian.PutUint64(val, valU64)

			if err := rt.MapUpdate(h.ID, key, val, bpfmap.FlagAny); err != nil {
				return err
			}
			fmt.Fprintf(out, "update key=%d value=%d: ok\n", keyU64, valU64)

			got, ok := rt.MapLookup(h.ID, key)
			if !ok {
				fmt.Fprintf(out, "lookup key=%d: not found\n", keyU64)
			} else {
				fmt.Fprintf(out, "lookup key=%d: value=%d\n", keyU64, binary.LittleEndian.Uint64(got))
			}

			if err := rt.MapDelete(h.ID, key); err != nil {
				return err
			}
			fmt.Fprintf(out, "delete key=%d: ok\n", keyU64)

			if _, ok := rt.MapLookup(h.ID, key); ok {
				fmt.Fprintf(out, "lookup after delete: unexpectedly still present\n")
			} else {
				fmt.Fprintf(out, "lookup after delete: not found (expected)\n")
			}
			return nil
		},
	}
	cmd.Flags().Uint64Var(&keyU64, "key", 1, "8-byte key, encoded little-endian")
	cmd.Flags().Uint64Var(&valU64, "value", 0xaaaaaaaa, "8-byte value, encoded little-endian")
	return cmd
}
