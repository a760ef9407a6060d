package main

import (
	"fmt"
	"strings"

	"github.com/sarchlab/verikit/dut"
	"github.com/sarchlab/verikit/protocol"
	"github.com/spf13/cobra"
)

func newProtocolsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "protocols",
		Short: "List the protocols and the faults that can be injected.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			for _, name := range protocol.Names() {
				k, err := protocol.Lookup(name)
				if err != nil {
					return err
				}

				fmt.Fprintf(out, "%s\t%s\n", k.Name, k.Description)

				spec := k.DefaultSpec()
				for _, f := range spec.Fields() {
					fmt.Fprintf(out, "\trand %s in %s\n", f.Name, f.Domain)
				}

				for _, c := range spec.Constraints() {
					fmt.Fprintf(out, "\tconstraint %s\n", c.Name)
				}
			}

			fmt.Fprintf(out, "faults: %s\n", strings.Join(dut.FaultNames(), ", "))

			return nil
		},
	}
}
