package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/veesix-networks/osvrouter/pkg/config"
)

func newValidateCmd() *cobra.Command {
	var showDefault bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration and print the connected routes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			var cfg *config.Config
			if showDefault {
				cfg = config.Default()
			} else {
				var err error
				if cfg, err = config.Load(configPath); err != nil {
					return err
				}
			}

			parsed, err := cfg.ParseInterfaces()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PREFIX\tPORT\tADDRESS\tMAC\tNAME")
			for _, p := range parsed {
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n", p.Prefix, p.Port, p.Address, p.MAC, p.Name)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "configuration OK: %d routes, transport %s\n", len(parsed), cfg.Dataplane.Transport)
			return nil
		},
	}

	cmd.Flags().BoolVar(&showDefault, "default", false, "Validate the built-in three-subnet configuration instead of --config")
	return cmd
}
