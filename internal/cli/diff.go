package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// AddDiffCommand registers `vcsync diff`.
func AddDiffCommand(parent *cobra.Command, a *app) {
	var basepath string

	cmd := &cobra.Command{
		Use:   "diff [path]",
		Short: "Show a unified diff of local modifications",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) == 1 {
				path = args[0]
			}

			adapter, err := a.adapterFor(cmd.Context(), path)
			if err != nil {
				return err
			}

			if out := adapter.Diff(cmd.Context(), basepath); out != "" {
				fmt.Fprintln(cmd.OutOrStdout(), out)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&basepath, "basepath", "", "express diff paths relative to this directory")

	parent.AddCommand(cmd)
}
