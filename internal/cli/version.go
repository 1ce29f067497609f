package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	vcserrors "github.com/mrz1836/vcsync/internal/errors"
)

// AddVersionCommand registers `vcsync version`.
func AddVersionCommand(parent *cobra.Command, a *app) {
	var spec string

	cmd := &cobra.Command{
		Use:   "version [path]",
		Short: "Print the identifier a working copy is at",
		Long: `Version prints the commit or revision identifier the working copy at
path (default ".") currently points to. With --spec the given symbolic
reference is resolved instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) == 1 {
				path = args[0]
			}

			adapter, err := a.adapterFor(cmd.Context(), path)
			if err != nil {
				return err
			}

			version := adapter.Version(cmd.Context(), spec)
			if version == "" {
				return fmt.Errorf("no version for %s: %w", path, vcserrors.ErrCommandFailed)
			}
			fmt.Fprintln(cmd.OutOrStdout(), version)
			return nil
		},
	}
	cmd.Flags().StringVar(&spec, "spec", "", "symbolic reference to resolve")

	parent.AddCommand(cmd)
}
