package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	vcserrors "github.com/mrz1836/vcsync/internal/errors"
)

// AddUpdateCommand registers `vcsync update`.
func AddUpdateCommand(parent *cobra.Command, a *app) {
	var ref string

	cmd := &cobra.Command{
		Use:   "update [path]",
		Short: "Move an existing working copy to a reference",
		Long: `Update moves the working copy at path (default ".") to --ref. Without
--ref the working copy is reconciled with its tracked upstream where the
backend supports tracking. The move is refused when it would orphan the
current commit.`,
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
			if !adapter.Update(cmd.Context(), ref) {
				return fmt.Errorf("update of %s: %w", path, vcserrors.ErrCommandFailed)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", path, adapter.Version(cmd.Context(), ""))
			return nil
		},
	}
	cmd.Flags().StringVar(&ref, "ref", "", "reference to move to (default: tracked upstream)")

	parent.AddCommand(cmd)
}
