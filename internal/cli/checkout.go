package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	vcserrors "github.com/mrz1836/vcsync/internal/errors"
	"github.com/mrz1836/vcsync/internal/vcs"
)

// AddCheckoutCommand registers `vcsync checkout`.
func AddCheckoutCommand(parent *cobra.Command, a *app) {
	var ref string

	cmd := &cobra.Command{
		Use:   "checkout <kind> <url> <path>",
		Short: "Create a working copy from an upstream location",
		Long: `Checkout creates a working copy of the given kind (git, svn, hg, bzr,
tar) at path from url. With --ref the new working copy is moved to that
reference after creation.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := vcs.ParseKind(args[0])
			if err != nil {
				return err
			}
			url, path := args[1], args[2]

			adapter, err := a.registry.New(cmd.Context(), kind, path, a.deps(kind))
			if err != nil {
				return err
			}
			if !adapter.Checkout(cmd.Context(), url, ref) {
				return fmt.Errorf("checkout of %s into %s: %w", url, path, vcserrors.ErrCommandFailed)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", path, adapter.Version(cmd.Context(), ""))
			return nil
		},
	}
	cmd.Flags().StringVar(&ref, "ref", "", "reference to move to after checkout")

	parent.AddCommand(cmd)
}
