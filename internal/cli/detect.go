package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrz1836/vcsync/internal/vcs"
)

// AddDetectCommand registers `vcsync detect`.
func AddDetectCommand(parent *cobra.Command, _ *app) {
	cmd := &cobra.Command{
		Use:   "detect [path]",
		Short: "Print the VCS kind of a working copy",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) == 1 {
				path = args[0]
			}

			kind, err := vcs.DetectKind(path)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), kind)
			return nil
		},
	}
	parent.AddCommand(cmd)
}
