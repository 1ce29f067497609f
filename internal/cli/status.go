package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// AddStatusCommand registers `vcsync status`.
func AddStatusCommand(parent *cobra.Command, a *app) {
	var (
		untracked bool
		basepath  string
	)

	cmd := &cobra.Command{
		Use:   "status [path]",
		Short: "Show local modifications in a working copy",
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

			out := adapter.Status(cmd.Context(), basepath, untracked)
			if out == "" {
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), colorizeStatus(out))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&untracked, "untracked", "u", false, "include untracked files")
	cmd.Flags().StringVar(&basepath, "basepath", "", "report paths relative to this directory")

	parent.AddCommand(cmd)
}

// colorizeStatus highlights status lines by their change class. fatih/color
// degrades to plain text automatically when stdout is not a terminal.
func colorizeStatus(out string) string {
	lines := strings.Split(out, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "?"):
			lines[i] = color.CyanString("%s", line)
		case strings.HasPrefix(trimmed, "D"):
			lines[i] = color.RedString("%s", line)
		case trimmed != "":
			lines[i] = color.YellowString("%s", line)
		}
	}
	return strings.Join(lines, "\n")
}
