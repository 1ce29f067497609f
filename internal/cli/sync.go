package cli

import (
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mrz1836/vcsync/internal/constants"
	vcserrors "github.com/mrz1836/vcsync/internal/errors"
	"github.com/mrz1836/vcsync/internal/workspace"
)

// AddSyncCommand registers `vcsync sync`.
func AddSyncCommand(parent *cobra.Command, a *app) {
	var jobs int

	cmd := &cobra.Command{
		Use:   "sync [manifest]",
		Short: "Synchronize every repository in a workspace manifest",
		Long: `Sync reads a workspace manifest (default "` + constants.ManifestFileName + `")
and brings every listed repository to its requested state: existing working
copies are updated, missing ones checked out. Repositories are processed in
parallel and individual failures do not stop the batch.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manifestPath := constants.ManifestFileName
			if len(args) == 1 {
				manifestPath = args[0]
			}

			manifest, err := workspace.Load(manifestPath)
			if err != nil {
				return err
			}

			if jobs <= 0 {
				jobs = a.cfg.Jobs
			}
			root := filepath.Dir(manifestPath)
			syncer := workspace.NewSyncer(root, a.registry, a.deps, jobs, a.logger)

			report, err := syncer.Sync(cmd.Context(), manifest)
			if err != nil {
				return err
			}

			printReport(cmd, report)
			if !report.OK() {
				return fmt.Errorf("%d of %d repositories failed: %w",
					len(report.Failed()), len(report.Results), vcserrors.ErrCommandFailed)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "parallel repositories (default from config)")

	parent.AddCommand(cmd)
}

// printReport writes one line per repository.
func printReport(cmd *cobra.Command, report *workspace.Report) {
	out := cmd.OutOrStdout()
	for _, res := range report.Results {
		switch {
		case res.OK:
			fmt.Fprintf(out, "%s  %-8s  %s  %s\n", color.GreenString("ok  "), res.Action, res.Path, res.Version)
		case res.Err != nil:
			fmt.Fprintf(out, "%s  %-8s  %s  %v\n", color.RedString("fail"), res.Action, res.Path, res.Err)
		default:
			fmt.Fprintf(out, "%s  %-8s  %s\n", color.RedString("fail"), res.Action, res.Path)
		}
	}
}
