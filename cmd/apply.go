package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/rampart-sh/rampart/internal/config"
	"github.com/rampart-sh/rampart/internal/core"
	"github.com/rampart-sh/rampart/internal/state"
	"github.com/rampart-sh/rampart/internal/system"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply the hardening profile to this host",
	RunE: func(cmd *cobra.Command, args []string) error {
		profilePath, _ := rootCmd.PersistentFlags().GetString("profile")
		rootDir, _ := rootCmd.PersistentFlags().GetString("root")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		ctx, items, err := setup(profilePath, rootDir, dryRun)
		if err != nil {
			pterm.Error.Println(err)
			return err
		}

		if dryRun {
			pterm.Info.Println("Dry run: no changes will be made.")
		}
		pterm.DefaultHeader.Printf("Applying %s (%d operations)", profilePath, len(items))

		recorder := state.NewRecorder(state.NewHistoryManager(""), profilePath, "apply")
		engine := core.NewEngine(ctx, recorder)

		runErr := engine.Run(items)
		status := "success"
		if runErr != nil {
			status = "failed"
		}
		if !dryRun {
			if err := recorder.Commit(status); err != nil {
				pterm.Warning.Printf("failed to write history: %v\n", err)
			}
		}

		if runErr != nil {
			pterm.Error.Println("Apply aborted:", runErr)
			return runErr
		}
		pterm.Success.Println("Profile applied.")
		return nil
	},
}

// setup loads the profile, detects the host and enforces the privilege
// policy shared by apply and revert.
func setup(profilePath, rootDir string, dryRun bool) (*core.SystemContext, []core.PlanItem, error) {
	ctx := core.NewSystemContext(dryRun)
	if rootDir != "" {
		ctx.WithRoot(rootDir)
	}
	system.Detect(ctx)

	if err := system.RequireRoot(ctx); err != nil {
		return nil, nil, err
	}

	profile, err := config.LoadProfile(profilePath)
	if err != nil {
		return nil, nil, err
	}
	ctx.Vars = profile.Vars

	return ctx, profile.Items(), nil
}

func init() {
	rootCmd.AddCommand(applyCmd)
	applyCmd.Flags().BoolP("dry-run", "d", false, "report changes without applying them")
}
