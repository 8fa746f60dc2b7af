package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/rampart-sh/rampart/internal/core"
	"github.com/rampart-sh/rampart/internal/state"
)

var revertCmd = &cobra.Command{
	Use:   "revert",
	Short: "Revert the hardening profile from the latest backups",
	Long: `Walks the profile in reverse order and runs every operation's revert body:
files are restored from their most recent backup artifact, service and
account toggles are inverted. Revert is a separate operator-invoked run;
apply never rolls back on its own.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		profilePath, _ := rootCmd.PersistentFlags().GetString("profile")
		rootDir, _ := rootCmd.PersistentFlags().GetString("root")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		ctx, items, err := setup(profilePath, rootDir, dryRun)
		if err != nil {
			pterm.Error.Println(err)
			return err
		}

		confirmed, _ := cmd.Flags().GetBool("yes")
		if !confirmed && !dryRun {
			pterm.Warning.Println("This will undo hardening changes on this host.")
			result, _ := pterm.DefaultInteractiveConfirm.Show("Continue?")
			if !result {
				pterm.Info.Println("Revert cancelled.")
				return nil
			}
		}

		pterm.DefaultHeader.Printf("Reverting %s (%d operations)", profilePath, len(items))

		recorder := state.NewRecorder(state.NewHistoryManager(""), profilePath, "revert")
		engine := core.NewEngine(ctx, recorder)

		runErr := engine.Revert(items)
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
			pterm.Error.Println("Revert aborted:", runErr)
			return runErr
		}
		pterm.Success.Println("Profile reverted.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(revertCmd)
	revertCmd.Flags().BoolP("dry-run", "d", false, "report reverts without running them")
	revertCmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")
}
