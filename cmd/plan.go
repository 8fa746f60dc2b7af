package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/rampart-sh/rampart/internal/core"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Preview changes without applying them",
	Long:  `Checks every operation in the profile against the current system state and lists the ones that would change something.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		profilePath, _ := rootCmd.PersistentFlags().GetString("profile")
		rootDir, _ := rootCmd.PersistentFlags().GetString("root")

		spinner, _ := pterm.DefaultSpinner.Start("Loading profile and host facts...")
		ctx, items, err := setup(profilePath, rootDir, true)
		if err != nil {
			spinner.Fail(err.Error())
			return err
		}

		engine := core.NewEngine(ctx, nil)
		spinner.UpdateText("Calculating plan...")
		changes, err := engine.Plan(items)
		if err != nil {
			spinner.Fail("Planning failed: " + err.Error())
			return err
		}
		spinner.Success("Plan calculated")
		pterm.Println()

		if len(changes) == 0 {
			pterm.Info.Println("No changes detected. Host matches the profile.")
			return nil
		}

		pterm.Println(pterm.FgCyan.Sprint("The following operations would change the host:"))
		pterm.Println()
		for _, change := range changes {
			pterm.Printf("  %s %s %q\n",
				pterm.FgGreen.Sprint("~"),
				pterm.Bold.Sprint(change.Type),
				change.Name)
		}
		pterm.Println()
		pterm.DefaultSection.Printf("Plan: %d operation(s) pending.\n", len(changes))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(planCmd)
}
