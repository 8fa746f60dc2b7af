package cmd

import (
	"errors"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/rampart-sh/rampart/internal/core"
	"github.com/rampart-sh/rampart/internal/system"
)

var restoreCmd = &cobra.Command{
	Use:   "restore <path>",
	Short: "Restore a single file from its latest backup artifact",
	Long: `Finds the newest <path>.bak_<timestamp> artifact next to the file and
copies it over the live file. Older artifacts are kept.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		rootDir, _ := rootCmd.PersistentFlags().GetString("root")

		ctx := core.NewSystemContext(false)
		if rootDir != "" {
			ctx.WithRoot(rootDir)
		}
		if err := system.RequireRoot(ctx); err != nil {
			pterm.Error.Println(err)
			return err
		}

		if err := core.Restore(ctx, path); err != nil {
			if errors.Is(err, core.ErrNoBackup) {
				pterm.Error.Printf("no backup artifact found for %s\n", ctx.Path(path))
			} else {
				pterm.Error.Println(err)
			}
			return err
		}

		latest, _ := core.LatestBackup(ctx.FS, path)
		pterm.Success.Printf("restored %s from %s\n", ctx.Path(path), latest)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(restoreCmd)
}
