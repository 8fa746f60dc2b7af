package cmd

import (
	"log/slog"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	// Register operation types.
	_ "github.com/rampart-sh/rampart/internal/adapters/account"
	_ "github.com/rampart-sh/rampart/internal/adapters/file"
	_ "github.com/rampart-sh/rampart/internal/adapters/service"
	_ "github.com/rampart-sh/rampart/internal/adapters/shell"
	_ "github.com/rampart-sh/rampart/internal/adapters/sysctl"
)

// commandRan distinguishes parse failures (unknown flag or command) from
// failures inside a command body, which report themselves.
var commandRan bool

var rootCmd = &cobra.Command{
	Use:           "rampart",
	Short:         "Apply and revert RHEL security hardening profiles",
	Long:          `Rampart applies ordered hardening profiles to a single host, taking a timestamped backup of every file it touches, and reverts them from those backups.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		commandRan = true
	},
}

func Execute() error {
	cmd, err := rootCmd.ExecuteC()
	if err != nil && !commandRan {
		pterm.Error.Println(err)
		pterm.Println(cmd.UsageString())
	}
	return err
}

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))

	rootCmd.PersistentFlags().StringP("profile", "p", "rampart.yaml", "profile file path")
	rootCmd.PersistentFlags().String("root", "", "alternate root directory (testing, image builds)")
}
