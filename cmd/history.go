package cmd

import (
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/rampart-sh/rampart/internal/state"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View apply/revert history",
	RunE: func(cmd *cobra.Command, args []string) error {
		hm := state.NewHistoryManager("")
		history, err := hm.Load()
		if err != nil {
			pterm.Error.Println("Failed to load history:", err)
			return err
		}

		if len(history) == 0 {
			pterm.Info.Println("No history found.")
			return nil
		}

		pterm.DefaultHeader.Println("Transaction History")

		tableData := [][]string{{"ID", "Date", "Mode", "Status", "Changes"}}

		// Latest first.
		for i := len(history) - 1; i >= 0; i-- {
			tx := history[i]
			t, _ := time.Parse(time.RFC3339, tx.Timestamp)
			dateStr := t.Format("2006-01-02 15:04:05")

			statusStyle := pterm.NewStyle(pterm.FgGreen)
			if tx.Status == "failed" {
				statusStyle = pterm.NewStyle(pterm.FgRed)
			}

			tableData = append(tableData, []string{
				tx.ID,
				dateStr,
				tx.Mode,
				statusStyle.Sprint(tx.Status),
				fmt.Sprintf("%d", len(tx.Changes)),
			})
		}

		return pterm.DefaultTable.WithHasHeader().WithData(tableData).Render()
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
}
