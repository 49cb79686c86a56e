package commands

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func journalCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Show recently executed device commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			entries, err := app.journal.Recent(ctx, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "Journal is empty")
				return nil
			}
			t := newTable(out, "Time", "Device", "User", "Command", "Result")
			for _, e := range entries {
				result := "ok"
				if !e.Success {
					result = e.Error
				}
				t.AppendRow(table.Row{e.CreatedAt.Local().Format("01-02 15:04:05"), e.Serial, e.UserID, e.Command, result})
			}
			t.Render()

			failed, err := app.journal.Failures(ctx, time.Now().Add(-24*time.Hour))
			if err == nil && failed > 0 {
				fmt.Fprintf(out, "%d command(s) failed in the last 24h\n", failed)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries")
	return cmd
}
