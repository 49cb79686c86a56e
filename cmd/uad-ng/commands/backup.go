package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func backupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Manage package state backups",
	}
	cmd.AddCommand(backupListCmd(), backupCreateCmd(), backupDeleteCmd())
	return cmd
}

func backupListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List backups of the connected device",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.adb.Available(ctx); err != nil {
				return err
			}
			dev, err := app.adb.Discover(ctx, app.cfg.ADB.Serial)
			if err != nil {
				return err
			}
			list, err := app.backups.List(ctx, dev.Serial)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No backup for %s\n", dev)
				return nil
			}
			t := newTable(cmd.OutOrStdout(), "ID", "Created", "Model", "Entries")
			for _, b := range list {
				t.AppendRow(table.Row{b.ID, b.CreatedAt.Local().Format("2006-01-02 15:04"), b.Model, b.Entries})
			}
			t.Render()
			return nil
		},
	}
}

func backupCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Save the current package states of the connected device",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			dev, res, err := loadDevice(ctx, true)
			if err != nil {
				return err
			}
			st, err := app.loader.Enumerate(ctx, res.Catalog, dev)
			if err != nil {
				return err
			}
			b, err := app.backups.Create(ctx, st, dev)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backup %s saved (%d packages)\n", b.ID, b.Entries)
			return nil
		},
	}
}

func backupDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.backups.Repo.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backup %s deleted\n", args[0])
			return nil
		},
	}
}
