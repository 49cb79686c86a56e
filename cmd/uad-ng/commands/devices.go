package commands

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func devicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List attached devices and their user profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.adb.Available(ctx); err != nil {
				return err
			}
			devs, err := app.adb.Devices(ctx)
			if err != nil {
				return err
			}
			if len(devs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No device attached")
				return nil
			}

			t := newTable(cmd.OutOrStdout(), "Serial", "Model", "SDK", "Users", "Status")
			for _, d := range devs {
				status := "ready"
				if !d.Authorized {
					status = "unauthorized"
				}
				users := make([]string, 0, len(d.Users))
				for _, u := range d.Users {
					s := u.String()
					if u.Protected {
						s += " (protected)"
					}
					users = append(users, s)
				}
				t.AppendRow(table.Row{d.Serial, d.Model, d.AndroidSDK, strings.Join(users, ", "), status})
			}
			t.Render()
			return nil
		},
	}
}
