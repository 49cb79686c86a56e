package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/catalog"
)

func catalogCmd() *cobra.Command {
	var offline bool
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Refresh the package lists and show where they came from",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			res := app.catalog.Resolve(ctx, app.cfg.Catalog.Remote && !offline)

			counts := map[catalog.Removal]int{}
			for _, e := range res.Catalog {
				counts[e.Removal]++
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Source: %s\n", res.Source)
			if at, err := app.cache.FetchedAt(ctx); err == nil && at != nil {
				fmt.Fprintf(out, "Cached copy from: %s\n", at.Local().Format("2006-01-02 15:04"))
			}
			t := newTable(out, "Removal", "Packages")
			for _, r := range catalog.Categories {
				t.AppendRow(table.Row{r, counts[r]})
			}
			t.AppendFooter(table.Row{"Total", len(res.Catalog)})
			t.Render()
			return nil
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "skip the download and use the cached or embedded lists")
	return cmd
}
