package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/catalog"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/device"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/packages"
)

type filterFlags struct {
	user    int
	state   string
	removal string
	list    string
	search  string
}

// criteria turns flags into filter criteria for st. user is an Android user
// id; a negative id means the first user.
func (f filterFlags) criteria(st *packages.Store) (packages.Criteria, error) {
	c := packages.DefaultCriteria()

	state, ok := packages.ParseState(f.state)
	if !ok {
		return c, fmt.Errorf("unknown state %q (want enabled, disabled, uninstalled or all)", f.state)
	}
	c.State = state

	if f.removal != "" {
		c.Removal = catalog.ParseRemoval(f.removal)
		if c.Removal == catalog.Unlisted && !strings.EqualFold(f.removal, "unlisted") {
			return c, fmt.Errorf("unknown removal %q", f.removal)
		}
	}

	list, err := parseList(f.list)
	if err != nil {
		return c, err
	}
	c.List = list
	c.Search = f.search

	if f.user >= 0 {
		found := false
		for u := 0; u < st.UserCount(); u++ {
			if st.User(u).ID == f.user {
				c.User, found = u, true
				break
			}
		}
		if !found {
			return c, fmt.Errorf("device has no user %d", f.user)
		}
	}
	return c, nil
}

func parseList(s string) (catalog.List, error) {
	if s == "" {
		return catalog.ListAll, nil
	}
	for _, l := range catalog.ListFilters {
		if strings.EqualFold(string(l), s) {
			return l, nil
		}
	}
	return "", fmt.Errorf("unknown list %q", s)
}

func packagesCmd() *cobra.Command {
	var (
		f       filterFlags
		offline bool
	)
	cmd := &cobra.Command{
		Use:   "packages",
		Short: "List the device's packages with their classification",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			dev, res, err := loadDevice(ctx, offline)
			if err != nil {
				return err
			}
			if res.Degraded {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: package lists could not be downloaded, using the %s copy\n", res.Source)
			}

			st, err := app.loader.Enumerate(ctx, res.Catalog, dev)
			if err != nil {
				return err
			}
			c, err := f.criteria(st)
			if err != nil {
				return err
			}
			if !st.Available(c.User) {
				return fmt.Errorf("%s: %w", st.User(c.User), st.Err(c.User))
			}

			records := st.Records(c.User)
			visible := packages.Recompute(c, records)
			out := cmd.OutOrStdout()
			if len(visible) == 0 {
				fmt.Fprintln(out, "No packages match the current filters")
				if name, ok := packages.ClosestName(records, c.Search); ok {
					fmt.Fprintf(out, "Did you mean %s?\n", name)
				}
				return nil
			}

			t := newTable(out, "Package", "Removal", "List", "State")
			for _, p := range visible {
				r := records[p]
				t.AppendRow(table.Row{r.Name, r.Removal, r.List, r.State})
			}
			t.AppendFooter(table.Row{fmt.Sprintf("%d of %d", len(visible), len(records)), "", "", st.User(c.User)})
			t.Render()
			return nil
		},
	}
	cmd.Flags().IntVarP(&f.user, "user", "u", -1, "Android user id (default: first user)")
	cmd.Flags().StringVar(&f.state, "state", "all", "enabled, disabled, uninstalled or all")
	cmd.Flags().StringVar(&f.removal, "removal", "", "recommended, advanced, unsafe, unlisted or all")
	cmd.Flags().StringVar(&f.list, "list", "", "origin list (aosp, carrier, google, misc, oem, pending, unlisted)")
	cmd.Flags().StringVar(&f.search, "search", "", "case-sensitive package name substring")
	cmd.Flags().BoolVar(&offline, "offline", false, "do not download the package lists")
	return cmd
}

// loadDevice discovers and binds the device and resolves the catalog.
func loadDevice(ctx context.Context, offline bool) (device.Device, catalog.Result, error) {
	if err := app.adb.Available(ctx); err != nil {
		return device.Device{}, catalog.Result{}, err
	}
	dev, err := app.adb.Discover(ctx, app.cfg.ADB.Serial)
	if err != nil {
		return device.Device{}, catalog.Result{}, err
	}
	res := app.catalog.Resolve(ctx, app.cfg.Catalog.Remote && !offline)
	app.adb.Bind(dev.Serial)
	return dev, res, nil
}
