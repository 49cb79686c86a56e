package testdata

import (
	"fmt"

	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/catalog"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/device"
	"github.com/system-detox/universal-android-debloater-next-generation-electrolyzed/internal/packages"
)

// Fleet is a synthetic device together with the catalog and package lists
// that describe it.
type Fleet struct {
	Catalog catalog.Catalog
	Device  device.Device
	Lists   []packages.UserPackages
}

// Store builds the record store for the fleet.
func (f Fleet) Store() *packages.Store {
	return packages.Build(f.Catalog, f.Lists)
}

// PackageID is the identifier of the i-th generated package. Identifiers sort
// in generation order.
func PackageID(i int) string {
	return fmt.Sprintf("com.example.pkg%05d", i)
}

// Generate produces n packages on a device with the given number of users.
//
// Every fourth package (i%4 == 3) is left out of the catalog. Listed packages
// cycle through Recommended, Advanced and Unsafe by i%3 and through the named
// origin lists. For user u, package i is Disabled when (i+u)%5 == 0 and
// Enabled otherwise.
func Generate(n, users int) Fleet {
	if users < 1 {
		users = 1
	}
	origins := catalog.ListFilters[1 : len(catalog.ListFilters)-1]

	cat := make(catalog.Catalog, n)
	for i := 0; i < n; i++ {
		if i%4 == 3 {
			continue
		}
		cat[PackageID(i)] = catalog.Entry{
			List:        origins[i%len(origins)],
			Description: fmt.Sprintf("Generated package %d", i),
			Removal:     catalog.Categories[i%3],
		}
	}

	dev := device.Device{
		Serial:     "synthetic-0001",
		Model:      "Generated",
		AndroidSDK: 30,
		Authorized: true,
	}
	lists := make([]packages.UserPackages, 0, users)
	for u := 0; u < users; u++ {
		user := device.User{Index: u, ID: userID(u), Implicit: users == 1}
		dev.Users = append(dev.Users, user)

		states := make(map[string]packages.State, n)
		for i := 0; i < n; i++ {
			st := packages.Enabled
			if (i+u)%5 == 0 {
				st = packages.Disabled
			}
			states[PackageID(i)] = st
		}
		lists = append(lists, packages.UserPackages{User: user, States: states})
	}
	return Fleet{Catalog: cat, Device: dev, Lists: lists}
}

// Secondary profiles start at 10 on real devices.
func userID(u int) int {
	if u == 0 {
		return 0
	}
	return 9 + u
}
