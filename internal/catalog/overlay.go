package catalog

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// OverlayFile is a local YAML document that adds or reclassifies packages
// on top of whatever catalog source was loaded.
//
//	packages:
//	  com.vendor.tracker:
//	    list: Oem
//	    removal: Recommended
//	    description: Vendor telemetry
type OverlayFile struct {
	Packages map[string]OverlayEntry `yaml:"packages"`
}

type OverlayEntry struct {
	List         string   `yaml:"list"`
	Removal      string   `yaml:"removal"`
	Description  string   `yaml:"description"`
	Dependencies []string `yaml:"dependencies"`
	NeededBy     []string `yaml:"needed_by"`
	Labels       []string `yaml:"labels"`
}

// LoadOverlay reads an overlay file. A missing file yields an empty overlay.
func LoadOverlay(path string) (OverlayFile, error) {
	var o OverlayFile
	if path == "" {
		return o, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return o, nil
	}
	if err != nil {
		return o, fmt.Errorf("read overlay: %w", err)
	}
	if err := yaml.Unmarshal(data, &o); err != nil {
		return o, fmt.Errorf("parse overlay %s: %w", path, err)
	}
	return o, nil
}

// Apply merges the overlay into c and returns the number of entries touched.
// Fields left blank in the overlay keep the catalog's value.
func (o OverlayFile) Apply(c Catalog) int {
	n := 0
	for id, oe := range o.Packages {
		e, ok := c[id]
		if !ok {
			e = Entry{List: ListUnlisted, Removal: Unlisted}
		}
		if oe.List != "" {
			e.List = List(oe.List)
		}
		if oe.Removal != "" {
			e.Removal = ParseRemoval(oe.Removal)
			if e.Removal == RemovalAll {
				e.Removal = Unlisted
			}
		}
		if oe.Description != "" {
			e.Description = oe.Description
		}
		if len(oe.Dependencies) > 0 {
			e.Dependencies = oe.Dependencies
		}
		if len(oe.NeededBy) > 0 {
			e.NeededBy = oe.NeededBy
		}
		if len(oe.Labels) > 0 {
			e.Labels = oe.Labels
		}
		c[id] = e
		n++
	}
	return n
}
