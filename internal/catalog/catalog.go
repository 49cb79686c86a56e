package catalog

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Removal is the catalog-assigned risk tier of a package.
type Removal int

const (
	Recommended Removal = iota
	Advanced
	Unsafe
	Unlisted
	// RemovalAll is the filter wildcard; it is never stored on a record.
	RemovalAll
)

// Categories are the removal tiers a package can carry, in display order.
var Categories = []Removal{Recommended, Advanced, Unsafe, Unlisted}

// RemovalFilters is the cycle order used by the removal filter.
var RemovalFilters = []Removal{RemovalAll, Recommended, Advanced, Unsafe, Unlisted}

func (r Removal) String() string {
	switch r {
	case Recommended:
		return "Recommended"
	case Advanced:
		return "Advanced"
	case Unsafe:
		return "Unsafe"
	case Unlisted:
		return "Unlisted"
	case RemovalAll:
		return "All"
	}
	return "Unlisted"
}

// ParseRemoval maps catalog text to a Removal. Unknown values are Unlisted.
func ParseRemoval(s string) Removal {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "recommended":
		return Recommended
	case "advanced":
		return Advanced
	case "unsafe":
		return Unsafe
	case "all":
		return RemovalAll
	}
	return Unlisted
}

func (r Removal) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *Removal) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("removal: %w", err)
	}
	*r = ParseRemoval(s)
	if *r == RemovalAll {
		*r = Unlisted
	}
	return nil
}

// List is the provenance tag of a package (which curated list it comes from).
type List string

const (
	ListAll      List = "All"
	ListAosp     List = "Aosp"
	ListCarrier  List = "Carrier"
	ListGoogle   List = "Google"
	ListMisc     List = "Misc"
	ListOem      List = "Oem"
	ListPending  List = "Pending"
	ListUnlisted List = "Unlisted"
)

// ListFilters is the cycle order used by the origin list filter.
var ListFilters = []List{ListAll, ListAosp, ListCarrier, ListGoogle, ListMisc, ListOem, ListPending, ListUnlisted}

// Entry is the classification of a single package identifier.
type Entry struct {
	List         List     `json:"list" yaml:"list"`
	Description  string   `json:"description" yaml:"description"`
	Dependencies []string `json:"dependencies" yaml:"dependencies"`
	NeededBy     []string `json:"neededBy" yaml:"needed_by"`
	Labels       []string `json:"labels" yaml:"labels"`
	Removal      Removal  `json:"removal" yaml:"-"`
}

// Catalog maps package identifiers to their classification.
type Catalog map[string]Entry

// Lookup returns the entry for id. Packages the catalog does not know are
// reported as Unlisted on the Unlisted list.
func (c Catalog) Lookup(id string) (Entry, bool) {
	if e, ok := c[id]; ok {
		return e, true
	}
	return Entry{List: ListUnlisted, Removal: Unlisted}, false
}

// Decode parses the uad_lists.json document format.
func Decode(data []byte) (Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if len(c) == 0 {
		return nil, fmt.Errorf("decode catalog: no packages")
	}
	var present map[string]struct {
		Removal *json.RawMessage `json:"removal"`
	}
	if err := json.Unmarshal(data, &present); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	for id, e := range c {
		if e.List == "" {
			e.List = ListUnlisted
		}
		// A missing removal is as unknown as an unrecognised one.
		if present[id].Removal == nil {
			e.Removal = Unlisted
		}
		c[id] = e
	}
	return c, nil
}
