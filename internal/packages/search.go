package packages

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// ClosestName suggests the record name nearest to query when a search finds
// nothing. Names are compared segment by segment ("com.facebook.katana" is
// scored on "com", "facebook" and "katana") so a short query can still match
// a long identifier. ok is false when nothing is close enough.
func ClosestName(records []Record, query string) (name string, ok bool) {
	if query == "" || len(records) == 0 {
		return "", false
	}
	q := strings.ToLower(query)
	best := -1
	for _, r := range records {
		d := segmentDistance(strings.ToLower(r.Name), q)
		if best < 0 || d < best {
			best, name = d, r.Name
		}
	}
	limit := len(q) / 2
	if limit < 1 {
		limit = 1
	}
	if best > limit {
		return "", false
	}
	return name, true
}

func segmentDistance(name, q string) int {
	best := levenshtein.ComputeDistance(name, q)
	for _, seg := range strings.Split(name, ".") {
		if d := levenshtein.ComputeDistance(seg, q); d < best {
			best = d
		}
	}
	return best
}
