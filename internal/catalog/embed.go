package catalog

import (
	_ "embed"
)

//go:embed assets/uad_lists.json
var embedded []byte

// Embedded returns the snapshot compiled into the binary. It is the last
// fallback and is expected to always decode.
func Embedded() (Catalog, error) {
	return Decode(embedded)
}
