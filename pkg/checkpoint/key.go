package checkpoint

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Key identifies the ledger of one crawl target.
type Key struct {
	// Pin is the catalog version the crawl is pinned to ("" for latest)
	Pin string

	// Root is the output directory of the store (optional)
	Root string
}

// String generates a deterministic Redis key.
// Format: catalog:checkpoint:<pin>[:root=<clean path>]
//
// Example:
//
//	catalog:checkpoint:7.31:root=data/full
func (k Key) String() string {
	pin := strings.TrimSpace(k.Pin)
	if pin == "" {
		pin = "latest"
	}
	parts := []string{"catalog", "checkpoint", pin}

	if root := strings.TrimSpace(k.Root); root != "" {
		parts = append(parts, fmt.Sprintf("root=%s", filepath.ToSlash(filepath.Clean(root))))
	}

	return strings.Join(parts, ":")
}
