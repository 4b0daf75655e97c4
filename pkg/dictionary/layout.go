package dictionary

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Sternrassler/catalog-crawler/pkg/record"
)

// ErrAmbiguousLayout is returned by DetectMode when some but not all
// locale directories exist under the source root.
var ErrAmbiguousLayout = errors.New("ambiguous store layout")

// Mode selects how the store is read.
type Mode string

const (
	// ModeAuto detects the layout from the source root.
	ModeAuto Mode = "auto"

	// ModeSplit reads one directory per locale and joins rows by ID.
	ModeSplit Mode = "split"

	// ModeCombined reads rows that carry every locale as suffixed fields.
	ModeCombined Mode = "combined"
)

// ParseMode converts a string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeAuto:
		return ModeAuto, nil
	case ModeSplit:
		return ModeSplit, nil
	case ModeCombined:
		return ModeCombined, nil
	default:
		return "", fmt.Errorf("unknown layout %q (want auto, split or combined)", s)
	}
}

// DetectMode inspects root once: split when every locale directory
// exists, combined when none does, ErrAmbiguousLayout otherwise.
func DetectMode(root string) (Mode, error) {
	info, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("source root: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("source root %s is not a directory", root)
	}

	var present, missing []string
	for _, loc := range record.Locales {
		if isDir(filepath.Join(root, string(loc))) {
			present = append(present, string(loc))
		} else {
			missing = append(missing, string(loc))
		}
	}

	switch {
	case len(missing) == 0:
		return ModeSplit, nil
	case len(present) == 0:
		return ModeCombined, nil
	default:
		return "", fmt.Errorf("%w: found %s but not %s under %s (set the layout explicitly)",
			ErrAmbiguousLayout, strings.Join(present, ","), strings.Join(missing, ","), root)
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
