package dictionary

import (
	"errors"
	"path/filepath"
	"strings"
)

// ErrNotList is returned when a dictionary artifact is not a flat list of objects.
var ErrNotList = errors.New("dictionary is not a flat list")

// DedupeByEnglish keeps the first entry for every distinct lowercase,
// trimmed en name. Entries without an en name are dropped.
func DedupeByEnglish(entries []Entry) Dictionary {
	seen := make(map[string]struct{}, len(entries))
	out := make(Dictionary, 0, len(entries))
	for _, e := range entries {
		name := strings.ToLower(strings.TrimSpace(e.EN))
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, e)
	}
	return out
}

// DedupedPath returns the sibling artifact path for in, e.g.
// public/dictionary.json -> public/dictionary.deduped.json.
func DedupedPath(in string) string {
	ext := filepath.Ext(in)
	return strings.TrimSuffix(in, ext) + ".deduped" + ext
}

// DedupeFile reads the artifact at in, dedupes it by en name and writes
// the result to out. It returns the entry counts before and after.
func DedupeFile(in, out string) (before, after int, err error) {
	entries, err := ReadFile(in)
	if err != nil {
		return 0, 0, err
	}
	deduped := DedupeByEnglish(entries)
	if err := WriteFile(out, deduped); err != nil {
		return len(entries), 0, err
	}
	return len(entries), len(deduped), nil
}
