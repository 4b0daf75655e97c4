// Package dictionary builds the deduplicated multilingual name dictionary
// from a sheet store and writes it as a JSON artifact.
package dictionary

import "strings"

// Entry is one dictionary row with a name per locale.
type Entry struct {
	EN string `json:"en"`
	DE string `json:"de"`
	FR string `json:"fr"`
}

// Dictionary is an ordered list of entries.
type Dictionary []Entry

// NewEntry builds an entry from per-locale names, backfilling each empty
// locale with the first non-empty name in en, de, fr order. It reports
// false when all three names are empty.
func NewEntry(en, de, fr string) (Entry, bool) {
	first := firstNonEmpty(en, de, fr)
	if first == "" {
		return Entry{}, false
	}
	return Entry{
		EN: orElse(en, first),
		DE: orElse(de, first),
		FR: orElse(fr, first),
	}, true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func orElse(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

// entryKey identifies entries regardless of case.
type entryKey struct {
	en, de, fr string
}

func keyOf(e Entry) entryKey {
	return entryKey{
		en: strings.ToLower(e.EN),
		de: strings.ToLower(e.DE),
		fr: strings.ToLower(e.FR),
	}
}

// collector appends entries in arrival order and drops repeats of an
// already seen key. One collector is owned by one build.
type collector struct {
	seen    map[entryKey]struct{}
	entries Dictionary
	stats   *Stats
}

func newCollector(stats *Stats) *collector {
	return &collector{
		seen:    make(map[entryKey]struct{}),
		entries: Dictionary{},
		stats:   stats,
	}
}

// add offers the names of one identifier or row.
func (c *collector) add(en, de, fr string) {
	entry, ok := NewEntry(en, de, fr)
	if !ok {
		c.stats.skip(SkipNoName)
		return
	}

	key := keyOf(entry)
	if _, dup := c.seen[key]; dup {
		c.stats.skip(SkipDuplicate)
		return
	}
	c.seen[key] = struct{}{}
	c.entries = append(c.entries, entry)
}
