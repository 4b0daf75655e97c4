package dictionary

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/Sternrassler/catalog-crawler/pkg/record"
	"github.com/Sternrassler/catalog-crawler/pkg/store"
	"github.com/rs/zerolog"
)

// splitStrategy joins per-locale trees root/en, root/de, root/fr by file
// basename and then by row ID.
type splitStrategy struct {
	logger zerolog.Logger
}

// localeNames is the per-ID accumulator of one basename.
type localeNames map[record.Locale]string

func (s splitStrategy) collect(ctx context.Context, root string, c *collector) error {
	files := make(map[record.Locale]map[string]string, len(record.Locales))
	basenames := make(map[string]struct{})

	for _, loc := range record.Locales {
		byName, err := filesByBasename(filepath.Join(root, string(loc)), ".jsonl", ".json")
		if err != nil {
			return err
		}
		files[loc] = byName
		for name := range byName {
			basenames[name] = struct{}{}
		}
	}

	for _, base := range sortedKeys(basenames) {
		if err := ctx.Err(); err != nil {
			return err
		}

		slots := make(map[int64]localeNames)
		for _, loc := range record.Locales {
			path, ok := files[loc][base]
			if !ok {
				continue
			}
			s.mergeLocale(path, loc, slots, c.stats)
		}

		ids := make([]int64, 0, len(slots))
		for id := range slots {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		for _, id := range ids {
			slot := slots[id]
			c.add(slot[record.LocaleEN], slot[record.LocaleDE], slot[record.LocaleFR])
		}
	}
	return nil
}

func (s splitStrategy) mergeLocale(path string, loc record.Locale, slots map[int64]localeNames, stats *Stats) {
	read, err := store.ReadFile(path, func(r record.Record) {
		id, ok := r.ID()
		if !ok {
			stats.skip(SkipMissingID)
			return
		}
		name, ok := record.ExtractName(r, loc)
		if !ok {
			return
		}
		slot, exists := slots[id]
		if !exists {
			slot = make(localeNames, len(record.Locales))
			slots[id] = slot
		}
		slot[loc] = name
	})
	stats.Files++
	stats.Rows += read.Rows
	stats.skipN(SkipMalformed, read.Malformed)
	if err != nil {
		s.logger.Warn().Err(err).Str("path", path).Msg("Skipping unreadable store file")
	}
}

// combinedStrategy reads every .jsonl file under root; each row already
// carries all locales.
type combinedStrategy struct {
	logger zerolog.Logger
}

func (s combinedStrategy) collect(ctx context.Context, root string, c *collector) error {
	paths, err := walkFiles(root, ".jsonl")
	if err != nil {
		return err
	}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}

		read, err := store.ReadFile(path, func(r record.Record) {
			c.add(record.CombinedNames(r))
		})
		c.stats.Files++
		c.stats.Rows += read.Rows
		c.stats.skipN(SkipMalformed, read.Malformed)
		if err != nil {
			s.logger.Warn().Err(err).Str("path", path).Msg("Skipping unreadable store file")
		}
	}
	return nil
}

// walkFiles lists files under root with one of the extensions, in lexical
// walk order.
func walkFiles(root string, exts ...string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		for _, ext := range exts {
			if filepath.Ext(path) == ext {
				out = append(out, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return out, nil
}

// filesByBasename maps file basenames under root to their path. When the
// same basename occurs in several subdirectories the last one walked wins.
func filesByBasename(root string, exts ...string) (map[string]string, error) {
	paths, err := walkFiles(root, exts...)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(paths))
	for _, p := range paths {
		out[filepath.Base(p)] = p
	}
	return out, nil
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
