package store

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Sternrassler/catalog-crawler/pkg/record"
)

// maxLineSize is the buffer size for bufio.Scanner (16 MB).
const maxLineSize = 16 << 20

// ReadStats counts what a read produced.
type ReadStats struct {
	Rows      int
	Malformed int
}

// Add accumulates other into s.
func (s *ReadStats) Add(other ReadStats) {
	s.Rows += other.Rows
	s.Malformed += other.Malformed
}

// ReadFile streams the rows of a .jsonl or .json file to fn.
//
// JSON Lines files yield one row per non-blank line. A .json file holds
// either an array of rows or an object with a Results array. Lines or
// elements that are not JSON objects are counted as malformed and skipped.
// Files with any other extension yield nothing.
func ReadFile(path string, fn func(record.Record)) (ReadStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return ReadStats{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	switch filepath.Ext(path) {
	case ".jsonl":
		return readLines(f, path, fn)
	case ".json":
		return readDocument(f, fn), nil
	default:
		return ReadStats{}, nil
	}
}

func readLines(r io.Reader, path string, fn func(record.Record)) (ReadStats, error) {
	var stats ReadStats

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		row, err := record.Decode(line)
		if err != nil {
			stats.Malformed++
			continue
		}
		stats.Rows++
		fn(row)
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("scan %s: %w", path, err)
	}
	return stats, nil
}

// readDocument never fails: an undecodable document yields no rows.
func readDocument(r io.Reader, fn func(record.Record)) ReadStats {
	var stats ReadStats

	dec := json.NewDecoder(r)
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		stats.Malformed++
		return stats
	}
	if err := record.EnsureEOF(dec); err != nil {
		stats.Malformed++
		return stats
	}

	var items []any
	switch v := doc.(type) {
	case []any:
		items = v
	case map[string]any:
		results, ok := v["Results"].([]any)
		if !ok {
			return stats
		}
		items = results
	default:
		return stats
	}

	for _, item := range items {
		row, err := record.FromValue(item)
		if err != nil {
			stats.Malformed++
			continue
		}
		stats.Rows++
		fn(row)
	}
	return stats
}
