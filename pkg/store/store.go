// Package store persists raw catalog rows as one append-only JSON Lines
// file per sheet and reads them back.
package store

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RecordsStored counts rows appended to sheet files.
var RecordsStored = promauto.NewCounter(prometheus.CounterOpts{
	Name: "catalog_records_stored_total",
	Help: "Total number of raw rows appended to sheet stores",
})

// Extension of sheet store files.
const Extension = ".jsonl"

// ErrInvalidSheetName is returned for sheet names that cannot be used as a file name.
var ErrInvalidSheetName = errors.New("invalid sheet name")

// Store is a directory of per-sheet JSON Lines files. Each sheet file is
// written by exactly one dump at a time, so no locking is done here.
type Store struct {
	root string
}

// New creates the store directory if needed.
func New(root string) (*Store, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("store root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir %s: %w", root, err)
	}
	return &Store{root: root}, nil
}

// Root returns the store directory.
func (s *Store) Root() string {
	return s.root
}

// SheetPath returns the file that holds the rows of sheet.
func (s *Store) SheetPath(sheet string) (string, error) {
	if sheet == "" || sheet == "." || sheet == ".." || strings.ContainsAny(sheet, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSheetName, sheet)
	}
	return filepath.Join(s.root, sheet+Extension), nil
}

// Append writes rows to the end of the sheet file, one compact JSON value
// per line, and syncs the file. Re-running a dump appends duplicates.
func (s *Store) Append(sheet string, rows []json.RawMessage) error {
	if len(rows) == 0 {
		return nil
	}

	path, err := s.SheetPath(sheet)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open sheet store %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	var line bytes.Buffer
	for i, row := range rows {
		line.Reset()
		if err := json.Compact(&line, row); err != nil {
			return fmt.Errorf("compact row %d of %s: %w", i, sheet, err)
		}
		line.WriteByte('\n')
		if _, err := w.Write(line.Bytes()); err != nil {
			return fmt.Errorf("write sheet store %s: %w", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush sheet store %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync sheet store %s: %w", path, err)
	}

	RecordsStored.Add(float64(len(rows)))
	return nil
}

// Remove deletes the sheet file. A missing file is not an error.
func (s *Store) Remove(sheet string) error {
	path, err := s.SheetPath(sheet)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove sheet store %s: %w", path, err)
	}
	return nil
}
