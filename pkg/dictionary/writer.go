package dictionary

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WriteFile writes entries to path as an indented JSON array, replacing
// any previous file atomically: the data goes to a temporary file in the
// same directory which is then renamed over path.
func WriteFile(path string, entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dictionary dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".dictionary-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	w := bufio.NewWriter(tmp)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		cleanup()
		return fmt.Errorf("encode dictionary: %w", err)
	}
	if err := w.Flush(); err != nil {
		cleanup()
		return fmt.Errorf("write dictionary: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("sync dictionary: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close dictionary: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("chmod dictionary: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// ReadFile loads a dictionary artifact. The top-level value must be a
// JSON array, otherwise ErrNotList is returned.
func ReadFile(path string) (Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dictionary: %w", err)
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode dictionary %s: %w", path, err)
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotList, path)
	}

	out := make(Dictionary, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: element %d of %s is not an object", ErrNotList, i, path)
		}
		out = append(out, Entry{
			EN: stringField(obj, "en"),
			DE: stringField(obj, "de"),
			FR: stringField(obj, "fr"),
		})
	}
	return out, nil
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}
