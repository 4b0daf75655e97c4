package client

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Page is one paginated response of a sheet.
type Page struct {
	Results    []json.RawMessage `json:"Results"`
	Pagination Pagination        `json:"Pagination"`
}

// Pagination carries the continuation token of a page.
type Pagination struct {
	// PageNext is the next page number, nil on the last page.
	PageNext *int `json:"PageNext"`
}

// HasNext reports whether another page follows.
func (p *Page) HasNext() bool {
	return p.Pagination.PageNext != nil && *p.Pagination.PageNext != 0
}

// SheetList decodes the sheet listing, which is either a bare JSON array
// of names or an object with a Results array.
type SheetList struct {
	Names []string
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *SheetList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(trimmed, &l.Names)
	}

	var wrapped struct {
		Results []string `json:"Results"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return fmt.Errorf("sheet list: %w", err)
	}
	l.Names = wrapped.Results
	return nil
}
