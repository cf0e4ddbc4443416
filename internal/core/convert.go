package core

// convert.go normalizes user-provided CSV data into import records.
//
// Text cells are only trimmed: encoding/csv has already removed CSV quoting,
// so any quote or '=' left in a name is part of the value. Spreadsheet
// artifacts (="value", stray quotes) are stripped only from header names and
// stock, where they cannot be meaningful.

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

// placeholderImageBase is the image service used when an import row has no
// image URL.
const placeholderImageBase = "https://picsum.photos/seed/"

// PlaceholderImageURL returns the deterministic placeholder image for a
// product name.
func PlaceholderImageURL(name string) string {
	return placeholderImageBase + url.PathEscape(name) + "/400/400"
}

// MaxStock is the largest stock level the store columns (32-bit INTEGER)
// can hold.
const MaxStock = math.MaxInt32

// ParseStock coerces a loose stock value to a non-negative integer.
// Unparseable input becomes 0, decimals truncate toward zero, negatives
// clamp to 0 and values above MaxStock clamp to MaxStock.
func ParseStock(s string) int {
	s = CleanCell(s)
	if s == "" {
		return 0
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return int(min(max(n, 0), MaxStock))
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	if f <= 0 {
		return 0
	}
	if f >= MaxStock {
		return MaxStock
	}
	return int(math.Trunc(f))
}

// HeaderIndex maps lowercased column names to their position in a CSV row.
type HeaderIndex map[string]int

// Get returns the trimmed cell for column name, or "" if the column is absent
// or the row is short.
func (h HeaderIndex) Get(row []string, name string) string {
	i, ok := h[strings.ToLower(name)]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// Has reports whether the header contains column name.
func (h HeaderIndex) Has(name string) bool {
	_, ok := h[strings.ToLower(name)]
	return ok
}

// MakeHeaderIndex creates a HeaderIndex from a CSV header row.
// Keys are lowercased for case-insensitive matching. The first occurrence of a
// repeated column wins.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		key := strings.ToLower(CleanCell(h))
		if _, seen := idx[key]; seen {
			continue
		}
		idx[key] = i
	}
	return idx
}

// CleanCell removes common spreadsheet artifacts from a header or number cell:
// - Trims whitespace
// - Removes Excel formula prefix (="...")
// - Removes surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	s = strings.Trim(s, `"'`)

	return strings.TrimSpace(s)
}

// RecordFromRow builds an import record from a CSV row using the header index.
func RecordFromRow(idx HeaderIndex, row []string) ImportRecord {
	return ImportRecord{
		Name:     idx.Get(row, "name"),
		Unit:     idx.Get(row, "unit"),
		Category: idx.Get(row, "category"),
		Brand:    idx.Get(row, "brand"),
		Stock:    idx.Get(row, "stock"),
		ImageURL: idx.Get(row, "imageurl"),
	}
}
