package core

import (
	"bytes"
	"io"
	"testing"
	"testing/iotest"
)

func TestWrapForStreaming(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{
			name:     "file with BOM",
			input:    append([]byte{0xEF, 0xBB, 0xBF}, []byte("name,unit")...),
			expected: "name,unit",
		},
		{
			name:     "file without BOM",
			input:    []byte("name,unit"),
			expected: "name,unit",
		},
		{
			name:     "empty file",
			input:    []byte{},
			expected: "",
		},
		{
			name:     "only BOM",
			input:    []byte{0xEF, 0xBB, 0xBF},
			expected: "",
		},
		{
			name:     "partial BOM at start",
			input:    []byte{0xEF, 0xBB, 'a', 'b', 'c'},
			expected: "??abc",
		},
		{
			name:     "valid multibyte kept",
			input:    []byte("Café,pcs"),
			expected: "Café,pcs",
		},
		{
			name:     "invalid byte replaced",
			input:    []byte{'h', 'e', 0x80, 'l', 'o'},
			expected: "he?lo",
		},
		{
			name:     "BOM and invalid byte",
			input:    append([]byte{0xEF, 0xBB, 0xBF}, 'h', 'e', 0x80, 'l', 'o'),
			expected: "he?lo",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := io.ReadAll(WrapForStreaming(bytes.NewReader(tt.input)))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(result) != tt.expected {
				t.Errorf("got %q, want %q", string(result), tt.expected)
			}
		})
	}
}

func TestWrapForStreaming_SmallReads(t *testing.T) {
	// One-byte reads force multibyte runes to be split across calls.
	r := iotest.OneByteReader(WrapForStreaming(bytes.NewReader([]byte("ÄÖÜ€"))))
	result, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(result) != "ÄÖÜ€" {
		t.Errorf("got %q, want %q", string(result), "ÄÖÜ€")
	}
}
