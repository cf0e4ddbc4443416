package core

import (
	"bytes"
	"encoding/csv"
	"io"
	"strconv"
	"testing"
)

// ============================================================================
// Cell Cleaning Benchmarks
// ============================================================================

// BenchmarkCleanCell runs on every header cell and stock value.
func BenchmarkCleanCell(b *testing.B) {
	testCases := []string{
		"normal value",
		`="formula"`,     // Excel formula prefix
		`"quoted"`,       // Quoted
		"  whitespace  ", // Whitespace
		`="12345"`,       // Number as text in Excel
		"'single quoted'",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			CleanCell(tc)
		}
	}
}

// BenchmarkCleanCell_Simple benchmarks the common case: no cleaning needed.
func BenchmarkCleanCell_Simple(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		CleanCell("simple value")
	}
}

func BenchmarkParseStock(b *testing.B) {
	inputs := []string{"42", "12.9", "-3", "abc", ""}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, in := range inputs {
			ParseStock(in)
		}
	}
}

// ============================================================================
// Row Mapping Benchmarks
// ============================================================================

// BenchmarkMakeHeaderIndex is called once per imported file.
func BenchmarkMakeHeaderIndex(b *testing.B) {
	headers := []string{"Name", "Unit", "Category", "Brand", "Stock", "ImageURL", "Notes"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		MakeHeaderIndex(headers)
	}
}

func BenchmarkParseCandidate(b *testing.B) {
	idx := MakeHeaderIndex([]string{"name", "unit", "category", "brand", "stock"})
	row := []string{"Widget", "pcs", "Tools", "Acme", "17"}

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := ParseCandidate(RecordFromRow(idx, row)); err != nil {
			b.Fatal(err)
		}
	}
}

// ============================================================================
// Streaming Benchmarks
// ============================================================================

func BenchmarkWrapForStreaming(b *testing.B) {
	data := generateTestCSV(1000)

	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := io.Copy(io.Discard, WrapForStreaming(bytes.NewReader(data))); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkReadCSVStreaming(b *testing.B) {
	data := generateTestCSV(1000)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		r := csv.NewReader(WrapForStreaming(bytes.NewReader(data)))
		for {
			if _, err := r.Read(); err != nil {
				break
			}
		}
	}
}

// generateTestCSV builds an import file with the given number of data rows.
func generateTestCSV(rows int) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	w.Write([]string{"name", "unit", "category", "brand", "stock"})
	for i := 0; i < rows; i++ {
		w.Write([]string{"Product " + strconv.Itoa(i), "pcs", "Tools", "Acme", strconv.Itoa(i % 50)})
	}
	w.Flush()

	return buf.Bytes()
}
