package core

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// ExportFilename returns the attachment name for an export taken at t.
func ExportFilename(t time.Time) string {
	return "products-export-" + t.Format(time.DateOnly) + ".csv"
}

// Export renders every product as CSV, ordered by ascending id.
func (s *Service) Export(ctx context.Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.WriteExport(ctx, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteExport writes the export CSV to w. The output can be fed back to
// ImportCSV; the id and status columns are ignored on the way in.
func (s *Service) WriteExport(ctx context.Context, w io.Writer) (err error) {
	ctx, span := s.startSpan(ctx, "Export")
	defer func() { endSpan(span, err) }()

	products, err := s.repo.ListProductsByID(ctx)
	if err != nil {
		return storageErr("export products", err)
	}
	span.SetAttributes(attribute.Int("export.rows", len(products)))

	cw := csv.NewWriter(w)
	if err := cw.Write(ExportColumns); err != nil {
		return err
	}
	for _, p := range products {
		row := []string{
			strconv.FormatInt(p.ID, 10),
			p.Name,
			p.Unit,
			p.Category,
			p.Brand,
			strconv.Itoa(p.Stock),
			string(p.Status()),
			p.ImageURL,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
