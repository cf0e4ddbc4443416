package core

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/JonMunkholm/stockpilot/internal/logging"
)

// errEmptyBatch is returned when an import has no candidate rows.
var errEmptyBatch = &ValidationError{Message: "empty batch: no products to import"}

// ReadCSVRecords parses an import CSV into loose records. The first row is
// the header; columns are matched by name, ignoring case, and unknown columns
// are ignored. Rows whose cells are all blank are dropped.
func ReadCSVRecords(r io.Reader) ([]ImportRecord, error) {
	cr := csv.NewReader(WrapForStreaming(r))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, &ValidationError{Message: fmt.Sprintf("invalid csv: %v", err)}
	}
	idx := MakeHeaderIndex(header)

	var records []ImportRecord
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ValidationError{Message: fmt.Sprintf("invalid csv: %v", err)}
		}
		if blankRow(row) {
			continue
		}
		records = append(records, RecordFromRow(idx, row))
	}
	return records, nil
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ImportCSV parses r as CSV and imports the rows. See ImportRecords.
func (s *Service) ImportCSV(ctx context.Context, r io.Reader) (ImportResult, error) {
	records, err := ReadCSVRecords(r)
	if err != nil {
		return ImportResult{}, err
	}
	return s.ImportRecords(ctx, records)
}

// ImportRecords inserts a batch of candidate products in one transaction.
//
// Rows whose name already exists (ignoring case) are skipped and reported as
// duplicates; this includes rows repeating a name inserted earlier in the same
// batch. Rows missing required fields are skipped and reported as rejected.
// Any store failure rolls back the whole batch.
func (s *Service) ImportRecords(ctx context.Context, records []ImportRecord) (result ImportResult, err error) {
	if len(records) == 0 {
		return ImportResult{}, errEmptyBatch
	}

	batchID := uuid.NewString()
	ctx, span := s.startSpan(ctx, "Import",
		attribute.String("import.batch_id", batchID),
		attribute.Int("import.rows", len(records)),
	)
	defer func() { endSpan(span, err) }()

	if err := s.imports.Acquire(ctx); err != nil {
		return ImportResult{}, err
	}
	defer s.imports.Release()

	ctx, cancel := context.WithTimeout(ctx, s.importTimeout)
	defer cancel()

	log := logging.WithFields(ctx, "batch_id", batchID)
	log.Info("import started", "rows", len(records))

	err = s.repo.WithTx(ctx, func(tx Repository) error {
		result = ImportResult{BatchID: batchID, Duplicates: []Duplicate{}}

		names, err := tx.ProductNameIndex(ctx)
		if err != nil {
			return err
		}

		for i, rec := range records {
			row := i + 1
			name := strings.TrimSpace(rec.Name)
			if name == "" {
				result.Skipped++
				result.Rejected = append(result.Rejected, RejectedRow{Row: row, Reason: "name: is required"})
				continue
			}

			key := strings.ToLower(name)
			if existingID, ok := names[key]; ok {
				result.Skipped++
				result.Duplicates = append(result.Duplicates, Duplicate{Name: name, ExistingID: existingID})
				continue
			}

			c, err := ParseCandidate(rec)
			if err != nil {
				var invalid *ValidationError
				if !errors.As(err, &invalid) {
					return err
				}
				result.Skipped++
				result.Rejected = append(result.Rejected, RejectedRow{Row: row, Name: name, Reason: invalid.Error()})
				continue
			}

			id, err := tx.InsertProduct(ctx, c.Product())
			if err != nil {
				return conflictOnDuplicate(c.Name, err)
			}
			names[key] = id
			result.Added++
		}
		return nil
	})
	if err != nil {
		log.Error("import rolled back", "error", err)
		return ImportResult{}, storageErr("import products", err)
	}

	s.recordImportRows(ctx, "added", result.Added)
	s.recordImportRows(ctx, "duplicate", len(result.Duplicates))
	s.recordImportRows(ctx, "rejected", len(result.Rejected))

	if result.Added > 0 {
		s.invalidate(ctx)
	}

	span.SetAttributes(
		attribute.Int("import.added", result.Added),
		attribute.Int("import.skipped", result.Skipped),
	)
	log.Info("import completed",
		"added", result.Added,
		"skipped", result.Skipped,
		"duplicates", len(result.Duplicates),
		"rejected", len(result.Rejected),
	)
	return result, nil
}

func (s *Service) recordImportRows(ctx context.Context, outcome string, n int) {
	if n == 0 {
		return
	}
	s.importRows.Add(ctx, int64(n), metric.WithAttributes(attribute.String("outcome", outcome)))
}
