// Package core provides the business logic for the inventory tracker.
//
// This package contains all domain logic independent of any transport or
// storage technology. It is used by the HTTP server, the CLI commands and
// tests without modification.
//
// # Architecture
//
//   - Service: the entry point for every operation (list, search, edit,
//     delete, history, import, export).
//   - Repository: the persistence boundary, implemented by the Postgres and
//     SQLite backends in internal/store.
//   - ProductCache: optional cache for category listings.
//
// # Stock Status
//
// A product's status is never stored independently of its stock. It is
// derived by [StatusFor] on every write and exposed through [Product.Status].
//
// # Import
//
// Imports accept CSV (via [Service.ImportCSV]) or already-decoded records
// (via [Service.ImportRecords]). The flow is:
//
//  1. CSV input is wrapped with BOM skipping and UTF-8 sanitization
//  2. The header is mapped case-insensitively with [MakeHeaderIndex]
//  3. Each record is validated into a [Candidate] by [ParseCandidate]
//  4. Names already present (ignoring case) are skipped as duplicates
//  5. All inserts share one transaction
//
// # Error Handling
//
// Operations return [ValidationError], [NotFoundError], [ConflictError] or
// [StorageError]. Technical errors are mapped to user-friendly messages using
// [MapError]:
//
//   - VAL001-VAL003: Validation errors
//   - NF001: Product not found
//   - CONF001: Duplicate product name
//   - DB001-DB005: Database errors
//   - FILE001-FILE003: File errors
//   - RATE001: Rate limiting
//   - RATE002: Import slots busy
//
// ErrImportsBusy maps to RATE002 and is not part of the taxonomy above; the
// HTTP layer answers it with 429.
package core
