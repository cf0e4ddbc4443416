// Package sqlite implements core.Repository on an embedded SQLite file using
// the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/JonMunkholm/stockpilot/internal/core"
	"github.com/JonMunkholm/stockpilot/internal/store/sqlutil"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// timeLayout is fixed-width so timestamps sort correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000Z"

// DBTX is the subset of database/sql shared by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Repository is a core.Repository backed by SQLite.
type Repository struct {
	sqlDB *sql.DB // nil inside a transaction
	db    DBTX
}

var _ core.Repository = (*Repository)(nil)

// Open opens (creating if needed) the database at path. The handle is limited
// to one connection: SQLite serializes writers anyway, and an in-memory
// database only exists for the life of its connection.
func Open(ctx context.Context, path string) (*Repository, error) {
	if path == "" {
		return nil, errors.New("sqlite: empty database path")
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return &Repository{sqlDB: db, db: db}, nil
}

func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func (r *Repository) Ping(ctx context.Context) error {
	if r.sqlDB == nil {
		return nil
	}
	return r.sqlDB.PingContext(ctx)
}

func (r *Repository) Close() error {
	if r.sqlDB == nil {
		return nil
	}
	return r.sqlDB.Close()
}

// WithTx runs fn in a transaction. Nested calls reuse the outer transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(tx core.Repository) error) error {
	if r.sqlDB == nil {
		return fn(r)
	}

	tx, err := r.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := fn(&Repository{db: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		unit TEXT NOT NULL,
		category TEXT NOT NULL,
		brand TEXT NOT NULL,
		stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
		status TEXT NOT NULL,
		image_url TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS inventory_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		product_id INTEGER NOT NULL REFERENCES products (id) ON DELETE CASCADE,
		"date" TEXT NOT NULL,
		old_stock INTEGER NOT NULL,
		new_stock INTEGER NOT NULL,
		changed_by TEXT NOT NULL,
		"timestamp" TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_inventory_logs_product
		ON inventory_logs (product_id, "timestamp")`,
}

// foldFunc lowercases text with Go's Unicode rules. SQLite's built-in LOWER
// only folds ASCII, which would let "Éclair" and "éclair" coexist.
const foldFunc = "stockpilot_fold"

func init() {
	if err := sqlite.RegisterDeterministicScalarFunction(foldFunc, 1, foldName); err != nil {
		panic(fmt.Sprintf("register %s: %v", foldFunc, err))
	}
}

func foldName(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}

const nameIndexStatement = `CREATE UNIQUE INDEX IF NOT EXISTS idx_products_name_fold
	ON products (` + foldFunc + `(name))`

// EnsureSchema creates tables and indexes. A failure to build the unique
// name index (existing duplicates) is logged and tolerated.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	if _, err := r.db.ExecContext(ctx, nameIndexStatement); err != nil {
		slog.Warn("could not create unique name index", "error", err)
	}
	return nil
}

const productColumns = `id, name, unit, category, brand, stock, image_url`

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (core.Product, error) {
	var p core.Product
	err := row.Scan(&p.ID, &p.Name, &p.Unit, &p.Category, &p.Brand, &p.Stock, &p.ImageURL)
	return p, err
}

func (r *Repository) queryProducts(ctx context.Context, query string, args ...any) ([]core.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []core.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *Repository) CountProducts(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&n)
	return n, err
}

func (r *Repository) ListProducts(ctx context.Context, category string) ([]core.Product, error) {
	if category == "" {
		return r.queryProducts(ctx, `SELECT `+productColumns+` FROM products ORDER BY id DESC`)
	}
	return r.queryProducts(ctx,
		`SELECT `+productColumns+` FROM products WHERE category = ? ORDER BY id DESC`, category)
}

// SearchProducts folds both sides so non-ASCII letters match ignoring case.
func (r *Repository) SearchProducts(ctx context.Context, term string) ([]core.Product, error) {
	return r.queryProducts(ctx,
		`SELECT `+productColumns+` FROM products
		WHERE `+foldFunc+`(name) LIKE ? ESCAPE '`+sqlutil.LikeEscape+`'
		ORDER BY id DESC`, sqlutil.ContainsPattern(strings.ToLower(term)))
}

func (r *Repository) ListProductsByID(ctx context.Context) ([]core.Product, error) {
	return r.queryProducts(ctx, `SELECT `+productColumns+` FROM products ORDER BY id ASC`)
}

func (r *Repository) GetProduct(ctx context.Context, id int64) (core.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ?`, id))
	return p, mapError(err)
}

func (r *Repository) FindProductIDByName(ctx context.Context, name string) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM products WHERE `+foldFunc+`(name) = ? ORDER BY id LIMIT 1`, strings.ToLower(name)).Scan(&id)
	return id, mapError(err)
}

func (r *Repository) ProductNameIndex(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM products ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	idx := make(map[string]int64)
	for rows.Next() {
		var (
			id   int64
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		key := strings.ToLower(name)
		if _, ok := idx[key]; !ok {
			idx[key] = id
		}
	}
	return idx, rows.Err()
}

func (r *Repository) InsertProduct(ctx context.Context, p core.Product) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO products (name, unit, category, brand, stock, status, image_url)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.Name, p.Unit, p.Category, p.Brand, p.Stock, string(p.Status()), p.ImageURL,
	)
	if err != nil {
		return 0, mapError(err)
	}
	return res.LastInsertId()
}

func (r *Repository) UpdateProduct(ctx context.Context, p core.Product) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE products
		SET name = ?, unit = ?, category = ?, brand = ?, stock = ?, status = ?, image_url = ?
		WHERE id = ?`,
		p.Name, p.Unit, p.Category, p.Brand, p.Stock, string(p.Status()), p.ImageURL, p.ID,
	)
	if err != nil {
		return mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return core.ErrNoRows
	}
	return nil
}

func (r *Repository) DeleteProduct(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *Repository) InsertInventoryLog(ctx context.Context, log core.InventoryLog) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO inventory_logs (product_id, "date", old_stock, new_stock, changed_by, "timestamp")
		VALUES (?, ?, ?, ?, ?, ?)`,
		log.ProductID, formatTime(log.Date), log.OldStock, log.NewStock, log.ChangedBy, formatTime(log.Timestamp),
	)
	if err != nil {
		return 0, mapError(err)
	}
	return res.LastInsertId()
}

func (r *Repository) ListInventoryLogs(ctx context.Context, productID int64) ([]core.InventoryLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, product_id, "date", old_stock, new_stock, changed_by, "timestamp"
		FROM inventory_logs
		WHERE product_id = ?
		ORDER BY "timestamp" DESC, id DESC`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []core.InventoryLog
	for rows.Next() {
		var (
			l        core.InventoryLog
			date, ts string
		)
		if err := rows.Scan(&l.ID, &l.ProductID, &date, &l.OldStock, &l.NewStock, &l.ChangedBy, &ts); err != nil {
			return nil, err
		}
		if l.Date, err = parseTime(date); err != nil {
			return nil, err
		}
		if l.Timestamp, err = parseTime(ts); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func (r *Repository) DeleteInventoryLogs(ctx context.Context, productID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM inventory_logs WHERE product_id = ?`, productID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		// Rows written by other tools may use plain RFC 3339.
		t, err = time.Parse(time.RFC3339Nano, s)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

// mapError translates driver errors into the repository sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNoRows
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return fmt.Errorf("%w: %s", core.ErrDuplicateName, sqliteErr.Error())
	}
	return err
}
