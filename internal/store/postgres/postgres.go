// Package postgres implements core.Repository on PostgreSQL using pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/stockpilot/internal/core"
	"github.com/JonMunkholm/stockpilot/internal/store/sqlutil"
)

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// DBTX is the subset of pgx shared by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

// Config holds pool settings.
type Config struct {
	URL             string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Repository is a core.Repository backed by a pgx pool, or by a single
// transaction when created through WithTx.
type Repository struct {
	pool *pgxpool.Pool // nil inside a transaction
	db   DBTX
}

var _ core.Repository = (*Repository)(nil)

// Connect opens a pool and verifies it with a ping.
func Connect(ctx context.Context, cfg Config) (*Repository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = int32(cfg.MinConns)
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return New(pool), nil
}

// New wraps an existing pool.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, db: pool}
}

func (r *Repository) Ping(ctx context.Context) error {
	if r.pool == nil {
		return nil
	}
	return r.pool.Ping(ctx)
}

func (r *Repository) Close() error {
	if r.pool != nil {
		r.pool.Close()
	}
	return nil
}

// WithTx runs fn in a transaction. Nested calls reuse the outer transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(tx core.Repository) error) error {
	if r.pool == nil {
		return fn(r)
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&Repository{db: tx})
	})
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		unit TEXT NOT NULL,
		category TEXT NOT NULL,
		brand TEXT NOT NULL,
		stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
		status TEXT NOT NULL,
		image_url TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS inventory_logs (
		id BIGSERIAL PRIMARY KEY,
		product_id BIGINT NOT NULL REFERENCES products (id) ON DELETE CASCADE,
		"date" TIMESTAMPTZ NOT NULL,
		old_stock INTEGER NOT NULL,
		new_stock INTEGER NOT NULL,
		changed_by TEXT NOT NULL,
		"timestamp" TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_inventory_logs_product
		ON inventory_logs (product_id, "timestamp" DESC)`,
}

const nameIndexStatement = `CREATE UNIQUE INDEX IF NOT EXISTS idx_products_name_lower
	ON products (LOWER(name))`

// EnsureSchema creates tables and indexes. A failure to build the unique
// name index (existing duplicates) is logged and tolerated; the service
// still checks names before every write.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := r.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	if _, err := r.db.Exec(ctx, nameIndexStatement); err != nil {
		slog.Warn("could not create unique name index", "error", err)
	}
	return nil
}

const productColumns = `id, name, unit, category, brand, stock, image_url`

func scanProduct(row pgx.Row) (core.Product, error) {
	var p core.Product
	err := row.Scan(&p.ID, &p.Name, &p.Unit, &p.Category, &p.Brand, &p.Stock, &p.ImageURL)
	return p, err
}

func collectProducts(rows pgx.Rows) ([]core.Product, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.Product, error) {
		return scanProduct(row)
	})
}

func (r *Repository) CountProducts(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&n)
	return n, err
}

func (r *Repository) ListProducts(ctx context.Context, category string) ([]core.Product, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+productColumns+` FROM products
		WHERE $1::text = '' OR category = $1::text
		ORDER BY id DESC`, category)
	if err != nil {
		return nil, err
	}
	return collectProducts(rows)
}

func (r *Repository) SearchProducts(ctx context.Context, term string) ([]core.Product, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+productColumns+` FROM products
		WHERE name ILIKE $1 ESCAPE '`+sqlutil.LikeEscape+`'
		ORDER BY id DESC`, sqlutil.ContainsPattern(term))
	if err != nil {
		return nil, err
	}
	return collectProducts(rows)
}

func (r *Repository) ListProductsByID(ctx context.Context) ([]core.Product, error) {
	rows, err := r.db.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	return collectProducts(rows)
}

func (r *Repository) GetProduct(ctx context.Context, id int64) (core.Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	return p, mapError(err)
}

func (r *Repository) FindProductIDByName(ctx context.Context, name string) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		`SELECT id FROM products WHERE LOWER(name) = LOWER($1) ORDER BY id LIMIT 1`, name).Scan(&id)
	return id, mapError(err)
}

func (r *Repository) ProductNameIndex(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name FROM products ORDER BY id`)
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
	var id int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO products (name, unit, category, brand, stock, status, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		p.Name, p.Unit, p.Category, p.Brand, p.Stock, string(p.Status()), p.ImageURL,
	).Scan(&id)
	return id, mapError(err)
}

func (r *Repository) UpdateProduct(ctx context.Context, p core.Product) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE products
		SET name = $2, unit = $3, category = $4, brand = $5, stock = $6, status = $7, image_url = $8
		WHERE id = $1`,
		p.ID, p.Name, p.Unit, p.Category, p.Brand, p.Stock, string(p.Status()), p.ImageURL,
	)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNoRows
	}
	return nil
}

func (r *Repository) DeleteProduct(ctx context.Context, id int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repository) InsertInventoryLog(ctx context.Context, log core.InventoryLog) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO inventory_logs (product_id, "date", old_stock, new_stock, changed_by, "timestamp")
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		log.ProductID, log.Date, log.OldStock, log.NewStock, log.ChangedBy, log.Timestamp,
	).Scan(&id)
	return id, err
}

func (r *Repository) ListInventoryLogs(ctx context.Context, productID int64) ([]core.InventoryLog, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, product_id, "date", old_stock, new_stock, changed_by, "timestamp"
		FROM inventory_logs
		WHERE product_id = $1
		ORDER BY "timestamp" DESC, id DESC`, productID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.InventoryLog, error) {
		var l core.InventoryLog
		err := row.Scan(&l.ID, &l.ProductID, &l.Date, &l.OldStock, &l.NewStock, &l.ChangedBy, &l.Timestamp)
		l.Date = l.Date.UTC()
		l.Timestamp = l.Timestamp.UTC()
		return l, err
	})
}

func (r *Repository) DeleteInventoryLogs(ctx context.Context, productID int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM inventory_logs WHERE product_id = $1`, productID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// mapError translates driver errors into the repository sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return core.ErrNoRows
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", core.ErrDuplicateName, pgErr.ConstraintName)
	}
	return err
}
