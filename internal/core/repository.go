package core

import (
	"context"
	"time"
)

// Repository is the persistence boundary for products and inventory logs.
// Implementations live in internal/store; core never sees SQL.
//
// Backends return ErrNoRows when a single-row lookup finds nothing and
// ErrDuplicateName when the case-insensitive name index rejects a write.
type Repository interface {
	// EnsureSchema creates tables and indexes if they do not exist.
	EnsureSchema(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error

	// WithTx runs fn inside a transaction. fn must only use the Repository it
	// is given; the transaction commits when fn returns nil.
	WithTx(ctx context.Context, fn func(tx Repository) error) error

	CountProducts(ctx context.Context) (int64, error)
	// ListProducts returns all products, or those whose category matches
	// exactly when category is non-empty, newest id first.
	ListProducts(ctx context.Context, category string) ([]Product, error)
	// SearchProducts returns products whose name contains term,
	// case-insensitively, newest id first. Wildcards in term match literally.
	SearchProducts(ctx context.Context, term string) ([]Product, error)
	// ListProductsByID returns every product in ascending id order.
	ListProductsByID(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id int64) (Product, error)
	// FindProductIDByName looks up a product by case-insensitive name.
	FindProductIDByName(ctx context.Context, name string) (int64, error)
	// ProductNameIndex maps lowercased names to product ids.
	ProductNameIndex(ctx context.Context) (map[string]int64, error)

	// InsertProduct stores p and returns the assigned id. p.ID is ignored.
	InsertProduct(ctx context.Context, p Product) (int64, error)
	// UpdateProduct overwrites every mutable column of p.ID.
	UpdateProduct(ctx context.Context, p Product) error
	// DeleteProduct removes a product and reports whether a row was deleted.
	DeleteProduct(ctx context.Context, id int64) (bool, error)

	InsertInventoryLog(ctx context.Context, log InventoryLog) (int64, error)
	// ListInventoryLogs returns a product's logs, newest first.
	ListInventoryLogs(ctx context.Context, productID int64) ([]InventoryLog, error)
	DeleteInventoryLogs(ctx context.Context, productID int64) (int64, error)
}

// ProductCache caches category listings. Implementations must tolerate
// concurrent use. Errors are treated as misses by the service.
type ProductCache interface {
	GetProducts(ctx context.Context, category string) ([]Product, bool, error)
	SetProducts(ctx context.Context, category string, products []Product, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

// NopCache never stores anything.
type NopCache struct{}

func (NopCache) GetProducts(context.Context, string) ([]Product, bool, error) {
	return nil, false, nil
}

func (NopCache) SetProducts(context.Context, string, []Product, time.Duration) error { return nil }

func (NopCache) Invalidate(context.Context) error { return nil }
