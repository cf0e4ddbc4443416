package core

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/JonMunkholm/stockpilot/internal/logging"
)

// AllCategories is the filter value that disables category filtering.
const AllCategories = "all"

// normalizeCategory maps "" and "all" (any case) to the unfiltered listing.
func normalizeCategory(category string) string {
	category = strings.TrimSpace(category)
	if strings.EqualFold(category, AllCategories) {
		return ""
	}
	return category
}

// List returns products newest first, optionally filtered by exact category.
// Listings are served from the cache when one is configured.
func (s *Service) List(ctx context.Context, category string) (products []Product, err error) {
	category = normalizeCategory(category)

	ctx, span := s.startSpan(ctx, "List", attribute.String("product.category", category))
	defer func() { endSpan(span, err) }()

	log := logging.FromContext(ctx)

	cached, ok, err := s.cache.GetProducts(ctx, category)
	if err != nil {
		log.Warn("cache read failed", "category", category, "error", err)
	} else if ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return cached, nil
	}

	gen := s.cacheGen.Load()
	products, err = s.repo.ListProducts(ctx, category)
	if err != nil {
		return nil, storageErr("list products", err)
	}
	if products == nil {
		products = []Product{}
	}

	// A write that landed while we read makes this listing stale: skip the
	// fill, and undo it if the write slipped in between the check and the set.
	if s.cacheGen.Load() != gen {
		return products, nil
	}
	if err := s.cache.SetProducts(ctx, category, products, s.cacheTTL); err != nil {
		log.Warn("cache write failed", "category", category, "error", err)
	}
	if s.cacheGen.Load() != gen {
		s.invalidate(ctx)
	}
	return products, nil
}

// Search returns products whose name contains term, ignoring case.
func (s *Service) Search(ctx context.Context, term string) (products []Product, err error) {
	ctx, span := s.startSpan(ctx, "Search")
	defer func() { endSpan(span, err) }()

	term = strings.TrimSpace(term)
	if term == "" {
		return nil, &ValidationError{Field: "name", Message: "name parameter is required"}
	}

	products, err = s.repo.SearchProducts(ctx, term)
	if err != nil {
		return nil, storageErr("search products", err)
	}
	if products == nil {
		products = []Product{}
	}
	return products, nil
}

// Get returns one product.
func (s *Service) Get(ctx context.Context, id int64) (p Product, err error) {
	ctx, span := s.startSpan(ctx, "Get", attribute.Int64("product.id", id))
	defer func() { endSpan(span, err) }()

	p, err = s.repo.GetProduct(ctx, id)
	if err != nil {
		return Product{}, storageErr("get product", notFound(id, err))
	}
	return p, nil
}

// History returns the inventory log of a product, newest first. An unknown
// product has an empty history.
func (s *Service) History(ctx context.Context, productID int64) (logs []InventoryLog, err error) {
	ctx, span := s.startSpan(ctx, "History", attribute.Int64("product.id", productID))
	defer func() { endSpan(span, err) }()

	logs, err = s.repo.ListInventoryLogs(ctx, productID)
	if err != nil {
		return nil, storageErr("list inventory logs", err)
	}
	if logs == nil {
		logs = []InventoryLog{}
	}
	return logs, nil
}
