package core

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/JonMunkholm/stockpilot/internal/logging"
)

const instrumentationName = "github.com/JonMunkholm/stockpilot/internal/core"

// DefaultImportTimeout bounds a single import batch when Options leaves it unset.
var DefaultImportTimeout = 2 * time.Minute

// DefaultCacheTTL is used for cached product listings when Options leaves it unset.
var DefaultCacheTTL = 30 * time.Second

// Options configures a Service. The zero value is usable.
type Options struct {
	SeedDemoData  bool
	Cache         ProductCache // nil means NopCache
	CacheTTL      time.Duration
	ImportTimeout time.Duration
	Now           func() time.Time // clock for inventory logs; defaults to time.Now

	MaxConcurrentImports int           // default DefaultMaxConcurrentImports
	ImportWait           time.Duration // default DefaultImportWait
}

// Service provides the inventory business logic. It is safe for concurrent
// use; all state lives in the repository and cache.
type Service struct {
	repo          Repository
	cache         ProductCache
	cacheTTL      time.Duration
	importTimeout time.Duration
	seed          bool
	now           func() time.Time
	imports       *ImportLimiter
	cacheGen      atomic.Uint64 // bumped by every invalidation

	tracer       trace.Tracer
	importRows   metric.Int64Counter
	stockChanges metric.Int64Counter
}

// NewService creates a new Service backed by repo.
func NewService(repo Repository, opts Options) *Service {
	s := &Service{
		repo:          repo,
		cache:         opts.Cache,
		cacheTTL:      opts.CacheTTL,
		importTimeout: opts.ImportTimeout,
		seed:          opts.SeedDemoData,
		now:           opts.Now,
		imports:       NewImportLimiter(opts.MaxConcurrentImports, opts.ImportWait),
		tracer:        otel.Tracer(instrumentationName),
	}
	if s.cache == nil {
		s.cache = NopCache{}
	}
	if s.cacheTTL <= 0 {
		s.cacheTTL = DefaultCacheTTL
	}
	if s.importTimeout <= 0 {
		s.importTimeout = DefaultImportTimeout
	}
	if s.now == nil {
		s.now = time.Now
	}

	meter := otel.Meter(instrumentationName)
	var err error
	s.importRows, err = meter.Int64Counter("stockpilot.import.rows",
		metric.WithDescription("Import rows processed, by outcome"),
		metric.WithUnit("{row}"))
	if err != nil {
		slog.Warn("create import counter", "error", err)
		s.importRows = noop.Int64Counter{}
	}
	s.stockChanges, err = meter.Int64Counter("stockpilot.inventory.stock_changes",
		metric.WithDescription("Stock changes recorded in the inventory log"),
		metric.WithUnit("{change}"))
	if err != nil {
		slog.Warn("create stock change counter", "error", err)
		s.stockChanges = noop.Int64Counter{}
	}

	return s
}

// EnsureReady creates the schema and, when enabled, seeds the demo catalog
// into an empty store. Safe to call on every start.
func (s *Service) EnsureReady(ctx context.Context) (err error) {
	ctx, span := s.startSpan(ctx, "EnsureReady")
	defer func() { endSpan(span, err) }()

	if err := s.repo.EnsureSchema(ctx); err != nil {
		return storageErr("ensure schema", err)
	}
	if !s.seed {
		return nil
	}

	n, err := s.repo.CountProducts(ctx)
	if err != nil {
		return storageErr("count products", err)
	}
	if n > 0 {
		return nil
	}

	demo := DemoProducts()
	err = s.repo.WithTx(ctx, func(tx Repository) error {
		for _, p := range demo {
			if _, err := tx.InsertProduct(ctx, p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return storageErr("seed demo products", err)
	}

	logging.FromContext(ctx).Info("seeded demo products", "count", len(demo))
	return nil
}

// WaitForImports blocks until no import batch is running or ctx ends.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.imports.WaitForDrain(ctx)
}

// ActiveImports returns the number of import batches in progress.
func (s *Service) ActiveImports() int {
	return s.imports.Active()
}

// Ping checks that the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return storageErr("ping", s.repo.Ping(ctx))
}

// invalidate drops cached listings after a write. Failures only cost
// staleness until the TTL expires, so they are logged and swallowed.
func (s *Service) invalidate(ctx context.Context) {
	s.cacheGen.Add(1)
	if err := s.cache.Invalidate(ctx); err != nil {
		logging.FromContext(ctx).Warn("cache invalidation failed", "error", err)
	}
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "core."+name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func notFound(id int64, err error) error {
	if errors.Is(err, ErrNoRows) {
		return &NotFoundError{Resource: "product", ID: id}
	}
	return err
}
