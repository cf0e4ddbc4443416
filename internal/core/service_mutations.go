package core

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/JonMunkholm/stockpilot/internal/logging"
)

// Create adds a single product. The name must not collide, ignoring case,
// with any existing product.
func (s *Service) Create(ctx context.Context, in ProductInput) (p Product, err error) {
	ctx, span := s.startSpan(ctx, "Create")
	defer func() { endSpan(span, err) }()

	if err := ValidateProductInput(&in); err != nil {
		return Product{}, err
	}
	p = NewProduct(in, "")

	err = s.repo.WithTx(ctx, func(tx Repository) error {
		existingID, err := tx.FindProductIDByName(ctx, p.Name)
		switch {
		case err == nil:
			return &ConflictError{Name: p.Name, ExistingID: existingID}
		case !errors.Is(err, ErrNoRows):
			return err
		}

		id, err := tx.InsertProduct(ctx, p)
		if err != nil {
			return conflictOnDuplicate(p.Name, err)
		}
		p.ID = id
		return nil
	})
	if err != nil {
		return Product{}, storageErr("create product", err)
	}

	span.SetAttributes(attribute.Int64("product.id", p.ID))
	s.invalidate(ctx)
	logging.FromContext(ctx).Info("product created", "product_id", p.ID, "name", p.Name)
	return p, nil
}

// Update replaces the editable fields of a product. When the stock count
// changes, an inventory log is appended in the same transaction.
//
// Checks run in order: input validation, name conflict with another product,
// then existence.
func (s *Service) Update(ctx context.Context, id int64, in ProductInput) (p Product, err error) {
	ctx, span := s.startSpan(ctx, "Update", attribute.Int64("product.id", id))
	defer func() { endSpan(span, err) }()

	if err := ValidateProductInput(&in); err != nil {
		return Product{}, err
	}

	var old Product
	err = s.repo.WithTx(ctx, func(tx Repository) error {
		existingID, err := tx.FindProductIDByName(ctx, in.Name)
		switch {
		case err == nil && existingID != id:
			return &ConflictError{Name: in.Name, ExistingID: existingID}
		case err != nil && !errors.Is(err, ErrNoRows):
			return err
		}

		old, err = tx.GetProduct(ctx, id)
		if err != nil {
			return notFound(id, err)
		}

		p = NewProduct(in, old.ImageURL)
		p.ID = id

		if old.Stock != p.Stock {
			now := s.now().UTC()
			_, err := tx.InsertInventoryLog(ctx, InventoryLog{
				ProductID: id,
				Date:      now,
				OldStock:  old.Stock,
				NewStock:  p.Stock,
				ChangedBy: DefaultChangedBy,
				Timestamp: now,
			})
			if err != nil {
				return err
			}
		}

		return conflictOnDuplicate(p.Name, tx.UpdateProduct(ctx, p))
	})
	if err != nil {
		return Product{}, storageErr("update product", err)
	}

	s.invalidate(ctx)

	log := logging.FromContext(ctx)
	if old.Stock != p.Stock {
		s.stockChanges.Add(ctx, 1, metric.WithAttributes(attribute.String("changed_by", DefaultChangedBy)))
		log.Info("stock changed",
			"product_id", id,
			"old_stock", old.Stock,
			"new_stock", p.Stock,
		)
	}
	log.Info("product updated", "product_id", id)
	return p, nil
}

// Delete removes a product and its inventory log.
func (s *Service) Delete(ctx context.Context, id int64) (err error) {
	ctx, span := s.startSpan(ctx, "Delete", attribute.Int64("product.id", id))
	defer func() { endSpan(span, err) }()

	var logsDeleted int64
	err = s.repo.WithTx(ctx, func(tx Repository) error {
		n, err := tx.DeleteInventoryLogs(ctx, id)
		if err != nil {
			return err
		}
		logsDeleted = n

		deleted, err := tx.DeleteProduct(ctx, id)
		if err != nil {
			return err
		}
		if !deleted {
			return &NotFoundError{Resource: "product", ID: id}
		}
		return nil
	})
	if err != nil {
		return storageErr("delete product", err)
	}

	s.invalidate(ctx)
	logging.FromContext(ctx).Info("product deleted", "product_id", id, "logs_deleted", logsDeleted)
	return nil
}

// conflictOnDuplicate turns a unique-index rejection from the store into a
// ConflictError. The pre-check inside the transaction normally catches
// collisions first.
func conflictOnDuplicate(name string, err error) error {
	if errors.Is(err, ErrDuplicateName) {
		return &ConflictError{Name: name}
	}
	return err
}
