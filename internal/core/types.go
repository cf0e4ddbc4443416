// Package core provides the business logic for the inventory tracker.
// This package has no transport dependencies and can be used by any frontend.
package core

import (
	"encoding/json"
	"time"
)

// StockStatus is the availability label derived from a stock count.
type StockStatus string

const (
	StatusInStock    StockStatus = "In Stock"
	StatusOutOfStock StockStatus = "Out of Stock"
)

// StatusFor returns the status for a stock count. It is the only place
// status is computed; every write path goes through it.
func StatusFor(stock int) StockStatus {
	if stock > 0 {
		return StatusInStock
	}
	return StatusOutOfStock
}

// DefaultChangedBy identifies the actor recorded on inventory logs.
const DefaultChangedBy = "admin"

// Product is an inventory item. Status is not a field: it is always derived
// from Stock via Status().
type Product struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Unit     string `json:"unit"`
	Category string `json:"category"`
	Brand    string `json:"brand"`
	Stock    int    `json:"stock"`
	ImageURL string `json:"imageUrl"`
}

// Status returns the derived availability label.
func (p Product) Status() StockStatus {
	return StatusFor(p.Stock)
}

// MarshalJSON adds the derived status to the JSON form.
func (p Product) MarshalJSON() ([]byte, error) {
	type plain Product
	return json.Marshal(struct {
		plain
		Status StockStatus `json:"status"`
	}{plain(p), p.Status()})
}

// NewProduct builds a product from validated input. The image URL falls back
// to a deterministic placeholder keyed by name.
func NewProduct(in ProductInput, imageURL string) Product {
	if imageURL == "" {
		imageURL = PlaceholderImageURL(in.Name)
	}
	return Product{
		Name:     in.Name,
		Unit:     in.Unit,
		Category: in.Category,
		Brand:    in.Brand,
		Stock:    in.stockValue(),
		ImageURL: imageURL,
	}
}

// InventoryLog is an immutable record of one stock change.
type InventoryLog struct {
	ID        int64     `json:"id"`
	ProductID int64     `json:"productId"`
	Date      time.Time `json:"date"`
	OldStock  int       `json:"oldStock"`
	NewStock  int       `json:"newStock"`
	ChangedBy string    `json:"changedBy"`
	Timestamp time.Time `json:"timestamp"`
}

// ProductInput is the editable field set of a product, as received from a
// client for create and update.
type ProductInput struct {
	Name     string `json:"name" validate:"required"`
	Unit     string `json:"unit" validate:"required"`
	Category string `json:"category" validate:"required"`
	Brand    string `json:"brand" validate:"required"`
	Stock    *int   `json:"stock" validate:"required,min=0,max=2147483647"`
}

func (in ProductInput) stockValue() int {
	if in.Stock == nil {
		return 0
	}
	return *in.Stock
}

// ImportRecord is one loosely-typed candidate row from a CSV file or JSON
// body. Stock is kept as text until the candidate is validated.
type ImportRecord struct {
	Name     string `json:"name"`
	Unit     string `json:"unit"`
	Category string `json:"category"`
	Brand    string `json:"brand"`
	Stock    string `json:"stock"`
	ImageURL string `json:"imageUrl"`
}

// UnmarshalJSON accepts stock as either a JSON number or a string.
func (r *ImportRecord) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name     string          `json:"name"`
		Unit     string          `json:"unit"`
		Category string          `json:"category"`
		Brand    string          `json:"brand"`
		Stock    json.RawMessage `json:"stock"`
		ImageURL string          `json:"imageUrl"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = ImportRecord{
		Name:     raw.Name,
		Unit:     raw.Unit,
		Category: raw.Category,
		Brand:    raw.Brand,
		ImageURL: raw.ImageURL,
	}
	if len(raw.Stock) > 0 {
		var s string
		if err := json.Unmarshal(raw.Stock, &s); err == nil {
			r.Stock = s
		} else {
			var n json.Number
			if err := json.Unmarshal(raw.Stock, &n); err == nil {
				r.Stock = n.String()
			}
		}
	}
	return nil
}

// Duplicate reports an import row whose name already exists.
type Duplicate struct {
	Name       string `json:"name"`
	ExistingID int64  `json:"existingId"`
}

// RejectedRow reports an import row that failed validation.
type RejectedRow struct {
	Row    int    `json:"row"` // 1-based position in the batch
	Name   string `json:"name,omitempty"`
	Reason string `json:"reason"`
}

// ImportResult is the tally of one import batch.
type ImportResult struct {
	BatchID    string        `json:"batchId"`
	Added      int           `json:"added"`
	Skipped    int           `json:"skipped"`
	Duplicates []Duplicate   `json:"duplicates"`
	Rejected   []RejectedRow `json:"rejected,omitempty"`
}

// ExportColumns is the CSV header order, matching the Product field order.
var ExportColumns = []string{"id", "name", "unit", "category", "brand", "stock", "status", "imageUrl"}
