package core

// validation.go turns client input into typed, checked values before anything
// touches the store.
//
// Two entry points:
//  1. ValidateProductInput: strict checks for create/update (every field
//     required, stock >= 0).
//  2. ParseCandidate: lenient import rows; stock is coerced instead of
//     rejected, but name/unit/category/brand must be present.

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report JSON field names so messages match what the client sent.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Candidate is an import row that passed validation.
type Candidate struct {
	Name     string `json:"name" validate:"required"`
	Unit     string `json:"unit" validate:"required"`
	Category string `json:"category" validate:"required"`
	Brand    string `json:"brand" validate:"required"`
	Stock    int    `json:"stock" validate:"min=0,max=2147483647"`
	ImageURL string `json:"imageUrl"`
}

// Product builds the product to insert for this candidate.
func (c Candidate) Product() Product {
	stock := c.Stock
	return NewProduct(ProductInput{
		Name:     c.Name,
		Unit:     c.Unit,
		Category: c.Category,
		Brand:    c.Brand,
		Stock:    &stock,
	}, c.ImageURL)
}

// ValidateProductInput trims the text fields in place and checks that all
// fields are present and stock is non-negative.
func ValidateProductInput(in *ProductInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Unit = strings.TrimSpace(in.Unit)
	in.Category = strings.TrimSpace(in.Category)
	in.Brand = strings.TrimSpace(in.Brand)

	return toValidationError(validate.Struct(in))
}

// ParseCandidate validates a loose import record. It returns a typed
// candidate, or a *ValidationError describing why the row is rejected.
func ParseCandidate(rec ImportRecord) (Candidate, error) {
	c := Candidate{
		Name:     strings.TrimSpace(rec.Name),
		Unit:     strings.TrimSpace(rec.Unit),
		Category: strings.TrimSpace(rec.Category),
		Brand:    strings.TrimSpace(rec.Brand),
		Stock:    ParseStock(rec.Stock),
		ImageURL: strings.TrimSpace(rec.ImageURL),
	}
	if err := toValidationError(validate.Struct(c)); err != nil {
		return Candidate{}, err
	}
	return c, nil
}

// toValidationError reduces validator output to the first failing field.
func toValidationError(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ValidationError{Message: err.Error()}
	}

	fe := fieldErrs[0]
	msg := "is invalid"
	switch fe.Tag() {
	case "required":
		msg = "is required"
	case "min":
		msg = "must be a non-negative number"
	case "max":
		msg = "must be at most " + fe.Param()
	}
	value, _ := fe.Value().(string)
	return &ValidationError{
		Field:   fe.Field(),
		Value:   value,
		Message: msg,
	}
}
