// Package catalog defines the product records exchanged with the product
// backend, together with the validation, filtering, summary and formatting
// helpers shared by every presentation layer.
package catalog

import (
	"math"
	"strings"
	"time"
)

// MinPrice is the smallest price a product may be created or updated with.
const MinPrice = 0.01

// LowStockThreshold is the stock level below which a product counts as low stock.
const LowStockThreshold = 10

// Product is a catalog record as served by the backend.
// Products are immutable values: they are replaced wholesale on every refresh
// and never patched locally.
type Product struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Price         float64   `json:"price"`
	StockQuantity int       `json:"stockQuantity"`
	CreatedAt     time.Time `json:"createdAt"`
	SoldCount     int       `json:"soldCount"`
	SoldSum       float64   `json:"soldSum"`
}

// ProductRequest is the payload for creating or updating a product.
type ProductRequest struct {
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	StockQuantity int     `json:"stockQuantity"`
}

// IDResponse is the body returned by endpoints that create a resource.
type IDResponse struct {
	ID string `json:"id"`
}

// FieldError describes a single invalid field of a request.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors collects every FieldError found in a request.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, fe := range v {
		msgs[i] = fe.Message
	}
	return strings.Join(msgs, "; ")
}

// Normalize returns a copy of the request with surrounding whitespace
// removed from the name.
func (r ProductRequest) Normalize() ProductRequest {
	r.Name = strings.TrimSpace(r.Name)
	return r
}

// Validate checks the request against the product form rules. It returns
// nil or a non-empty ValidationErrors.
func (r ProductRequest) Validate() error {
	var errs ValidationErrors

	if strings.TrimSpace(r.Name) == "" {
		errs = append(errs, FieldError{Field: "name", Message: "Product name cannot be blank"})
	}

	switch {
	case math.IsNaN(r.Price) || math.IsInf(r.Price, 0):
		errs = append(errs, FieldError{Field: "price", Message: "Price must be a valid number"})
	case r.Price < MinPrice:
		errs = append(errs, FieldError{Field: "price", Message: "Price must be greater than zero"})
	}

	if r.StockQuantity < 0 {
		errs = append(errs, FieldError{Field: "stockQuantity", Message: "Stock quantity cannot be negative"})
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}
