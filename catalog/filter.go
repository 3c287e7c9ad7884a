package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
)

// SortField names a product attribute products can be ordered by.
type SortField string

const (
	SortByName      SortField = "name"
	SortByPrice     SortField = "price"
	SortByStock     SortField = "stockQuantity"
	SortByCreatedAt SortField = "createdAt"
	SortBySoldCount SortField = "soldCount"
	SortBySoldSum   SortField = "soldSum"
)

// Sort describes an ordering of products.
type Sort struct {
	Field SortField
	Desc  bool
}

// DefaultSort lists the newest products first.
var DefaultSort = Sort{Field: SortByCreatedAt, Desc: true}

// ParseSortField validates s as a SortField. An empty string yields the
// default field.
func ParseSortField(s string) (SortField, error) {
	switch f := SortField(s); f {
	case "":
		return DefaultSort.Field, nil
	case SortByName, SortByPrice, SortByStock, SortByCreatedAt, SortBySoldCount, SortBySoldSum:
		return f, nil
	default:
		return "", fmt.Errorf("unknown sort field %q", s)
	}
}

// Filter narrows a product list. Nil bounds are unbounded and bounds are
// inclusive.
type Filter struct {
	Name string
	// Fuzzy switches Name matching from substring to fuzzy matching.
	Fuzzy bool

	MinStockQuantity *int
	MaxStockQuantity *int
	MinPrice         *float64
	MaxPrice         *float64
	MinSoldCount     *int
	MaxSoldCount     *int
	MinSoldSum       *float64
	MaxSoldSum       *float64
}

// IsZero reports whether the filter matches every product.
func (f Filter) IsZero() bool {
	return f.Name == "" &&
		f.MinStockQuantity == nil && f.MaxStockQuantity == nil &&
		f.MinPrice == nil && f.MaxPrice == nil &&
		f.MinSoldCount == nil && f.MaxSoldCount == nil &&
		f.MinSoldSum == nil && f.MaxSoldSum == nil
}

// Match reports whether p satisfies the numeric bounds and, unless Fuzzy is
// set, the case-insensitive name substring.
func (f Filter) Match(p Product) bool {
	if !f.Fuzzy && f.Name != "" &&
		!strings.Contains(strings.ToLower(p.Name), strings.ToLower(strings.TrimSpace(f.Name))) {
		return false
	}
	return inRange(p.StockQuantity, f.MinStockQuantity, f.MaxStockQuantity) &&
		inRange(p.Price, f.MinPrice, f.MaxPrice) &&
		inRange(p.SoldCount, f.MinSoldCount, f.MaxSoldCount) &&
		inRange(p.SoldSum, f.MinSoldSum, f.MaxSoldSum)
}

func inRange[T int | float64](v T, lo, hi *T) bool {
	if lo != nil && v < *lo {
		return false
	}
	if hi != nil && v > *hi {
		return false
	}
	return true
}

// Apply returns a new slice holding the products that match f, ordered by s.
// The input slice is not modified. Products that compare equal keep their
// input order.
func Apply(products []Product, f Filter, s Sort) []Product {
	var fuzzyHits map[int]struct{}
	if f.Fuzzy && strings.TrimSpace(f.Name) != "" {
		fuzzyHits = fuzzyMatches(products, strings.TrimSpace(f.Name))
	}

	out := make([]Product, 0, len(products))
	for i, p := range products {
		if fuzzyHits != nil {
			if _, ok := fuzzyHits[i]; !ok {
				continue
			}
		}
		if f.Match(p) {
			out = append(out, p)
		}
	}

	if s.Field == "" {
		s = DefaultSort
	}
	less := lessFunc(s.Field)
	sort.SliceStable(out, func(i, j int) bool {
		if s.Desc {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}

type productNames []Product

func (n productNames) String(i int) string { return n[i].Name }
func (n productNames) Len() int            { return len(n) }

func fuzzyMatches(products []Product, pattern string) map[int]struct{} {
	hits := make(map[int]struct{})
	for _, m := range fuzzy.FindFrom(pattern, productNames(products)) {
		hits[m.Index] = struct{}{}
	}
	return hits
}

func lessFunc(field SortField) func(a, b Product) bool {
	switch field {
	case SortByName:
		return func(a, b Product) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	case SortByPrice:
		return func(a, b Product) bool { return a.Price < b.Price }
	case SortByStock:
		return func(a, b Product) bool { return a.StockQuantity < b.StockQuantity }
	case SortBySoldCount:
		return func(a, b Product) bool { return a.SoldCount < b.SoldCount }
	case SortBySoldSum:
		return func(a, b Product) bool { return a.SoldSum < b.SoldSum }
	default:
		return func(a, b Product) bool { return a.CreatedAt.Before(b.CreatedAt) }
	}
}
