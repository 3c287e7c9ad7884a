package catalog

import "github.com/shopspring/decimal"

// Summary aggregates the headline numbers shown above the product table.
// Money amounts are rounded to cents.
type Summary struct {
	TotalProducts  int             `json:"totalProducts"`
	InventoryValue decimal.Decimal `json:"inventoryValue"`
	UnitsSold      int             `json:"unitsSold"`
	Revenue        decimal.Decimal `json:"revenue"`
	LowStock       int             `json:"lowStock"`
	OutOfStock     int             `json:"outOfStock"`
}

// Summarize computes a Summary. LowStock includes out-of-stock products.
func Summarize(products []Product) Summary {
	s := Summary{
		TotalProducts:  len(products),
		InventoryValue: decimal.Zero,
		Revenue:        decimal.Zero,
	}
	for _, p := range products {
		price := decimal.NewFromFloat(p.Price)
		s.InventoryValue = s.InventoryValue.Add(price.Mul(decimal.NewFromInt(int64(p.StockQuantity))))
		s.Revenue = s.Revenue.Add(decimal.NewFromFloat(p.SoldSum))
		s.UnitsSold += p.SoldCount
		if p.StockQuantity < LowStockThreshold {
			s.LowStock++
		}
		if p.StockQuantity == 0 {
			s.OutOfStock++
		}
	}
	s.InventoryValue = s.InventoryValue.Round(2)
	s.Revenue = s.Revenue.Round(2)
	return s
}

// PriceRange returns the lowest and highest price in products.
// ok is false for an empty slice.
func PriceRange(products []Product) (lo, hi float64, ok bool) {
	if len(products) == 0 {
		return 0, 0, false
	}
	lo, hi = products[0].Price, products[0].Price
	for _, p := range products[1:] {
		lo = min(lo, p.Price)
		hi = max(hi, p.Price)
	}
	return lo, hi, true
}
