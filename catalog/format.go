package catalog

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// StockLevel buckets a stock quantity for display.
type StockLevel int

const (
	InStock StockLevel = iota
	LowStock
	OutOfStock
)

func (l StockLevel) String() string {
	switch l {
	case OutOfStock:
		return "Out of Stock"
	case LowStock:
		return "Low Stock"
	default:
		return "In Stock"
	}
}

// StockStatus classifies a stock quantity.
func StockStatus(quantity int) StockLevel {
	switch {
	case quantity <= 0:
		return OutOfStock
	case quantity < LowStockThreshold:
		return LowStock
	default:
		return InStock
	}
}

// FormatCurrency renders amount in US dollars, e.g. "$1,234.50".
func FormatCurrency(amount float64) string {
	return FormatDecimal(decimal.NewFromFloat(amount))
}

// FormatDecimal renders a decimal amount in US dollars.
func FormatDecimal(amount decimal.Decimal) string {
	d := amount.Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	fixed := d.StringFixed(2)
	return sign + "$" + humanize.Comma(d.IntPart()) + fixed[len(fixed)-3:]
}

// FormatNumber renders n with thousands separators, e.g. "1,234".
func FormatNumber(n int) string {
	return humanize.Comma(int64(n))
}

// FormatDate renders t as "Jan 2, 2006, 03:04 PM".
func FormatDate(t time.Time) string {
	return t.Format("Jan 2, 2006, 03:04 PM")
}

// FormatRelative renders how long ago t was, e.g. "3 minutes ago".
func FormatRelative(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}
