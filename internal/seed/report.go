package seed

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"

	"github.com/jpalmerr/productboard/catalog"
)

// Report summarises a seeding run.
type Report struct {
	Seed     uint64
	Duration time.Duration

	ProductsCreated int
	ProductsFailed  int

	OrdersCreated   int
	OrdersFailed    int
	OrdersPaid      int
	OrdersCancelled int
	OrdersPending   int
	EdgeCases       int

	ItemsCreated int
	ItemsFailed  int

	// Product analysis from locally tracked stock.
	InventoryValue decimal.Decimal
	UnitsSold      int
	OutOfStock     int
	LowStock       int
	MinPrice       float64
	MaxPrice       float64
}

func (r *Report) analyse(products []*trackedProduct) {
	snapshot := make([]catalog.Product, len(products))
	for i, p := range products {
		snapshot[i] = catalog.Product{
			ID:            p.id,
			Name:          p.item.Name,
			Price:         p.item.Price,
			StockQuantity: p.stock,
			SoldCount:     p.sold,
		}
	}

	sum := catalog.Summarize(snapshot)
	r.InventoryValue = sum.InventoryValue
	r.UnitsSold = sum.UnitsSold
	r.OutOfStock = sum.OutOfStock
	// the report counts low stock separately from out of stock
	r.LowStock = sum.LowStock - sum.OutOfStock
	r.MinPrice, r.MaxPrice, _ = catalog.PriceRange(snapshot)
}

// Render writes the report as two tables: run counters and product analysis.
func (r *Report) Render(w io.Writer) error {
	counters := tablewriter.NewWriter(w)
	counters.Header("Metric", "Created", "Failed")
	rows := [][]string{
		{"Products", strconv.Itoa(r.ProductsCreated), strconv.Itoa(r.ProductsFailed)},
		{"Orders", strconv.Itoa(r.OrdersCreated), strconv.Itoa(r.OrdersFailed)},
		{"  Paid", strconv.Itoa(r.OrdersPaid), ""},
		{"  Cancelled", strconv.Itoa(r.OrdersCancelled), ""},
		{"  Pending", strconv.Itoa(r.OrdersPending), ""},
		{"  Edge cases", strconv.Itoa(r.EdgeCases), ""},
		{"Order items", strconv.Itoa(r.ItemsCreated), strconv.Itoa(r.ItemsFailed)},
	}
	for _, row := range rows {
		if err := counters.Append(row); err != nil {
			return err
		}
	}
	if err := counters.Render(); err != nil {
		return err
	}

	analysis := tablewriter.NewWriter(w)
	analysis.Header("Product analysis", "Value")
	priceRange := "n/a"
	if r.ProductsCreated > 0 {
		priceRange = catalog.FormatCurrency(r.MinPrice) + " - " + catalog.FormatCurrency(r.MaxPrice)
	}
	for _, row := range [][]string{
		{"Inventory value", catalog.FormatDecimal(r.InventoryValue)},
		{"Units sold", catalog.FormatNumber(r.UnitsSold)},
		{"Out of stock", strconv.Itoa(r.OutOfStock)},
		{"Low stock", strconv.Itoa(r.LowStock)},
		{"Price range", priceRange},
		{"Seed", strconv.FormatUint(r.Seed, 10)},
		{"Duration", r.Duration.Round(time.Millisecond).String()},
	} {
		if err := analysis.Append(row); err != nil {
			return err
		}
	}
	if err := analysis.Render(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\nRerun with --seed %d to reproduce this order history.\n", r.Seed)
	return err
}
