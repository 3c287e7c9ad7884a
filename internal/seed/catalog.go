package seed

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/jpalmerr/productboard/catalog"
)

// Item is one product in the seed catalog.
type Item struct {
	Name          string  `yaml:"name"`
	Price         float64 `yaml:"price"`
	StockQuantity int     `yaml:"stock_quantity"`
	Category      string  `yaml:"category"`
}

// Request converts the item into a product create request.
func (i Item) Request() catalog.ProductRequest {
	return catalog.ProductRequest{Name: i.Name, Price: i.Price, StockQuantity: i.StockQuantity}
}

// Scenario describes a batch of orders with the same shape and outcome odds.
type Scenario struct {
	Name              string  `yaml:"name"`
	Count             int     `yaml:"count"`
	PayProbability    float64 `yaml:"pay_probability"`
	CancelProbability float64 `yaml:"cancel_probability"`
	MinItems          int     `yaml:"min_items"`
	MaxItems          int     `yaml:"max_items"`
}

// Validate checks the scenario's counts and probabilities.
func (s Scenario) Validate() error {
	switch {
	case s.Name == "":
		return errors.New("name is required")
	case s.Count < 0:
		return fmt.Errorf("count must be >= 0, got %d", s.Count)
	case s.PayProbability < 0 || s.PayProbability > 1:
		return fmt.Errorf("pay_probability must be within [0,1], got %g", s.PayProbability)
	case s.CancelProbability < 0 || s.CancelProbability > 1:
		return fmt.Errorf("cancel_probability must be within [0,1], got %g", s.CancelProbability)
	case s.MinItems < 1:
		return fmt.Errorf("min_items must be >= 1, got %d", s.MinItems)
	case s.MaxItems < s.MinItems:
		return fmt.Errorf("max_items (%d) must be >= min_items (%d)", s.MaxItems, s.MinItems)
	}
	return nil
}

// DefaultScenarios returns the built-in order mix.
func DefaultScenarios() []Scenario {
	return []Scenario{
		{Name: "High-Value Completed Orders", Count: 8, PayProbability: 1, MinItems: 1, MaxItems: 3},
		{Name: "Regular Completed Orders", Count: 20, PayProbability: 1, MinItems: 2, MaxItems: 6},
		{Name: "Cancelled Orders", Count: 7, CancelProbability: 1, MinItems: 1, MaxItems: 4},
		{Name: "Pending Orders", Count: 10, MinItems: 1, MaxItems: 5},
		{Name: "Mixed Outcome Orders", Count: 5, PayProbability: 0.6, CancelProbability: 0.2, MinItems: 2, MaxItems: 4},
	}
}

// DefaultCatalog returns the built-in grocery catalog. It deliberately
// includes out-of-stock and low-stock products.
func DefaultCatalog() []Item {
	return []Item{
		{"Organic Bananas (2 lbs)", 2.99, 150, "Produce"},
		{"Hass Avocados (4 pack)", 5.99, 85, "Produce"},
		{"Fresh Strawberries (1 lb)", 6.99, 0, "Produce"},
		{"Organic Baby Spinach (5 oz)", 3.99, 45, "Produce"},
		{"Roma Tomatoes (2 lbs)", 4.49, 120, "Produce"},
		{"Sweet Bell Peppers (3 pack)", 4.99, 65, "Produce"},
		{"Organic Carrots (2 lbs)", 2.79, 95, "Produce"},

		{"Organic Whole Milk (1 gal)", 4.99, 75, "Dairy"},
		{"Free Range Large Eggs (12 ct)", 4.49, 90, "Dairy"},
		{"Greek Yogurt Vanilla (32 oz)", 6.99, 60, "Dairy"},
		{"Sharp Cheddar Cheese (8 oz)", 5.49, 8, "Dairy"},
		{"Unsalted Butter (1 lb)", 6.49, 55, "Dairy"},
		{"Cream Cheese (8 oz)", 3.99, 40, "Dairy"},

		{"Boneless Chicken Breast (1 lb)", 8.99, 40, "Meat"},
		{"Ground Beef 85/15 (1 lb)", 7.49, 35, "Meat"},
		{"Fresh Atlantic Salmon (1 lb)", 14.99, 2, "Seafood"},
		{"Pork Tenderloin (1 lb)", 9.99, 25, "Meat"},
		{"Turkey Deli Slices (1 lb)", 8.49, 30, "Deli"},

		{"Spaghetti Pasta (1 lb)", 1.49, 200, "Pantry"},
		{"Jasmine Rice (5 lbs)", 7.99, 100, "Pantry"},
		{"Extra Virgin Olive Oil (500ml)", 12.99, 45, "Pantry"},
		{"Sea Salt Fine (26 oz)", 2.99, 80, "Pantry"},
		{"Ground Black Pepper (2.5 oz)", 4.29, 65, "Pantry"},
		{"Canned Tomatoes Crushed (28 oz)", 2.49, 120, "Pantry"},

		{"Artisan Sourdough Loaf", 5.99, 30, "Bakery"},
		{"Butter Croissants (6 pack)", 7.99, 12, "Bakery"},
		{"Everything Bagels (6 pack)", 4.99, 25, "Bakery"},
		{"Whole Wheat Sandwich Bread", 3.49, 50, "Bakery"},

		{"Fresh Orange Juice (64 oz)", 5.99, 70, "Beverages"},
		{"Colombian Coffee Beans (12 oz)", 14.99, 7, "Beverages"},
		{"Organic Green Tea (20 bags)", 6.99, 50, "Beverages"},
		{"Sparkling Water (12 pack)", 4.99, 85, "Beverages"},

		{"Organic Frozen Blueberries (1 lb)", 7.99, 40, "Frozen"},
		{"Premium Vanilla Ice Cream (1.5 qt)", 6.99, 0, "Frozen"},
		{"Wood-Fired Pizza Margherita", 8.99, 35, "Frozen"},
		{"Frozen Mixed Vegetables (1 lb)", 3.99, 75, "Frozen"},

		{"Dark Chocolate 70% (3.5 oz)", 5.99, 90, "Snacks"},
		{"Roasted Mixed Nuts (1 lb)", 11.99, 55, "Snacks"},
		{"Organic Granola (12 oz)", 7.49, 40, "Snacks"},

		{"Organic Honey (12 oz)", 8.99, 35, "Health"},
		{"Coconut Oil Virgin (14 oz)", 9.99, 25, "Health"},
	}
}

type catalogFile struct {
	Products []Item `yaml:"products"`
}

// LoadCatalog reads a YAML catalog of the form:
//
//	products:
//	  - name: Whole Milk
//	    price: 4.99
//	    stock_quantity: 75
//	    category: Dairy
//
// Every item must pass the product form rules.
func LoadCatalog(r io.Reader) ([]Item, error) {
	var f catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if len(f.Products) == 0 {
		return nil, errors.New("catalog has no products")
	}
	for i, item := range f.Products {
		if err := item.Request().Normalize().Validate(); err != nil {
			return nil, fmt.Errorf("products[%d]: %w", i, err)
		}
	}
	return f.Products, nil
}
