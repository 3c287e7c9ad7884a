package store

import (
	"errors"
	"time"

	"github.com/jpalmerr/productboard/catalog"
)

// Sentinel errors returned by [Store] implementations.
var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrOrderClosed       = errors.New("order is not pending")
	ErrDuplicateItem     = errors.New("product already in order")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderPaid      OrderStatus = "PAID"
	OrderCancelled OrderStatus = "CANCELLED"
)

// OrderItem is a product line within an order. UnitPrice is captured when
// the item is added.
type OrderItem struct {
	ID        string  `json:"id"`
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
}

// Order is a customer order.
type Order struct {
	ID        string      `json:"id"`
	Status    OrderStatus `json:"status"`
	Items     []OrderItem `json:"items"`
	CreatedAt time.Time   `json:"createdAt"`
}

// Store defines the product and order operations served by the backend.
//
// Store implementations must be safe for concurrent access.
type Store interface {
	// ListProducts returns every product in creation order.
	// The returned slice is a snapshot; modifications do not affect the store.
	ListProducts() []catalog.Product

	GetProduct(id string) (catalog.Product, error)
	CreateProduct(req catalog.ProductRequest) (catalog.Product, error)
	UpdateProduct(id string, req catalog.ProductRequest) (catalog.Product, error)
	DeleteProduct(id string) error

	// InitOrder opens an empty pending order.
	InitOrder() Order
	GetOrder(id string) (Order, error)

	// AddOrderItem reserves quantity units of a product for a pending order.
	AddOrderItem(orderID, productID string, quantity int) (OrderItem, error)

	// PayOrder marks a pending order paid and records the sales against its products.
	PayOrder(orderID string) (Order, error)

	// CancelOrder marks a pending order cancelled and returns its reserved stock.
	CancelOrder(orderID string) (Order, error)
}
