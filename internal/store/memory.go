package store

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jpalmerr/productboard/catalog"
	"github.com/jpalmerr/productboard/internal/pkg/clock"
)

// MemoryStore is an in-memory implementation of [Store].
//
// MemoryStore keeps products in creation order and tracks stock reservations
// made by pending orders. Adding an item to an order takes the stock
// immediately; cancelling the order gives it back, paying it records the
// sale on the product.
type MemoryStore struct {
	mu       sync.RWMutex
	products map[string]*catalog.Product
	order    []string
	orders   map[string]*Order

	clock clock.Clock
	newID func() string
}

// MemoryOption configures a [MemoryStore].
type MemoryOption func(*MemoryStore)

// WithClock sets the clock used for creation timestamps.
func WithClock(c clock.Clock) MemoryOption {
	return func(m *MemoryStore) { m.clock = c }
}

// WithIDGenerator replaces the uuid-based id generator.
func WithIDGenerator(fn func() string) MemoryOption {
	return func(m *MemoryStore) { m.newID = fn }
}

// NewMemoryStore creates a new in-memory [Store] implementation.
//
// The store is immediately ready for use. No cleanup is required when done.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	m := &MemoryStore{
		products: make(map[string]*catalog.Product),
		orders:   make(map[string]*Order),
		clock:    clock.NewRealClock(),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ListProducts returns a snapshot of all products in creation order.
func (m *MemoryStore) ListProducts() []catalog.Product {
	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make([]catalog.Product, 0, len(m.order))
	for _, id := range m.order {
		results = append(results, *m.products[id])
	}
	return results
}

func (m *MemoryStore) GetProduct(id string) (catalog.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[id]
	if !ok {
		return catalog.Product{}, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return *p, nil
}

// CreateProduct stores a new product. The request must already be valid.
func (m *MemoryStore) CreateProduct(req catalog.ProductRequest) (catalog.Product, error) {
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return catalog.Product{}, err
	}

	p := &catalog.Product{
		ID:            m.newID(),
		Name:          req.Name,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
		CreatedAt:     m.clock.Now().UTC(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.products[p.ID] = p
	m.order = append(m.order, p.ID)
	return *p, nil
}

func (m *MemoryStore) UpdateProduct(id string, req catalog.ProductRequest) (catalog.Product, error) {
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return catalog.Product{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[id]
	if !ok {
		return catalog.Product{}, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	p.Name = req.Name
	p.Price = req.Price
	p.StockQuantity = req.StockQuantity
	return *p, nil
}

func (m *MemoryStore) DeleteProduct(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.products[id]; !ok {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	delete(m.products, id)
	for i, pid := range m.order {
		if pid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *MemoryStore) InitOrder() Order {
	o := &Order{
		ID:        m.newID(),
		Status:    OrderPending,
		Items:     []OrderItem{},
		CreatedAt: m.clock.Now().UTC(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.orders[o.ID] = o
	return copyOrder(o)
}

func (m *MemoryStore) GetOrder(id string) (Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	o, ok := m.orders[id]
	if !ok {
		return Order{}, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	return copyOrder(o), nil
}

func (m *MemoryStore) AddOrderItem(orderID, productID string, quantity int) (OrderItem, error) {
	if quantity <= 0 {
		return OrderItem{}, ErrInvalidQuantity
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[orderID]
	if !ok {
		return OrderItem{}, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}
	if o.Status != OrderPending {
		return OrderItem{}, fmt.Errorf("order %s is %s: %w", orderID, o.Status, ErrOrderClosed)
	}
	p, ok := m.products[productID]
	if !ok {
		return OrderItem{}, fmt.Errorf("product %s: %w", productID, ErrNotFound)
	}
	for _, item := range o.Items {
		if item.ProductID == productID {
			return OrderItem{}, fmt.Errorf("product %s: %w", productID, ErrDuplicateItem)
		}
	}
	if quantity > p.StockQuantity {
		return OrderItem{}, fmt.Errorf("product %s has %d in stock, %d requested: %w",
			productID, p.StockQuantity, quantity, ErrInsufficientStock)
	}

	p.StockQuantity -= quantity
	item := OrderItem{
		ID:        m.newID(),
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: p.Price,
	}
	o.Items = append(o.Items, item)
	return item, nil
}

func (m *MemoryStore) PayOrder(orderID string) (Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, err := m.pendingOrder(orderID)
	if err != nil {
		return Order{}, err
	}

	for _, item := range o.Items {
		p, ok := m.products[item.ProductID]
		if !ok {
			// product deleted while the order was open; the sale has nowhere to go
			continue
		}
		line := decimal.NewFromFloat(item.UnitPrice).Mul(decimal.NewFromInt(int64(item.Quantity)))
		p.SoldCount += item.Quantity
		p.SoldSum = decimal.NewFromFloat(p.SoldSum).Add(line).Round(2).InexactFloat64()
	}
	o.Status = OrderPaid
	return copyOrder(o), nil
}

func (m *MemoryStore) CancelOrder(orderID string) (Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, err := m.pendingOrder(orderID)
	if err != nil {
		return Order{}, err
	}

	for _, item := range o.Items {
		if p, ok := m.products[item.ProductID]; ok {
			p.StockQuantity += item.Quantity
		}
	}
	o.Status = OrderCancelled
	return copyOrder(o), nil
}

// pendingOrder must be called with m.mu held.
func (m *MemoryStore) pendingOrder(orderID string) (*Order, error) {
	o, ok := m.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}
	if o.Status != OrderPending {
		return nil, fmt.Errorf("order %s is %s: %w", orderID, o.Status, ErrOrderClosed)
	}
	return o, nil
}

func copyOrder(o *Order) Order {
	out := *o
	out.Items = append([]OrderItem(nil), o.Items...)
	if out.Items == nil {
		out.Items = []OrderItem{}
	}
	return out
}
