// Package seed populates a product backend with a demo catalog and a
// realistic order history through the public REST contract.
//
// Seeding runs in three phases: products from the catalog, order scenarios
// that pay, cancel or leave orders pending by probability, and two edge-case
// orders (a large paid basket and a single high-value item). Stock is
// tracked locally so orders never ask for more than is available.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/time/rate"

	"github.com/jpalmerr/productboard/catalog"
	"github.com/jpalmerr/productboard/internal/restclient"
)

const (
	// maxItemQuantity caps the quantity of a single order line.
	maxItemQuantity = 10

	// quickDivisor shrinks scenario counts in quick mode.
	quickDivisor = 4

	largeOrderProducts   = 8
	largeOrderMinStock   = 20
	largeOrderMinQty     = 5
	largeOrderMaxQty     = 15
	defaultRetries       = 3
	defaultRetryDelay    = 500 * time.Millisecond
	defaultRequestPacing = 100 * time.Millisecond
)

// ErrUnavailable is returned when the backend fails the health check.
var ErrUnavailable = errors.New("product API is not available")

// Client is the subset of the REST client the seeder needs.
type Client interface {
	ListProducts(ctx context.Context) ([]catalog.Product, error)
	CreateProduct(ctx context.Context, req catalog.ProductRequest) (string, error)
	InitOrder(ctx context.Context) (string, error)
	AddOrderItem(ctx context.Context, orderID, productID string, quantity int) (string, error)
	PayOrder(ctx context.Context, orderID string) error
	CancelOrder(ctx context.Context, orderID string) error
}

// Options tunes a seeding run. The zero value uses the built-in catalog and
// scenarios with default pacing and retries.
type Options struct {
	// Catalog overrides the built-in product catalog when non-empty.
	Catalog []Item
	// Scenarios overrides the built-in order scenarios when non-empty.
	Scenarios []Scenario

	// Quick divides every scenario count by four (minimum one order).
	Quick bool
	// ProductsOnly skips the order phases.
	ProductsOnly bool
	// Verbose logs every request at info level instead of debug.
	Verbose bool

	// Seed makes order generation reproducible. Zero picks a random seed.
	Seed uint64
	// Delay is the minimum spacing between API calls. Zero uses 100ms;
	// negative disables pacing.
	Delay time.Duration
	// Retries is the number of attempts per call. Zero uses 3.
	Retries int
	// RetryDelay is the base of the linear retry backoff. Zero uses 500ms.
	RetryDelay time.Duration
}

// Seeder runs seeding against a [Client].
type Seeder struct {
	client  Client
	opts    Options
	logger  *slog.Logger
	rng     *rand.Rand
	limiter *rate.Limiter
}

// New creates a Seeder. A nil logger falls back to slog.Default().
func New(client Client, opts Options, logger *slog.Logger) (*Seeder, error) {
	if client == nil {
		return nil, errors.New("client is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if len(opts.Catalog) == 0 {
		opts.Catalog = DefaultCatalog()
	}
	if len(opts.Scenarios) == 0 {
		opts.Scenarios = DefaultScenarios()
	}
	for i, sc := range opts.Scenarios {
		if err := sc.Validate(); err != nil {
			return nil, fmt.Errorf("scenarios[%d]: %w", i, err)
		}
	}
	if opts.Retries <= 0 {
		opts.Retries = defaultRetries
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = defaultRetryDelay
	}
	if opts.Delay == 0 {
		opts.Delay = defaultRequestPacing
	}
	if opts.Seed == 0 {
		opts.Seed = rand.Uint64()
	}

	limit := rate.Inf
	if opts.Delay > 0 {
		limit = rate.Every(opts.Delay)
	}

	return &Seeder{
		client:  client,
		opts:    opts,
		logger:  logger,
		rng:     rand.New(rand.NewPCG(opts.Seed, opts.Seed>>1|1)),
		limiter: rate.NewLimiter(limit, 1),
	}, nil
}

// trackedProduct mirrors a created product with its locally tracked stock.
type trackedProduct struct {
	id    string
	item  Item
	stock int
	sold  int
}

type orderLine struct {
	product  *trackedProduct
	quantity int
}

// Run seeds the backend and returns the report. It fails only when the
// health check fails or ctx is cancelled; individual request failures are
// counted in the report.
func (s *Seeder) Run(ctx context.Context) (*Report, error) {
	started := time.Now()
	report := &Report{Seed: s.opts.Seed}

	s.logger.Info("checking API health")
	if _, err := call(ctx, s, "health check", func(ctx context.Context) ([]catalog.Product, error) {
		return s.client.ListProducts(ctx)
	}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	products, err := s.createProducts(ctx, report)
	if err != nil {
		return nil, err
	}

	if !s.opts.ProductsOnly {
		for _, sc := range s.opts.Scenarios {
			if err := s.runScenario(ctx, sc, products, report); err != nil {
				return nil, err
			}
		}
		if err := s.edgeCases(ctx, products, report); err != nil {
			return nil, err
		}
	}

	report.analyse(products)
	report.Duration = time.Since(started)
	s.logger.Info("seeding completed",
		"products", report.ProductsCreated,
		"orders", report.OrdersCreated,
		"paid", report.OrdersPaid,
		"cancelled", report.OrdersCancelled,
		"pending", report.OrdersPending,
		"duration", report.Duration)
	return report, nil
}

func (s *Seeder) createProducts(ctx context.Context, report *Report) ([]*trackedProduct, error) {
	s.logger.Info("creating products", "count", len(s.opts.Catalog))

	products := make([]*trackedProduct, 0, len(s.opts.Catalog))
	for i, item := range s.opts.Catalog {
		id, err := call(ctx, s, "create product", func(ctx context.Context) (string, error) {
			return s.client.CreateProduct(ctx, item.Request())
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			report.ProductsFailed++
			s.logger.Warn("failed to create product", "name", item.Name, "error", err)
			continue
		}
		report.ProductsCreated++
		products = append(products, &trackedProduct{id: id, item: item, stock: item.StockQuantity})
		s.step("product created", "index", i+1, "name", item.Name, "id", id)
	}
	return products, nil
}

func (s *Seeder) scenarioCount(sc Scenario) int {
	if !s.opts.Quick || sc.Count == 0 {
		return sc.Count
	}
	return max(1, sc.Count/quickDivisor)
}

func (s *Seeder) runScenario(ctx context.Context, sc Scenario, products []*trackedProduct, report *Report) error {
	count := s.scenarioCount(sc)
	s.logger.Info("creating orders", "scenario", sc.Name, "count", count)

	for i := 0; i < count; i++ {
		orderID, err := call(ctx, s, "init order", s.client.InitOrder)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			report.OrdersFailed++
			s.logger.Warn("failed to init order", "scenario", sc.Name, "error", err)
			continue
		}
		report.OrdersCreated++

		lines, err := s.fillOrder(ctx, orderID, s.between(sc.MinItems, sc.MaxItems), products, report)
		if err != nil {
			return err
		}

		outcome, err := s.settle(ctx, orderID, sc, lines, report)
		if err != nil {
			return err
		}
		s.step("order created", "scenario", sc.Name, "order", i+1, "items", len(lines), "outcome", outcome)
	}
	return nil
}

// fillOrder adds up to n lines of distinct in-stock products.
func (s *Seeder) fillOrder(ctx context.Context, orderID string, n int, products []*trackedProduct, report *Report) ([]orderLine, error) {
	used := make(map[string]struct{}, n)
	var lines []orderLine
	for j := 0; j < n; j++ {
		available := make([]*trackedProduct, 0, len(products))
		for _, p := range products {
			if _, ok := used[p.id]; !ok && p.stock > 0 {
				available = append(available, p)
			}
		}
		if len(available) == 0 {
			break
		}

		p := available[s.rng.IntN(len(available))]
		qty := s.between(1, min(p.stock, maxItemQuantity))
		ok, err := s.addItem(ctx, orderID, p, qty, report)
		if err != nil {
			return nil, err
		}
		used[p.id] = struct{}{}
		if ok {
			lines = append(lines, orderLine{product: p, quantity: qty})
		}
	}
	return lines, nil
}

// addItem adds one line and updates local stock. Only a cancelled context is
// returned as an error.
func (s *Seeder) addItem(ctx context.Context, orderID string, p *trackedProduct, qty int, report *Report) (bool, error) {
	_, err := call(ctx, s, "add item", func(ctx context.Context) (string, error) {
		return s.client.AddOrderItem(ctx, orderID, p.id, qty)
	})
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		report.ItemsFailed++
		s.logger.Warn("failed to add order item", "order", orderID, "product", p.item.Name, "error", err)
		return false, nil
	}
	report.ItemsCreated++
	p.stock -= qty
	return true, nil
}

func (s *Seeder) settle(ctx context.Context, orderID string, sc Scenario, lines []orderLine, report *Report) (string, error) {
	switch {
	case s.rng.Float64() < sc.PayProbability:
		if _, err := call(ctx, s, "pay order", func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.client.PayOrder(ctx, orderID)
		}); err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			s.logger.Warn("failed to pay order", "order", orderID, "error", err)
			report.OrdersPending++
			return "pending", nil
		}
		report.OrdersPaid++
		for _, l := range lines {
			l.product.sold += l.quantity
		}
		return "paid", nil

	case s.rng.Float64() < sc.CancelProbability:
		if _, err := call(ctx, s, "cancel order", func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.client.CancelOrder(ctx, orderID)
		}); err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			s.logger.Warn("failed to cancel order", "order", orderID, "error", err)
			report.OrdersPending++
			return "pending", nil
		}
		report.OrdersCancelled++
		for _, l := range lines {
			l.product.stock += l.quantity
		}
		return "cancelled", nil

	default:
		report.OrdersPending++
		return "pending", nil
	}
}

// edgeCases creates the large paid basket and the single high-value order.
func (s *Seeder) edgeCases(ctx context.Context, products []*trackedProduct, report *Report) error {
	s.logger.Info("creating edge case orders")

	large := Scenario{Name: "Large Order", PayProbability: 1}
	var highStock []*trackedProduct
	for _, p := range products {
		if p.stock > largeOrderMinStock {
			highStock = append(highStock, p)
		}
		if len(highStock) == largeOrderProducts {
			break
		}
	}
	if len(highStock) > 0 {
		if err := s.edgeOrder(ctx, large, highStock, func(p *trackedProduct) int {
			return min(s.between(largeOrderMinQty, largeOrderMaxQty), p.stock)
		}, report); err != nil {
			return err
		}
	}

	var expensive *trackedProduct
	for _, p := range products {
		if p.stock > 0 && (expensive == nil || p.item.Price > expensive.item.Price) {
			expensive = p
		}
	}
	if expensive != nil {
		single := Scenario{Name: "High-Value Single Item", PayProbability: 1}
		if err := s.edgeOrder(ctx, single, []*trackedProduct{expensive}, func(*trackedProduct) int { return 1 }, report); err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) edgeOrder(ctx context.Context, sc Scenario, picks []*trackedProduct, qty func(*trackedProduct) int, report *Report) error {
	orderID, err := call(ctx, s, "init order", s.client.InitOrder)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		report.OrdersFailed++
		s.logger.Warn("failed to init edge case order", "scenario", sc.Name, "error", err)
		return nil
	}
	report.OrdersCreated++
	report.EdgeCases++

	var lines []orderLine
	for _, p := range picks {
		q := qty(p)
		ok, err := s.addItem(ctx, orderID, p, q, report)
		if err != nil {
			return err
		}
		if ok {
			lines = append(lines, orderLine{product: p, quantity: q})
		}
	}

	outcome, err := s.settle(ctx, orderID, sc, lines, report)
	if err != nil {
		return err
	}
	s.step("edge case order created", "scenario", sc.Name, "items", len(lines), "outcome", outcome)
	return nil
}

// between returns a uniform int in [lo, hi].
func (s *Seeder) between(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + s.rng.IntN(hi-lo+1)
}

func (s *Seeder) step(msg string, args ...any) {
	if s.opts.Verbose {
		s.logger.Info(msg, args...)
		return
	}
	s.logger.Debug(msg, args...)
}

// call paces fn through the limiter and retries it with linear backoff.
// Client errors (4xx) and oversize responses are not retried.
func call[T any](ctx context.Context, s *Seeder, op string, fn func(context.Context) (T, error)) (T, error) {
	attempt := 0
	return backoff.Retry(ctx, func() (T, error) {
		var zero T
		if err := s.limiter.Wait(ctx); err != nil {
			return zero, backoff.Permanent(err)
		}
		attempt++
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if isClientError(err) || errors.Is(err, restclient.ErrResponseTooLarge) {
			return zero, backoff.Permanent(err)
		}
		s.logger.Debug("request failed", "op", op, "attempt", attempt, "error", err)
		return zero, err
	},
		backoff.WithBackOff(&linearBackOff{step: s.opts.RetryDelay}),
		backoff.WithMaxTries(uint(s.opts.Retries)),
	)
}

func isClientError(err error) bool {
	var apiErr *catalog.APIError
	return errors.As(err, &apiErr) &&
		apiErr.StatusCode >= http.StatusBadRequest && apiErr.StatusCode < http.StatusInternalServerError
}

// linearBackOff waits step, 2*step, 3*step, ...
type linearBackOff struct {
	step time.Duration
	n    int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.n++
	return time.Duration(b.n) * b.step
}

func (b *linearBackOff) Reset() {
	b.n = 0
}
