package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jpalmerr/productboard/catalog"
	"github.com/jpalmerr/productboard/internal/pkg/clock"
)

// DefaultPollingInterval is the cadence of background refreshes.
const DefaultPollingInterval = 15 * time.Second

// subscriberBuffer is the channel capacity handed out by Subscribe. When a
// subscriber falls behind, its oldest pending snapshot is discarded.
const subscriberBuffer = 16

// Messages used when a failure carries no backend message.
const (
	MsgFetchFailed  = "Failed to fetch products"
	MsgCreateFailed = "Failed to create product"
	MsgUpdateFailed = "Failed to update product"
	MsgDeleteFailed = "Failed to delete product"
)

// ErrClosed is returned by mutations issued after Close.
var ErrClosed = errors.New("coordinator is closed")

// Option configures a [Coordinator].
type Option func(*Coordinator) error

// WithClock sets the clock used for tickers and refresh timestamps.
func WithClock(c clock.Clock) Option {
	return func(co *Coordinator) error {
		if c == nil {
			return errors.New("clock cannot be nil")
		}
		co.clock = c
		return nil
	}
}

// WithPollingInterval sets the background refresh cadence.
func WithPollingInterval(d time.Duration) Option {
	return func(co *Coordinator) error {
		if d <= 0 {
			return fmt.Errorf("polling interval must be positive, got %v", d)
		}
		co.interval = d
		return nil
	}
}

// WithLogger sets the logger. Nil keeps slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(co *Coordinator) error {
		if l != nil {
			co.logger = l
		}
		return nil
	}
}

// WithMetrics records activity into m.
func WithMetrics(m *Metrics) Option {
	return func(co *Coordinator) error {
		co.metrics = m
		return nil
	}
}

// WithStateCallback registers fn to receive every published snapshot.
// Callbacks run synchronously on the goroutine that changed the state and
// may run concurrently with each other; they should return quickly.
// Panics are recovered and logged.
func WithStateCallback(fn func(State)) Option {
	return func(co *Coordinator) error {
		if fn == nil {
			return errors.New("state callback cannot be nil")
		}
		co.callbacks = append(co.callbacks, fn)
		return nil
	}
}

// WithPollingEnabled sets the initial polling preference. Default true.
func WithPollingEnabled(enabled bool) Option {
	return func(co *Coordinator) error {
		co.polling = enabled
		return nil
	}
}

// WithVisible sets the initial visibility of the presentation surface.
// Default true.
func WithVisible(visible bool) Option {
	return func(co *Coordinator) error {
		co.visible = visible
		return nil
	}
}

// Coordinator keeps a product list fresh by polling a [ProductStore] while
// serialising user mutations against it.
//
// Background refreshes are suppressed while polling is disabled, while the
// presentation surface is hidden and while the user is interacting with an
// edit or delete dialog. Every successful mutation is followed by a
// foreground refetch; products are only ever replaced by what the store
// returns.
//
// All methods are safe for concurrent use.
type Coordinator struct {
	store     ProductStore
	clock     clock.Clock
	interval  time.Duration
	logger    *slog.Logger
	metrics   *Metrics
	callbacks []func(State)

	mu          sync.Mutex
	products    []catalog.Product
	foreground  int
	errMsg      string
	polling     bool
	lastRefresh time.Time
	interacting bool
	visible     bool
	version     uint64
	started     bool
	closed      bool

	baseCtx    context.Context
	baseCancel context.CancelFunc
	ticker     clock.Ticker
	loopCancel context.CancelFunc
	loopGen    uint64

	pubMu     sync.Mutex
	published uint64

	subMu       sync.RWMutex
	subscribers map[chan State]struct{}
	subsClosed  bool
}

// New creates a [Coordinator] over store. Polling does not begin until
// [Coordinator.Start] is called.
func New(store ProductStore, opts ...Option) (*Coordinator, error) {
	if store == nil {
		return nil, errors.New("product store cannot be nil")
	}

	c := &Coordinator{
		store:       store,
		clock:       clock.NewRealClock(),
		interval:    DefaultPollingInterval,
		logger:      slog.Default(),
		products:    []catalog.Product{},
		polling:     true,
		visible:     true,
		subscribers: make(map[chan State]struct{}),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Start performs the initial foreground fetch and then arms the polling
// timer if polling is enabled and the surface is visible. Start blocks
// until the initial fetch settles.
//
// Cancelling ctx stops polling. If ctx is nil, context.Background() is used.
// Start is idempotent; calls after the first, or after Close, are no-ops.
func (c *Coordinator) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	c.mu.Lock()
	if c.started || c.closed {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.baseCtx, c.baseCancel = context.WithCancel(ctx)
	c.mu.Unlock()

	c.logger.Info("refresh coordinator starting", "interval", c.interval)

	c.Fetch(ctx, Foreground)

	c.mu.Lock()
	c.reconcileLocked()
	c.mu.Unlock()
}

// Close stops polling and releases subscribers. In-flight requests are not
// aborted but their results are discarded. Close is idempotent.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.disarmLocked()
	if c.baseCancel != nil {
		c.baseCancel()
	}
	c.mu.Unlock()

	c.subMu.Lock()
	c.subsClosed = true
	for ch := range c.subscribers {
		delete(c.subscribers, ch)
		close(ch)
	}
	c.subMu.Unlock()

	c.logger.Info("refresh coordinator closed")
}

// State returns a snapshot of the current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Fetch loads the product list from the store.
//
// A foreground fetch raises the loading indicator and clears the error for
// its whole span; on failure the error is set. A background fetch touches
// neither and failures are only logged. Either way a success replaces the
// product list and records the refresh time.
func (c *Coordinator) Fetch(ctx context.Context, mode FetchMode) {
	if mode == Foreground {
		if !c.beginForeground(false) {
			return
		}
		defer c.endForeground(false)
	} else if c.isClosed() {
		return
	}

	start := time.Now()
	products, err := c.store.ListProducts(ctx)
	c.metrics.observeFetch(mode, err, time.Since(start), len(products))

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if err != nil {
		if mode == Foreground {
			c.errMsg = catalog.UserMessage(err, MsgFetchFailed)
			c.version++
		}
		c.mu.Unlock()

		if mode == Foreground {
			c.logger.Warn("product fetch failed", "mode", mode, "error", err)
			c.publish()
		} else {
			c.logger.Debug("background refresh failed", "error", err)
		}
		return
	}

	c.products = append(make([]catalog.Product, 0, len(products)), products...)
	c.lastRefresh = c.clock.Now()
	c.version++
	c.mu.Unlock()

	c.logger.Debug("products refreshed", "mode", mode, "count", len(products))
	c.publish()
}

// ManualRefresh runs a foreground fetch. It is not subject to polling
// suppression and runs even while the user is interacting.
func (c *Coordinator) ManualRefresh(ctx context.Context) {
	c.Fetch(ctx, Foreground)
}

// Create adds a product and refetches. A nil error means success.
func (c *Coordinator) Create(ctx context.Context, req catalog.ProductRequest) error {
	return c.mutate(ctx, "create", MsgCreateFailed, func(ctx context.Context) error {
		_, err := c.store.CreateProduct(ctx, req)
		return err
	})
}

// Update replaces product id and refetches. A nil error means success.
func (c *Coordinator) Update(ctx context.Context, id string, req catalog.ProductRequest) error {
	return c.mutate(ctx, "update", MsgUpdateFailed, func(ctx context.Context) error {
		return c.store.UpdateProduct(ctx, id, req)
	})
}

// Delete removes product id and refetches. A nil error means success.
func (c *Coordinator) Delete(ctx context.Context, id string) error {
	return c.mutate(ctx, "delete", MsgDeleteFailed, func(ctx context.Context) error {
		return c.store.DeleteProduct(ctx, id)
	})
}

// mutate runs call as a foreground operation with interaction raised.
// Loading and interaction are reset on every exit path, including panics.
func (c *Coordinator) mutate(ctx context.Context, op, fallback string, call func(context.Context) error) error {
	if !c.beginForeground(true) {
		return ErrClosed
	}
	defer c.endForeground(true)

	if err := call(ctx); err != nil {
		c.metrics.observeMutation(op, err)

		c.mu.Lock()
		if !c.closed {
			c.errMsg = catalog.UserMessage(err, fallback)
			c.version++
		}
		c.mu.Unlock()
		c.publish()

		c.logger.Warn("product mutation failed", "operation", op, "error", err)
		return fmt.Errorf("%s product: %w", op, err)
	}

	c.metrics.observeMutation(op, nil)
	c.logger.Info("product mutation succeeded", "operation", op)

	c.Fetch(ctx, Foreground)
	return nil
}

// TogglePolling flips the polling preference and returns the new value.
// Enabling does not fetch immediately; the first background refresh
// happens one interval later.
func (c *Coordinator) TogglePolling() bool {
	c.mu.Lock()
	c.polling = !c.polling
	polling := c.polling
	c.version++
	c.reconcileLocked()
	c.mu.Unlock()

	c.logger.Info("polling toggled", "enabled", polling)
	c.publish()
	return polling
}

// SetUserInteracting marks whether the user has an edit or delete dialog
// open. Background refreshes are skipped while it is set. The flag is a
// plain boolean; the last caller wins.
func (c *Coordinator) SetUserInteracting(interacting bool) {
	c.mu.Lock()
	changed := c.interacting != interacting
	c.interacting = interacting
	if changed {
		c.version++
	}
	c.mu.Unlock()

	if changed {
		c.publish()
	}
}

// SetVisible reports whether the presentation surface is visible. Hiding it
// disarms the polling timer without changing the polling preference;
// showing it again re-arms the timer if polling is enabled.
func (c *Coordinator) SetVisible(visible bool) {
	c.mu.Lock()
	changed := c.visible != visible
	c.visible = visible
	if changed {
		c.version++
		c.reconcileLocked()
	}
	c.mu.Unlock()

	if changed {
		c.logger.Debug("visibility changed", "visible", visible)
		c.publish()
	}
}

// ClearError dismisses the current error message.
func (c *Coordinator) ClearError() {
	c.mu.Lock()
	changed := c.errMsg != ""
	c.errMsg = ""
	if changed {
		c.version++
	}
	c.mu.Unlock()

	if changed {
		c.publish()
	}
}

// Subscribe returns a channel that receives a snapshot after every state
// change. A subscriber that falls behind loses its oldest pending snapshots,
// never the newest. The channel is closed by Unsubscribe or Close.
func (c *Coordinator) Subscribe() <-chan State {
	ch := make(chan State, subscriberBuffer)

	c.subMu.Lock()
	defer c.subMu.Unlock()

	if c.subsClosed {
		close(ch)
		return ch
	}
	c.subscribers[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a subscription and closes its channel. Safe to call
// multiple times or with an unknown channel.
func (c *Coordinator) Unsubscribe(ch <-chan State) {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	for subCh := range c.subscribers {
		if subCh == ch {
			delete(c.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

func (c *Coordinator) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Coordinator) beginForeground(interacting bool) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	c.foreground++
	c.errMsg = ""
	if interacting {
		c.interacting = true
	}
	c.version++
	c.mu.Unlock()

	c.publish()
	return true
}

func (c *Coordinator) endForeground(interacting bool) {
	c.mu.Lock()
	c.foreground--
	if interacting {
		c.interacting = false
	}
	c.version++
	c.mu.Unlock()

	c.publish()
}

func (c *Coordinator) snapshotLocked() State {
	products := make([]catalog.Product, len(c.products))
	copy(products, c.products)
	return State{
		Products:    products,
		Loading:     c.foreground > 0,
		Error:       c.errMsg,
		IsPolling:   c.polling,
		LastRefresh: c.lastRefresh,
		Visible:     c.visible,
		Interacting: c.interacting,
		Version:     c.version,
	}
}

// reconcileLocked arms or disarms the polling timer to match the current
// flags. Must be called with c.mu held.
func (c *Coordinator) reconcileLocked() {
	shouldArm := c.started && !c.closed && c.polling && c.visible
	switch {
	case shouldArm && c.ticker == nil:
		c.armLocked()
	case !shouldArm && c.ticker != nil:
		c.disarmLocked()
	}
}

func (c *Coordinator) armLocked() {
	c.loopGen++
	gen := c.loopGen

	ticker := c.clock.NewTicker(c.interval)
	loopCtx, cancel := context.WithCancel(c.baseCtx)
	c.ticker = ticker
	c.loopCancel = cancel

	go c.loop(loopCtx, ticker, gen)
	c.logger.Debug("polling armed", "interval", c.interval)
}

func (c *Coordinator) disarmLocked() {
	if c.ticker == nil {
		return
	}
	c.ticker.Stop()
	c.loopCancel()
	c.ticker = nil
	c.loopCancel = nil
	c.loopGen++
	c.logger.Debug("polling disarmed")
}

func (c *Coordinator) loop(ctx context.Context, ticker clock.Ticker, gen uint64) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			c.tick(ctx, gen)
		}
	}
}

// tick issues a background fetch unless something suppresses it. The fetch
// runs on the loop goroutine, so background fetches never overlap.
func (c *Coordinator) tick(ctx context.Context, gen uint64) {
	c.mu.Lock()
	reason := c.skipReasonLocked(gen)
	c.mu.Unlock()

	if reason != "" {
		c.metrics.observeSkippedTick(reason)
		c.logger.Debug("background refresh skipped", "reason", reason)
		return
	}

	// disarming must not abort a fetch already on the wire
	c.Fetch(context.WithoutCancel(ctx), Background)
}

func (c *Coordinator) skipReasonLocked(gen uint64) string {
	switch {
	case c.closed:
		return "closed"
	case gen != c.loopGen:
		return "stale"
	case !c.polling:
		return "polling_disabled"
	case !c.visible:
		return "hidden"
	case c.interacting:
		return "interacting"
	default:
		return ""
	}
}

// publish fans the latest snapshot out to subscribers and callbacks.
// Snapshots older than one already published are dropped.
func (c *Coordinator) publish() {
	c.pubMu.Lock()
	s := c.State()
	if s.Version <= c.published {
		c.pubMu.Unlock()
		return
	}
	c.published = s.Version

	c.subMu.RLock()
	for ch := range c.subscribers {
		select {
		case ch <- s:
		default:
			// full: discard the oldest snapshot to make room for the newest
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- s:
			default:
			}
		}
	}
	closed := c.subsClosed
	c.subMu.RUnlock()
	c.pubMu.Unlock()

	if closed {
		return
	}
	for _, cb := range c.callbacks {
		c.invokeCallbackSafe(cb, s)
	}
}

// invokeCallbackSafe calls a state callback with panic recovery.
// Panics are logged with a correlation id but do not propagate.
func (c *Coordinator) invokeCallbackSafe(cb func(State), s State) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("state callback panicked",
				"correlation_id", uuid.NewString(),
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	cb(s)
}
