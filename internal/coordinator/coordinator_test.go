package coordinator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/jpalmerr/productboard/catalog"
	"github.com/jpalmerr/productboard/internal/coordinator/mocks"
	"github.com/jpalmerr/productboard/internal/pkg/clock"
)

const testInterval = 15 * time.Second

var epoch = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeStore is an in-memory ProductStore whose calls can be held open with
// gates and made to fail.
type fakeStore struct {
	mu          sync.Mutex
	products    []catalog.Product
	nextID      int
	listCalls   int
	listErr     error
	mutateErr   error
	mutatePanic bool
	listGate    chan struct{}
	mutateGate  chan struct{}
}

func newFakeStore(names ...string) *fakeStore {
	s := &fakeStore{}
	for _, name := range names {
		s.add(catalog.ProductRequest{Name: name, Price: 1, StockQuantity: 1})
	}
	return s
}

func (s *fakeStore) add(req catalog.ProductRequest) string {
	s.nextID++
	id := fmt.Sprintf("p%d", s.nextID)
	s.products = append(s.products, catalog.Product{
		ID:            id,
		Name:          req.Name,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
		CreatedAt:     epoch.Add(time.Duration(s.nextID) * time.Minute),
	})
	return id
}

func (s *fakeStore) setProducts(products ...catalog.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = products
}

func (s *fakeStore) setListErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listErr = err
}

func (s *fakeStore) setListGate(gate chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listGate = gate
}

func (s *fakeStore) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listCalls
}

func (s *fakeStore) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	s.mu.Lock()
	s.listCalls++
	gate := s.listGate
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	return append([]catalog.Product(nil), s.products...), nil
}

func (s *fakeStore) beforeMutate() error {
	s.mu.Lock()
	gate := s.mutateGate
	s.mu.Unlock()
	if gate != nil {
		<-gate
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mutatePanic {
		panic("store exploded")
	}
	return s.mutateErr
}

func (s *fakeStore) CreateProduct(_ context.Context, req catalog.ProductRequest) (string, error) {
	if err := s.beforeMutate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(req), nil
}

func (s *fakeStore) UpdateProduct(_ context.Context, id string, req catalog.ProductRequest) error {
	if err := s.beforeMutate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.products {
		if p.ID == id {
			s.products[i].Name = req.Name
			s.products[i].Price = req.Price
			s.products[i].StockQuantity = req.StockQuantity
			return nil
		}
	}
	return notFound(id)
}

func (s *fakeStore) DeleteProduct(_ context.Context, id string) error {
	if err := s.beforeMutate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.products {
		if p.ID == id {
			s.products = append(s.products[:i], s.products[i+1:]...)
			return nil
		}
	}
	return notFound(id)
}

func notFound(id string) error {
	return catalog.NewAPIError(http.StatusNotFound, catalog.ErrorResponse{
		Status:  http.StatusNotFound,
		Error:   catalog.CodeNotFound,
		Message: "Product not found with id: " + id,
	})
}

func networkErr() error {
	return &catalog.APIError{
		ErrorCode: catalog.CodeNetwork,
		Message:   "Network error occurred",
		Kind:      catalog.KindNetwork,
		Err:       errors.New("connection refused"),
	}
}

func newTestCoordinator(t *testing.T, store ProductStore, opts ...Option) (*Coordinator, *clock.MockClock) {
	t.Helper()
	clk := clock.NewMockClock(epoch)
	opts = append([]Option{
		WithClock(clk),
		WithPollingInterval(testInterval),
		WithLogger(testLogger()),
	}, opts...)

	c, err := New(store, opts...)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c, clk
}

func names(products []catalog.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.Name
	}
	return out
}

func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 5*time.Millisecond, msg)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err, "nil store")

	_, err = New(newFakeStore(), WithPollingInterval(0))
	assert.Error(t, err, "zero interval")

	_, err = New(newFakeStore(), WithStateCallback(nil))
	assert.Error(t, err, "nil callback")

	_, err = New(newFakeStore(), WithClock(nil))
	assert.Error(t, err, "nil clock")
}

func TestNew_InitialState(t *testing.T) {
	c, _ := newTestCoordinator(t, newFakeStore("Bread"))

	s := c.State()
	assert.Empty(t, s.Products)
	assert.NotNil(t, s.Products)
	assert.False(t, s.Loading)
	assert.Empty(t, s.Error)
	assert.True(t, s.IsPolling)
	assert.False(t, s.HasRefreshed())
}

func TestStart_InitialForegroundFetchThenArm(t *testing.T) {
	store := newFakeStore("Bread", "Eggs")
	c, clk := newTestCoordinator(t, store)

	c.Start(context.Background())

	s := c.State()
	assert.Equal(t, []string{"Bread", "Eggs"}, names(s.Products))
	assert.False(t, s.Loading)
	assert.Empty(t, s.Error)
	assert.True(t, s.LastRefresh.Equal(epoch))
	assert.Equal(t, 1, store.calls())
	assert.Equal(t, 1, clk.ActiveTickers())
}

func TestStart_Idempotent(t *testing.T) {
	store := newFakeStore("Bread")
	c, clk := newTestCoordinator(t, store)

	c.Start(context.Background())
	c.Start(context.Background())

	assert.Equal(t, 1, store.calls())
	assert.Equal(t, 1, clk.ActiveTickers())
}

func TestStart_AfterCloseIsNoop(t *testing.T) {
	store := newFakeStore("Bread")
	c, clk := newTestCoordinator(t, store)

	c.Close()
	c.Close()
	c.Start(context.Background())

	assert.Equal(t, 0, store.calls())
	assert.Equal(t, 0, clk.ActiveTickers())
}

func TestStart_WithPollingDisabled(t *testing.T) {
	store := newFakeStore("Bread")
	c, clk := newTestCoordinator(t, store, WithPollingEnabled(false))

	c.Start(context.Background())

	assert.Equal(t, 1, store.calls(), "initial fetch still happens")
	assert.Equal(t, 0, clk.ActiveTickers())
	assert.False(t, c.State().IsPolling)
}

func TestFetch_ReplacesProductsWholesale(t *testing.T) {
	store := newFakeStore("Bread", "Eggs")
	c, clk := newTestCoordinator(t, store)
	c.Start(context.Background())

	store.setProducts(catalog.Product{ID: "x", Name: "Cheese"})
	clk.Advance(time.Second)
	c.ManualRefresh(context.Background())

	s := c.State()
	assert.Equal(t, []string{"Cheese"}, names(s.Products))
	assert.True(t, s.LastRefresh.Equal(epoch.Add(time.Second)))
}

func TestFetch_SnapshotIsIsolated(t *testing.T) {
	c, _ := newTestCoordinator(t, newFakeStore("Bread"))
	c.Start(context.Background())

	s := c.State()
	s.Products[0].Name = "mutated"

	assert.Equal(t, "Bread", c.State().Products[0].Name)
}

func TestForegroundFetch_FailureSetsErrorKeepsProducts(t *testing.T) {
	store := newFakeStore("Bread")
	c, _ := newTestCoordinator(t, store)
	c.Start(context.Background())

	store.setListErr(catalog.NewAPIError(http.StatusServiceUnavailable, catalog.ErrorResponse{
		Error: catalog.CodeInternal, Message: "Backend is restarting",
	}))
	c.ManualRefresh(context.Background())

	s := c.State()
	assert.Equal(t, "Backend is restarting", s.Error)
	assert.Equal(t, []string{"Bread"}, names(s.Products))
	assert.False(t, s.Loading)
}

func TestForegroundFetch_FailureWithoutMessageUsesGeneric(t *testing.T) {
	store := newFakeStore()
	store.setListErr(errors.New("decode failure"))
	c, _ := newTestCoordinator(t, store)

	c.Start(context.Background())

	assert.Equal(t, MsgFetchFailed, c.State().Error)
}

func TestForegroundFetch_ClearsPreviousError(t *testing.T) {
	store := newFakeStore("Bread")
	store.setListErr(networkErr())
	c, _ := newTestCoordinator(t, store)
	c.Start(context.Background())
	require.NotEmpty(t, c.State().Error)

	store.setListErr(nil)
	c.ManualRefresh(context.Background())

	assert.Empty(t, c.State().Error)
	assert.Equal(t, []string{"Bread"}, names(c.State().Products))
}

func TestBackgroundFetch_FailureLeavesStateUnchanged(t *testing.T) {
	t.Run("no previous error", func(t *testing.T) {
		store := newFakeStore("Bread")
		c, _ := newTestCoordinator(t, store)
		c.Start(context.Background())
		before := c.State()

		store.setListErr(networkErr())
		c.Fetch(context.Background(), Background)

		after := c.State()
		assert.Equal(t, before.Products, after.Products)
		assert.Empty(t, after.Error)
		assert.False(t, after.Loading)
		assert.Equal(t, before.LastRefresh, after.LastRefresh)
	})

	t.Run("previous error preserved", func(t *testing.T) {
		store := newFakeStore("Bread")
		c, _ := newTestCoordinator(t, store)
		c.Start(context.Background())

		store.setListErr(catalog.NewAPIError(500, catalog.ErrorResponse{Message: "Earlier failure"}))
		c.ManualRefresh(context.Background())
		require.Equal(t, "Earlier failure", c.State().Error)

		store.setListErr(networkErr())
		c.Fetch(context.Background(), Background)

		assert.Equal(t, "Earlier failure", c.State().Error)
		assert.Equal(t, []string{"Bread"}, names(c.State().Products))
	})
}

func TestBackgroundFetch_NeverTouchesLoading(t *testing.T) {
	store := newFakeStore("Bread")
	c, _ := newTestCoordinator(t, store)
	c.Start(context.Background())

	gate := make(chan struct{})
	store.setListGate(gate)

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Fetch(context.Background(), Background)
	}()

	eventually(t, func() bool { return store.calls() == 2 }, "background fetch should reach the store")
	assert.False(t, c.State().Loading)

	close(gate)
	<-done
	assert.False(t, c.State().Loading)
}

func TestCreate_AddsProductAndRefetches(t *testing.T) {
	store := newFakeStore("Bread", "Eggs")
	c, _ := newTestCoordinator(t, store)
	c.Start(context.Background())

	err := c.Create(context.Background(), catalog.ProductRequest{Name: "Milk", Price: 1.99, StockQuantity: 100})
	require.NoError(t, err)

	s := c.State()
	assert.Len(t, s.Products, 3)
	assert.Contains(t, names(s.Products), "Milk")
	assert.False(t, s.Loading)
	assert.Empty(t, s.Error)
	assert.False(t, s.Interacting)
	assert.Equal(t, 2, store.calls(), "exactly one refetch after the mutation")
}

func TestCreate_LoadingAndInteractingHeldForWholeSpan(t *testing.T) {
	store := newFakeStore("Bread")
	c, _ := newTestCoordinator(t, store)
	c.Start(context.Background())

	gate := make(chan struct{})
	store.mutateGate = gate

	errCh := make(chan error, 1)
	go func() {
		errCh <- c.Create(context.Background(), catalog.ProductRequest{Name: "Milk", Price: 1.99})
	}()

	eventually(t, func() bool {
		s := c.State()
		return s.Loading && s.Interacting
	}, "mutation should raise loading and interaction")
	assert.Empty(t, c.State().Error)

	close(gate)
	require.NoError(t, <-errCh)

	s := c.State()
	assert.False(t, s.Loading)
	assert.False(t, s.Interacting)
}

func TestUpdate_NotFoundSurfacesBackendMessage(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockProductStore(ctrl)

	existing := []catalog.Product{{ID: "a", Name: "Bread", Price: 2.49, StockQuantity: 12, CreatedAt: epoch}}
	store.EXPECT().ListProducts(gomock.Any()).Return(existing, nil).Times(1)
	store.EXPECT().
		UpdateProduct(gomock.Any(), "missing-id", catalog.ProductRequest{Name: "Ghost", Price: 1}).
		Return(notFound("missing-id"))

	c, _ := newTestCoordinator(t, store)
	c.Start(context.Background())

	err := c.Update(context.Background(), "missing-id", catalog.ProductRequest{Name: "Ghost", Price: 1})

	require.Error(t, err)
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	s := c.State()
	assert.Equal(t, "Product not found with id: missing-id", s.Error)
	assert.Equal(t, existing, s.Products)
	assert.False(t, s.Loading)
	assert.False(t, s.Interacting)
}

func TestDelete_FailureWithoutMessageUsesGeneric(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockProductStore(ctrl)

	store.EXPECT().ListProducts(gomock.Any()).Return([]catalog.Product{}, nil).Times(1)
	store.EXPECT().DeleteProduct(gomock.Any(), "a").Return(errors.New("socket hang up"))

	c, _ := newTestCoordinator(t, store)
	c.Start(context.Background())

	err := c.Delete(context.Background(), "a")

	require.Error(t, err)
	assert.Equal(t, MsgDeleteFailed, c.State().Error)
}

func TestDelete_RemovesProduct(t *testing.T) {
	store := newFakeStore("Bread", "Eggs")
	c, _ := newTestCoordinator(t, store)
	c.Start(context.Background())

	require.NoError(t, c.Delete(context.Background(), "p1"))
	assert.Equal(t, []string{"Eggs"}, names(c.State().Products))
}

func TestMutation_SuccessClearsPreviousError(t *testing.T) {
	store := newFakeStore("Bread")
	c, _ := newTestCoordinator(t, store)
	c.Start(context.Background())

	require.Error(t, c.Update(context.Background(), "nope", catalog.ProductRequest{Name: "x", Price: 1}))
	require.NotEmpty(t, c.State().Error)

	require.NoError(t, c.Update(context.Background(), "p1", catalog.ProductRequest{Name: "Rye Bread", Price: 3}))

	s := c.State()
	assert.Empty(t, s.Error)
	assert.Equal(t, []string{"Rye Bread"}, names(s.Products))
}

func TestMutation_RefetchFailureStillReportsSuccess(t *testing.T) {
	store := newFakeStore("Bread")
	c, _ := newTestCoordinator(t, store)
	c.Start(context.Background())

	store.setListErr(networkErr())
	err := c.Create(context.Background(), catalog.ProductRequest{Name: "Milk", Price: 1})

	assert.NoError(t, err, "the mutation itself succeeded")
	assert.Equal(t, "Network error occurred", c.State().Error)
	assert.False(t, c.State().Loading)
}

func TestMutation_PanicResetsFlags(t *testing.T) {
	store := newFakeStore("Bread")
	c, _ := newTestCoordinator(t, store)
	c.Start(context.Background())

	store.mutatePanic = true
	assert.Panics(t, func() {
		_ = c.Create(context.Background(), catalog.ProductRequest{Name: "Milk", Price: 1})
	})

	s := c.State()
	assert.False(t, s.Loading)
	assert.False(t, s.Interacting)
}

func TestMutation_AfterCloseReturnsErrClosed(t *testing.T) {
	c, _ := newTestCoordinator(t, newFakeStore())
	c.Close()

	err := c.Create(context.Background(), catalog.ProductRequest{Name: "Milk", Price: 1})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestLoading_OverlappingForegroundOperations(t *testing.T) {
	store := newFakeStore("Bread")
	c, _ := newTestCoordinator(t, store)
	c.Start(context.Background())

	first := make(chan struct{})
	store.setListGate(first)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.ManualRefresh(context.Background())
		}()
	}

	eventually(t, func() bool { return store.calls() == 3 }, "both refreshes should be in flight")
	assert.True(t, c.State().Loading)

	close(first)
	wg.Wait()

	assert.False(t, c.State().Loading)
}

func TestPolling_TickIssuesBackgroundFetch(t *testing.T) {
	store := newFakeStore("Bread")
	c, clk := newTestCoordinator(t, store)
	c.Start(context.Background())

	store.setProducts(catalog.Product{ID: "z", Name: "Cheese"})
	clk.Advance(testInterval)

	eventually(t, func() bool { return store.calls() == 2 }, "tick should fetch")
	eventually(t, func() bool {
		return len(c.State().Products) == 1 && c.State().Products[0].Name == "Cheese"
	}, "tick result should replace products")
}

func TestPolling_BackgroundFailureViaTickIsSilent(t *testing.T) {
	store := newFakeStore("Bread")
	c, clk := newTestCoordinator(t, store)
	c.Start(context.Background())

	store.setListErr(networkErr())
	clk.Advance(testInterval)

	eventually(t, func() bool { return store.calls() == 2 }, "tick should fetch")
	s := c.State()
	assert.Empty(t, s.Error)
	assert.Equal(t, []string{"Bread"}, names(s.Products))
}

func TestPolling_BackgroundFetchesNeverOverlap(t *testing.T) {
	store := newFakeStore("Bread")
	c, clk := newTestCoordinator(t, store)
	c.Start(context.Background())

	gate := make(chan struct{})
	store.setListGate(gate)

	clk.Advance(testInterval)
	eventually(t, func() bool { return store.calls() == 2 }, "first tick should fetch")

	clk.Advance(testInterval)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 2, store.calls(), "second tick must wait for the first fetch")

	close(gate)
	eventually(t, func() bool { return store.calls() == 3 }, "queued tick runs after the first fetch")
}

func TestPolling_SuppressedWhileInteracting(t *testing.T) {
	store := newFakeStore("Bread")
	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics(reg)
	require.NoError(t, err)

	c, clk := newTestCoordinator(t, store, WithMetrics(metrics))
	c.Start(context.Background())

	c.SetUserInteracting(true)
	clk.Advance(testInterval)

	eventually(t, func() bool {
		return testutil.ToFloat64(metrics.skippedTicks.WithLabelValues("interacting")) == 1
	}, "tick should be skipped")
	assert.Equal(t, 1, store.calls())

	// skipped, not deferred: releasing interaction does not fetch
	c.SetUserInteracting(false)
	assert.Equal(t, 1, store.calls())

	clk.Advance(testInterval)
	eventually(t, func() bool { return store.calls() == 2 }, "next tick fetches again")
}

func TestPolling_HiddenDisarmsTimerButKeepsPreference(t *testing.T) {
	store := newFakeStore("Bread")
	c, clk := newTestCoordinator(t, store)
	c.Start(context.Background())

	c.SetVisible(false)

	assert.Equal(t, 0, clk.ActiveTickers())
	assert.True(t, c.State().IsPolling)
	assert.False(t, c.State().Visible)

	clk.Advance(3 * testInterval)
	assert.Equal(t, 1, store.calls())

	c.SetVisible(true)
	assert.Equal(t, 1, clk.ActiveTickers())
	assert.Equal(t, 1, store.calls(), "becoming visible does not fetch immediately")

	clk.Advance(testInterval)
	eventually(t, func() bool { return store.calls() == 2 }, "re-armed timer fetches")
}

func TestPolling_HiddenWhilePollingDisabledStaysDisarmed(t *testing.T) {
	c, clk := newTestCoordinator(t, newFakeStore("Bread"))
	c.Start(context.Background())

	require.False(t, c.TogglePolling())
	c.SetVisible(false)
	c.SetVisible(true)

	assert.Equal(t, 0, clk.ActiveTickers())
}

func TestTogglePolling(t *testing.T) {
	store := newFakeStore("Bread")
	c, clk := newTestCoordinator(t, store)
	c.Start(context.Background())

	assert.False(t, c.TogglePolling())
	assert.False(t, c.State().IsPolling)
	assert.Equal(t, 0, clk.ActiveTickers())

	clk.Advance(2 * testInterval)
	assert.Equal(t, 1, store.calls(), "no fetches while polling is off")

	assert.True(t, c.TogglePolling())
	assert.True(t, c.State().IsPolling)
	assert.Equal(t, 1, clk.ActiveTickers())
	assert.Equal(t, 1, store.calls(), "enabling polling does not fetch immediately")

	clk.Advance(testInterval)
	eventually(t, func() bool { return store.calls() == 2 }, "first tick after re-enabling fetches")
}

func TestManualRefresh_RunsWhileInteracting(t *testing.T) {
	store := newFakeStore("Bread")
	c, _ := newTestCoordinator(t, store)
	c.Start(context.Background())

	c.SetUserInteracting(true)
	store.setProducts(catalog.Product{ID: "z", Name: "Cheese"})
	c.ManualRefresh(context.Background())

	s := c.State()
	assert.Equal(t, 2, store.calls())
	assert.Equal(t, []string{"Cheese"}, names(s.Products))
	assert.False(t, s.Loading)
	assert.True(t, s.Interacting)
}

func TestClearError(t *testing.T) {
	store := newFakeStore()
	store.setListErr(networkErr())
	c, _ := newTestCoordinator(t, store)
	c.Start(context.Background())
	require.NotEmpty(t, c.State().Error)

	c.ClearError()

	assert.Empty(t, c.State().Error)
}

func TestClose_DiscardsLateResults(t *testing.T) {
	store := newFakeStore("Bread")
	c, clk := newTestCoordinator(t, store)
	c.Start(context.Background())

	gate := make(chan struct{})
	store.setListGate(gate)

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.ManualRefresh(context.Background())
	}()
	eventually(t, func() bool { return store.calls() == 2 }, "refresh should be in flight")

	c.Close()
	assert.Equal(t, 0, clk.ActiveTickers())

	store.setProducts(catalog.Product{ID: "late", Name: "Late"})
	close(gate)
	<-done

	assert.Equal(t, []string{"Bread"}, names(c.State().Products))
}

func TestClose_ReleasesSubscribers(t *testing.T) {
	c, _ := newTestCoordinator(t, newFakeStore())
	ch := c.Subscribe()

	c.Close()

	_, ok := <-ch
	assert.False(t, ok, "subscriber channel should be closed")

	late := c.Subscribe()
	_, ok = <-late
	assert.False(t, ok, "subscribing after close yields a closed channel")
}

func TestClose_StopsPollingOnContextCancel(t *testing.T) {
	store := newFakeStore("Bread")
	c, clk := newTestCoordinator(t, store)

	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)
	cancel()

	// the loop exits on cancellation so ticks go unconsumed
	time.Sleep(20 * time.Millisecond)
	clk.Advance(testInterval)
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, 1, store.calls())
}

func TestSubscribe_ReceivesSnapshots(t *testing.T) {
	c, _ := newTestCoordinator(t, newFakeStore("Bread"))
	ch := c.Subscribe()

	c.SetUserInteracting(true)

	select {
	case s := <-ch:
		assert.True(t, s.Interacting)
	case <-time.After(time.Second):
		t.Fatal("no snapshot received")
	}

	c.Unsubscribe(ch)
	c.Unsubscribe(ch)
	_, ok := <-ch
	assert.False(t, ok)
}

func TestSubscribe_SlowSubscriberKeepsNewest(t *testing.T) {
	c, _ := newTestCoordinator(t, newFakeStore("Bread"))
	ch := c.Subscribe()

	for i := 0; i < 4*subscriberBuffer; i++ {
		c.SetUserInteracting(i%2 == 0)
	}

	var last State
	for {
		select {
		case s := <-ch:
			last = s
			continue
		default:
		}
		break
	}
	assert.Equal(t, c.State().Version, last.Version)
}

func TestStateCallback_PanicIsRecovered(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestCoordinator(t, newFakeStore("Bread"),
		WithStateCallback(func(State) { panic("boom") }),
		WithStateCallback(func(State) { calls.Add(1) }),
	)

	assert.NotPanics(t, func() { c.Start(context.Background()) })
	assert.Positive(t, calls.Load())
}

func TestStateCallback_SeesFinalState(t *testing.T) {
	var (
		mu   sync.Mutex
		last State
	)
	c, _ := newTestCoordinator(t, newFakeStore("Bread"), WithStateCallback(func(s State) {
		mu.Lock()
		defer mu.Unlock()
		if s.Version > last.Version {
			last = s
		}
	}))

	c.Start(context.Background())
	require.NoError(t, c.Create(context.Background(), catalog.ProductRequest{Name: "Milk", Price: 1}))

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, last.Products, 2)
	assert.False(t, last.Loading)
	assert.False(t, last.Interacting)
}
