package productboard

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jpalmerr/productboard/catalog"
	"github.com/jpalmerr/productboard/internal/productapi"
	"github.com/jpalmerr/productboard/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newBackend serves an in-memory product API seeded with names and returns
// its REST root.
func newBackend(t *testing.T, names ...string) string {
	t.Helper()
	st := store.NewMemoryStore()
	for i, name := range names {
		if _, err := st.CreateProduct(catalog.ProductRequest{Name: name, Price: 1.5, StockQuantity: 10 + i}); err != nil {
			t.Fatalf("CreateProduct() error = %v", err)
		}
	}
	ts := httptest.NewServer(productapi.NewRouter(st, testLogger()))
	t.Cleanup(ts.Close)
	return ts.URL + "/api"
}

// runBoard starts b in the background and returns a channel carrying the
// result of Start.
func runBoard(ctx context.Context, b *Board) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- b.Start(ctx)
	}()
	return done
}

func waitForDashboard(t *testing.T, port int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(fmt.Sprintf("http://localhost:%d/api/state", port))
		if err == nil {
			resp.Body.Close()
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("dashboard on port %d did not come up", port)
}

// TestStart_BlocksUntilContextCancelled verifies that Start blocks until the
// provided context is cancelled.
func TestStart_BlocksUntilContextCancelled(t *testing.T) {
	b, err := New(
		WithStoreURL(newBackend(t, "Milk")),
		WithPort(19101),
		WithPollingInterval(100*time.Millisecond),
		WithLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := runBoard(ctx, b)

	time.Sleep(50 * time.Millisecond)

	select {
	case err := <-done:
		t.Fatalf("Start() returned early with error: %v", err)
	default:
		// expected: still blocking
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after context cancellation")
	}
}

// TestStart_ReturnsImmediatelyIfContextAlreadyCancelled verifies that Start
// returns immediately if the context is already cancelled.
func TestStart_ReturnsImmediatelyIfContextAlreadyCancelled(t *testing.T) {
	b, err := New(WithPort(19102), WithLogger(testLogger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	select {
	case err := <-runBoard(ctx, b):
		if err != nil {
			t.Errorf("Start() error = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start() did not return with already-cancelled context")
	}
}

// TestStart_ServesDashboardState verifies the dashboard reflects the
// backend's products after the initial fetch.
func TestStart_ServesDashboardState(t *testing.T) {
	b, err := New(
		WithStoreURL(newBackend(t, "Milk", "Bread")),
		WithPort(19103),
		WithTitle("Corner Shop"),
		WithLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := runBoard(ctx, b)
	waitForDashboard(t, 19103)

	var view struct {
		Products  []catalog.Product `json:"products"`
		IsPolling bool              `json:"isPolling"`
	}
	deadline := time.Now().Add(2 * time.Second)
	for len(view.Products) < 2 && time.Now().Before(deadline) {
		resp, err := http.Get("http://localhost:19103/api/state")
		if err != nil {
			t.Fatalf("GET /api/state error = %v", err)
		}
		err = json.NewDecoder(resp.Body).Decode(&view)
		resp.Body.Close()
		if err != nil {
			t.Fatalf("decode state error = %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	if len(view.Products) != 2 {
		t.Fatalf("len(products) = %d, want 2", len(view.Products))
	}
	if !view.IsPolling {
		t.Error("isPolling = false, want true")
	}

	resp, err := http.Get("http://localhost:19103/")
	if err != nil {
		t.Fatalf("GET / error = %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "Corner Shop") {
		t.Error("dashboard should render the configured title")
	}

	resp, err = http.Get("http://localhost:19103/metrics")
	if err != nil {
		t.Fatalf("GET /metrics error = %v", err)
	}
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "productboard_coordinator_fetches_total") {
		t.Error("metrics endpoint should expose coordinator fetch counters")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Start() returned error: %v", err)
	}
}

// TestStart_UnavailableBackendIsNotFatal verifies the dashboard starts even
// when the first fetch fails.
func TestStart_UnavailableBackendIsNotFatal(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	var mu sync.Mutex
	var lastErr string
	b, err := New(
		WithStoreURL(ts.URL+"/api"),
		WithPort(19104),
		WithLogger(testLogger()),
		WithStateCallback(func(s State) {
			mu.Lock()
			defer mu.Unlock()
			if s.Error != "" {
				lastErr = s.Error
			}
		}),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	if err := b.Start(ctx); err != nil {
		t.Errorf("Start() error = %v, want nil", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if lastErr == "" {
		t.Error("initial fetch failure should be reported in state")
	}
}

// TestStart_PortInUse verifies a bind failure is returned from Start.
func TestStart_PortInUse(t *testing.T) {
	ln, err := net.Listen("tcp", ":19105")
	if err != nil {
		t.Skipf("cannot reserve port: %v", err)
	}
	defer ln.Close()

	b, err := New(
		WithStoreURL(newBackend(t)),
		WithPort(19105),
		WithLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	select {
	case err := <-runBoard(context.Background(), b):
		if err == nil {
			t.Fatal("Start() expected error for port in use, got nil")
		}
		if !strings.Contains(err.Error(), "failed to start HTTP server") {
			t.Errorf("error = %v, want error containing %q", err, "failed to start HTTP server")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after bind failure")
	}
}

// TestStart_MultipleSequentialRuns verifies that a new Board can be started
// after the previous one shuts down.
func TestStart_MultipleSequentialRuns(t *testing.T) {
	storeURL := newBackend(t, "Milk")

	for i := 0; i < 3; i++ {
		b, err := New(
			WithStoreURL(storeURL),
			WithPort(19106+i),
			WithPollingInterval(50*time.Millisecond),
			WithLogger(testLogger()),
		)
		if err != nil {
			t.Fatalf("iteration %d: New() error = %v", i, err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		done := runBoard(ctx, b)

		time.Sleep(100 * time.Millisecond)
		cancel()

		select {
		case err := <-done:
			if err != nil {
				t.Errorf("iteration %d: Start() returned error: %v", i, err)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("iteration %d: Start() did not return", i)
		}
	}
}

// TestStart_WithTimeoutContext verifies Start respects deadline contexts.
func TestStart_WithTimeoutContext(t *testing.T) {
	b, err := New(
		WithStoreURL(newBackend(t, "Milk")),
		WithPort(19110),
		WithPollingInterval(50*time.Millisecond),
		WithLogger(testLogger()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	err = b.Start(ctx)
	elapsed := time.Since(start)

	if elapsed < 150*time.Millisecond || elapsed > time.Second {
		t.Errorf("Start() ran for %v, expected ~200ms", elapsed)
	}
	if err != nil {
		t.Errorf("Start() error = %v, want nil", err)
	}
}
