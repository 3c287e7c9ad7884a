// Package clock abstracts wall-clock time and tickers so that polling code
// can be driven deterministically in tests.
package clock

import (
	"sync"
	"time"
)

// Clock is an interface for time operations to enable testability.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

// Ticker delivers ticks at a fixed interval until stopped.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// RealClock is the production implementation using actual system time.
type RealClock struct{}

// NewRealClock creates a new RealClock.
func NewRealClock() Clock {
	return RealClock{}
}

// Now returns the current system time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// NewTicker wraps [time.NewTicker].
func (RealClock) NewTicker(d time.Duration) Ticker {
	return &realTicker{t: time.NewTicker(d)}
}

type realTicker struct {
	t *time.Ticker
}

func (r *realTicker) C() <-chan time.Time { return r.t.C }
func (r *realTicker) Stop()               { r.t.Stop() }

// MockClock is a test implementation whose time only moves when told to.
//
// Tickers created from a MockClock fire during [MockClock.Advance] when the
// new time reaches their next deadline. Like [time.Ticker], a tick that is
// not consumed before the next one is due is dropped.
type MockClock struct {
	mu      sync.Mutex
	current time.Time
	tickers map[*mockTicker]struct{}
}

// NewMockClock creates a new MockClock starting at the given time.
func NewMockClock(startTime time.Time) *MockClock {
	return &MockClock{
		current: startTime,
		tickers: make(map[*mockTicker]struct{}),
	}
}

// Now returns the mock current time.
func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Set sets the mock current time without firing tickers.
func (m *MockClock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = t
}

// Advance moves the clock forward by d and fires every ticker that became due.
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.current = m.current.Add(d)
	for t := range m.tickers {
		if m.current.Before(t.next) {
			continue
		}
		select {
		case t.ch <- m.current:
		default:
		}
		for !m.current.Before(t.next) {
			t.next = t.next.Add(t.interval)
		}
	}
}

// NewTicker returns a ticker that fires on [MockClock.Advance].
// It panics if d is not positive, matching [time.NewTicker].
func (m *MockClock) NewTicker(d time.Duration) Ticker {
	if d <= 0 {
		panic("clock: non-positive interval for NewTicker")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t := &mockTicker{
		clock:    m,
		interval: d,
		next:     m.current.Add(d),
		ch:       make(chan time.Time, 1),
	}
	m.tickers[t] = struct{}{}
	return t
}

// ActiveTickers reports how many tickers have been created and not stopped.
func (m *MockClock) ActiveTickers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tickers)
}

type mockTicker struct {
	clock    *MockClock
	interval time.Duration
	next     time.Time
	ch       chan time.Time
}

func (t *mockTicker) C() <-chan time.Time { return t.ch }

func (t *mockTicker) Stop() {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	delete(t.clock.tickers, t)
}
