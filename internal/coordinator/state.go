package coordinator

import (
	"time"

	"github.com/jpalmerr/productboard/catalog"
)

// FetchMode selects how a fetch interacts with the loading and error state.
type FetchMode int

const (
	// Foreground fetches raise the loading indicator, clear any previous
	// error and record their own failure.
	Foreground FetchMode = iota
	// Background fetches leave loading and error untouched and drop failures.
	Background
)

func (m FetchMode) String() string {
	if m == Background {
		return "background"
	}
	return "foreground"
}

// State is a read-only snapshot of the coordinator.
type State struct {
	Products []catalog.Product `json:"products"`
	Loading  bool              `json:"loading"`
	// Error is the message of the last failed foreground operation, or empty.
	Error     string `json:"error"`
	IsPolling bool   `json:"isPolling"`
	// LastRefresh is the completion time of the last successful fetch. Zero
	// means no fetch has succeeded yet.
	LastRefresh time.Time `json:"lastRefresh"`

	Visible     bool `json:"visible"`
	Interacting bool `json:"interacting"`

	// Version increases with every state change.
	Version uint64 `json:"version"`
}

// HasRefreshed reports whether at least one fetch has succeeded.
func (s State) HasRefreshed() bool {
	return !s.LastRefresh.IsZero()
}
