package productboard

import (
	"time"

	"github.com/jpalmerr/productboard/catalog"
	"github.com/jpalmerr/productboard/internal/coordinator"
)

// Product is an inventory item as returned by the backend.
type Product = catalog.Product

// State is a snapshot of the dashboard's view of the product list, handed
// to callbacks registered with [WithStateCallback].
type State struct {
	// Products is the last successfully fetched list, in backend order.
	Products []Product

	// Loading is true while a user-initiated operation is in flight.
	Loading bool

	// Error is the message of the last failed user-initiated operation.
	// Background refresh failures never set it.
	Error string

	// IsPolling reports whether background refresh is enabled.
	IsPolling bool

	// LastRefresh is when the product list was last fetched successfully.
	// Zero until the first fetch succeeds.
	LastRefresh time.Time

	// Interacting is true while an edit or delete dialog is open.
	Interacting bool

	// Visible reports whether a dashboard viewer is in the foreground.
	Visible bool
}

// Summary computes the headline figures for s.Products.
func (s State) Summary() catalog.Summary {
	return catalog.Summarize(s.Products)
}

// toPublicState converts a coordinator snapshot, copying the product slice
// so callbacks cannot alias coordinator memory.
func toPublicState(st coordinator.State) State {
	products := make([]Product, len(st.Products))
	copy(products, st.Products)

	return State{
		Products:    products,
		Loading:     st.Loading,
		Error:       st.Error,
		IsPolling:   st.IsPolling,
		LastRefresh: st.LastRefresh,
		Interacting: st.Interacting,
		Visible:     st.Visible,
	}
}
