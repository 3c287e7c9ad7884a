// Package productboard provides an embeddable live dashboard over a product
// inventory backend.
//
// A [Board] keeps a local copy of the backend's product list fresh by
// polling it in the background, serialises user edits against it, and
// serves the result as a web dashboard with a Server-Sent Events feed.
//
// # Quick Start
//
//	b, _ := productboard.New(productboard.WithStoreURL("http://localhost:8080/api"))
//
//	// Set up graceful shutdown on SIGINT/SIGTERM
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	b.Start(ctx) // blocks until context is cancelled
//
// # Configuration
//
// Board uses the functional options pattern:
//
//	b, err := productboard.New(
//	    productboard.WithStoreURL("https://shop.example.com/api"),
//	    productboard.WithHeaders("Authorization", "Bearer "+token),
//	    productboard.WithPollingInterval(30 * time.Second),
//	    productboard.WithRequestTimeout(5 * time.Second),
//	    productboard.WithPort(9090),
//	)
//
// # Refresh Behaviour
//
// The product list is fetched once at start and then every polling
// interval. Background refreshes are silent: they never raise the loading
// indicator and their failures are only logged. They are skipped while
// polling is paused, while no dashboard viewer is in the foreground, and
// while a viewer has an edit or delete dialog open, so an open form is
// never disturbed by a list change underneath it.
//
// Refreshes requested by the user and every create, update and delete are
// foreground operations: they show the loading indicator and report their
// failure through [State.Error]. A successful mutation is always followed by
// a refetch; the local list is only ever replaced by what the backend
// returns.
//
// # Architecture
//
// The internal packages are:
//
//   - internal/coordinator: refresh scheduling, mutation serialisation and state fan-out
//   - internal/restclient: REST client for the product backend
//   - internal/server: dashboard HTTP server with JSON API and Server-Sent Events
//   - internal/productapi, internal/store: an in-memory product backend for demos and tests
//   - internal/seed: demo catalog and order history seeding
//   - internal/tui: terminal dashboard
//   - dashboard: embedded web UI assets
//
// The internal packages are not part of the public API and may change
// without notice.
package productboard
