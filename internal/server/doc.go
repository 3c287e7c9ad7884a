// Package server provides the HTTP server for the ProductBoard dashboard.
//
// The server sits between the browser and the refresh coordinator:
//
//   - Dashboard serving: Serves the embedded HTML/CSS/JS dashboard at "/"
//   - State: JSON snapshot at "/api/state" and a filtered product view at
//     "/api/products"
//   - Server-Sent Events: State snapshots pushed at "/api/sse"
//   - Commands: refresh, polling toggle, interaction and visibility flags,
//     error dismissal and product mutations
//   - Metrics: Prometheus exposition at "/metrics" when a gatherer is set
//
// The server supports graceful shutdown via context cancellation, with a
// 5-second timeout for in-flight requests.
package server
