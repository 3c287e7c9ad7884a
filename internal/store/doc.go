// Package store provides the in-memory product and order storage behind the
// bundled product API.
//
// The main components are:
//
//   - [Store]: Interface defining product and order operations
//   - [MemoryStore]: In-memory implementation of Store
//   - [Order] and [OrderItem]: Orders placed against the catalog
//
// Orders move from PENDING to PAID or CANCELLED. Items added to a pending
// order reserve stock straight away; paying records the sale on each product
// and cancelling returns the reserved stock.
//
// The store is designed for concurrent access with proper synchronization.
// It backs demos, seeding dry runs and tests; production deployments point
// the dashboard at a real backend instead.
package store
