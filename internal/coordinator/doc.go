// Package coordinator implements the refresh coordinator behind the product
// dashboard.
//
// A [Coordinator] owns the product list shown to the user. It refreshes the
// list from a remote [ProductStore] on a fixed interval and applies user
// mutations (create, update, delete) through the same store, always
// following a successful mutation with a full refetch.
//
// Polling runs as a two-state machine. The timer is armed while polling is
// enabled and the presentation surface is visible, and disarmed otherwise.
// Each tick re-checks the flags and skips the fetch while the user is
// interacting with a dialog:
//
//	            TogglePolling / SetVisible
//	Stopped  <----------------------------->  Armed --tick--> background fetch
//
// Foreground operations (initial load, manual refresh, mutations and their
// refetch) drive the loading indicator and the error message. Background
// refreshes never do: a failed background refresh leaves the current list
// and any error exactly as they were.
//
// Presentation layers read state through [Coordinator.State] or by
// subscribing with [Coordinator.Subscribe].
package coordinator
