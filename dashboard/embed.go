// Package dashboard provides the embedded web UI assets for ProductBoard.
//
// The page renders the coordinator snapshot pushed over Server-Sent Events:
// summary cards, a filterable product table and the add/edit/delete modals.
// Opening a modal marks the user as interacting and the browser's
// visibilitychange event is forwarded to the server, so background refreshes
// follow what the user is actually doing.
package dashboard

import "embed"

// Assets is an embedded filesystem containing the dashboard web UI.
//
//	assets/
//	  index.html    - Dashboard page with inline CSS and JavaScript
//
//go:embed assets/*
var Assets embed.FS
