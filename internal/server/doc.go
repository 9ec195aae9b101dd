// Package server provides the TCP acceptor and the per-connection
// dispatcher for the docstore protocol.
//
// # Connection lifecycles
//
// Every accepted connection gets its own goroutine and follows one of
// three paths:
//
//	INIT ─ subscribe accepted ──▶ SUBSCRIBED ─ peer close | shutdown ─▶ CLOSED
//	INIT ─ other action accepted ▶ RESPONDED ──────────────────────────▶ CLOSED
//	INIT ─ validation failed ───▶ ERROR_RESPONDED ─────────────────────▶ CLOSED
//
// Short-lived connections carry exactly one framed request and one
// framed response. A subscribed connection is parked after its
// acknowledgement: it is never read for application messages again, only
// probed on an idle interval to notice peer closure, and written to by
// the subscriber registry when change events are broadcast.
//
// # Shutdown
//
// The accept loop polls with a bounded deadline so it observes context
// cancellation promptly. Shutdown closes the listener, closes every
// subscriber socket via the registry, then drains in-flight handlers,
// force-closing stragglers after a grace period.
package server
