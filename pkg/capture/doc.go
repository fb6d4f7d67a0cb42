// Package capture implements opportunistic persistence of in-progress
// checkout and quick-buy forms, so unfinished purchases can be followed up
// on. It coalesces rapid form changes behind a debounce window, suppresses
// redundant writes with a canonical fingerprint, upserts exactly one
// pending record per session, and transitions that record to converted
// when the checkout succeeds.
//
// The engine is strictly best-effort: nothing here returns an error to the
// calling UI flow, and a total persistence outage has zero effect on
// checkout completion. Failures are logged and routed to an injected
// FailureSink.
//
// One Capturer assumes a single active writer per session. Two concurrent
// flows sharing a stable checkout session identifier can race; the worst
// case is a duplicate row, never lost or corrupted data.
package capture
