package capture

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/brightbasket/capture/pkg/beacon"
	"github.com/brightbasket/capture/pkg/observability"
	"github.com/brightbasket/capture/pkg/record"
	"github.com/brightbasket/capture/pkg/session"
)

// Options configures a Capturer.
type Options struct {
	// Scope selects the session-identifier lifecycle. Defaults to checkout.
	Scope Scope
	// Sessions is the identifier KV. Defaults to an in-process store.
	Sessions session.KV
	// Window is the debounce delay. Defaults to DefaultDebounceWindow.
	Window time.Duration
	// Beacon, when set, is the fire-and-forget transport used by the
	// unload flush. Without one, the flush falls back to a direct
	// short-deadline create against the store.
	Beacon *beacon.Sender
	// Sink receives swallowed failures. Defaults to a LogSink.
	Sink FailureSink
	// Logger for the engine. Defaults to slog.Default().
	Logger *slog.Logger
	// Metrics counters. Optional; nil is a no-op.
	Metrics *observability.Metrics
}

// Capturer drives one capture lineage for one checkout or quick-buy flow.
// It is fire-and-forget from the caller's perspective: CaptureFormData
// never blocks on persistence and no method returns an error to the UI.
//
// A Capturer assumes it is the single active writer for its session.
type Capturer struct {
	mu    sync.Mutex
	sess  Session
	ids   *Identity
	res   *resolver
	sched *scheduler

	bcn     *beacon.Sender
	sink    FailureSink
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates a Capturer over the given record store, resolving the
// session identifier for the configured scope immediately. Quick-buy
// capturers mint a fresh identifier per instance; checkout capturers
// reuse the stored one so a reload continues the same lineage.
func New(ctx context.Context, store record.Store, opts Options) *Capturer {
	if opts.Scope == "" {
		opts.Scope = ScopeCheckout
	}
	if opts.Sessions == nil {
		opts.Sessions = session.NewMemory()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Sink == nil {
		opts.Sink = NewLogSink(opts.Logger)
	}

	ids := NewIdentity(opts.Sessions, opts.Logger)
	c := &Capturer{
		ids:     ids,
		res:     &resolver{store: store},
		bcn:     opts.Beacon,
		sink:    opts.Sink,
		logger:  opts.Logger.With("component", "capture"),
		metrics: opts.Metrics,
	}
	c.sess = Session{
		ID:    ids.GetOrCreate(ctx, opts.Scope),
		Scope: opts.Scope,
	}
	c.sched = newScheduler(opts.Window, func(snap Snapshot) {
		c.persist(context.Background(), snap)
	})
	return c
}

// SessionID returns the current session identifier.
func (c *Capturer) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess.ID
}

// CaptureFormData records a new form state. Rapid calls are coalesced: only
// the last snapshot within the debounce window is persisted. Snapshots that
// fingerprint-match the last persisted payload are dropped before they ever
// reach the scheduler.
func (c *Capturer) CaptureFormData(snap Snapshot) {
	c.mu.Lock()
	last := c.sess.LastFingerprint
	c.mu.Unlock()

	if last != "" && !HasChanged(snap, last) {
		return
	}
	c.sched.Schedule(snap)
}

// SaveImmediately flushes any pending snapshot synchronously, for callers
// that know a blocking transition is imminent. No-op when nothing is
// pending.
func (c *Capturer) SaveImmediately(ctx context.Context) {
	snap, ok := c.sched.take()
	if !ok {
		return
	}
	c.persist(ctx, snap)
}

// FlushOnUnload is the last-chance write on page teardown. It bypasses the
// debounce timer and dispatches the pending snapshot via the beacon
// transport against the create endpoint — there is no time to await a
// lookup round-trip, so this path accepts a small duplicate-row risk (an
// update already in flight plus a beacon create) rather than losing data.
// Duplicate reconciliation is a back-office concern.
func (c *Capturer) FlushOnUnload(ctx context.Context) {
	snap, ok := c.sched.take()
	if !ok || !snap.Qualifies() {
		return
	}

	c.mu.Lock()
	rec := snap.toRecord(c.sess.ID, c.sess.Scope)
	c.mu.Unlock()

	if c.bcn != nil {
		c.metrics.RecordBeacon(ctx)
		if err := c.bcn.Send(ctx, rec); err != nil {
			// Fire-and-forget: unobservable to the caller.
			c.sink.CaptureFailed("beacon", err)
		}
		return
	}

	if _, err := c.res.store.Create(ctx, rec); err != nil {
		c.sink.CaptureFailed("unload_create", err)
		c.metrics.RecordFailure(ctx, "unload_create")
	}
}

// MarkAsConverted transitions the session's pending record to converted,
// stamping the real order id, then rotates the session identity so further
// activity starts a fresh lineage. Persistence failure is logged and the
// local state is still reset: order completion never blocks on capture
// bookkeeping.
func (c *Capturer) MarkAsConverted(ctx context.Context, orderID string) {
	c.sched.Cancel()

	c.mu.Lock()
	sessionID := c.sess.ID
	scope := c.sess.Scope
	c.mu.Unlock()

	if _, err := c.res.store.MarkConverted(ctx, sessionID, orderID); err != nil {
		c.sink.CaptureFailed("convert", err)
		c.metrics.RecordFailure(ctx, "convert")
	} else {
		c.metrics.RecordConversion(ctx)
	}

	c.mu.Lock()
	c.sess.reset()
	c.sess.ID = c.ids.Rotate(ctx, scope)
	c.mu.Unlock()
}

// Close disarms the scheduler, dropping any pending payload. Callers that
// want that payload persisted use SaveImmediately or FlushOnUnload first.
func (c *Capturer) Close() {
	c.sched.Cancel()
}

func (c *Capturer) persist(ctx context.Context, snap Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	op, err := c.res.persist(ctx, &c.sess, snap)
	if err != nil {
		// Swallowed: the next user-input-driven write retries the same
		// resolution path from scratch.
		c.sink.CaptureFailed(op, err)
		c.metrics.RecordFailure(ctx, op)
		return
	}
	if op != "" {
		c.metrics.RecordWrite(ctx, op)
		c.logger.Debug("capture persisted", "op", op, "session_id", c.sess.ID, "record_id", c.sess.KnownRecordID)
	}
}
