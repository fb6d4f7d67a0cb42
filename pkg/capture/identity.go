package capture

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/brightbasket/capture/pkg/session"
)

// checkoutSessionKey is the single KV key holding the stable checkout-scope
// session identifier.
const checkoutSessionKey = "checkout_session_id"

// Identity mints and retrieves capture session identifiers with per-scope
// lifecycle rules: checkout identifiers are stored and reused, quick-buy
// identifiers are fresh on every attempt and never stored.
//
// Storage unavailability is not an error condition. The Identity degrades
// to an in-memory identifier for its own lifetime, so capture keeps
// working; it just won't survive a reload.
type Identity struct {
	kv     session.KV
	logger *slog.Logger

	// fallback holds the in-memory identifier used while the KV is
	// unavailable.
	fallback string
}

// NewIdentity creates an Identity over the given KV.
func NewIdentity(kv session.KV, logger *slog.Logger) *Identity {
	if logger == nil {
		logger = slog.Default()
	}
	return &Identity{kv: kv, logger: logger.With("component", "capture.identity")}
}

// GetOrCreate returns the session identifier for the scope. For checkout it
// returns the stored identifier if present, minting and storing a new one
// otherwise. For quick-buy it always mints a fresh, unstored identifier.
func (i *Identity) GetOrCreate(ctx context.Context, scope Scope) string {
	if scope == ScopeQuickBuy {
		return uuid.NewString()
	}

	if i.fallback != "" {
		return i.fallback
	}

	id, err := i.kv.Get(ctx, checkoutSessionKey)
	if err == nil && id != "" {
		return id
	}
	if err != nil && err != session.ErrNotFound {
		i.logger.Warn("session storage unavailable, using in-memory identifier", "error", err)
		i.fallback = uuid.NewString()
		return i.fallback
	}
	return i.mint(ctx)
}

// Rotate mints a fresh identifier, stores it for checkout scope, and
// returns it. Used after conversion so further activity starts a clean
// capture lineage.
func (i *Identity) Rotate(ctx context.Context, scope Scope) string {
	if scope == ScopeQuickBuy {
		return uuid.NewString()
	}
	if i.fallback != "" {
		i.fallback = uuid.NewString()
		return i.fallback
	}
	return i.mint(ctx)
}

func (i *Identity) mint(ctx context.Context) string {
	id := uuid.NewString()
	if err := i.kv.Set(ctx, checkoutSessionKey, id, 0); err != nil {
		i.logger.Warn("failed to store session identifier, using in-memory identifier", "error", err)
		i.fallback = id
	}
	return id
}
