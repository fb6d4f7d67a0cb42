package capture

import (
	"context"
	"fmt"

	"github.com/brightbasket/capture/pkg/record"
)

// Session is the ephemeral, client-held state of one capture lineage. It is
// an explicit value owned by the Capturer — never module-level state — so
// construction, reset and rotation are all visible operations.
type Session struct {
	// ID is the opaque token correlating this lineage with its persisted
	// record.
	ID string
	// Scope controls the identifier lifecycle (stable vs. ephemeral).
	Scope Scope
	// KnownRecordID caches the persisted record's id after the first
	// successful write, avoiding redundant existence lookups.
	KnownRecordID string
	// LastFingerprint is the fingerprint of the last payload successfully
	// written, used to suppress no-op writes.
	LastFingerprint string
}

// reset clears the per-record state when a lineage ends (conversion).
func (s *Session) reset() {
	s.KnownRecordID = ""
	s.LastFingerprint = ""
}

// resolver translates a (session, snapshot) pair into exactly one persisted
// row update. Resolution order: cached id update, then find-pending-and-
// update, then create. On any failure the session state is left untouched
// so the next user-input-driven write retries the whole path from scratch.
type resolver struct {
	store record.Store
}

// persist runs the upsert. It returns the operation performed ("create",
// "update" or "" for a deliberate skip) and the error, if any. It mutates
// sess only after the store call succeeded.
func (r *resolver) persist(ctx context.Context, sess *Session, snap Snapshot) (string, error) {
	// Anonymous keystrokes are not worth persisting.
	if !snap.Qualifies() {
		return "", nil
	}

	fp, fpErr := Fingerprint(snap)
	if fpErr == nil && fp == sess.LastFingerprint && sess.LastFingerprint != "" {
		return "", nil
	}

	rec := snap.toRecord(sess.ID, sess.Scope)

	if sess.KnownRecordID != "" {
		if err := r.store.Update(ctx, sess.KnownRecordID, rec); err != nil {
			return "update", fmt.Errorf("update record %s: %w", sess.KnownRecordID, err)
		}
		sess.LastFingerprint = fp
		return "update", nil
	}

	// The record may exist even though the in-memory cache is empty, e.g.
	// after a reload within a checkout-scope session. Re-resolve before
	// creating, or every reload would mint a duplicate pending row.
	existing, err := r.store.FindPendingBySession(ctx, sess.ID)
	if err != nil {
		return "lookup", fmt.Errorf("find pending record for session: %w", err)
	}
	if existing != nil {
		if err := r.store.Update(ctx, existing.ID, rec); err != nil {
			return "update", fmt.Errorf("update record %s: %w", existing.ID, err)
		}
		sess.KnownRecordID = existing.ID
		sess.LastFingerprint = fp
		return "update", nil
	}

	id, err := r.store.Create(ctx, rec)
	if err != nil {
		return "create", fmt.Errorf("create record: %w", err)
	}
	sess.KnownRecordID = id
	sess.LastFingerprint = fp
	return "create", nil
}
