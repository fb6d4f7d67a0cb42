package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/brightbasket/capture/pkg/session"
)

// SessionRequest is the body of POST /v1/captures/session. ClientKey is an
// opaque token the storefront derives per browsing session (a cookie or
// device id); the gateway never interprets it.
type SessionRequest struct {
	ClientKey string `json:"client_key"`
}

// SessionResponse carries the server-held session identifier.
type SessionResponse struct {
	SessionID string `json:"session_id"`
	Created   bool   `json:"created"`
}

// HandleSession handles POST /v1/captures/session: get-or-create a stable
// checkout session identifier held server-side, for thin clients that have
// no local session storage. The same client key always resolves to the
// same identifier until the KV entry expires.
func (s *Service) HandleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteMethodNotAllowed(w)
		return
	}

	var req SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}
	if req.ClientKey == "" {
		WriteBadRequest(w, "Missing required field: client_key")
		return
	}

	key := "session:" + req.ClientKey
	id, err := s.sessions.Get(r.Context(), key)
	if err == nil && id != "" {
		writeJSON(w, http.StatusOK, SessionResponse{SessionID: id})
		return
	}
	if err != nil && !errors.Is(err, session.ErrNotFound) {
		WriteInternal(w, err)
		return
	}

	id = uuid.NewString()
	if err := s.sessions.Set(r.Context(), key, id, 0); err != nil {
		WriteInternal(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, SessionResponse{SessionID: id, Created: true})
}

// SettingsResponse is the engine bootstrap payload served to embedded
// storefront clients.
type SettingsResponse struct {
	DebounceWindowMs int64  `json:"debounce_window_ms"`
	BeaconEndpoint   string `json:"beacon_endpoint"`
}

// HandleSettings handles GET /v1/captures/settings: the debounce window and
// beacon endpoint embedded clients configure their capture engine with, so
// tuning lives in one place (gateway config and profiles) instead of being
// baked into every storefront build.
func (s *Service) HandleSettings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteMethodNotAllowed(w)
		return
	}

	writeJSON(w, http.StatusOK, SettingsResponse{
		DebounceWindowMs: s.settings.DebounceWindow.Milliseconds(),
		BeaconEndpoint:   s.settings.BeaconEndpoint,
	})
}
