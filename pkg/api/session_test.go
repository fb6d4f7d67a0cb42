package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightbasket/capture/pkg/record"
)

func TestHandleSession_StablePerClientKey(t *testing.T) {
	svc, _ := newTestService(t)

	w := postJSON(t, svc.HandleSession, "/v1/captures/session", SessionRequest{ClientKey: "device-1"})
	require.Equal(t, http.StatusCreated, w.Code)
	var first SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
	assert.True(t, first.Created)
	assert.NotEmpty(t, first.SessionID)

	// The same client key resolves to the same identifier.
	w = postJSON(t, svc.HandleSession, "/v1/captures/session", SessionRequest{ClientKey: "device-1"})
	require.Equal(t, http.StatusOK, w.Code)
	var again SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &again))
	assert.False(t, again.Created)
	assert.Equal(t, first.SessionID, again.SessionID)

	// A different client key mints a different identifier.
	w = postJSON(t, svc.HandleSession, "/v1/captures/session", SessionRequest{ClientKey: "device-2"})
	require.Equal(t, http.StatusCreated, w.Code)
	var other SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &other))
	assert.NotEqual(t, first.SessionID, other.SessionID)
}

func TestHandleSession_Validation(t *testing.T) {
	svc, _ := newTestService(t)

	w := postJSON(t, svc.HandleSession, "/v1/captures/session", SessionRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/captures/session", nil)
	rec := httptest.NewRecorder()
	svc.HandleSession(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleSettings_ServesConfiguredValues(t *testing.T) {
	svc, err := NewService(record.NewMemoryStore(), nil, Settings{
		DebounceWindow: 800 * time.Millisecond,
		BeaconEndpoint: "https://capture.brightbasket.dev/v1/captures/beacon",
	}, nil, nil)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/captures/settings", nil)
	w := httptest.NewRecorder()
	svc.HandleSettings(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var out SettingsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, int64(800), out.DebounceWindowMs)
	assert.Equal(t, "https://capture.brightbasket.dev/v1/captures/beacon", out.BeaconEndpoint)
}

func TestHandleSettings_Defaults(t *testing.T) {
	svc, _ := newTestService(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/captures/settings", nil)
	w := httptest.NewRecorder()
	svc.HandleSettings(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var out SettingsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, int64(1500), out.DebounceWindowMs)
	assert.Equal(t, "/v1/captures/beacon", out.BeaconEndpoint)
}
