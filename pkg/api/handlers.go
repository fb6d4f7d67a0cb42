package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/brightbasket/capture/pkg/capture"
	"github.com/brightbasket/capture/pkg/observability"
	"github.com/brightbasket/capture/pkg/record"
	"github.com/brightbasket/capture/pkg/session"
)

// Settings are the engine parameters the gateway hands to embedded
// storefront clients at bootstrap.
type Settings struct {
	DebounceWindow time.Duration
	BeaconEndpoint string
}

// Service is the capture persistence gateway. It gives remote storefront
// clients the same primitives the embedded engine uses: session-scoped
// upsert, unconditional beacon create, conversion, and triage listing, plus
// server-held session identifiers for thin clients without local storage.
type Service struct {
	store        record.Store
	sessions     session.KV
	settings     Settings
	logger       *slog.Logger
	metrics      *observability.Metrics
	beaconSchema *jsonschema.Schema
}

// NewService creates the gateway over the given store and session KV.
func NewService(store record.Store, sessions session.KV, settings Settings, logger *slog.Logger, metrics *observability.Metrics) (*Service, error) {
	if sessions == nil {
		sessions = session.NewMemory()
	}
	if settings.DebounceWindow <= 0 {
		settings.DebounceWindow = capture.DefaultDebounceWindow
	}
	if settings.BeaconEndpoint == "" {
		settings.BeaconEndpoint = "/v1/captures/beacon"
	}
	if logger == nil {
		logger = slog.Default()
	}
	schema, err := compileBeaconSchema()
	if err != nil {
		return nil, err
	}
	return &Service{
		store:        store,
		sessions:     sessions,
		settings:     settings,
		logger:       logger.With("component", "capture.api"),
		metrics:      metrics,
		beaconSchema: schema,
	}, nil
}

// UpsertRequest is the body of POST /v1/captures.
type UpsertRequest struct {
	SessionID string `json:"session_id"`
	Source    string `json:"source"`
	capture.Snapshot
}

// UpsertResponse reports what the gateway did with the snapshot.
type UpsertResponse struct {
	RecordID string `json:"record_id,omitempty"`
	Created  bool   `json:"created"`
	Skipped  bool   `json:"skipped"`
}

// HandleUpsert handles POST /v1/captures: find-or-create the one pending
// record for the session and write the snapshot into it. Unqualified
// snapshots (no name, no phone) are skipped, not errors.
func (s *Service) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteMethodNotAllowed(w)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit
	var req UpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}
	if req.SessionID == "" {
		WriteBadRequest(w, "Missing required field: session_id")
		return
	}

	if !req.Snapshot.Qualifies() {
		writeJSON(w, http.StatusOK, UpsertResponse{Skipped: true})
		return
	}

	rec := snapshotToRecord(req.SessionID, req.Source, req.Snapshot)

	existing, err := s.store.FindPendingBySession(r.Context(), req.SessionID)
	if err != nil {
		WriteInternal(w, err)
		return
	}
	if existing != nil {
		if err := s.store.Update(r.Context(), existing.ID, rec); err != nil {
			WriteInternal(w, err)
			return
		}
		s.metrics.RecordWrite(r.Context(), "update")
		writeJSON(w, http.StatusOK, UpsertResponse{RecordID: existing.ID})
		return
	}

	id, err := s.store.Create(r.Context(), rec)
	if err != nil {
		WriteInternal(w, err)
		return
	}
	s.metrics.RecordWrite(r.Context(), "create")
	writeJSON(w, http.StatusCreated, UpsertResponse{RecordID: id, Created: true})
}

// HandleBeacon handles POST /v1/captures/beacon: the unload-flush target.
// It creates unconditionally — the sender has no time to await a lookup
// round-trip — accepting a small duplicate-row risk in exchange for not
// losing the final keystrokes. Duplicates are a triage cleanup concern.
func (s *Service) HandleBeacon(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteMethodNotAllowed(w)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit
	var raw any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := s.beaconSchema.Validate(raw); err != nil {
		WriteBadRequest(w, "Payload failed schema validation")
		return
	}

	payload, err := json.Marshal(raw)
	if err != nil {
		WriteInternal(w, err)
		return
	}
	var req UpsertRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}

	// The qualification gate applies here too; an unqualified beacon is
	// silently dropped, never an error.
	if !req.Snapshot.Qualifies() {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	rec := snapshotToRecord(req.SessionID, req.Source, req.Snapshot)
	if _, err := s.store.Create(r.Context(), rec); err != nil {
		// The beacon sender never reads this response; log and accept.
		s.logger.Warn("beacon create failed", "session_id", req.SessionID, "error", err)
		s.metrics.RecordFailure(r.Context(), "beacon_create")
	} else {
		s.metrics.RecordWrite(r.Context(), "create")
	}
	w.WriteHeader(http.StatusAccepted)
}

// ConvertRequest is the body of POST /v1/captures/convert.
type ConvertRequest struct {
	SessionID string `json:"session_id"`
	OrderID   string `json:"order_id"`
}

// HandleConvert handles POST /v1/captures/convert: transition every pending
// record for the session to converted, stamping the real order id.
func (s *Service) HandleConvert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteMethodNotAllowed(w)
		return
	}

	var req ConvertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}
	if req.SessionID == "" || req.OrderID == "" {
		WriteBadRequest(w, "Missing required fields: session_id, order_id")
		return
	}

	n, err := s.store.MarkConverted(r.Context(), req.SessionID, req.OrderID)
	if err != nil {
		WriteInternal(w, err)
		return
	}
	if n > 0 {
		s.metrics.RecordConversion(r.Context())
	}
	writeJSON(w, http.StatusOK, map[string]int{"converted": n})
}

// HandlePending handles GET /v1/captures/pending: the back-office triage
// listing, most recently updated first.
func (s *Service) HandlePending(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteMethodNotAllowed(w)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			WriteBadRequest(w, "limit must be an integer between 1 and 500")
			return
		}
		limit = n
	}

	records, err := s.store.ListPending(r.Context(), limit)
	if err != nil {
		WriteInternal(w, err)
		return
	}
	if records == nil {
		records = []*record.IncompleteOrder{}
	}
	writeJSON(w, http.StatusOK, records)
}

// Routes builds the gateway's handler tree. The shopper-facing endpoints
// sit behind the rate limiter; the triage listing additionally requires a
// bearer token.
func (s *Service) Routes(triageSecret []byte, rl *RateLimiter) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/captures", s.HandleUpsert)
	mux.HandleFunc("/v1/captures/beacon", s.HandleBeacon)
	mux.HandleFunc("/v1/captures/convert", s.HandleConvert)
	mux.HandleFunc("/v1/captures/session", s.HandleSession)
	mux.HandleFunc("/v1/captures/settings", s.HandleSettings)
	mux.Handle("/v1/captures/pending", RequireTriageAuth(triageSecret, http.HandlerFunc(s.HandlePending)))

	if rl != nil {
		return rl.Middleware(mux)
	}
	return mux
}

func snapshotToRecord(sessionID, source string, snap capture.Snapshot) *record.IncompleteOrder {
	items := make([]record.CartItem, len(snap.CartItems))
	copy(items, snap.CartItems)

	src := record.SourceCheckout
	if source == string(record.SourceQuickBuy) {
		src = record.SourceQuickBuy
	}

	return &record.IncompleteOrder{
		SessionID:        sessionID,
		FullName:         snap.FullName,
		Phone:            snap.Phone,
		Email:            snap.Email,
		Address:          snap.Address,
		ShippingLocation: snap.ShippingLocation,
		PaymentMethod:    snap.PaymentMethod,
		Notes:            snap.Notes,
		CartItems:        items,
		Subtotal:         snap.Subtotal,
		ShippingFee:      snap.ShippingFee,
		Total:            snap.Total,
		Source:           src,
		Status:           record.StatusPending,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
