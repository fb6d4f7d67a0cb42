package capture

import (
	"strings"

	"github.com/brightbasket/capture/pkg/record"
)

// Scope distinguishes the two storefront flows that feed the engine.
type Scope string

const (
	// ScopeCheckout sessions are stable: the same identifier is reused
	// across page reloads within a browsing session, so one abandoned
	// checkout maps to one evolving record.
	ScopeCheckout Scope = "checkout"
	// ScopeQuickBuy sessions are ephemeral: a fresh identifier is minted
	// on every attempt, so repeated quick-buy flows never overwrite each
	// other.
	ScopeQuickBuy Scope = "quick_buy"
)

// Source returns the record source for the scope.
func (s Scope) Source() record.Source {
	if s == ScopeQuickBuy {
		return record.SourceQuickBuy
	}
	return record.SourceCheckout
}

// Snapshot is one logical state of the checkout or quick-buy form: contact
// details plus a denormalized copy of the cart and its computed totals.
// The engine never recomputes pricing; Subtotal, ShippingFee and Total are
// persisted exactly as given.
type Snapshot struct {
	FullName         string            `json:"full_name"`
	Phone            string            `json:"phone"`
	Email            string            `json:"email,omitempty"`
	Address          string            `json:"address,omitempty"`
	ShippingLocation string            `json:"shipping_location,omitempty"`
	PaymentMethod    string            `json:"payment_method,omitempty"`
	Notes            string            `json:"notes,omitempty"`
	CartItems        []record.CartItem `json:"cart_items"`
	Subtotal         int64             `json:"subtotal"`
	ShippingFee      int64             `json:"shipping_fee"`
	Total            int64             `json:"total"`
}

// Qualifies reports whether the snapshot is worth persisting. Partial,
// anonymous keystrokes are not: at least one of FullName or Phone must be
// non-empty after trimming.
func (s Snapshot) Qualifies() bool {
	return strings.TrimSpace(s.FullName) != "" || strings.TrimSpace(s.Phone) != ""
}

// toRecord builds the persisted row for a session.
func (s Snapshot) toRecord(sessionID string, scope Scope) *record.IncompleteOrder {
	items := make([]record.CartItem, len(s.CartItems))
	copy(items, s.CartItems)

	return &record.IncompleteOrder{
		SessionID:        sessionID,
		FullName:         s.FullName,
		Phone:            s.Phone,
		Email:            s.Email,
		Address:          s.Address,
		ShippingLocation: s.ShippingLocation,
		PaymentMethod:    s.PaymentMethod,
		Notes:            s.Notes,
		CartItems:        items,
		Subtotal:         s.Subtotal,
		ShippingFee:      s.ShippingFee,
		Total:            s.Total,
		Source:           scope.Source(),
		Status:           record.StatusPending,
	}
}
