// Package record defines the persisted incomplete-order model and its
// storage backends. An incomplete order is the server-side trail of an
// abandoned checkout or quick-buy attempt: contact details plus a
// denormalized cart snapshot, correlated to the shopper by an opaque
// session identifier.
package record

import (
	"strings"
	"time"
)

// Status is the lifecycle state of an incomplete order.
type Status string

const (
	// StatusPending is the only mutable state. At most one pending record
	// exists per session identifier at any time.
	StatusPending Status = "pending"
	// StatusConverted marks a capture whose checkout produced a real order.
	// Terminal.
	StatusConverted Status = "converted"
	// StatusHidden marks a capture dismissed by back-office triage. Terminal.
	StatusHidden Status = "hidden"
)

// Source identifies which storefront flow produced the capture.
type Source string

const (
	SourceCheckout Source = "checkout"
	SourceQuickBuy Source = "quick_buy"
)

// CartItem is a denormalized copy of one cart line at capture time.
// It deliberately carries product name, image and price by value so that
// later catalog edits or deletions cannot corrupt historical captures.
type CartItem struct {
	ProductID    string `json:"product_id"`
	ProductName  string `json:"product_name"`
	ProductImage string `json:"product_image,omitempty"`
	Quantity     int    `json:"quantity"`
	Size         string `json:"size,omitempty"`
	Color        string `json:"color,omitempty"`
	Price        int64  `json:"price"`
}

// IncompleteOrder is the persisted capture row. Monetary fields are in
// minor currency units. Subtotal, ShippingFee and Total are stored exactly
// as snapshotted; the capture subsystem never recomputes pricing.
type IncompleteOrder struct {
	ID               string     `json:"id"`
	SessionID        string     `json:"session_id"`
	FullName         string     `json:"full_name,omitempty"`
	Phone            string     `json:"phone,omitempty"`
	Email            string     `json:"email,omitempty"`
	Address          string     `json:"address,omitempty"`
	ShippingLocation string     `json:"shipping_location,omitempty"`
	PaymentMethod    string     `json:"payment_method,omitempty"`
	Notes            string     `json:"notes,omitempty"`
	CartItems        []CartItem `json:"cart_items"`
	Subtotal         int64      `json:"subtotal"`
	ShippingFee      int64      `json:"shipping_fee"`
	Total            int64      `json:"total"`
	Source           Source     `json:"source"`
	Status           Status     `json:"status"`
	ConvertedOrderID string     `json:"converted_order_id,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	LastUpdatedAt    time.Time  `json:"last_updated_at"`
}

// Normalize trims whitespace from the free-text contact fields before
// storage.
func (o *IncompleteOrder) Normalize() {
	o.FullName = strings.TrimSpace(o.FullName)
	o.Phone = strings.TrimSpace(o.Phone)
	o.Email = strings.TrimSpace(o.Email)
	o.Address = strings.TrimSpace(o.Address)
	o.ShippingLocation = strings.TrimSpace(o.ShippingLocation)
	o.PaymentMethod = strings.TrimSpace(o.PaymentMethod)
	o.Notes = strings.TrimSpace(o.Notes)
}

// Terminal reports whether the record can no longer be mutated.
func (s Status) Terminal() bool {
	return s == StatusConverted || s == StatusHidden
}
