//go:build property
// +build property

// Property-based tests for the single-pending-row invariant.
package capture

import (
	"context"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/brightbasket/capture/pkg/record"
)

// TestSinglePendingRowInvariant verifies that for any sequence of captured
// snapshots within one session, at most one pending record exists for that
// session identifier at the end.
func TestSinglePendingRowInvariant(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	snapshotGen := gopter.CombineGens(
		gen.AlphaString(), // name, possibly empty
		gen.AlphaString(), // phone, possibly empty
		gen.IntRange(0, 5),
		gen.Int64Range(0, 100000),
	).Map(func(values []interface{}) Snapshot {
		qty := values[2].(int)
		var items []record.CartItem
		if qty > 0 {
			items = []record.CartItem{{ProductID: "P1", Quantity: qty, Price: 500}}
		}
		return Snapshot{
			FullName:  values[0].(string),
			Phone:     values[1].(string),
			CartItems: items,
			Subtotal:  values[3].(int64),
			Total:     values[3].(int64),
		}
	})

	properties.Property("at most one pending record per session", prop.ForAll(
		func(snapshots []Snapshot) bool {
			ctx := context.Background()
			store := record.NewMemoryStore()
			c := New(ctx, store, Options{Scope: ScopeCheckout})

			for _, snap := range snapshots {
				c.CaptureFormData(snap)
				c.SaveImmediately(ctx)
			}

			pending, err := store.ListPending(ctx, 100)
			if err != nil {
				return false
			}
			count := 0
			for _, rec := range pending {
				if rec.SessionID == c.SessionID() {
					count++
				}
			}
			return count <= 1
		},
		gen.SliceOf(snapshotGen),
	))

	properties.TestingRun(t)
}

// TestConvertedRecordsStayTerminal verifies that no sequence of further
// captures mutates a converted record.
func TestConvertedRecordsStayTerminal(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("converted records never change", prop.ForAll(
		func(names []string) bool {
			ctx := context.Background()
			store := record.NewMemoryStore()
			c := New(ctx, store, Options{Scope: ScopeCheckout})

			c.CaptureFormData(Snapshot{FullName: "Jane Doe", Phone: "055"})
			c.SaveImmediately(ctx)
			converted, err := store.FindPendingBySession(ctx, c.SessionID())
			if err != nil || converted == nil {
				return false
			}
			c.MarkAsConverted(ctx, "ORD-1")

			for _, name := range names {
				c.CaptureFormData(Snapshot{FullName: name, Phone: "055"})
				c.SaveImmediately(ctx)
			}

			after, err := store.GetByID(ctx, converted.ID)
			if err != nil || after == nil {
				return false
			}
			return after.Status == record.StatusConverted &&
				after.ConvertedOrderID == "ORD-1" &&
				after.FullName == "Jane Doe"
		},
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}
