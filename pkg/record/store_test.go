package record

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOrder(sessionID string) *IncompleteOrder {
	return &IncompleteOrder{
		SessionID: sessionID,
		FullName:  "  Jane Doe  ",
		Phone:     "0551234567",
		CartItems: []CartItem{
			{ProductID: "P1", ProductName: "Canvas Tote", Quantity: 2, Price: 500},
		},
		Subtotal:    1000,
		ShippingFee: 50,
		Total:       1050,
		Source:      SourceCheckout,
	}
}

func TestMemoryStore_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	id, err := s.Create(ctx, testOrder("sess-1"))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	rec, err := s.FindPendingBySession(ctx, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, id, rec.ID)
	assert.Equal(t, "Jane Doe", rec.FullName, "contact fields are trimmed before storage")
	assert.Equal(t, StatusPending, rec.Status)
	assert.False(t, rec.CreatedAt.IsZero())
	assert.False(t, rec.LastUpdatedAt.IsZero())
}

func TestMemoryStore_FindPendingMissesOtherSessions(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Create(ctx, testOrder("sess-1"))
	require.NoError(t, err)

	rec, err := s.FindPendingBySession(ctx, "sess-2")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestMemoryStore_UpdateRefreshesTimestamp(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	id, err := s.Create(ctx, testOrder("sess-1"))
	require.NoError(t, err)
	before, err := s.GetByID(ctx, id)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	updated := testOrder("sess-1")
	updated.Notes = "ring the bell"
	require.NoError(t, s.Update(ctx, id, updated))

	after, err := s.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "ring the bell", after.Notes)
	assert.Equal(t, before.CreatedAt, after.CreatedAt)
	assert.True(t, after.LastUpdatedAt.After(before.LastUpdatedAt))
}

func TestMemoryStore_UpdateNeverTouchesTerminalRecords(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	id, err := s.Create(ctx, testOrder("sess-1"))
	require.NoError(t, err)
	n, err := s.MarkConverted(ctx, "sess-1", "ORD-9")
	require.NoError(t, err)
	require.Equal(t, 1, n)

	mutated := testOrder("sess-1")
	mutated.FullName = "Intruder"
	require.NoError(t, s.Update(ctx, id, mutated))

	rec, err := s.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", rec.FullName)
	assert.Equal(t, StatusConverted, rec.Status)
	assert.Equal(t, "ORD-9", rec.ConvertedOrderID)
}

func TestMemoryStore_MarkConvertedOnlyPending(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Create(ctx, testOrder("sess-1"))
	require.NoError(t, err)

	n, err := s.MarkConverted(ctx, "sess-1", "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Already terminal: a second conversion is a no-op.
	n, err = s.MarkConverted(ctx, "sess-1", "ORD-2")
	require.NoError(t, err)
	assert.Zero(t, n)

	rec, err := s.FindPendingBySession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestMemoryStore_ListPendingOrdering(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	idA, err := s.Create(ctx, testOrder("sess-a"))
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	idB, err := s.Create(ctx, testOrder("sess-b"))
	require.NoError(t, err)

	out, err := s.ListPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, idB, out[0].ID, "most recently updated first")
	assert.Equal(t, idA, out[1].ID)

	limited, err := s.ListPending(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestMemoryStore_DenormalizedItemsAreCopied(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	input := testOrder("sess-1")
	id, err := s.Create(ctx, input)
	require.NoError(t, err)

	// Mutating the caller's slice must not affect the stored snapshot.
	input.CartItems[0].ProductName = "Renamed Product"

	rec, err := s.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Canvas Tote", rec.CartItems[0].ProductName)
}
