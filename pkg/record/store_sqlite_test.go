package record

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	// The in-memory database lives per-connection.
	db.SetMaxOpenConns(1)

	store, err := NewSQLiteStore(db)
	require.NoError(t, err)
	return store
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteTestStore(t)

	id, err := s.Create(ctx, testOrder("sess-1"))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	rec, err := s.FindPendingBySession(ctx, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, id, rec.ID)
	assert.Equal(t, "Jane Doe", rec.FullName)
	assert.Equal(t, "0551234567", rec.Phone)
	assert.Equal(t, StatusPending, rec.Status)
	assert.Equal(t, SourceCheckout, rec.Source)
	assert.Equal(t, int64(1050), rec.Total)
	require.Len(t, rec.CartItems, 1)
	assert.Equal(t, "P1", rec.CartItems[0].ProductID)
	assert.Equal(t, 2, rec.CartItems[0].Quantity)
	assert.Equal(t, int64(500), rec.CartItems[0].Price)
	assert.WithinDuration(t, time.Now().UTC(), rec.CreatedAt, 5*time.Second)
}

func TestSQLiteStore_UpdateInPlace(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteTestStore(t)

	id, err := s.Create(ctx, testOrder("sess-1"))
	require.NoError(t, err)

	updated := testOrder("sess-1")
	updated.CartItems[0].Quantity = 3
	updated.Subtotal = 1500
	updated.Total = 1550
	require.NoError(t, s.Update(ctx, id, updated))

	rec, err := s.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 3, rec.CartItems[0].Quantity)
	assert.Equal(t, int64(1550), rec.Total)

	pending, err := s.ListPending(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 1, "update must not create a second row")
}

func TestSQLiteStore_UpdateIgnoresTerminal(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteTestStore(t)

	id, err := s.Create(ctx, testOrder("sess-1"))
	require.NoError(t, err)
	n, err := s.MarkConverted(ctx, "sess-1", "ORD-1")
	require.NoError(t, err)
	require.Equal(t, 1, n)

	mutated := testOrder("sess-1")
	mutated.FullName = "Intruder"
	require.NoError(t, s.Update(ctx, id, mutated))

	rec, err := s.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", rec.FullName)
	assert.Equal(t, StatusConverted, rec.Status)
	assert.Equal(t, "ORD-1", rec.ConvertedOrderID)
}

func TestSQLiteStore_FindPendingSkipsConverted(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteTestStore(t)

	_, err := s.Create(ctx, testOrder("sess-1"))
	require.NoError(t, err)
	_, err = s.MarkConverted(ctx, "sess-1", "ORD-1")
	require.NoError(t, err)

	rec, err := s.FindPendingBySession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Nil(t, rec)

	// A later capture for the same historical session id creates a fresh
	// pending row next to the converted one.
	id2, err := s.Create(ctx, testOrder("sess-1"))
	require.NoError(t, err)

	rec, err = s.FindPendingBySession(ctx, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, id2, rec.ID)
}

func TestSQLiteStore_GetByIDMissing(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteTestStore(t)

	rec, err := s.GetByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, rec)
}
