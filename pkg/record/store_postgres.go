package record

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PostgresStore is a durable Store backed by Postgres. The schema is
// provisioned externally (see deploy/sql); the column set mirrors the
// SQLite migration.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const pgColumns = `id, session_id, full_name, phone, email, address, shipping_location, payment_method, notes, cart_items, subtotal, shipping_fee, total, source, status, converted_order_id, created_at, last_updated_at`

func (s *PostgresStore) Create(ctx context.Context, o *IncompleteOrder) (string, error) {
	cp := cloneRecord(o)
	cp.Normalize()

	id := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339Nano)
	itemsJSON, _ := json.Marshal(cp.CartItems)

	query := `INSERT INTO incomplete_orders (` + pgColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	_, err := s.db.ExecContext(ctx, query,
		id, cp.SessionID, cp.FullName, cp.Phone, cp.Email, cp.Address,
		cp.ShippingLocation, cp.PaymentMethod, cp.Notes, string(itemsJSON),
		cp.Subtotal, cp.ShippingFee, cp.Total, string(cp.Source),
		string(StatusPending), "", now, now,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert incomplete order: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) Update(ctx context.Context, id string, o *IncompleteOrder) error {
	cp := cloneRecord(o)
	cp.Normalize()

	itemsJSON, _ := json.Marshal(cp.CartItems)
	now := time.Now().UTC().Format(time.RFC3339Nano)

	query := `UPDATE incomplete_orders SET
        full_name = $1, phone = $2, email = $3, address = $4,
        shipping_location = $5, payment_method = $6, notes = $7,
        cart_items = $8, subtotal = $9, shipping_fee = $10, total = $11,
        last_updated_at = $12
        WHERE id = $13 AND status = 'pending'`
	_, err := s.db.ExecContext(ctx, query,
		cp.FullName, cp.Phone, cp.Email, cp.Address,
		cp.ShippingLocation, cp.PaymentMethod, cp.Notes,
		string(itemsJSON), cp.Subtotal, cp.ShippingFee, cp.Total,
		now, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update incomplete order %s: %w", id, err)
	}
	return nil
}

func (s *PostgresStore) FindPendingBySession(ctx context.Context, sessionID string) (*IncompleteOrder, error) {
	query := `SELECT ` + pgColumns + `
        FROM incomplete_orders
        WHERE session_id = $1 AND status = 'pending'
        ORDER BY last_updated_at DESC
        LIMIT 1`
	rec, err := scanOrder(s.db.QueryRowContext(ctx, query, sessionID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rec, err
}

func (s *PostgresStore) MarkConverted(ctx context.Context, sessionID, orderID string) (int, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	query := `UPDATE incomplete_orders
        SET status = 'converted', converted_order_id = $1, last_updated_at = $2
        WHERE session_id = $3 AND status = 'pending'`
	res, err := s.db.ExecContext(ctx, query, orderID, now, sessionID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark session %s converted: %w", sessionID, err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (s *PostgresStore) ListPending(ctx context.Context, limit int) ([]*IncompleteOrder, error) {
	query := `SELECT ` + pgColumns + `
        FROM incomplete_orders
        WHERE status = 'pending'
        ORDER BY last_updated_at DESC
        LIMIT $1`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*IncompleteOrder
	for rows.Next() {
		rec, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id string) (*IncompleteOrder, error) {
	query := `SELECT ` + pgColumns + ` FROM incomplete_orders WHERE id = $1`
	rec, err := scanOrder(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rec, err
}
