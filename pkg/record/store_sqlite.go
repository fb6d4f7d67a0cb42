package record

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a durable Store backed by SQLite, suitable for
// single-node storefront deployments.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates the store and runs its schema migration.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	query := `
    CREATE TABLE IF NOT EXISTS incomplete_orders (
        id TEXT PRIMARY KEY,
        session_id TEXT NOT NULL,
        full_name TEXT,
        phone TEXT,
        email TEXT,
        address TEXT,
        shipping_location TEXT,
        payment_method TEXT,
        notes TEXT,
        cart_items JSON,
        subtotal INTEGER NOT NULL DEFAULT 0,
        shipping_fee INTEGER NOT NULL DEFAULT 0,
        total INTEGER NOT NULL DEFAULT 0,
        source TEXT,
        status TEXT NOT NULL DEFAULT 'pending',
        converted_order_id TEXT,
        created_at DATETIME,
        last_updated_at DATETIME
    );
    CREATE INDEX IF NOT EXISTS idx_incomplete_orders_session
        ON incomplete_orders(session_id, status);`
	_, err := s.db.ExecContext(context.Background(), query)
	return err
}

const sqliteColumns = `id, session_id, full_name, phone, email, address, shipping_location, payment_method, notes, cart_items, subtotal, shipping_fee, total, source, status, converted_order_id, created_at, last_updated_at`

func (s *SQLiteStore) Create(ctx context.Context, o *IncompleteOrder) (string, error) {
	cp := cloneRecord(o)
	cp.Normalize()

	id := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339Nano)
	itemsJSON, _ := json.Marshal(cp.CartItems)

	query := `INSERT INTO incomplete_orders (` + sqliteColumns + `)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
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

func (s *SQLiteStore) Update(ctx context.Context, id string, o *IncompleteOrder) error {
	cp := cloneRecord(o)
	cp.Normalize()

	itemsJSON, _ := json.Marshal(cp.CartItems)
	now := time.Now().UTC().Format(time.RFC3339Nano)

	query := `UPDATE incomplete_orders SET
        full_name = ?, phone = ?, email = ?, address = ?,
        shipping_location = ?, payment_method = ?, notes = ?,
        cart_items = ?, subtotal = ?, shipping_fee = ?, total = ?,
        last_updated_at = ?
        WHERE id = ? AND status = 'pending'`
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

func (s *SQLiteStore) FindPendingBySession(ctx context.Context, sessionID string) (*IncompleteOrder, error) {
	query := `SELECT ` + sqliteColumns + `
        FROM incomplete_orders
        WHERE session_id = ? AND status = 'pending'
        ORDER BY last_updated_at DESC
        LIMIT 1`
	row := s.db.QueryRowContext(ctx, query, sessionID)
	rec, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rec, err
}

func (s *SQLiteStore) MarkConverted(ctx context.Context, sessionID, orderID string) (int, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	query := `UPDATE incomplete_orders
        SET status = 'converted', converted_order_id = ?, last_updated_at = ?
        WHERE session_id = ? AND status = 'pending'`
	res, err := s.db.ExecContext(ctx, query, orderID, now, sessionID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark session %s converted: %w", sessionID, err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (s *SQLiteStore) ListPending(ctx context.Context, limit int) ([]*IncompleteOrder, error) {
	query := `SELECT ` + sqliteColumns + `
        FROM incomplete_orders
        WHERE status = 'pending'
        ORDER BY last_updated_at DESC
        LIMIT ?`
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

func (s *SQLiteStore) GetByID(ctx context.Context, id string) (*IncompleteOrder, error) {
	query := `SELECT ` + sqliteColumns + ` FROM incomplete_orders WHERE id = ?`
	rec, err := scanOrder(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rec, err
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*IncompleteOrder, error) {
	var (
		rec       IncompleteOrder
		fullName  sql.NullString
		phone     sql.NullString
		email     sql.NullString
		address   sql.NullString
		shipLoc   sql.NullString
		payment   sql.NullString
		notes     sql.NullString
		itemsJSON sql.NullString
		source    sql.NullString
		status    string
		orderID   sql.NullString
		createdAt string
		updatedAt string
	)
	err := row.Scan(&rec.ID, &rec.SessionID, &fullName, &phone, &email,
		&address, &shipLoc, &payment, &notes, &itemsJSON,
		&rec.Subtotal, &rec.ShippingFee, &rec.Total, &source, &status,
		&orderID, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	rec.FullName = fullName.String
	rec.Phone = phone.String
	rec.Email = email.String
	rec.Address = address.String
	rec.ShippingLocation = shipLoc.String
	rec.PaymentMethod = payment.String
	rec.Notes = notes.String
	rec.Source = Source(source.String)
	rec.Status = Status(status)
	rec.ConvertedOrderID = orderID.String
	rec.CreatedAt = parseTime(createdAt)
	rec.LastUpdatedAt = parseTime(updatedAt)

	if itemsJSON.Valid && itemsJSON.String != "" {
		_ = json.Unmarshal([]byte(itemsJSON.String), &rec.CartItems)
	}
	return &rec, nil
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	return time.Time{}
}
