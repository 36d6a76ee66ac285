package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/ecoreceipt/ecoreceipt/internal/errs"
	"github.com/ecoreceipt/ecoreceipt/internal/model"
)

// ReceiptRepo implements ReceiptRepository using PostgreSQL. Line items are
// stored as a jsonb column; ordering of items within a receipt is preserved.
type ReceiptRepo struct{ db *DB }

// NewReceiptRepo constructs a receipt repository.
func NewReceiptRepo(db *DB) *ReceiptRepo { return &ReceiptRepo{db: db} }

// Create inserts a new receipt row.
func (r *ReceiptRepo) Create(ctx context.Context, rec *model.Receipt) error {
	items, err := json.Marshal(rec.Items)
	if err != nil {
		return fmt.Errorf("marshal items: %w", err)
	}
	const q = `
INSERT INTO receipts (id, user_id, retailer, purchase_date, purchase_time, items, subtotal, tax, total, category, logo, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err = r.db.Pool.Exec(ctx, q,
		rec.ID, rec.UserID, rec.Retailer, rec.Date, rec.Time, items,
		rec.Subtotal, rec.Tax, rec.Total, rec.Category, rec.Logo, rec.CreatedAt)
	return err
}

// ListByUser selects all receipts owned by userID, newest first.
func (r *ReceiptRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Receipt, error) {
	const q = `
SELECT id, user_id, retailer, purchase_date, purchase_time, items, subtotal, tax, total, category, logo, created_at
FROM receipts WHERE user_id=$1 ORDER BY created_at DESC, id`
	rows, err := r.db.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Receipt, 0)
	for rows.Next() {
		rec, err := scanReceipt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// GetByID selects a receipt by id, regardless of owner.
func (r *ReceiptRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Receipt, error) {
	const q = `
SELECT id, user_id, retailer, purchase_date, purchase_time, items, subtotal, tax, total, category, logo, created_at
FROM receipts WHERE id=$1`
	row := r.db.Pool.QueryRow(ctx, q, id)
	rec, err := scanReceipt(row)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, errs.ErrNotFound
	}
	return rec, nil
}

// Delete removes a receipt owned by userID in a single owner-scoped statement.
func (r *ReceiptRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	const q = `DELETE FROM receipts WHERE id=$1 AND user_id=$2`
	tag, err := r.db.Pool.Exec(ctx, q, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func scanReceipt(row pgx.Row) (*model.Receipt, error) {
	var rec model.Receipt
	var items []byte
	if err := row.Scan(&rec.ID, &rec.UserID, &rec.Retailer, &rec.Date, &rec.Time, &items,
		&rec.Subtotal, &rec.Tax, &rec.Total, &rec.Category, &rec.Logo, &rec.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &rec.Items); err != nil {
		return nil, fmt.Errorf("unmarshal items: %w", err)
	}
	return &rec, nil
}
