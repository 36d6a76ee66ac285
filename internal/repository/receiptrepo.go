package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/ecoreceipt/ecoreceipt/internal/model"
)

// ReceiptRepository provides persistence for receipts. Ownership filtering is
// enforced again at the service boundary; Delete carries the owner id so the
// owner-scoped delete stays a single atomic statement.
type ReceiptRepository interface {
	// Create inserts a new receipt.
	Create(ctx context.Context, r *model.Receipt) error
	// ListByUser returns all receipts owned by userID, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Receipt, error)
	// GetByID loads a receipt by id regardless of owner; errs.ErrNotFound if absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Receipt, error)
	// Delete removes the receipt iff it exists and is owned by userID;
	// errs.ErrNotFound otherwise.
	Delete(ctx context.Context, userID, id uuid.UUID) error
}
