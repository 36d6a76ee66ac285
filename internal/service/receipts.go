package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/ecoreceipt/ecoreceipt/internal/errs"
	"github.com/ecoreceipt/ecoreceipt/internal/model"
	"github.com/ecoreceipt/ecoreceipt/internal/repository"
)

// ReceiptService defines ownership-scoped access to receipts. Every
// operation takes the authenticated caller's id, never a client-supplied one.
type ReceiptService interface {
	// Create stores a new receipt owned by userID. Caller-supplied totals are
	// stored verbatim, not recomputed from the items.
	Create(ctx context.Context, userID uuid.UUID, draft model.ReceiptDraft) (model.Receipt, error)
	// List returns all receipts owned by userID.
	List(ctx context.Context, userID uuid.UUID) ([]model.Receipt, error)
	// Get returns a receipt iff it exists and is owned by userID.
	Get(ctx context.Context, userID, id uuid.UUID) (*model.Receipt, error)
	// Delete permanently removes a receipt iff it is owned by userID.
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type ReceiptServiceImpl struct {
	repo repository.ReceiptRepository
}

// NewReceiptService constructs ReceiptService.
func NewReceiptService(repo repository.ReceiptRepository) *ReceiptServiceImpl {
	return &ReceiptServiceImpl{repo: repo}
}

// Create validates input, assigns id/owner/creation time and persists.
// Validation rules:
// - userID != uuid.Nil
// - retailer and category non-empty
// - item quantities >= 0
func (s *ReceiptServiceImpl) Create(ctx context.Context, userID uuid.UUID, draft model.ReceiptDraft) (model.Receipt, error) {
	if userID == uuid.Nil {
		return model.Receipt{}, errors.New("validation: empty userID")
	}
	if draft.Retailer == "" {
		return model.Receipt{}, errors.New("validation: empty retailer")
	}
	if draft.Category == "" {
		return model.Receipt{}, errors.New("validation: empty category")
	}
	for i := range draft.Items {
		if draft.Items[i].Quantity < 0 {
			return model.Receipt{}, fmt.Errorf("validation: item[%d] negative quantity", i)
		}
	}
	id, err := uuid.NewV4()
	if err != nil {
		return model.Receipt{}, err
	}
	items := draft.Items
	if items == nil {
		items = []model.ReceiptItem{}
	}
	rec := model.Receipt{
		ID:        id,
		UserID:    userID,
		Retailer:  draft.Retailer,
		Date:      draft.Date,
		Time:      draft.Time,
		Items:     items,
		Subtotal:  draft.Subtotal,
		Tax:       draft.Tax,
		Total:     draft.Total,
		Category:  draft.Category,
		Logo:      draft.Logo,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, &rec); err != nil {
		return model.Receipt{}, err
	}
	return rec, nil
}

// List returns the caller's receipts.
func (s *ReceiptServiceImpl) List(ctx context.Context, userID uuid.UUID) ([]model.Receipt, error) {
	if userID == uuid.Nil {
		return nil, errors.New("validation: empty userID")
	}
	return s.repo.ListByUser(ctx, userID)
}

// Get loads by id and enforces ownership with an explicit comparison, so the
// invariant holds regardless of the backing store's query capabilities. A
// receipt owned by someone else is indistinguishable from a missing one.
func (s *ReceiptServiceImpl) Get(ctx context.Context, userID, id uuid.UUID) (*model.Receipt, error) {
	if userID == uuid.Nil || id == uuid.Nil {
		return nil, errors.New("validation: empty userID/id")
	}
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.UserID != userID {
		return nil, errs.ErrNotFound
	}
	return rec, nil
}

// Delete removes the caller's receipt; the repository's owner-scoped
// statement keeps the check-and-delete atomic.
func (s *ReceiptServiceImpl) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if userID == uuid.Nil || id == uuid.Nil {
		return errors.New("validation: empty userID/id")
	}
	return s.repo.Delete(ctx, userID, id)
}
