package service

import (
	"context"
	"errors"
	"testing"

	"github.com/gofrs/uuid/v5"

	"github.com/ecoreceipt/ecoreceipt/internal/errs"
	"github.com/ecoreceipt/ecoreceipt/internal/model"
	"github.com/ecoreceipt/ecoreceipt/internal/repository"
)

type fakeReceipts struct {
	byID map[uuid.UUID]*model.Receipt

	createErr error
	listErr   error
}

var _ repository.ReceiptRepository = (*fakeReceipts)(nil)

func (f *fakeReceipts) Create(_ context.Context, r *model.Receipt) error {
	if f.createErr != nil {
		return f.createErr
	}
	if f.byID == nil {
		f.byID = map[uuid.UUID]*model.Receipt{}
	}
	cpy := *r
	f.byID[r.ID] = &cpy
	return nil
}

func (f *fakeReceipts) ListByUser(_ context.Context, userID uuid.UUID) ([]model.Receipt, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []model.Receipt{}
	for _, r := range f.byID {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeReceipts) GetByID(_ context.Context, id uuid.UUID) (*model.Receipt, error) {
	r, ok := f.byID[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *r
	return &c, nil
}

func (f *fakeReceipts) Delete(_ context.Context, userID, id uuid.UUID) error {
	r, ok := f.byID[id]
	if !ok || r.UserID != userID {
		return errs.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func draft() model.ReceiptDraft {
	return model.ReceiptDraft{
		Retailer: "Green Grocers",
		Date:     "2025-01-15",
		Time:     "14:30",
		Items: []model.ReceiptItem{
			{Name: "Organic Apples", Quantity: 2, Price: 8.99},
		},
		Subtotal: 33.46,
		Tax:      3.35,
		Total:    45.50,
		Category: "Groceries",
	}
}

func TestReceipts_Create_Validation(t *testing.T) {
	t.Parallel()
	s := NewReceiptService(&fakeReceipts{byID: map[uuid.UUID]*model.Receipt{}})
	userID := uuid.Must(uuid.NewV4())

	if _, err := s.Create(context.Background(), uuid.Nil, draft()); err == nil {
		t.Fatalf("want validation error on nil userID")
	}

	d := draft()
	d.Retailer = ""
	if _, err := s.Create(context.Background(), userID, d); err == nil {
		t.Fatalf("want validation error on empty retailer")
	}

	d = draft()
	d.Category = ""
	if _, err := s.Create(context.Background(), userID, d); err == nil {
		t.Fatalf("want validation error on empty category")
	}

	d = draft()
	d.Items[0].Quantity = -1
	if _, err := s.Create(context.Background(), userID, d); err == nil {
		t.Fatalf("want validation error on negative quantity")
	}
}

func TestReceipts_Create_AssignsOwnerAndID(t *testing.T) {
	t.Parallel()
	repo := &fakeReceipts{byID: map[uuid.UUID]*model.Receipt{}}
	s := NewReceiptService(repo)
	userID := uuid.Must(uuid.NewV4())

	rec, err := s.Create(context.Background(), userID, draft())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.ID == uuid.Nil {
		t.Fatalf("no id assigned")
	}
	if rec.UserID != userID {
		t.Fatalf("owner %s != caller %s", rec.UserID, userID)
	}
	if rec.CreatedAt.IsZero() {
		t.Fatalf("no creation time stamped")
	}
	// Totals stored verbatim, not recomputed from items.
	if rec.Subtotal != 33.46 || rec.Tax != 3.35 || rec.Total != 45.50 {
		t.Fatalf("totals changed: %+v", rec)
	}
}

func TestReceipts_Get_OwnershipIndistinguishable(t *testing.T) {
	t.Parallel()
	repo := &fakeReceipts{byID: map[uuid.UUID]*model.Receipt{}}
	s := NewReceiptService(repo)

	owner := uuid.Must(uuid.NewV4())
	stranger := uuid.Must(uuid.NewV4())

	rec, err := s.Create(context.Background(), owner, draft())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := s.Get(context.Background(), owner, rec.ID)
	if err != nil || got.ID != rec.ID {
		t.Fatalf("owner Get: %v %+v", err, got)
	}

	// Someone else's receipt and a missing receipt look identical.
	if _, err := s.Get(context.Background(), stranger, rec.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("want ErrNotFound for foreign receipt, got %v", err)
	}
	if _, err := s.Get(context.Background(), stranger, uuid.Must(uuid.NewV4())); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("want ErrNotFound for missing receipt, got %v", err)
	}
}

func TestReceipts_List_ScopedToOwner(t *testing.T) {
	t.Parallel()
	repo := &fakeReceipts{byID: map[uuid.UUID]*model.Receipt{}}
	s := NewReceiptService(repo)

	a := uuid.Must(uuid.NewV4())
	b := uuid.Must(uuid.NewV4())

	for i := 0; i < 3; i++ {
		if _, err := s.Create(context.Background(), a, draft()); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	got, err := s.List(context.Background(), a)
	if err != nil || len(got) != 3 {
		t.Fatalf("owner list: %v len=%d", err, len(got))
	}
	got, err = s.List(context.Background(), b)
	if err != nil || len(got) != 0 {
		t.Fatalf("stranger list should be empty: %v len=%d", err, len(got))
	}
}

func TestReceipts_Delete_NonOwnerLeavesRecord(t *testing.T) {
	t.Parallel()
	repo := &fakeReceipts{byID: map[uuid.UUID]*model.Receipt{}}
	s := NewReceiptService(repo)

	owner := uuid.Must(uuid.NewV4())
	stranger := uuid.Must(uuid.NewV4())

	rec, err := s.Create(context.Background(), owner, draft())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := s.Delete(context.Background(), stranger, rec.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("want ErrNotFound for non-owner delete, got %v", err)
	}
	// The owner can still fetch it afterward.
	if _, err := s.Get(context.Background(), owner, rec.ID); err != nil {
		t.Fatalf("record gone after non-owner delete: %v", err)
	}

	if err := s.Delete(context.Background(), owner, rec.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if _, err := s.Get(context.Background(), owner, rec.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("want ErrNotFound after delete, got %v", err)
	}
}
