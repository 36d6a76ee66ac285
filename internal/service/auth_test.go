package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"

	pkgcrypto "github.com/ecoreceipt/ecoreceipt/internal/crypto"
	"github.com/ecoreceipt/ecoreceipt/internal/errs"
	"github.com/ecoreceipt/ecoreceipt/internal/limiter"
	"github.com/ecoreceipt/ecoreceipt/internal/model"
	"github.com/ecoreceipt/ecoreceipt/internal/repository"
	"github.com/ecoreceipt/ecoreceipt/internal/token"
)

type fakeUsers struct {
	byEmail map[string]*model.User

	createErr error
	getErr    error
}

var _ repository.UserRepository = (*fakeUsers)(nil)

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	if f.byEmail == nil {
		f.byEmail = map[string]*model.User{}
	}
	if _, exists := f.byEmail[u.Email]; exists {
		return errs.ErrAlreadyExists
	}
	cpy := *u
	f.byEmail[u.Email] = &cpy
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			c := *u
			return &c, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *u
	return &c, nil
}

type fakeLimiter struct {
	allowOK  bool
	allowErr error

	failBlocked bool
	failErr     error

	successErr error

	allowCalls   int
	failureCalls int
	successCalls int
}

var _ limiter.Limiter = (*fakeLimiter)(nil)

func (l *fakeLimiter) Allow(context.Context, string, []byte) (bool, time.Duration, error) {
	l.allowCalls++
	return l.allowOK, 0, l.allowErr
}
func (l *fakeLimiter) Success(context.Context, string, []byte) error {
	l.successCalls++
	return l.successErr
}
func (l *fakeLimiter) Failure(context.Context, string, []byte) (bool, time.Duration, error) {
	l.failureCalls++
	return l.failBlocked, 0, l.failErr
}

func newAuth(users *fakeUsers, lim *fakeLimiter, ttl time.Duration) *AuthServiceImpl {
	return NewAuthService(users, token.NewService([]byte("test-key"), ttl), lim)
}

func TestAuth_Register_Basics(t *testing.T) {
	t.Parallel()
	users := &fakeUsers{byEmail: map[string]*model.User{}}
	s := newAuth(users, &fakeLimiter{}, time.Minute)

	if _, _, err := s.Register(context.Background(), "", "", ""); err == nil {
		t.Fatalf("want validation error on empty fields")
	}

	u, tok, err := s.Register(context.Background(), "alice@example.com", "pwd", "Alice")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.ID == uuid.Nil || tok.AccessToken == "" {
		t.Fatalf("empty user id or token: %+v %+v", u, tok)
	}
	if len(u.PwdHash) == 0 || len(u.SaltAuth) == 0 {
		t.Fatalf("missing digest/salt")
	}

	if _, _, err := s.Register(context.Background(), "alice@example.com", "pwd2", "Alice 2"); !errors.Is(err, errs.ErrAlreadyExists) {
		t.Fatalf("want ErrAlreadyExists on duplicate email, got %v", err)
	}
	if len(users.byEmail) != 1 {
		t.Fatalf("duplicate registration mutated state: %d users", len(users.byEmail))
	}

	users.createErr = errors.New("boom")
	if _, _, err := s.Register(context.Background(), "bob@example.com", "pwd", "Bob"); err == nil {
		t.Fatalf("want propagated repo error")
	}
}

func TestAuth_Register_TokenResolvesToUser(t *testing.T) {
	t.Parallel()
	users := &fakeUsers{byEmail: map[string]*model.User{}}
	ts := token.NewService([]byte("test-key"), time.Minute)
	s := NewAuthService(users, ts, &fakeLimiter{})

	u, tok, err := s.Register(context.Background(), "carol@example.com", "pwd", "Carol")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	sub, err := ts.Validate(tok.AccessToken)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if sub != u.ID {
		t.Fatalf("token subject %s != user id %s", sub, u.ID)
	}
}

func TestAuth_LoginWithIP_RateLimiterAndCreds(t *testing.T) {
	t.Parallel()

	salt, _ := pkgcrypto.NewSalt()
	pw := []byte("correct")
	u := &model.User{
		ID:       uuid.Must(uuid.NewV4()),
		Email:    "alice@example.com",
		Name:     "Alice",
		SaltAuth: salt,
		PwdHash:  pkgcrypto.HashPassword(pw, salt),
	}

	users := &fakeUsers{byEmail: map[string]*model.User{"alice@example.com": u}}
	lim := &fakeLimiter{allowOK: true}
	s := newAuth(users, lim, 2*time.Minute)

	lim.allowErr = errors.New("lim-err")
	if _, _, err := s.LoginWithIP(context.Background(), "alice@example.com", "correct", "1.2.3.4"); err == nil {
		t.Fatalf("want limiter error propagate")
	}
	lim.allowErr = nil

	lim.allowOK = false
	if _, _, err := s.LoginWithIP(context.Background(), "alice@example.com", "correct", "1.2.3.4"); !errors.Is(err, errs.ErrRateLimited) {
		t.Fatalf("want ErrRateLimited, got %v", err)
	}
	lim.allowOK = true

	users.getErr = errs.ErrNotFound
	if _, _, err := s.LoginWithIP(context.Background(), "nope@example.com", "x", ""); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized on missing user, got %v", err)
	}
	users.getErr = nil

	lim.failBlocked = true
	if _, _, err := s.LoginWithIP(context.Background(), "alice@example.com", "wrong", ""); !errors.Is(err, errs.ErrRateLimited) {
		t.Fatalf("want ErrRateLimited on blocked after failure, got %v", err)
	}

	lim.failBlocked = false
	if _, _, err := s.LoginWithIP(context.Background(), "alice@example.com", "wrong", ""); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized on wrong password, got %v", err)
	}

	gotUser, tok, err := s.LoginWithIP(context.Background(), "alice@example.com", "correct", "127.0.0.1:123")
	if err != nil {
		t.Fatalf("LoginWithIP success: %v", err)
	}
	if tok.AccessToken == "" || tok.ExpiresAt.Before(time.Now()) {
		t.Fatalf("bad token: %+v", tok)
	}
	if gotUser.ID != u.ID {
		t.Fatalf("bad user returned: %+v", gotUser)
	}
	if lim.successCalls == 0 {
		t.Fatalf("expected Success() to be called")
	}
}
