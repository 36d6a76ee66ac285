// Package service contains application services for authentication and receipts.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	pkgcrypto "github.com/ecoreceipt/ecoreceipt/internal/crypto"
	"github.com/ecoreceipt/ecoreceipt/internal/errs"
	"github.com/ecoreceipt/ecoreceipt/internal/limiter"
	"github.com/ecoreceipt/ecoreceipt/internal/model"
	"github.com/ecoreceipt/ecoreceipt/internal/repository"
	"github.com/ecoreceipt/ecoreceipt/internal/token"
)

// AuthService defines account registration and login.
type AuthService interface {
	// Register creates a new user with secure password hashing and returns
	// the user plus a fresh access token.
	Register(ctx context.Context, email, password, name string) (model.User, model.Tokens, error)
	// LoginWithIP applies rate limiting and authenticates the user.
	LoginWithIP(ctx context.Context, email, password, ip string) (model.User, model.Tokens, error)
}

type AuthServiceImpl struct {
	users  repository.UserRepository
	tokens *token.Service
	lim    limiter.Limiter
}

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(users repository.UserRepository, tokens *token.Service, lim limiter.Limiter) *AuthServiceImpl {
	return &AuthServiceImpl{users: users, tokens: tokens, lim: lim}
}

// Register creates a new user record with a per-user salt and issues a token.
// A taken email surfaces as errs.ErrAlreadyExists without mutating state.
func (s *AuthServiceImpl) Register(ctx context.Context, email, password, name string) (model.User, model.Tokens, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" || strings.TrimSpace(name) == "" {
		return model.User{}, model.Tokens{}, errors.New("empty email/password/name")
	}
	uid, err := uuid.NewV4()
	if err != nil {
		return model.User{}, model.Tokens{}, err
	}
	salt, err := pkgcrypto.NewSalt()
	if err != nil {
		return model.User{}, model.Tokens{}, err
	}

	u := &model.User{
		ID:        uid,
		Email:     email,
		Name:      strings.TrimSpace(name),
		PwdHash:   pkgcrypto.HashPassword([]byte(password), salt),
		SaltAuth:  salt,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return model.User{}, model.Tokens{}, err
	}

	tok, err := s.issueTokens(uid)
	if err != nil {
		return model.User{}, model.Tokens{}, err
	}
	return *u, tok, nil
}

// LoginWithIP authenticates with rate limiting keyed by (email, ip).
func (s *AuthServiceImpl) LoginWithIP(ctx context.Context, email, password, ip string) (model.User, model.Tokens, error) {
	ipHash := limiter.HashIP(ip)

	allowed, _, err := s.lim.Allow(ctx, email, ipHash)
	if err != nil {
		return model.User{}, model.Tokens{}, err
	}
	if !allowed {
		return model.User{}, model.Tokens{}, errs.ErrRateLimited
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil || !pkgcrypto.VerifyPassword([]byte(password), u.SaltAuth, u.PwdHash) {
		// Record failure; if the threshold was reached, report rate-limited.
		if blocked, _, ferr := s.lim.Failure(ctx, email, ipHash); ferr == nil && blocked {
			return model.User{}, model.Tokens{}, errs.ErrRateLimited
		}
		// Unknown email and wrong password are indistinguishable to the caller.
		return model.User{}, model.Tokens{}, errs.ErrUnauthorized
	}

	// Success: reset counters (best-effort).
	_ = s.lim.Success(ctx, email, ipHash)

	tok, err := s.issueTokens(u.ID)
	if err != nil {
		return model.User{}, model.Tokens{}, err
	}
	return *u, tok, nil
}

func (s *AuthServiceImpl) issueTokens(userID uuid.UUID) (model.Tokens, error) {
	access, exp, err := s.tokens.Issue(userID)
	if err != nil {
		return model.Tokens{}, err
	}
	return model.Tokens{AccessToken: access, ExpiresAt: exp}, nil
}
