package httpapi

import (
	"context"

	"github.com/ecoreceipt/ecoreceipt/internal/model"
)

type ctxKey string

const userKey ctxKey = "ecoreceipt.user"

// WithUser stores the authenticated user in the context.
func WithUser(ctx context.Context, u *model.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromCtx fetches the authenticated user from the context.
func UserFromCtx(ctx context.Context) (*model.User, bool) {
	v := ctx.Value(userKey)
	if v == nil {
		return nil, false
	}
	u, ok := v.(*model.User)
	return u, ok
}
