package auth

import (
	"context"

	"github.com/tejashvi-kumawat/love-note/internal/model"
)

type contextKey struct{}

// WithUser stores the authenticated user on the request context.
func WithUser(ctx context.Context, u *model.User) context.Context {
	return context.WithValue(ctx, contextKey{}, u)
}

// UserFrom returns the authenticated user, or nil outside an authenticated
// request.
func UserFrom(ctx context.Context) *model.User {
	u, _ := ctx.Value(contextKey{}).(*model.User)
	return u
}
