// Package userctx carries the authenticated user through the request context.
// Only the auth middleware writes it; handlers behind the middleware may
// assume it is present.
package userctx

import (
	"context"

	"github.com/akorchagin/vidstream/internal/models"
)

type ctxKey struct{}

func New(ctx context.Context, u models.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

func FromContext(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(ctxKey{}).(models.User)
	return u, ok
}
