package middleware

import (
	"context"
	"net/http"

	"github.com/akorchagin/vidstream/internal/handlers/render"
	"github.com/akorchagin/vidstream/internal/handlers/userctx"
	"github.com/akorchagin/vidstream/internal/models"
)

type sessionService interface {
	UserFromRequest(ctx context.Context, r *http.Request) (models.User, error)
}

// AuthMiddleware rejects requests without a valid access token and puts the
// authenticated user into the request context.
func AuthMiddleware(s sessionService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := s.UserFromRequest(r.Context(), r)
			if err != nil {
				render.Error(w, err)
				return
			}

			ctx := userctx.New(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
