package e2e

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stretchr/testify/require"

	"github.com/akorchagin/vidstream/internal/handlers"
	"github.com/akorchagin/vidstream/internal/handlers/middleware"
	"github.com/akorchagin/vidstream/internal/logger"
	"github.com/akorchagin/vidstream/internal/repository/postgres"
	"github.com/akorchagin/vidstream/internal/service/auth"
	"github.com/akorchagin/vidstream/internal/service/auth/tokenmanager"
	"github.com/akorchagin/vidstream/internal/service/user"
	"github.com/akorchagin/vidstream/internal/testutil"
)

type Services struct {
	Sessions *auth.SessionService
	Profiles *user.ProfileService
}

// fakeMedia stands in for object storage so the lifecycle scenarios don't
// need a bucket. It keeps the real store's contract: temp file removed,
// public URL returned.
type fakeMedia struct{}

func (fakeMedia) Upload(_ context.Context, localPath string) (string, error) {
	_ = os.Remove(localPath)
	return "https://cdn.test/media/" + filepath.Base(localPath), nil
}

// Create db transaction and run server with that connection (one connection cause one transaction)
// The created transaction passed to inner function: so, you can safely use testutil.WithTx with it
func ServeInTx(dbpool *pgxpool.Pool, t *testing.T, fn func(tx pgx.Tx, srvURL string, services Services)) {
	testutil.WithTx(dbpool, t, func(tx pgx.Tx) {
		userRepo := &postgres.UserRepo{DB: tx}

		tokenManager, err := tokenmanager.New(tokenmanager.Config{
			AccessSecret:  "test-access-secret",
			RefreshSecret: "test-refresh-secret",
			AccessTTL:     time.Minute,
			RefreshTTL:    time.Hour,
		})
		require.NoError(t, err, "token manager should be created without errors")

		sessions, err := auth.NewService(auth.Config{}, tokenManager, userRepo)
		require.NoError(t, err, "session service starting error")

		media := fakeMedia{}

		profiles, err := user.NewService(userRepo, media)
		require.NoError(t, err, "profile service starting error")

		log := logger.NewNoOpLogger()

		router := handlers.NewRouter(
			handlers.NewAuth(sessions, media, log),
			handlers.NewUser(profiles, log),
			middleware.AuthMiddleware(sessions),
		)

		// Run http server with the router in transaction
		srv := httptest.NewServer(router)
		defer srv.Close()

		fn(tx, srv.URL, Services{
			Sessions: sessions,
			Profiles: profiles,
		})
	})
}
