package user

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/akorchagin/vidstream/internal/apperrors"
	"github.com/akorchagin/vidstream/internal/models"
	"github.com/akorchagin/vidstream/internal/repository"
	"github.com/akorchagin/vidstream/internal/repository/postgres"
	"github.com/akorchagin/vidstream/internal/testutil"
)

type fakeMedia struct {
	failWith error
}

func (f *fakeMedia) Upload(_ context.Context, localPath string) (string, error) {
	_ = os.Remove(localPath)

	if f.failWith != nil {
		return "", f.failWith
	}
	return "https://cdn.test/media/" + filepath.Base(localPath), nil
}

func tempImage(t *testing.T, name string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("fake image bytes"), 0o600))

	return path
}

func Test_ProfileService(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	withService := func(t *testing.T, media MediaStore, fn func(ctx context.Context, s *ProfileService, user models.User)) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := &postgres.UserRepo{DB: tx}

			user, err := repo.CreateUser(context.Background(), repository.CreateUserParams{
				Username:     "alice",
				Email:        "a@x.com",
				FullName:     "Alice",
				AvatarURL:    "https://cdn.test/media/alice.png",
				PasswordHash: "$2a$10$fakefakefakefakefakefake",
			})
			require.NoError(t, err)

			s, err := NewService(repo, media)
			require.NoError(t, err)

			fn(context.Background(), s, user)
		})
	}

	t.Run("UpdateAccountDetails", func(t *testing.T) {
		t.Run("normalizes input", func(t *testing.T) {
			withService(t, &fakeMedia{}, func(ctx context.Context, s *ProfileService, u models.User) {
				updated, err := s.UpdateAccountDetails(ctx, u.ID, "  Alice Cooper ", " ALICE.COOPER@X.COM ")

				require.NoError(t, err)
				require.Equal(t, "Alice Cooper", updated.FullName)
				require.Equal(t, "alice.cooper@x.com", updated.Email)
			})
		})

		t.Run("fail on blank fields", func(t *testing.T) {
			withService(t, &fakeMedia{}, func(ctx context.Context, s *ProfileService, u models.User) {
				_, err := s.UpdateAccountDetails(ctx, u.ID, "  ", "a@x.com")
				require.ErrorIs(t, err, apperrors.Validation(""))
			})
		})
	})

	t.Run("UpdateAvatar", func(t *testing.T) {
		t.Run("uploads and persists the url", func(t *testing.T) {
			withService(t, &fakeMedia{}, func(ctx context.Context, s *ProfileService, u models.User) {
				path := tempImage(t, "new-avatar.png")

				updated, err := s.UpdateAvatar(ctx, u.ID, path)

				require.NoError(t, err)
				require.Equal(t, "https://cdn.test/media/new-avatar.png", updated.AvatarURL)
				require.NoFileExists(t, path, "temp file should be removed after upload")
			})
		})

		t.Run("upload failure keeps the old url", func(t *testing.T) {
			withService(t, &fakeMedia{failWith: errors.New("bucket gone")}, func(ctx context.Context, s *ProfileService, u models.User) {
				_, err := s.UpdateAvatar(ctx, u.ID, tempImage(t, "new-avatar.png"))
				require.ErrorIs(t, err, apperrors.Server(""))

				current, err := s.users.GetUserByID(ctx, u.ID)
				require.NoError(t, err)
				require.Equal(t, u.AvatarURL, current.AvatarURL)
			})
		})
	})

	t.Run("UpdateCoverImage", func(t *testing.T) {
		withService(t, &fakeMedia{}, func(ctx context.Context, s *ProfileService, u models.User) {
			updated, err := s.UpdateCoverImage(ctx, u.ID, tempImage(t, "cover.png"))

			require.NoError(t, err)
			require.Equal(t, "https://cdn.test/media/cover.png", updated.CoverImageURL)
		})
	})

	t.Run("GetChannelProfile", func(t *testing.T) {
		t.Run("normalizes the username", func(t *testing.T) {
			withService(t, &fakeMedia{}, func(ctx context.Context, s *ProfileService, u models.User) {
				profile, err := s.GetChannelProfile(ctx, "  ALICE ", uuid.Nil)

				require.NoError(t, err)
				require.Equal(t, u.ID, profile.ID)
			})
		})

		t.Run("fail on blank username", func(t *testing.T) {
			withService(t, &fakeMedia{}, func(ctx context.Context, s *ProfileService, u models.User) {
				_, err := s.GetChannelProfile(ctx, "  ", uuid.Nil)
				require.ErrorIs(t, err, apperrors.Validation(""))
			})
		})
	})
}
