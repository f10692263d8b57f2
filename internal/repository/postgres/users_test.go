package postgres

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/akorchagin/vidstream/internal/apperrors"
	"github.com/akorchagin/vidstream/internal/models"
	"github.com/akorchagin/vidstream/internal/repository"
	"github.com/akorchagin/vidstream/internal/testutil"
)

func createUserParams(username string) repository.CreateUserParams {
	return repository.CreateUserParams{
		Username:     username,
		Email:        username + "@x.com",
		FullName:     "Test User",
		AvatarURL:    "https://cdn.test/media/" + username + ".png",
		PasswordHash: "$2a$10$fakefakefakefakefakefake",
	}
}

func Test_UserRepo(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	withRepo := func(t *testing.T, fn func(tx pgx.Tx, r *UserRepo)) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			fn(tx, &UserRepo{DB: tx})
		})
	}

	t.Run("CreateUser", func(t *testing.T) {
		t.Run("new user ok", func(t *testing.T) {
			withRepo(t, func(tx pgx.Tx, r *UserRepo) {
				user, err := r.CreateUser(t.Context(), createUserParams("alice"))

				require.NoError(t, err)
				require.NotEqual(t, uuid.Nil, user.ID, "id should be generated")
				require.Equal(t, "alice", user.Username)
				require.Equal(t, "alice@x.com", user.Email)
				require.Nil(t, user.RefreshToken, "new user should have no session")
				require.NotZero(t, user.CreatedAt)
			})
		})

		t.Run("fail if username taken", func(t *testing.T) {
			withRepo(t, func(tx pgx.Tx, r *UserRepo) {
				_, err := r.CreateUser(t.Context(), createUserParams("alice"))
				require.NoError(t, err)

				arg := createUserParams("alice")
				arg.Email = "other@x.com"
				_, err = r.CreateUser(t.Context(), arg)

				require.ErrorIs(t, err, apperrors.Conflict(""), "duplicate username must conflict")
			})
		})

		t.Run("fail if email taken", func(t *testing.T) {
			withRepo(t, func(tx pgx.Tx, r *UserRepo) {
				_, err := r.CreateUser(t.Context(), createUserParams("alice"))
				require.NoError(t, err)

				arg := createUserParams("bob")
				arg.Email = "alice@x.com"
				_, err = r.CreateUser(t.Context(), arg)

				require.ErrorIs(t, err, apperrors.Conflict(""), "duplicate email must conflict")
			})
		})
	})

	t.Run("GetUserByLogin", func(t *testing.T) {
		withRepo(t, func(tx pgx.Tx, r *UserRepo) {
			created, err := r.CreateUser(t.Context(), createUserParams("alice"))
			require.NoError(t, err)

			byUsername, err := r.GetUserByLogin(t.Context(), "alice")
			require.NoError(t, err)
			require.Equal(t, created.ID, byUsername.ID)

			byEmail, err := r.GetUserByLogin(t.Context(), "alice@x.com")
			require.NoError(t, err)
			require.Equal(t, created.ID, byEmail.ID)

			_, err = r.GetUserByLogin(t.Context(), "nobody")
			require.ErrorIs(t, err, apperrors.NotFound(""))
		})
	})

	t.Run("SetRefreshToken", func(t *testing.T) {
		withRepo(t, func(tx pgx.Tx, r *UserRepo) {
			user, err := r.CreateUser(t.Context(), createUserParams("alice"))
			require.NoError(t, err)

			token := "refresh-token-value"
			require.NoError(t, r.SetRefreshToken(t.Context(), user.ID, &token))

			got, err := r.GetUserByID(t.Context(), user.ID)
			require.NoError(t, err)
			require.NotNil(t, got.RefreshToken)
			require.Equal(t, token, *got.RefreshToken)

			// nil closes the session slot
			require.NoError(t, r.SetRefreshToken(t.Context(), user.ID, nil))

			got, err = r.GetUserByID(t.Context(), user.ID)
			require.NoError(t, err)
			require.Nil(t, got.RefreshToken)

			err = r.SetRefreshToken(t.Context(), uuid.New(), &token)
			require.ErrorIs(t, err, apperrors.NotFound(""), "unknown user should not be found")
		})
	})

	t.Run("RotateRefreshToken", func(t *testing.T) {
		t.Run("rotate ok while value matches", func(t *testing.T) {
			withRepo(t, func(tx pgx.Tx, r *UserRepo) {
				user, err := r.CreateUser(t.Context(), createUserParams("alice"))
				require.NoError(t, err)

				old := "old-token"
				require.NoError(t, r.SetRefreshToken(t.Context(), user.ID, &old))

				require.NoError(t, r.RotateRefreshToken(t.Context(), user.ID, "old-token", "new-token"))

				got, err := r.GetUserByID(t.Context(), user.ID)
				require.NoError(t, err)
				require.Equal(t, "new-token", *got.RefreshToken)
			})
		})

		t.Run("fail if value changed in between", func(t *testing.T) {
			withRepo(t, func(tx pgx.Tx, r *UserRepo) {
				user, err := r.CreateUser(t.Context(), createUserParams("alice"))
				require.NoError(t, err)

				current := "current-token"
				require.NoError(t, r.SetRefreshToken(t.Context(), user.ID, &current))

				err = r.RotateRefreshToken(t.Context(), user.ID, "stale-token", "new-token")
				require.ErrorIs(t, err, apperrors.ErrRefreshTokenMismatch)

				got, err := r.GetUserByID(t.Context(), user.ID)
				require.NoError(t, err)
				require.Equal(t, "current-token", *got.RefreshToken, "lost write must not change stored value")
			})
		})

		t.Run("fail if slot is empty", func(t *testing.T) {
			withRepo(t, func(tx pgx.Tx, r *UserRepo) {
				user, err := r.CreateUser(t.Context(), createUserParams("alice"))
				require.NoError(t, err)

				err = r.RotateRefreshToken(t.Context(), user.ID, "any-token", "new-token")
				require.ErrorIs(t, err, apperrors.ErrRefreshTokenMismatch, "logged out user has nothing to rotate")
			})
		})
	})

	t.Run("UpdatePassword", func(t *testing.T) {
		withRepo(t, func(tx pgx.Tx, r *UserRepo) {
			user, err := r.CreateUser(t.Context(), createUserParams("alice"))
			require.NoError(t, err)

			require.NoError(t, r.UpdatePassword(t.Context(), user.ID, "new-hash"))

			got, err := r.GetUserByID(t.Context(), user.ID)
			require.NoError(t, err)
			require.Equal(t, "new-hash", got.PasswordHash)
		})
	})

	t.Run("UpdateAccountDetails", func(t *testing.T) {
		withRepo(t, func(tx pgx.Tx, r *UserRepo) {
			user, err := r.CreateUser(t.Context(), createUserParams("alice"))
			require.NoError(t, err)

			updated, err := r.UpdateAccountDetails(t.Context(), user.ID, "Alice Cooper", "alice.cooper@x.com")
			require.NoError(t, err)
			require.Equal(t, "Alice Cooper", updated.FullName)
			require.Equal(t, "alice.cooper@x.com", updated.Email)
		})
	})

	t.Run("UpdateAvatar and UpdateCoverImage", func(t *testing.T) {
		withRepo(t, func(tx pgx.Tx, r *UserRepo) {
			user, err := r.CreateUser(t.Context(), createUserParams("alice"))
			require.NoError(t, err)

			updated, err := r.UpdateAvatar(t.Context(), user.ID, "https://cdn.test/media/new-avatar.png")
			require.NoError(t, err)
			require.Equal(t, "https://cdn.test/media/new-avatar.png", updated.AvatarURL)

			updated, err = r.UpdateCoverImage(t.Context(), user.ID, "https://cdn.test/media/new-cover.png")
			require.NoError(t, err)
			require.Equal(t, "https://cdn.test/media/new-cover.png", updated.CoverImageURL)
		})
	})

	t.Run("GetChannelProfile", func(t *testing.T) {
		subscribe := func(t *testing.T, tx pgx.Tx, subscriber models.User, channel models.User) {
			_, err := tx.Exec(t.Context(),
				`INSERT INTO subscriptions (subscriber_id, channel_id) VALUES ($1, $2)`,
				subscriber.ID, channel.ID,
			)
			require.NoError(t, err)
		}

		t.Run("counts and flag", func(t *testing.T) {
			withRepo(t, func(tx pgx.Tx, r *UserRepo) {
				alice, err := r.CreateUser(t.Context(), createUserParams("alice"))
				require.NoError(t, err)
				bob, err := r.CreateUser(t.Context(), createUserParams("bob"))
				require.NoError(t, err)
				carol, err := r.CreateUser(t.Context(), createUserParams("carol"))
				require.NoError(t, err)

				subscribe(t, tx, bob, alice)
				subscribe(t, tx, carol, alice)
				subscribe(t, tx, alice, bob)

				profile, err := r.GetChannelProfile(t.Context(), "alice", bob.ID)
				require.NoError(t, err)

				require.Equal(t, alice.ID, profile.ID)
				require.EqualValues(t, 2, profile.SubscriberCount)
				require.EqualValues(t, 1, profile.SubscribedToCount)
				require.True(t, profile.IsSubscribed, "bob is subscribed to alice")

				profile, err = r.GetChannelProfile(t.Context(), "alice", carol.ID)
				require.NoError(t, err)
				require.True(t, profile.IsSubscribed)

				profile, err = r.GetChannelProfile(t.Context(), "bob", carol.ID)
				require.NoError(t, err)
				require.EqualValues(t, 1, profile.SubscriberCount)
				require.False(t, profile.IsSubscribed, "carol is not subscribed to bob")
			})
		})

		t.Run("anonymous viewer", func(t *testing.T) {
			withRepo(t, func(tx pgx.Tx, r *UserRepo) {
				_, err := r.CreateUser(t.Context(), createUserParams("alice"))
				require.NoError(t, err)

				profile, err := r.GetChannelProfile(t.Context(), "alice", uuid.Nil)
				require.NoError(t, err)
				require.False(t, profile.IsSubscribed)
			})
		})

		t.Run("unknown channel", func(t *testing.T) {
			withRepo(t, func(tx pgx.Tx, r *UserRepo) {
				_, err := r.GetChannelProfile(t.Context(), "nobody", uuid.Nil)
				require.ErrorIs(t, err, apperrors.NotFound(""))
			})
		})
	})
}
