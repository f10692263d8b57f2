package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/akorchagin/vidstream/internal/apperrors"
	"github.com/akorchagin/vidstream/internal/models"
	"github.com/akorchagin/vidstream/internal/repository"
)

type UserRepo struct {
	DB DBTX
}

const userColumns = `id, username, email, full_name, avatar_url, cover_image_url, password_hash, refresh_token, created_at, updated_at`

const createUser = `-- name: CreateUser
INSERT INTO users (username, email, full_name, avatar_url, cover_image_url, password_hash)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + userColumns

func (r *UserRepo) CreateUser(ctx context.Context, arg repository.CreateUserParams) (models.User, error) {
	rows, _ := r.DB.Query(ctx, createUser,
		arg.Username, arg.Email, arg.FullName, arg.AvatarURL, arg.CoverImageURL, arg.PasswordHash,
	)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) {
			return user, apperrors.Conflict("User already exists with this email or username")
		}
		return user, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

const getUserByID = `-- name: GetUserByID
SELECT ` + userColumns + `
FROM users
WHERE id = $1
`

func (r *UserRepo) GetUserByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByID, id)
	return collectUser(rows)
}

const getUserByLogin = `-- name: GetUserByLogin
SELECT ` + userColumns + `
FROM users
WHERE username = $1 OR email = $1
`

// GetUserByLogin matches login against username or email
func (r *UserRepo) GetUserByLogin(ctx context.Context, login string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByLogin, login)
	return collectUser(rows)
}

const setRefreshToken = `-- name: SetRefreshToken
UPDATE users
SET refresh_token = $2, updated_at = now()
WHERE id = $1
`

func (r *UserRepo) SetRefreshToken(ctx context.Context, id uuid.UUID, token *string) error {
	tag, err := r.DB.Exec(ctx, setRefreshToken, id, token)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("User not found")
	}
	return nil
}

const rotateRefreshToken = `-- name: RotateRefreshToken
UPDATE users
SET refresh_token = $3, updated_at = now()
WHERE id = $1 AND refresh_token = $2
`

// RotateRefreshToken replaces the stored token only while it still equals old.
// Zero rows affected means the token was rotated away (or cleared) between
// read and write; the caller treats that as reuse.
func (r *UserRepo) RotateRefreshToken(ctx context.Context, id uuid.UUID, old string, new string) error {
	tag, err := r.DB.Exec(ctx, rotateRefreshToken, id, old, new)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrRefreshTokenMismatch
	}
	return nil
}

const updatePassword = `-- name: UpdatePassword
UPDATE users
SET password_hash = $2, updated_at = now()
WHERE id = $1
`

func (r *UserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	tag, err := r.DB.Exec(ctx, updatePassword, id, passwordHash)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("User not found")
	}
	return nil
}

const updateAccountDetails = `-- name: UpdateAccountDetails
UPDATE users
SET full_name = $2, email = $3, updated_at = now()
WHERE id = $1
RETURNING ` + userColumns

func (r *UserRepo) UpdateAccountDetails(ctx context.Context, id uuid.UUID, fullName string, email string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, updateAccountDetails, id, fullName, email)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.NotFound("User not found")
	default:
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) {
			return user, apperrors.Conflict("Email is taken already")
		}
		return user, fmt.Errorf("db error: %w", err)
	}
}

const updateAvatar = `-- name: UpdateAvatar
UPDATE users
SET avatar_url = $2, updated_at = now()
WHERE id = $1
RETURNING ` + userColumns

func (r *UserRepo) UpdateAvatar(ctx context.Context, id uuid.UUID, avatarURL string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, updateAvatar, id, avatarURL)
	return collectUser(rows)
}

const updateCoverImage = `-- name: UpdateCoverImage
UPDATE users
SET cover_image_url = $2, updated_at = now()
WHERE id = $1
RETURNING ` + userColumns

func (r *UserRepo) UpdateCoverImage(ctx context.Context, id uuid.UUID, coverImageURL string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, updateCoverImage, id, coverImageURL)
	return collectUser(rows)
}

const getChannelProfile = `-- name: GetChannelProfile
SELECT
    u.id, u.username, u.email, u.full_name, u.avatar_url, u.cover_image_url, u.created_at,
    (SELECT count(*) FROM subscriptions s WHERE s.channel_id = u.id)    AS subscribers_count,
    (SELECT count(*) FROM subscriptions s WHERE s.subscriber_id = u.id) AS subscribed_to_count,
    EXISTS (
        SELECT 1 FROM subscriptions s WHERE s.channel_id = u.id AND s.subscriber_id = $2
    ) AS is_subscribed
FROM users u
WHERE u.username = $1
`

func (r *UserRepo) GetChannelProfile(ctx context.Context, username string, viewerID uuid.UUID) (models.ChannelProfile, error) {
	rows, _ := r.DB.Query(ctx, getChannelProfile, username, viewerID)
	profile, err := pgx.CollectOneRow(rows, func(row pgx.CollectableRow) (models.ChannelProfile, error) {
		var p models.ChannelProfile
		err := row.Scan(
			&p.ID, &p.Username, &p.Email, &p.FullName, &p.AvatarURL, &p.CoverImageURL, &p.CreatedAt,
			&p.SubscriberCount, &p.SubscribedToCount, &p.IsSubscribed,
		)
		return p, err
	})

	if err != nil && errors.Is(err, pgx.ErrNoRows) {
		return profile, apperrors.NotFound("Channel does not exist")
	}

	return profile, err
}

func collectUser(rows pgx.Rows) (models.User, error) {
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.NotFound("User not found")
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

func rowToUser(row pgx.CollectableRow) (models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.FullName, &u.AvatarURL, &u.CoverImageURL,
		&u.PasswordHash, &u.RefreshToken, &u.CreatedAt, &u.UpdatedAt,
	)
	return u, err
}
