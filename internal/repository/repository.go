package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/akorchagin/vidstream/internal/models"
)

// UserRepo is the credential store: identity records and the single
// currently valid refresh token per user.
type UserRepo interface {
	// Create user
	// Has to return apperrors.Conflict if username or email is taken already
	CreateUser(ctx context.Context, arg CreateUserParams) (models.User, error)

	// Get user by id or by login (username or email)
	// Has to return apperrors.NotFound if no user matches
	GetUserByID(ctx context.Context, id uuid.UUID) (models.User, error)
	GetUserByLogin(ctx context.Context, login string) (models.User, error)

	// Set stored refresh token unconditionally
	// Login overwrites any prior session with the fresh token, logout and
	// password change pass nil to close the session slot
	SetRefreshToken(ctx context.Context, id uuid.UUID, token *string) error

	// Rotate stored refresh token with compare-and-set semantics: the write
	// succeeds only while the stored value still equals old. Has to return
	// apperrors.ErrRefreshTokenMismatch if the value changed in between, so
	// two refresh calls racing on the same stale token can't both win.
	RotateRefreshToken(ctx context.Context, id uuid.UUID, old string, new string) error

	// Update password hash (already hashed by the caller)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error

	// Profile field updates
	UpdateAccountDetails(ctx context.Context, id uuid.UUID, fullName string, email string) (models.User, error)
	UpdateAvatar(ctx context.Context, id uuid.UUID, avatarURL string) (models.User, error)
	UpdateCoverImage(ctx context.Context, id uuid.UUID, coverImageURL string) (models.User, error)

	// Channel profile with subscriber counts aggregated from subscriptions
	// viewerID may be uuid.Nil for anonymous viewers
	GetChannelProfile(ctx context.Context, username string, viewerID uuid.UUID) (models.ChannelProfile, error)
}

type CreateUserParams struct {
	Username      string
	Email         string
	FullName      string
	AvatarURL     string
	CoverImageURL string
	PasswordHash  string
}
