package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/akorchagin/vidstream/internal/apperrors"
	"github.com/akorchagin/vidstream/internal/models"
	"github.com/akorchagin/vidstream/internal/repository"
	"github.com/akorchagin/vidstream/internal/service/auth/tokenmanager"
)

// Interface to create or compare user password hashes
type PasswordHasher interface {
	// Generate Hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) error
}

type Config struct {
	// Hasher to use during registration, login and password change
	// BcryptHasher is used if not set
	Hasher PasswordHasher

	// Cookie names for the token pair
	// If not set then defaults are used
	AccessCookieName  string
	RefreshCookieName string
}

// SessionService drives the session lifecycle protocol:
// register, login, logout, refresh and password change.
// The only server-side session state is the single refresh token
// stored on the user record.
type SessionService struct {
	token  *tokenmanager.TokenManager
	hasher PasswordHasher
	users  repository.UserRepo

	accessCookieName  string
	refreshCookieName string
}

func NewService(cfg Config, token *tokenmanager.TokenManager, users repository.UserRepo) (*SessionService, error) {
	if token == nil || users == nil {
		return nil, errors.New("token manager and user repo must not be nil")
	}

	hasher := cfg.Hasher
	if hasher == nil {
		hasher = BcryptHasher{}
	}

	if cfg.AccessCookieName == "" {
		cfg.AccessCookieName = defaultAccessCookieName
	}
	if cfg.RefreshCookieName == "" {
		cfg.RefreshCookieName = defaultRefreshCookieName
	}

	return &SessionService{
		token:             token,
		hasher:            hasher,
		users:             users,
		accessCookieName:  cfg.AccessCookieName,
		refreshCookieName: cfg.RefreshCookieName,
	}, nil
}

type RegisterParams struct {
	FullName      string
	Email         string
	Username      string
	Password      string
	AvatarURL     string
	CoverImageURL string
}

// Register creates the identity record. No session is started: the client
// logs in afterwards.
func (s *SessionService) Register(ctx context.Context, p RegisterParams) (models.User, error) {
	var user models.User

	p.FullName = strings.TrimSpace(p.FullName)
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.Username = strings.ToLower(strings.TrimSpace(p.Username))

	if p.FullName == "" || p.Email == "" || p.Username == "" || strings.TrimSpace(p.Password) == "" {
		return user, apperrors.Validation("All fields are required")
	}
	if p.AvatarURL == "" {
		return user, apperrors.Validation("Avatar image is required")
	}

	hash, err := s.hasher.Hash(p.Password)
	if err != nil {
		return user, apperrors.ServerWrap(err, "Can't use this as password")
	}

	user, err = s.users.CreateUser(ctx, repository.CreateUserParams{
		Username:      p.Username,
		Email:         p.Email,
		FullName:      p.FullName,
		AvatarURL:     p.AvatarURL,
		CoverImageURL: p.CoverImageURL,
		PasswordHash:  hash,
	})
	if err != nil {
		return user, err
	}

	return user, nil
}

// Login verifies credentials and opens the user's single session slot,
// unilaterally evicting any session previously active for that user.
func (s *SessionService) Login(ctx context.Context, login string, password string) (models.User, models.TokenPair, error) {
	var pair models.TokenPair

	login = strings.ToLower(strings.TrimSpace(login))
	if login == "" {
		return models.User{}, pair, apperrors.Validation("Email or username is required to login")
	}

	user, err := s.users.GetUserByLogin(ctx, login)
	if err != nil {
		return user, pair, err
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return user, pair, apperrors.Auth("Invalid user credentials")
	}

	pair, err = s.token.IssuePair(user)
	if err != nil {
		return user, pair, apperrors.ServerWrap(err, "Error in generating tokens")
	}

	if err := s.users.SetRefreshToken(ctx, user.ID, &pair.Refresh.Value); err != nil {
		return user, pair, fmt.Errorf("error while saving refresh token. Err: %w", err)
	}

	return user, pair, nil
}

// Logout closes the session slot. Idempotent: logging out twice is fine.
func (s *SessionService) Logout(ctx context.Context, userID uuid.UUID) error {
	return s.users.SetRefreshToken(ctx, userID, nil)
}

// Refresh exchanges a valid refresh token for a fresh pair and rotates the
// stored value. Validity requires signature, expiry AND equality with the
// stored token: once rotated away, presenting the old value again fails even
// before its expiry.
func (s *SessionService) Refresh(ctx context.Context, incoming string) (models.TokenPair, error) {
	var pair models.TokenPair

	if incoming == "" {
		return pair, apperrors.Auth("Unauthorized request")
	}

	claims, err := s.token.ParseRefresh(incoming)
	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrTokenExpired):
		return pair, apperrors.AuthWrap(err, "Refresh token is expired")
	default:
		return pair, apperrors.AuthWrap(err, "Invalid refresh token")
	}

	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return pair, apperrors.AuthWrap(err, "Invalid refresh token")
	}

	// Reuse detection: the stored value is the sole source of truth
	if user.RefreshToken == nil || *user.RefreshToken != incoming {
		return pair, apperrors.Auth("Refresh token is expired or used")
	}

	pair, err = s.token.IssuePair(user)
	if err != nil {
		return pair, apperrors.ServerWrap(err, "Error in generating tokens")
	}

	// Conditional write: if another refresh won the race after our read,
	// this rotation must fail as reuse, not silently fork the session.
	err = s.users.RotateRefreshToken(ctx, user.ID, incoming, pair.Refresh.Value)
	switch {
	case err == nil:
		return pair, nil
	case errors.Is(err, apperrors.ErrRefreshTokenMismatch):
		return pair, apperrors.AuthWrap(err, "Refresh token is expired or used")
	default:
		return pair, fmt.Errorf("error while rotating refresh token. Err: %w", err)
	}
}

// ChangePassword verifies the old password and stores the hash of the new
// one. It also clears the stored refresh token: a password change revokes
// the active session and other devices must log in again.
func (s *SessionService) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword string, newPassword string) error {
	if strings.TrimSpace(newPassword) == "" {
		return apperrors.Validation("New password is required")
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.hasher.Compare(user.PasswordHash, oldPassword); err != nil {
		return apperrors.Auth("Old password is incorrect")
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return apperrors.ServerWrap(err, "Can't use this as password")
	}

	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}

	return s.users.SetRefreshToken(ctx, userID, nil)
}

// CurrentUser is a pure lookup for an already authenticated caller.
func (s *SessionService) CurrentUser(ctx context.Context, userID uuid.UUID) (models.User, error) {
	return s.users.GetUserByID(ctx, userID)
}
