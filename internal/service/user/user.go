// Package user holds the profile operations: plain record mutation and read
// composition, no session state involved.
package user

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/akorchagin/vidstream/internal/apperrors"
	"github.com/akorchagin/vidstream/internal/models"
	"github.com/akorchagin/vidstream/internal/repository"
)

// MediaStore uploads a local temp file and returns its public URL.
// The implementation must remove the temp file regardless of outcome.
type MediaStore interface {
	Upload(ctx context.Context, localPath string) (string, error)
}

type ProfileService struct {
	users repository.UserRepo
	media MediaStore
}

func NewService(users repository.UserRepo, media MediaStore) (*ProfileService, error) {
	if users == nil || media == nil {
		return nil, errors.New("user repo and media store must not be nil")
	}

	return &ProfileService{users: users, media: media}, nil
}

func (s *ProfileService) UpdateAccountDetails(ctx context.Context, userID uuid.UUID, fullName string, email string) (models.User, error) {
	fullName = strings.TrimSpace(fullName)
	email = strings.ToLower(strings.TrimSpace(email))

	if fullName == "" || email == "" {
		return models.User{}, apperrors.Validation("Fullname and email are required")
	}

	return s.users.UpdateAccountDetails(ctx, userID, fullName, email)
}

// UpdateAvatar uploads the new avatar and persists its URL.
func (s *ProfileService) UpdateAvatar(ctx context.Context, userID uuid.UUID, localPath string) (models.User, error) {
	url, err := s.media.Upload(ctx, localPath)
	if err != nil {
		return models.User{}, apperrors.ServerWrap(err, "Error in uploading avatar image")
	}

	return s.users.UpdateAvatar(ctx, userID, url)
}

// UpdateCoverImage uploads the new cover image and persists its URL.
func (s *ProfileService) UpdateCoverImage(ctx context.Context, userID uuid.UUID, localPath string) (models.User, error) {
	url, err := s.media.Upload(ctx, localPath)
	if err != nil {
		return models.User{}, apperrors.ServerWrap(err, "Error in uploading cover image")
	}

	return s.users.UpdateCoverImage(ctx, userID, url)
}

// GetChannelProfile composes the public channel view with relationship
// counts. viewerID may be uuid.Nil when the viewer is anonymous.
func (s *ProfileService) GetChannelProfile(ctx context.Context, username string, viewerID uuid.UUID) (models.ChannelProfile, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return models.ChannelProfile{}, apperrors.Validation("Username is required")
	}

	return s.users.GetChannelProfile(ctx, username, viewerID)
}
