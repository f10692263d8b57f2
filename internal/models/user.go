package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the identity record as stored.
// PasswordHash and RefreshToken must never leave the service layer:
// hand PublicUser to clients instead.
type User struct {
	ID            uuid.UUID
	Username      string
	Email         string
	FullName      string
	AvatarURL     string
	CoverImageURL string
	PasswordHash  string

	// The single currently valid refresh token.
	// nil when the user has no active session.
	RefreshToken *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PublicUser is the client-facing projection of User.
type PublicUser struct {
	ID            uuid.UUID `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FullName      string    `json:"fullName"`
	AvatarURL     string    `json:"avatar"`
	CoverImageURL string    `json:"coverImage,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (u User) Public() PublicUser {
	return PublicUser{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		FullName:      u.FullName,
		AvatarURL:     u.AvatarURL,
		CoverImageURL: u.CoverImageURL,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

// ChannelProfile is the public profile of a user's channel with
// relationship counts aggregated from the subscriptions table.
type ChannelProfile struct {
	ID                uuid.UUID `json:"id"`
	Username          string    `json:"username"`
	Email             string    `json:"email"`
	FullName          string    `json:"fullName"`
	AvatarURL         string    `json:"avatar"`
	CoverImageURL     string    `json:"coverImage,omitempty"`
	SubscriberCount   int64     `json:"subscribersCount"`
	SubscribedToCount int64     `json:"channelsSubscribedToCount"`
	IsSubscribed      bool      `json:"isSubscribed"`
	CreatedAt         time.Time `json:"createdAt"`
}
