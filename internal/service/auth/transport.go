package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/akorchagin/vidstream/internal/apperrors"
	"github.com/akorchagin/vidstream/internal/models"
)

const (
	defaultAccessCookieName  = "accessToken"
	defaultRefreshCookieName = "refreshToken"

	authHeaderName = "Authorization"
	authScheme     = "Bearer"
)

// SetTokenPair writes both tokens as scoped cookies.
// HttpOnly and Secure always: the frontend never reads or rewrites them.
func (s *SessionService) SetTokenPair(w http.ResponseWriter, pair models.TokenPair) {
	http.SetCookie(w, s.cookie(s.accessCookieName, pair.Access.Value, time.Until(pair.Access.ExpiresAt)))
	http.SetCookie(w, s.cookie(s.refreshCookieName, pair.Refresh.Value, time.Until(pair.Refresh.ExpiresAt)))
}

// ClearTokenPair expires both cookies with the same attributes they were set with.
func (s *SessionService) ClearTokenPair(w http.ResponseWriter) {
	http.SetCookie(w, s.cookie(s.accessCookieName, "", -time.Second))
	http.SetCookie(w, s.cookie(s.refreshCookieName, "", -time.Second))
}

func (s *SessionService) cookie(name string, value string, maxAge time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}
}

// RefreshFromRequest reads the incoming refresh token from the cookie or,
// for cookie-less clients, from the JSON body {"refreshToken": "..."}.
func (s *SessionService) RefreshFromRequest(r *http.Request) string {
	if c, err := r.Cookie(s.refreshCookieName); err == nil && c.Value != "" {
		return c.Value
	}

	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return ""
	}
	return body.RefreshToken
}

// UserFromRequest authenticates a request by its access token, taken from
// the Authorization header or the access cookie, and loads the user.
func (s *SessionService) UserFromRequest(ctx context.Context, r *http.Request) (models.User, error) {
	access := s.accessFromRequest(r)
	if access == "" {
		return models.User{}, apperrors.Auth("Unauthorized request")
	}

	claims, err := s.token.ParseAccess(access)
	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrTokenExpired):
		return models.User{}, apperrors.AuthWrap(err, "Access token is expired")
	default:
		return models.User{}, apperrors.AuthWrap(err, "Invalid access token")
	}

	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return user, apperrors.AuthWrap(err, "Invalid access token")
	}

	return user, nil
}

func (s *SessionService) accessFromRequest(r *http.Request) string {
	header := r.Header.Get(authHeaderName)
	if scheme, token, found := strings.Cut(header, " "); found && scheme == authScheme {
		return strings.TrimSpace(token)
	}

	if c, err := r.Cookie(s.accessCookieName); err == nil {
		return c.Value
	}

	return ""
}
