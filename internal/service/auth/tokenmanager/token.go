package tokenmanager

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/akorchagin/vidstream/internal/apperrors"
	"github.com/akorchagin/vidstream/internal/models"
)

const (
	defaultSigningMethod   = "HS256"
	defaultAccessTokenTTL  = 15 * time.Minute
	defaultRefreshTokenTTL = 10 * 24 * time.Hour
)

// AccessClaims carry enough identity to serve a protected request
// without a credential store lookup.
type AccessClaims struct {
	jwt.RegisteredClaims
	UserID   uuid.UUID `json:"uid"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

// RefreshClaims carry the user id only.
type RefreshClaims struct {
	jwt.RegisteredClaims
	UserID uuid.UUID `json:"uid"`
}

// Token manager config with sensible defaults
type Config struct {
	// Secrets to sign token payloads. Required to be set and must differ:
	// a leaked access token must not be able to mint refresh tokens.
	AccessSecret  string
	RefreshSecret string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set then default is used
	Alg string

	// Access and refresh token lifetimes
	// If not set then default is used
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type TokenManager struct {
	accessSecret  string
	refreshSecret string

	alg jwt.SigningMethod

	accessTTL  time.Duration
	refreshTTL time.Duration
}

func New(cfg Config) (*TokenManager, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("token secrets must not be empty")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("access and refresh secrets must differ")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.AccessTTL, defaultAccessTokenTTL)
	setDefaultDuration(&cfg.RefreshTTL, defaultRefreshTokenTTL)

	return &TokenManager{
		accessSecret:  cfg.AccessSecret,
		refreshSecret: cfg.RefreshSecret,
		alg:           jwt.GetSigningMethod(cfg.Alg),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
	}, nil
}

func (m *TokenManager) RefreshTTL() time.Duration {
	return m.refreshTTL
}

func (m *TokenManager) AccessTTL() time.Duration {
	return m.accessTTL
}

// IssuePair signs a fresh access and refresh token pair for the user.
func (m *TokenManager) IssuePair(user models.User) (models.TokenPair, error) {
	var pair models.TokenPair
	now := time.Now().Truncate(time.Second)
	accessExpiresAt := now.Add(m.accessTTL)
	refreshExpiresAt := now.Add(m.refreshTTL)

	accessToken := jwt.NewWithClaims(
		m.alg,
		AccessClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(accessExpiresAt),
			},
			UserID:   user.ID,
			Username: user.Username,
			Email:    user.Email,
		},
	)
	access, err := accessToken.SignedString([]byte(m.accessSecret))
	if err != nil {
		return pair, fmt.Errorf("error while signing access token. Err: %w", err)
	}

	refreshToken := jwt.NewWithClaims(
		m.alg,
		RefreshClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(refreshExpiresAt),
			},
			UserID: user.ID,
		},
	)
	refresh, err := refreshToken.SignedString([]byte(m.refreshSecret))
	if err != nil {
		return pair, fmt.Errorf("error while signing refresh token. Err: %w", err)
	}

	return models.TokenPair{
		Access:  models.IssuedToken{Value: access, ExpiresAt: accessExpiresAt},
		Refresh: models.IssuedToken{Value: refresh, ExpiresAt: refreshExpiresAt},
	}, nil
}

// ParseAccess validates signature and expiry of an access token.
// Returns apperrors.ErrTokenExpired or apperrors.ErrTokenInvalid wrapped, so
// callers can branch on the reason.
func (m *TokenManager) ParseAccess(access string) (AccessClaims, error) {
	claims := AccessClaims{}
	err := m.parse(access, m.accessSecret, &claims)
	return claims, err
}

// ParseRefresh validates signature and expiry of a refresh token.
// Equality with the stored value is the session layer's concern, not ours.
func (m *TokenManager) ParseRefresh(refresh string) (RefreshClaims, error) {
	claims := RefreshClaims{}
	err := m.parse(refresh, m.refreshSecret, &claims)
	return claims, err
}

func (m *TokenManager) parse(token string, secret string, claims jwt.Claims) error {
	_, err := jwt.ParseWithClaims(
		token,
		claims,
		func(t *jwt.Token) (any, error) { return []byte(secret), nil },
		jwt.WithValidMethods([]string{m.alg.Alg()}),
	)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %w", apperrors.ErrTokenExpired, err)
	default:
		return fmt.Errorf("%w: %w", apperrors.ErrTokenInvalid, err)
	}
}
