package models

import (
	"time"
)

// IssuedToken is a signed token string with its expiry moment.
type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// TokenPair issued by the token manager on login and on every rotation
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}
