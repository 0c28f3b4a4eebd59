// Package token issues and verifies the two signed bearer tokens the API
// hands out: session tokens (returned on signin) and password-reset tokens
// (embedded in reset links). The two purposes are signed with separate
// secrets so a session token can never be replayed as a reset token.
//
// Tokens are stateless: validity is determined purely by signature and
// expiry at verification time. There is no revocation store, so an issued
// token remains valid until natural expiry.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/studioperennis/auth-api/internal/core/domain"
)

const (
	DefaultSessionTTL = 24 * time.Hour
	DefaultResetTTL   = time.Hour
)

// SessionClaims is the claim set carried by a session token.
type SessionClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// ResetClaims is the claim set carried by a password-reset token.
type ResetClaims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// Provider signs and verifies purpose-scoped tokens with HS256.
type Provider struct {
	sessionSecret []byte
	resetSecret   []byte
	sessionTTL    time.Duration
	resetTTL      time.Duration
}

func NewProvider(sessionSecret, resetSecret string, sessionTTL, resetTTL time.Duration) *Provider {
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	if resetTTL <= 0 {
		resetTTL = DefaultResetTTL
	}
	return &Provider{
		sessionSecret: []byte(sessionSecret),
		resetSecret:   []byte(resetSecret),
		sessionTTL:    sessionTTL,
		resetTTL:      resetTTL,
	}
}

// IssueSession produces a signed session token for the user.
func (p *Provider) IssueSession(user *domain.User) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.sessionTTL)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(p.sessionSecret)
}

// VerifySession validates a session token and returns its claims.
func (p *Provider) VerifySession(tok string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if err := p.verify(tok, claims, p.sessionSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

// IssueReset produces a signed, short-lived reset token for the user id.
func (p *Provider) IssueReset(userID string) (string, error) {
	now := time.Now()
	claims := ResetClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.resetTTL)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(p.resetSecret)
}

// VerifyReset validates a reset token and returns its claims. Expiry maps to
// domain.ErrTokenExpired; every other verification failure collapses into
// domain.ErrTokenInvalid.
func (p *Provider) VerifyReset(tok string) (*ResetClaims, error) {
	claims := &ResetClaims{}
	if err := p.verify(tok, claims, p.resetSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

// ResetTTL reports the configured reset-token lifetime, used to render the
// expiry notice in reset emails.
func (p *Provider) ResetTTL() time.Duration {
	return p.resetTTL
}

func (p *Provider) verify(tok string, claims jwt.Claims, secret []byte) error {
	parsed, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.ErrTokenExpired
		}
		return domain.ErrTokenInvalid
	}
	if !parsed.Valid {
		return domain.ErrTokenInvalid
	}
	return nil
}
