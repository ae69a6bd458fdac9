// Package auth implements the shared-password session gate: a password check
// and an HS256-signed session cookie carrying the "logged in" flag.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CookieName is the session cookie set after a successful login.
const CookieName = "hatch_session"

const issuer = "hatch"

// ErrNoSession is returned when the request carries no session token.
var ErrNoSession = errors.New("no session")

// SessionManager checks the shared password and issues/validates session
// tokens.
type SessionManager struct {
	secret   []byte
	password string
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionManager creates a manager signing with secret and accepting
// password. ttl bounds the session lifetime.
func NewSessionManager(secret, password string, ttl time.Duration) *SessionManager {
	return &SessionManager{
		secret:   []byte(secret),
		password: password,
		ttl:      ttl,
		now:      time.Now,
	}
}

type sessionClaims struct {
	jwt.RegisteredClaims
	LoggedIn bool `json:"logged_in"`
}

// CheckPassword compares candidate with the configured password in constant
// time.
func (m *SessionManager) CheckPassword(candidate string) bool {
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(m.password)) == 1
}

// TTL returns the session lifetime.
func (m *SessionManager) TTL() time.Duration { return m.ttl }

// Issue signs a new session token.
func (m *SessionManager) Issue() (string, error) {
	now := m.now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		LoggedIn: true,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	return signed, nil
}

// Validate reports whether token is a live session issued by this manager.
func (m *SessionManager) Validate(token string) error {
	if token == "" {
		return ErrNoSession
	}
	parsed, err := jwt.ParseWithClaims(token, &sessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return fmt.Errorf("parse session: %w", err)
	}
	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || !parsed.Valid || !claims.LoggedIn {
		return errors.New("invalid session claims")
	}
	return nil
}
