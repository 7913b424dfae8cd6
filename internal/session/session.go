// Package session holds the authenticated session passed to the data layer.
// The token is issued and verified server-side; the client only decodes the
// claims it needs (expiry, subject) and never validates the signature.
package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cata32101/odysseus-app/internal/common"
)

// Session is an explicit handle on an authenticated user session. A nil
// *Session means "not signed in" and suppresses all data fetches.
type Session struct {
	token     string
	userID    string
	email     string
	expiresAt time.Time
}

type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// New decodes an access token into a session. The token is parsed without
// signature verification: trust lives server-side, the client only needs the
// expiry and identity claims.
func New(token string) (*Session, error) {
	if token == "" {
		return nil, common.ErrNoSession
	}

	var c claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &c); err != nil {
		return nil, fmt.Errorf("failed to decode access token: %w", err)
	}

	s := &Session{
		token:  token,
		userID: c.Subject,
		email:  c.Email,
	}
	if c.ExpiresAt != nil {
		s.expiresAt = c.ExpiresAt.Time
	}
	return s, nil
}

// AccessToken returns the raw bearer token.
func (s *Session) AccessToken() string {
	return s.token
}

// UserID returns the token's subject claim.
func (s *Session) UserID() string {
	return s.userID
}

// Email returns the token's email claim, when present.
func (s *Session) Email() string {
	return s.email
}

// ExpiresAt returns the token expiry; zero when the token carries none.
func (s *Session) ExpiresAt() time.Time {
	return s.expiresAt
}

// ValidAt reports whether the session is usable at the given instant. A nil
// session is never valid; a token without an expiry claim never expires
// client-side.
func (s *Session) ValidAt(now time.Time) bool {
	if s == nil || s.token == "" {
		return false
	}
	if s.expiresAt.IsZero() {
		return true
	}
	return now.Before(s.expiresAt)
}

// Valid reports whether the session is usable right now.
func (s *Session) Valid() bool {
	return s.ValidAt(time.Now())
}
