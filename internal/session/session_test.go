package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cata32101/odysseus-app/internal/common"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestNew_DecodesClaims(t *testing.T) {
	expiry := time.Now().Add(time.Hour).Truncate(time.Second)
	raw := signedToken(t, jwt.MapClaims{
		"sub":   "user-123",
		"email": "analyst@example.com",
		"exp":   expiry.Unix(),
	})

	s, err := New(raw)
	require.NoError(t, err)

	assert.Equal(t, raw, s.AccessToken())
	assert.Equal(t, "user-123", s.UserID())
	assert.Equal(t, "analyst@example.com", s.Email())
	assert.True(t, s.ExpiresAt().Equal(expiry))
	assert.True(t, s.Valid())
}

func TestNew_Errors(t *testing.T) {
	_, err := New("")
	assert.ErrorIs(t, err, common.ErrNoSession)

	_, err = New("not-a-jwt")
	assert.Error(t, err)
}

func TestSession_ValidAt(t *testing.T) {
	now := time.Now()

	expiring := signedToken(t, jwt.MapClaims{
		"sub": "u",
		"exp": now.Add(time.Minute).Unix(),
	})
	s, err := New(expiring)
	require.NoError(t, err)

	assert.True(t, s.ValidAt(now))
	assert.False(t, s.ValidAt(now.Add(2*time.Minute)))

	// No expiry claim: never expires client-side.
	eternal := signedToken(t, jwt.MapClaims{"sub": "u"})
	s, err = New(eternal)
	require.NoError(t, err)
	assert.True(t, s.ValidAt(now.Add(1000 * time.Hour)))

	// Nil session is never valid.
	var nilSession *Session
	assert.False(t, nilSession.ValidAt(now))
	assert.False(t, nilSession.Valid())
}
