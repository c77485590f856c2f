package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParse(t *testing.T) {
	secret := []byte("super-secret")

	tok, err := GenerateToken("workshop-3", secret, time.Hour)
	require.NoError(t, err)

	owner, err := OwnerFromToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, "workshop-3", owner)
}

func TestOwnerFromToken_Expired(t *testing.T) {
	tok, err := GenerateToken("u1", []byte("s"), -time.Second)
	require.NoError(t, err)

	_, err = OwnerFromToken(tok, []byte("s"))
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestOwnerFromToken_ExpiresLater(t *testing.T) {
	orig := now
	t.Cleanup(func() { now = orig })

	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	now = func() time.Time { return base }
	tok, err := GenerateToken("u1", []byte("s"), 24*time.Hour)
	require.NoError(t, err)

	now = func() time.Time { return base.Add(23 * time.Hour) }
	_, err = OwnerFromToken(tok, []byte("s"))
	require.NoError(t, err)

	now = func() time.Time { return base.Add(25 * time.Hour) }
	_, err = OwnerFromToken(tok, []byte("s"))
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestOwnerFromToken_WrongSecret(t *testing.T) {
	tok, err := GenerateToken("u2", []byte("right"), time.Hour)
	require.NoError(t, err)

	_, err = OwnerFromToken(tok, []byte("wrong"))
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestOwnerFromToken_Garbage(t *testing.T) {
	_, err := OwnerFromToken("not.a.jwt", []byte("s"))
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestOwnerFromToken_RejectsOtherAlgorithms(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{OwnerID: "u3"})
	s, err := tok.SignedString([]byte("s"))
	require.NoError(t, err)

	_, err = OwnerFromToken(s, []byte("s"))
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestOwnerFromToken_MissingOwner(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	s, err := tok.SignedString([]byte("s"))
	require.NoError(t, err)

	_, err = OwnerFromToken(s, []byte("s"))
	require.ErrorIs(t, err, ErrNoOwner)
}

func TestGenerateToken_EmptyOwner(t *testing.T) {
	_, err := GenerateToken("", []byte("s"), time.Hour)
	require.ErrorIs(t, err, ErrNoOwner)
}
