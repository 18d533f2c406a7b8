package security

import (
	"context"
	"hungrypanda/hub-api/internal/model"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUser = &model.User{ID: "u1", Email: "a@b.com", Username: "alice"}

func newTestCodec(t *testing.T, now *time.Time) *TokenCodec {
	t.Helper()

	c, err := NewTokenCodec(&TokenCodecOpts{
		Secret: "super-secret",
		Now:    func() time.Time { return *now },
	})
	require.NoError(t, err)

	return c
}

func TestNewTokenCodec(t *testing.T) {
	_, err := NewTokenCodec(nil)
	assert.Error(t, err)

	_, err = NewTokenCodec(&TokenCodecOpts{})
	assert.Error(t, err, "empty secret must be rejected")

	_, err = NewTokenCodec(&TokenCodecOpts{Secret: "s", Algorithm: "RS256"})
	assert.Error(t, err, "asymmetric algorithms are not supported")

	c, err := NewTokenCodec(&TokenCodecOpts{Secret: "s", Algorithm: "HS512"})
	require.NoError(t, err)
	assert.Equal(t, DefaultTokenLifetime, c.Lifetime())
}

func TestTokenCodec_MintValidate(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	c := newTestCodec(t, &now)

	tok, err := c.Mint(testUser)
	require.NoError(t, err)

	id, err := c.Validate(tok)
	require.NoError(t, err)
	assert.Equal(t, &Identity{ID: "u1", Email: "a@b.com", Username: "alice"}, id)
}

func TestTokenCodec_Mint_NoUser(t *testing.T) {
	now := time.Now()
	c := newTestCodec(t, &now)

	_, err := c.Mint(nil)
	assert.Error(t, err)

	_, err = c.Mint(&model.User{Email: "a@b.com"})
	assert.Error(t, err)
}

func TestTokenCodec_Expiry(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	c := newTestCodec(t, &now)

	tok, err := c.Mint(testUser)
	require.NoError(t, err)

	now = now.Add(7*24*time.Hour - time.Second)
	_, err = c.Validate(tok)
	assert.NoError(t, err, "token must be valid right before its lifetime ends")

	now = now.Add(time.Second)
	_, err = c.Validate(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	now = now.Add(time.Hour)
	_, err = c.Validate(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenCodec_TamperedSignature(t *testing.T) {
	now := time.Now()
	c := newTestCodec(t, &now)

	tok, err := c.Mint(testUser)
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)

	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	parts[2] = string(sig)

	_, err = c.Validate(strings.Join(parts, "."))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenCodec_TamperedPayload(t *testing.T) {
	now := time.Now()
	c := newTestCodec(t, &now)

	tok, err := c.Mint(testUser)
	require.NoError(t, err)

	forged, err := c.Mint(&model.User{ID: "admin", Email: "root@b.com", Username: "root"})
	require.NoError(t, err)

	// Glue the forged payload onto the original signature
	parts := strings.Split(tok, ".")
	parts[1] = strings.Split(forged, ".")[1]

	_, err = c.Validate(strings.Join(parts, "."))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenCodec_WrongSecret(t *testing.T) {
	now := time.Now()
	c := newTestCodec(t, &now)

	other, err := NewTokenCodec(&TokenCodecOpts{Secret: "other-secret"})
	require.NoError(t, err)

	tok, err := other.Mint(testUser)
	require.NoError(t, err)

	_, err = c.Validate(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenCodec_AlgorithmMismatch(t *testing.T) {
	now := time.Now()
	c := newTestCodec(t, &now)

	other, err := NewTokenCodec(&TokenCodecOpts{Secret: "super-secret", Algorithm: "HS512"})
	require.NoError(t, err)

	tok, err := other.Mint(testUser)
	require.NoError(t, err)

	_, err = c.Validate(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenCodec_MissingExpiry(t *testing.T) {
	now := time.Now()
	c := newTestCodec(t, &now)

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		Email: "a@b.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: "u1",
		},
	}).SignedString([]byte("super-secret"))
	require.NoError(t, err)

	_, err = c.Validate(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenCodec_MissingSubject(t *testing.T) {
	now := time.Now()
	c := newTestCodec(t, &now)

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		Email: "a@b.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}).SignedString([]byte("super-secret"))
	require.NoError(t, err)

	_, err = c.Validate(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenCodec_Malformed(t *testing.T) {
	now := time.Now()
	c := newTestCodec(t, &now)

	for _, s := range []string{"", "not.a.jwt", "abc", "fake_token_for_a@b.com"} {
		_, err := c.Validate(s)
		assert.ErrorIs(t, err, ErrInvalidToken, "input %q", s)
	}
}

func TestIdentityContext(t *testing.T) {
	_, ok := IdentityFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithIdentity(context.Background(), &Identity{ID: "u1"})
	id, ok := IdentityFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "u1", id.ID)
}
