package security

import (
	"errors"
	"fmt"
	"hungrypanda/hub-api/internal/model"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenLifetime is how long a minted access token stays valid
const DefaultTokenLifetime = 7 * 24 * time.Hour

// ErrInvalidToken is returned for every access token that fails validation.
// Callers never learn whether the signature, payload or expiry was at fault.
var ErrInvalidToken = errors.New("invalid or expired token")

var signingMethods = map[string]*jwt.SigningMethodHMAC{
	jwt.SigningMethodHS256.Alg(): jwt.SigningMethodHS256,
	jwt.SigningMethodHS384.Alg(): jwt.SigningMethodHS384,
	jwt.SigningMethodHS512.Alg(): jwt.SigningMethodHS512,
}

// Identity is the authenticated subject carried by an access token
type Identity struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// Claims are the JWT claims of an access token. The subject holds the user ID.
type Claims struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type TokenCodecOpts struct {
	Secret    string
	Algorithm string        // Defaults to HS256
	Lifetime  time.Duration // Defaults to DefaultTokenLifetime
	Now       func() time.Time
}

// TokenCodec mints and validates stateless access tokens. The secret and
// algorithm are fixed at construction, it's safe for concurrent use.
type TokenCodec struct {
	secret   []byte
	method   *jwt.SigningMethodHMAC
	lifetime time.Duration
	now      func() time.Time
}

func NewTokenCodec(o *TokenCodecOpts) (*TokenCodec, error) {
	if o == nil {
		return nil, errors.New("no codec options provided")
	}

	if o.Secret == "" {
		return nil, errors.New("no signing secret provided")
	}

	alg := o.Algorithm
	if alg == "" {
		alg = jwt.SigningMethodHS256.Alg()
	}

	method, ok := signingMethods[alg]
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", alg)
	}

	lifetime := o.Lifetime
	if lifetime <= 0 {
		lifetime = DefaultTokenLifetime
	}

	now := o.Now
	if now == nil {
		now = time.Now
	}

	return &TokenCodec{
		secret:   []byte(o.Secret),
		method:   method,
		lifetime: lifetime,
		now:      now,
	}, nil
}

// Lifetime returns how long minted tokens stay valid
func (c *TokenCodec) Lifetime() time.Duration {
	return c.lifetime
}

// Mint signs a new access token for u
func (c *TokenCodec) Mint(u *model.User) (string, error) {
	if u == nil || u.ID == "" {
		return "", errors.New("no user provided")
	}

	iat := c.now()

	t := jwt.NewWithClaims(c.method, &Claims{
		Email:    u.Email,
		Username: u.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(iat.Add(c.lifetime)),
		},
	})

	return t.SignedString(c.secret)
}

// Validate verifies the signature and expiry of tokenStr and returns the
// identity it carries
func (c *TokenCodec) Validate(tokenStr string) (*Identity, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return &Identity{
		ID:       claims.Subject,
		Email:    claims.Email,
		Username: claims.Username,
	}, nil
}
