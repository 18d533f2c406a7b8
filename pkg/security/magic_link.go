package security

import (
	"errors"
	"hungrypanda/hub-api/internal/model"
	"hungrypanda/hub-api/pkg/util"
	"time"
)

const (
	linkTokenSize = 32
)

type MagicLinkOpts struct {
	Email     string
	CreatedAt time.Time
	TTL       time.Duration
}

// MakeMagicLink creates a new magic link record with a random token
func MakeMagicLink(o *MagicLinkOpts) (*model.MagicLink, error) {
	if o == nil {
		return nil, errors.New("no magic link options provided")
	}

	if o.Email == "" {
		return nil, errors.New("no email provided")
	}

	if o.TTL <= 0 {
		return nil, errors.New("no expiry provided")
	}

	token, err := util.GenerateToken(linkTokenSize)
	if err != nil {
		return nil, err
	}

	createdAt := o.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	return &model.MagicLink{
		Token:     token,
		Email:     o.Email,
		CreatedAt: createdAt,
		ExpiresAt: createdAt.Add(o.TTL),
	}, nil
}
