package service

import (
	"context"
	"errors"
	"fmt"
	"hungrypanda/hub-api/internal/model"
	"hungrypanda/hub-api/internal/store"
	"hungrypanda/hub-api/pkg/security"
	"hungrypanda/hub-api/pkg/validators"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultLinkLifetime is how long an issued magic link can be redeemed
const DefaultLinkLifetime = 15 * time.Minute

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidOrExpired = errors.New("invalid or expired magic link")
)

type MagicLinkOpts struct {
	Users    store.Users
	Links    store.MagicLinks
	BaseURL  string
	Lifetime time.Duration // Defaults to DefaultLinkLifetime
	Mailer   Mailer        // Optional, links are only returned when nil
	Now      func() time.Time
}

// MagicLinks issues and redeems single-use passwordless login links
type MagicLinks struct {
	users    store.Users
	links    store.MagicLinks
	base     *url.URL
	lifetime time.Duration
	mailer   Mailer
	now      func() time.Time
}

func NewMagicLinks(o *MagicLinkOpts) (*MagicLinks, error) {
	if o == nil {
		return nil, errors.New("no magic link options provided")
	}

	if o.Users == nil || o.Links == nil {
		return nil, errors.New("user and link stores are required")
	}

	base, err := url.Parse(o.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid magic link base url %q", o.BaseURL)
	}

	m := &MagicLinks{
		users:    o.Users,
		links:    o.Links,
		base:     base,
		lifetime: o.Lifetime,
		mailer:   o.Mailer,
		now:      o.Now,
	}

	if m.lifetime <= 0 {
		m.lifetime = DefaultLinkLifetime
	}

	if m.now == nil {
		m.now = time.Now
	}

	return m, nil
}

// Lifetime returns how long issued links stay valid
func (m *MagicLinks) Lifetime() time.Duration {
	return m.lifetime
}

// Issue registers the user behind email (updating the username of an
// existing one) and returns a fresh login link for them
func (m *MagicLinks) Issue(ctx context.Context, email, username string) (string, error) {
	email = store.NormalizeEmail(email)
	username = strings.TrimSpace(username)

	if err := validators.EmailValidator(email); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	if err := validators.UsernameValidator(username); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	if _, err := m.users.GetOrCreate(ctx, email, username); err != nil {
		return "", fmt.Errorf("failed to upsert user, %w", err)
	}

	link, err := security.MakeMagicLink(&security.MagicLinkOpts{
		Email:     email,
		CreatedAt: m.now(),
		TTL:       m.lifetime,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create magic link, %w", err)
	}

	if err := m.links.Put(ctx, link); err != nil {
		return "", fmt.Errorf("failed to store magic link, %w", err)
	}

	u := m.linkURL(link.Token)

	if m.mailer != nil {
		// The link is returned either way, a failed mail isn't fatal
		if err := m.mailer.SendMagicLink(ctx, email, u, m.lifetime); err != nil {
			zap.L().Error("Failed to send magic link mail", zap.Error(err), zap.String("email", email))
		}
	}

	return u, nil
}

// Redeem consumes token and returns the user it was issued for. A token
// can be redeemed once, and never after it expired. The link is gone from
// the store by the time Redeem returns, whatever the caller does next.
func (m *MagicLinks) Redeem(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, ErrInvalidOrExpired
	}

	link, err := m.links.Consume(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidOrExpired
		}
		return nil, fmt.Errorf("failed to consume magic link, %w", err)
	}

	if link.Expired(m.now()) {
		return nil, ErrInvalidOrExpired
	}

	u, err := m.users.GetByEmail(ctx, link.Email)
	if err != nil {
		// The user was deleted after the link was issued
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidOrExpired
		}
		return nil, fmt.Errorf("failed to fetch user, %w", err)
	}

	return u, nil
}

func (m *MagicLinks) linkURL(token string) string {
	u := *m.base

	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	return u.String()
}
