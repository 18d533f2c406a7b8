// Package store defines the storage layer of the application. Every
// collection has an in-memory implementation used by default and a gorm
// implementation for SQLite/PostgreSQL. Magic links can also live in Redis.
package store

import (
	"context"
	"errors"
	"hungrypanda/hub-api/internal/model"
	"strings"
	"time"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists")
)

// Users is the user directory. Emails are unique and always normalized.
type Users interface {
	// GetOrCreate returns the user registered under email with its username
	// overwritten, or creates a new one with a fresh ID
	GetOrCreate(ctx context.Context, email, username string) (*model.User, error)
	// Create stores a new user, failing with ErrConflict if the email is taken
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	// UpdateProfile applies the set fields of p to the user and returns the
	// result. Other columns are never written.
	UpdateProfile(ctx context.Context, id string, p *model.UserProfile) (*model.User, error)
	Delete(ctx context.Context, id string) error
}

// MagicLinks stores single-use login tokens
type MagicLinks interface {
	Put(ctx context.Context, l *model.MagicLink) error
	Get(ctx context.Context, token string) (*model.MagicLink, error)
	// Consume atomically fetches and deletes the link. Of any number of
	// concurrent calls for the same token at most one succeeds.
	Consume(ctx context.Context, token string) (*model.MagicLink, error)
	// DeleteExpired removes every link that expired before t
	DeleteExpired(ctx context.Context, t time.Time) (int64, error)
}

type Startups interface {
	Create(ctx context.Context, s *model.Startup) error
	Get(ctx context.Context, id uint) (*model.Startup, error)
	List(ctx context.Context, f model.StartupFilter) ([]model.Startup, error)
	Update(ctx context.Context, id uint, u *model.StartupUpdate, at time.Time) (*model.Startup, error)
	Delete(ctx context.Context, id uint) error
}

type Resources interface {
	Create(ctx context.Context, r *model.Resource) error
	Get(ctx context.Context, id uint) (*model.Resource, error)
	List(ctx context.Context, category string) ([]model.Resource, error)
	Categories(ctx context.Context) ([]string, error)
	// View increments the view counter and returns the updated record
	View(ctx context.Context, id uint) (*model.Resource, error)
	Delete(ctx context.Context, id uint) error
}

// NormalizeEmail trims and lowercases an email address. Every store keys
// users by the normalized form.
func NormalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
