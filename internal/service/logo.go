package service

import (
	"context"
	"errors"
	"fmt"
	"hungrypanda/hub-api/pkg/util"
	"hungrypanda/hub-api/pkg/validators"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

// ErrStorageDisabled is returned for uploads when no object storage is set up
var ErrStorageDisabled = errors.New("object storage is disabled")

// ObjectStorage stores publicly readable blobs such as startup logos
type ObjectStorage interface {
	PutObject(ctx context.Context, key string, data []byte, contentType string) (string, error)
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

// Logos uploads startup logos. A nil storage makes every upload fail with
// ErrStorageDisabled.
type Logos struct {
	storage ObjectStorage
}

func NewLogos(s ObjectStorage) *Logos {
	return &Logos{storage: s}
}

func (l *Logos) Enabled() bool {
	return l != nil && l.storage != nil
}

// Upload validates data as an image and stores it under a fresh key for the
// startup. It returns the public URL of the stored logo.
func (l *Logos) Upload(ctx context.Context, startupID uint, data []byte) (string, error) {
	if !l.Enabled() {
		return "", ErrStorageDisabled
	}

	mime, err := validators.ImageValidator(data)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	id, err := util.NewID()
	if err != nil {
		return "", err
	}

	key := logoPrefix(startupID) + "logo-" + id + mimetype.Lookup(mime).Extension()

	url, err := l.storage.PutObject(ctx, key, data, mime)
	if err != nil {
		return "", fmt.Errorf("failed to store logo, %w", err)
	}

	return url, nil
}

// Purge removes every logo ever uploaded for the startup. It is a no-op
// when storage is disabled.
func (l *Logos) Purge(ctx context.Context, startupID uint) error {
	if !l.Enabled() {
		return nil
	}

	n, err := l.storage.DeletePrefix(ctx, logoPrefix(startupID))
	if err != nil {
		return fmt.Errorf("failed to purge logos, %w", err)
	}

	zap.L().Debug("Purged startup logos", zap.Uint("startupID", startupID), zap.Int("count", n))
	return nil
}

func logoPrefix(startupID uint) string {
	return fmt.Sprintf("startups/%d/", startupID)
}
