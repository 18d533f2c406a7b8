package validators

import (
	"errors"
	"slices"

	"github.com/gabriel-vasile/mimetype"
)

// MaxImageSize is the biggest accepted logo upload
const MaxImageSize = 2 << 20

var allowedImageTypes = []string{"image/png", "image/jpeg", "image/webp", "image/gif"}

var (
	ErrImageEmpty       = errors.New("no image provided")
	ErrImageTooLarge    = errors.New("image too large")
	ErrImageUnsupported = errors.New("unsupported image type")
)

// ImageValidator sniffs the content of data and returns its MIME type.
// The client supplied content type is never trusted.
func ImageValidator(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrImageEmpty
	}

	if len(data) > MaxImageSize {
		return "", ErrImageTooLarge
	}

	mime := mimetype.Detect(data)
	for m := mime; m != nil; m = m.Parent() {
		if slices.Contains(allowedImageTypes, m.String()) {
			return m.String(), nil
		}
	}

	return "", ErrImageUnsupported
}
