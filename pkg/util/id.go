package util

import gonanoid "github.com/matoous/go-nanoid/v2"

const idLength = 16

// NewID generates an opaque identifier for stored records
func NewID() (string, error) {
	return gonanoid.Generate(charset, idLength)
}
