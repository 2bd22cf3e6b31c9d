// Package encoder writes edited images in the formats the editor can save.
package encoder

import (
	"image"
	"io"
)

// DefaultQuality is used for lossy formats when no quality is given.
const DefaultQuality = 90

// Encoder encodes an image to a specific format.
type Encoder interface {
	// Format returns the format name (e.g. "jpeg", "png").
	Format() string

	// Extensions lists file extensions without dot, canonical one first.
	Extensions() []string

	// Encode writes img at the given quality (1-100). Lossless formats
	// ignore quality.
	Encode(w io.Writer, img image.Image, quality int) error
}
