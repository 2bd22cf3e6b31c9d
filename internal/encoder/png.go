package encoder

import (
	"image"
	"image/png"
	"io"
)

// PNGEncoder encodes images to PNG using Go's standard library.
// Chosen by default for images with alpha transparency.
type PNGEncoder struct{}

func (e *PNGEncoder) Format() string       { return "png" }
func (e *PNGEncoder) Extensions() []string { return []string{"png"} }

func (e *PNGEncoder) Encode(w io.Writer, img image.Image, _ int) error {
	enc := &png.Encoder{CompressionLevel: png.BestCompression}
	return enc.Encode(w, img)
}
