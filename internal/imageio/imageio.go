// Package imageio loads images from disk and saves edited ones.
package imageio

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/AnyUserName/bambi-editor/internal/encoder"
	"github.com/AnyUserName/bambi-editor/internal/hasher"
)

// Info describes an image file.
type Info struct {
	Path     string
	Format   string
	Width    int
	Height   int
	Size     int64
	HasAlpha bool
	Hash     string // first 16 hex chars of xxhash64 of the file bytes
}

// Load reads and decodes the image at path. EXIF orientation is applied so
// the returned image is upright.
func Load(path string) (image.Image, Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Info{}, fmt.Errorf("read %s: %w", path, err)
	}
	return Decode(data, path)
}

// Decode decodes data; name is only used in errors and Info.
func Decode(data []byte, name string) (image.Image, Info, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, Info{}, fmt.Errorf("decode %s: %w", name, err)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, Info{}, fmt.Errorf("decode %s: %w", name, err)
	}
	b := img.Bounds()
	return img, Info{
		Path:     name,
		Format:   format,
		Width:    b.Dx(),
		Height:   b.Dy(),
		Size:     int64(len(data)),
		HasAlpha: HasAlpha(img),
		Hash:     hasher.ContentHash(data, 16),
	}, nil
}

// Save encodes img with the encoder chosen by format, or by the extension of
// path when format is empty, and writes it atomically.
func Save(path string, img image.Image, reg *encoder.Registry, format string, quality int) (Info, error) {
	var enc encoder.Encoder
	var err error
	if format != "" {
		enc, err = reg.Resolve(format, false)
	} else {
		enc, err = reg.ForPath(path)
	}
	if err != nil {
		return Info{}, err
	}

	var buf bytes.Buffer
	if err := enc.Encode(&buf, img, quality); err != nil {
		return Info{}, fmt.Errorf("encode %s as %s: %w", path, enc.Format(), err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Info{}, fmt.Errorf("create output dir: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return Info{}, fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return Info{}, fmt.Errorf("write %s: %w", path, err)
	}

	b := img.Bounds()
	return Info{
		Path:     path,
		Format:   enc.Format(),
		Width:    b.Dx(),
		Height:   b.Dy(),
		Size:     int64(buf.Len()),
		HasAlpha: HasAlpha(img),
		Hash:     hasher.ContentHash(buf.Bytes(), 16),
	}, nil
}

// HasAlpha reports whether any pixel of img is not fully opaque.
func HasAlpha(img image.Image) bool {
	switch m := img.(type) {
	case *image.NRGBA:
		return !m.Opaque()
	case *image.RGBA:
		return !m.Opaque()
	case *image.YCbCr, *image.Gray, *image.Gray16, *image.CMYK:
		return false
	}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0xffff {
				return true
			}
		}
	}
	return false
}
