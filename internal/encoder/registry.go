package encoder

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnknownFormat is returned when no encoder matches a format or path.
var ErrUnknownFormat = errors.New("encoder: unknown format")

// Registry holds the encoders by format and extension.
type Registry struct {
	encoders map[string]Encoder
	byExt    map[string]Encoder
	order    []string
}

// NewRegistry creates a registry with every built-in encoder.
func NewRegistry() *Registry {
	r := &Registry{
		encoders: make(map[string]Encoder),
		byExt:    make(map[string]Encoder),
	}

	// Registration order is the listing order.
	all := []Encoder{
		&PNGEncoder{},
		&JPEGEncoder{},
		&BMPEncoder{},
		&TIFFEncoder{},
	}
	for _, enc := range all {
		r.encoders[enc.Format()] = enc
		r.order = append(r.order, enc.Format())
		for _, ext := range enc.Extensions() {
			r.byExt[ext] = enc
		}
	}
	return r
}

// Get returns an encoder for a format name or extension, or nil.
func (r *Registry) Get(format string) Encoder {
	format = strings.ToLower(strings.TrimPrefix(format, "."))
	if enc, ok := r.encoders[format]; ok {
		return enc
	}
	return r.byExt[format]
}

// ForPath picks the encoder from the file extension of path.
func (r *Registry) ForPath(path string) (Encoder, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return nil, fmt.Errorf("%w: %s has no extension", ErrUnknownFormat, path)
	}
	enc := r.Get(ext)
	if enc == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, ext)
	}
	return enc, nil
}

// Resolve returns the encoder for format. An empty format selects PNG for
// images with alpha and JPEG otherwise.
func (r *Registry) Resolve(format string, hasAlpha bool) (Encoder, error) {
	if format == "" {
		if hasAlpha {
			format = "png"
		} else {
			format = "jpeg"
		}
	}
	enc := r.Get(format)
	if enc == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
	return enc, nil
}

// Available returns all format names in registration order.
func (r *Registry) Available() []string {
	return append([]string(nil), r.order...)
}

// String returns a summary of available encoders.
func (r *Registry) String() string {
	return fmt.Sprintf("encoders: %s", strings.Join(r.order, ", "))
}
