// Package conduit owns the authoritative image state of an editing session.
package conduit

import (
	"errors"
	"image"
	"sync"

	"github.com/AnyUserName/bambi-editor/internal/hasher"
	"github.com/disintegration/imaging"
)

var (
	ErrNilImage  = errors.New("conduit: nil image")
	ErrNotLoaded = errors.New("conduit: no image loaded")
)

// Conduit holds three buffers:
//
//   - original: the image as loaded, never modified afterwards
//   - modified: the current working image shown to the user
//   - reference: the baseline the composite colour adjustment is applied to
//
// Buffers handed out are read-only borrows; every update swaps in a complete
// replacement under the lock, so readers never see a partial write.
type Conduit struct {
	mu        sync.RWMutex
	original  *image.NRGBA
	reference *image.NRGBA
	modified  *image.NRGBA
}

// New returns an empty conduit.
func New() *Conduit {
	return &Conduit{}
}

// Load installs img as the original and resets the working buffers to it.
func (c *Conduit) Load(img image.Image) error {
	if img == nil {
		return ErrNilImage
	}
	orig := imaging.Clone(img)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.original = orig
	c.modified = imaging.Clone(orig)
	c.reference = c.modified
	return nil
}

// Loaded reports whether an image has been loaded.
func (c *Conduit) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.original != nil
}

// Original returns the image as loaded.
func (c *Conduit) Original() (*image.NRGBA, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.original == nil {
		return nil, ErrNotLoaded
	}
	return c.original, nil
}

// Modified returns the current working image.
func (c *Conduit) Modified() (*image.NRGBA, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.modified == nil {
		return nil, ErrNotLoaded
	}
	return c.modified, nil
}

// Reference returns the colour-adjustment baseline.
func (c *Conduit) Reference() (*image.NRGBA, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.reference == nil {
		return nil, ErrNotLoaded
	}
	return c.reference, nil
}

// ReplaceModified swaps in a new working image, leaving the reference alone.
// The conduit publishes nothing; the caller owns announcing the swap with
// an AfterChange event so the filter queue can advance.
func (c *Conduit) ReplaceModified(img *image.NRGBA) error {
	return c.Commit(img, nil)
}

// Commit swaps in a new working image and, when reference is non-nil, a new
// colour-adjustment baseline in the same critical section.
func (c *Conduit) Commit(modified, reference *image.NRGBA) error {
	if modified == nil {
		return ErrNilImage
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.original == nil {
		return ErrNotLoaded
	}
	c.modified = modified
	if reference != nil {
		c.reference = reference
	}
	return nil
}

// ResetToOriginal discards every change and returns the new working image.
func (c *Conduit) ResetToOriginal() (*image.NRGBA, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.original == nil {
		return nil, ErrNotLoaded
	}
	c.modified = imaging.Clone(c.original)
	c.reference = c.modified
	return c.modified, nil
}

// Fingerprint returns a 16 hex char xxhash of the working image, or "" when
// nothing is loaded.
func (c *Conduit) Fingerprint() string {
	img, err := c.Modified()
	if err != nil {
		return ""
	}
	return hasher.PixelHash(img, 16)
}
