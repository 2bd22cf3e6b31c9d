package filter

import (
	"image"

	"github.com/disintegration/imaging"
)

var (
	embossKernel = [9]float64{
		-1, -1, 0,
		-1, 0, 1,
		0, 1, 1,
	}
	edgeKernel = [9]float64{
		-1, -1, -1,
		-1, 8, -1,
		-1, -1, -1,
	}
)

// Convolution runs a 3x3 kernel over the image. Progress is reported only
// at completion since imaging does not expose per-row hooks.
type Convolution struct {
	Kernel [9]float64
	Abs    bool
}

// Apply implements Transform.
func (c Convolution) Apply(src *image.NRGBA, progress ProgressFunc) *image.NRGBA {
	opts := &imaging.ConvolveOptions{Abs: c.Abs}
	if c.Kernel == embossKernel {
		opts.Bias = 128
	}
	dst := imaging.Convolve3x3(src, c.Kernel, opts)
	report(progress, 100)
	return dst
}

// Resample scales the image to Percent of its size with a Lanczos filter.
type Resample struct {
	Percent int
}

// Size returns the output dimensions for a w x h source, never below 1x1.
func (r Resample) Size(w, h int) (int, int) {
	nw := w * r.Percent / 100
	nh := h * r.Percent / 100
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	return nw, nh
}

// Apply implements Transform.
func (r Resample) Apply(src *image.NRGBA, progress ProgressFunc) *image.NRGBA {
	b := src.Bounds()
	if r.Percent == 100 {
		report(progress, 100)
		return imaging.Clone(src)
	}
	nw, nh := r.Size(b.Dx(), b.Dy())
	dst := imaging.Resize(src, nw, nh, imaging.Lanczos)
	report(progress, 100)
	return dst
}
