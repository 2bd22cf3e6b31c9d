// Package filter implements the pixel transforms of the editor: point
// filters, the composite colour adjustment, geometric flips and rotations,
// displacement warps, and the imaging-backed convolution and resample
// passes.
//
// Every transform reads a source *image.NRGBA and returns a freshly
// allocated destination, so a caller never observes a partially written
// buffer. Transforms hold no references to their inputs after Apply returns
// and are safe to run off the interactive goroutine.
package filter

import (
	"fmt"
	"image"
)

// ProgressFunc receives the completed percentage of a running transform.
// Successive calls within one Apply never decrease.
type ProgressFunc func(percent int)

// Transform is a pixel algorithm.
type Transform interface {
	Apply(src *image.NRGBA, progress ProgressFunc) *image.NRGBA
}

const (
	// ProgressRows is the scanline sampling interval of point transforms.
	ProgressRows = 100
	// ProgressPixels is the destination-index sampling interval of
	// geometric transforms.
	ProgressPixels = 10000
)

// For returns the transform that executes op. Refresh has no pixel
// transform; asking for one, or for a kind outside the enumeration, is a
// programming error and panics.
func For(op Operation) Transform {
	switch k := op.Kind(); k {
	case FlipHorizontal, FlipVertical, FlipBoth, Rotate90CW, Rotate90CCW, Rotate180:
		return Geometric{Mode: k}
	case Invert:
		return PointFilter{Fn: invertPixel}
	case Grayscale:
		return PointFilter{Fn: grayscalePixel}
	case Sepia:
		return PointFilter{Fn: sepiaPixel}
	case Solarize:
		return PointFilter{Fn: solarizePixel}
	case Posterize:
		return NewPosterize(6)
	case Red, Green, Blue, Hue, Saturation, Contrast, Brightness:
		return NewColorAdjustFilter(op.Adjust())
	case Emboss:
		return Convolution{Kernel: embossKernel}
	case Edge:
		return Convolution{Kernel: edgeKernel, Abs: true}
	case Cartoonize:
		return Relief{Softness: 1.5, Height: 4}
	case Chessboard:
		return NewDither(6)
	case Kaleidoscope:
		return KaleidoscopeWarp{Sides: 4}
	case Marble:
		return MarbleWarp{Scale: 4, Turbulence: 1, Seed: 1}
	case Stamp:
		return StampFilter{Sigma: 2, Threshold: 0.5}
	case Twirl:
		return TwirlWarp{Angle: 1.2, Radius: 2}
	case Scale:
		return Resample{Percent: op.Percent()}
	default:
		panic(fmt.Sprintf("filter: no pixel transform for %s", k.Name()))
	}
}

func report(progress ProgressFunc, pct int) {
	if progress != nil {
		progress(pct)
	}
}

func clamp8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v + 0.5)
}

func clampInt(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
