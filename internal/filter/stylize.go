package filter

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// StampFilter blurs the image and thresholds its luminance to black and white,
// like an ink stamp. Softness widens the threshold into a smooth ramp.
type StampFilter struct {
	Sigma     float64
	Threshold float64 // 0..1
	Softness  float64
}

// Apply implements Transform.
func (s StampFilter) Apply(src *image.NRGBA, progress ProgressFunc) *image.NRGBA {
	blurred := imaging.Blur(src, s.Sigma)
	b := src.Bounds()
	lo, hi := s.Threshold-s.Softness, s.Threshold+s.Softness

	return PointFilter{Fn: func(x, y int, c color.NRGBA) color.NRGBA {
		f := smoothStep(lo, hi, float64(luma(c))/255)
		v := clamp8(255 * f)
		return color.NRGBA{R: v, G: v, B: v, A: src.NRGBAAt(b.Min.X+x, b.Min.Y+y).A}
	}}.Apply(blurred, progress)
}

func smoothStep(a, b, x float64) float64 {
	switch {
	case x < a:
		return 0
	case x >= b:
		return 1
	}
	x = (x - a) / (b - a)
	return x * x * (3 - 2*x)
}

var bayer4 = [16]int{
	0, 8, 2, 10,
	12, 4, 14, 6,
	3, 11, 1, 9,
	15, 7, 13, 5,
}

// NewDither returns an ordered dither on a 4x4 Bayer matrix that reduces
// each channel to levels values. The matrix shows up as a fine
// chessboard pattern in flat areas.
func NewDither(levels int) PointFilter {
	if levels < 2 {
		levels = 2
	}
	n := float64(levels - 1)
	return PointFilter{Fn: func(x, y int, c color.NRGBA) color.NRGBA {
		t := (float64(bayer4[(y&3)*4+(x&3)]) + 0.5) / 16
		return color.NRGBA{R: ditherLevel(c.R, n, t), G: ditherLevel(c.G, n, t), B: ditherLevel(c.B, n, t), A: c.A}
	}}
}

func ditherLevel(v uint8, n, t float64) uint8 {
	f := float64(v) / 255 * n
	base := math.Floor(f)
	if f-base > t {
		base++
	}
	return clamp8(base * 255 / n)
}

// Relief shades the image as a relief lit from the top left. Heights come
// from the luminance blurred by Softness; flat areas keep their colour.
type Relief struct {
	Softness float64
	Height   float64
}

const (
	lightAmbient = 0.4
	lightDiffuse = 1.2
)

// Apply implements Transform.
func (c Relief) Apply(src *image.NRGBA, progress ProgressFunc) *image.NRGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	bump := imaging.Blur(src, c.Softness)

	height := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			height[y*w+x] = float64(luma(bump.NRGBAAt(x, y))) / 255
		}
	}
	at := func(x, y int) float64 {
		x = min(max(x, 0), w-1)
		y = min(max(y, 0), h-1)
		return height[y*w+x]
	}

	// Light from azimuth 135 degrees, elevation 30 degrees; y grows down.
	el := math.Pi / 6
	lx := -math.Cos(el) / math.Sqrt2
	ly := -math.Cos(el) / math.Sqrt2
	lz := math.Sin(el)
	flat := lightAmbient + lightDiffuse*lz

	return PointFilter{Fn: func(x, y int, p color.NRGBA) color.NRGBA {
		nx := (at(x-1, y) - at(x+1, y)) * c.Height
		ny := (at(x, y-1) - at(x, y+1)) * c.Height
		l := math.Sqrt(nx*nx + ny*ny + 1)
		dot := max((nx*lx+ny*ly+lz)/l, 0)
		shade := (lightAmbient + lightDiffuse*dot) / flat
		return color.NRGBA{
			R: clamp8(float64(p.R) * shade),
			G: clamp8(float64(p.G) * shade),
			B: clamp8(float64(p.B) * shade),
			A: p.A,
		}
	}}.Apply(src, progress)
}
