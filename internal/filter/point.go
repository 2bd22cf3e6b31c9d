package filter

import (
	"image"
	"image/color"
)

// PixelFunc maps one pixel. Alpha is passed through unless the function
// chooses to change it.
type PixelFunc func(x, y int, c color.NRGBA) color.NRGBA

// PointFilter applies a PixelFunc to every pixel, one scanline at a time.
type PointFilter struct {
	Fn PixelFunc
}

// Apply implements Transform.
func (f PointFilter) Apply(src *image.NRGBA, progress ProgressFunc) *image.NRGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))

	for y := 0; y < h; y++ {
		si := src.PixOffset(b.Min.X, b.Min.Y+y)
		di := dst.PixOffset(0, y)
		srow := src.Pix[si : si+w*4 : si+w*4]
		drow := dst.Pix[di : di+w*4 : di+w*4]
		for x := 0; x < w; x++ {
			p := x * 4
			c := f.Fn(x, y, color.NRGBA{R: srow[p], G: srow[p+1], B: srow[p+2], A: srow[p+3]})
			drow[p], drow[p+1], drow[p+2], drow[p+3] = c.R, c.G, c.B, c.A
		}
		if y%ProgressRows == 0 {
			report(progress, y*100/h)
		}
	}
	report(progress, 100)
	return dst
}

func invertPixel(_, _ int, c color.NRGBA) color.NRGBA {
	return color.NRGBA{R: ^c.R, G: ^c.G, B: ^c.B, A: c.A}
}

func luma(c color.NRGBA) uint8 {
	return uint8((int(c.R)*77 + int(c.G)*151 + int(c.B)*28) >> 8)
}

func grayscalePixel(_, _ int, c color.NRGBA) color.NRGBA {
	l := luma(c)
	return color.NRGBA{R: l, G: l, B: l, A: c.A}
}

// sepiaPixel tints the grey level warm: red +40, green +20, blue -20.
func sepiaPixel(_, _ int, c color.NRGBA) color.NRGBA {
	l := int(luma(c))
	return color.NRGBA{R: clampInt(l + 40), G: clampInt(l + 20), B: clampInt(l - 20), A: c.A}
}

func solarizeLevel(v uint8) uint8 {
	f := float64(v) / 255
	if f > 0.5 {
		f = 2 * (f - 0.5)
	} else {
		f = 2 * (0.5 - f)
	}
	return clamp8(f * 255)
}

func solarizePixel(_, _ int, c color.NRGBA) color.NRGBA {
	return color.NRGBA{R: solarizeLevel(c.R), G: solarizeLevel(c.G), B: solarizeLevel(c.B), A: c.A}
}

// NewPosterize returns a point filter that quantises each channel to the
// given number of levels.
func NewPosterize(levels int) PointFilter {
	if levels < 2 {
		levels = 2
	}
	var table [256]uint8
	for i := range table {
		table[i] = uint8(255 * (levels * i / 256) / (levels - 1))
	}
	return PointFilter{Fn: func(_, _ int, c color.NRGBA) color.NRGBA {
		return color.NRGBA{R: table[c.R], G: table[c.G], B: table[c.B], A: c.A}
	}}
}
