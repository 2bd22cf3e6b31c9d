package filter

import (
	"image"
	"image/color"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// ColorAdjustFilter folds the RGB channel offsets, the hue/saturation
// rotation and the contrast/brightness curve into a single pixel pass.
// Each stage is skipped when its factors are neutral.
type ColorAdjustFilter struct {
	adj ColorAdjust

	runRGB, runHS, runCB bool

	red, green, blue [256]uint8
	curve            [256]uint8
}

// NewColorAdjustFilter precomputes the lookup tables for adj.
func NewColorAdjustFilter(adj ColorAdjust) *ColorAdjustFilter {
	f := &ColorAdjustFilter{
		adj:    adj,
		runRGB: adj.rgbActive(),
		runHS:  adj.hsActive(),
		runCB:  adj.cbActive(),
	}
	if f.runRGB {
		for i := 0; i < 256; i++ {
			v := float64(i)
			f.red[i] = clamp8(v * (1 + adj.Red))
			f.green[i] = clamp8(v * (1 + adj.Green))
			f.blue[i] = clamp8(v * (1 + adj.Blue))
		}
	}
	if f.runCB {
		for i := 0; i < 256; i++ {
			v := float64(i) / 255 * adj.Brightness
			v = (v-0.5)*adj.Contrast + 0.5
			f.curve[i] = clamp8(v * 255)
		}
	}
	return f
}

// Adjust returns the factors the filter was built with.
func (f *ColorAdjustFilter) Adjust() ColorAdjust { return f.adj }

// Apply implements Transform.
func (f *ColorAdjustFilter) Apply(src *image.NRGBA, progress ProgressFunc) *image.NRGBA {
	return PointFilter{Fn: f.pixel}.Apply(src, progress)
}

func (f *ColorAdjustFilter) pixel(_, _ int, c color.NRGBA) color.NRGBA {
	if f.runRGB {
		c.R, c.G, c.B = f.red[c.R], f.green[c.G], f.blue[c.B]
	}
	if f.runHS {
		c = f.rotateHS(c)
	}
	if f.runCB {
		c.R, c.G, c.B = f.curve[c.R], f.curve[c.G], f.curve[c.B]
	}
	return c
}

func (f *ColorAdjustFilter) rotateHS(c color.NRGBA) color.NRGBA {
	col := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
	h, s, v := col.Hsv()
	h = math.Mod(h+f.adj.Hue*360, 360)
	if h < 0 {
		h += 360
	}
	s = math.Max(0, math.Min(1, s+f.adj.Saturation))
	r, g, b := colorful.Hsv(h, s, v).Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: c.A}
}
