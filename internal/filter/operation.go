package filter

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

// ColorAdjust holds every factor of the composite colour pass.
//
// Red, Green, Blue, Hue and Saturation are additive in [-1, 1] with a neutral
// value of 0. Contrast and Brightness are multiplicative with a neutral value
// of 1.
type ColorAdjust struct {
	Red, Green, Blue     float64
	Hue, Saturation      float64
	Contrast, Brightness float64
}

// NeutralColorAdjust returns the identity adjustment.
func NeutralColorAdjust() ColorAdjust {
	return ColorAdjust{Contrast: 1, Brightness: 1}
}

func (a ColorAdjust) rgbActive() bool { return a.Red != 0 || a.Green != 0 || a.Blue != 0 }
func (a ColorAdjust) hsActive() bool  { return a.Hue != 0 || a.Saturation != 0 }
func (a ColorAdjust) cbActive() bool  { return a.Contrast != 1 || a.Brightness != 1 }

// IsNeutral reports whether applying a would leave every pixel unchanged.
func (a ColorAdjust) IsNeutral() bool {
	return !a.rgbActive() && !a.hsActive() && !a.cbActive()
}

// ResetRGB returns a copy with the channel factors cleared.
func (a ColorAdjust) ResetRGB() ColorAdjust {
	a.Red, a.Green, a.Blue = 0, 0, 0
	return a
}

// ResetHS returns a copy with hue and saturation cleared.
func (a ColorAdjust) ResetHS() ColorAdjust {
	a.Hue, a.Saturation = 0, 0
	return a
}

// ResetCB returns a copy with contrast and brightness restored to 1.
func (a ColorAdjust) ResetCB() ColorAdjust {
	a.Contrast, a.Brightness = 1, 1
	return a
}

// With returns a copy with the factor addressed by k set to v. Kinds outside
// the colour group leave a unchanged.
func (a ColorAdjust) With(k Kind, v float64) ColorAdjust {
	switch k {
	case Red:
		a.Red = v
	case Green:
		a.Green = v
	case Blue:
		a.Blue = v
	case Hue:
		a.Hue = v
	case Saturation:
		a.Saturation = v
	case Contrast:
		a.Contrast = v
	case Brightness:
		a.Brightness = v
	}
	return a
}

// Factor returns the factor addressed by k.
func (a ColorAdjust) Factor(k Kind) float64 {
	switch k {
	case Red:
		return a.Red
	case Green:
		return a.Green
	case Blue:
		return a.Blue
	case Hue:
		return a.Hue
	case Saturation:
		return a.Saturation
	case Contrast:
		return a.Contrast
	case Brightness:
		return a.Brightness
	}
	return 0
}

func (a ColorAdjust) String() string {
	return fmt.Sprintf("r: %.1f, g: %.1f, b: %.1f, h: %.1f, s: %.1f, c: %.1f, b: %.1f",
		a.Red, a.Green, a.Blue, a.Hue, a.Saturation, a.Contrast, a.Brightness)
}

// Operation describes one filter request. It is immutable once built; to
// change parameters construct a new one. Every constructor call yields a
// fresh ID, which follows the request through the queue and onto the
// lifecycle events it causes.
type Operation struct {
	id      string
	kind    Kind
	adjust  ColorAdjust
	percent int
	rebase  bool
	display string
}

// New returns an operation for a kind that takes no parameters.
func New(kind Kind) Operation {
	op := Operation{id: uuid.NewString(), kind: kind, adjust: NeutralColorAdjust()}
	switch kind {
	case Rotate90CW:
		op.display = "+90°"
	case Rotate90CCW:
		op.display = "-90°"
	case Rotate180:
		op.display = "180°"
	}
	return op
}

// NewColorAdjust returns a composite colour operation. current names the
// factor the user touched last and is carried for display and coalescing
// only; all factors of adj are applied. When rebase is set the worker first
// promotes the current modified image to the adjustment reference.
func NewColorAdjust(current Kind, adj ColorAdjust, rebase bool) Operation {
	v := adj.Factor(current)
	display := strconv.FormatFloat(v, 'f', -1, 64)
	if v >= 0 {
		display = "+" + display
	}
	return Operation{id: uuid.NewString(), kind: current, adjust: adj, rebase: rebase, display: display}
}

// NewScale returns a resample operation to percent of the current size.
func NewScale(percent int) Operation {
	return Operation{
		id:      uuid.NewString(),
		kind:    Scale,
		adjust:  NeutralColorAdjust(),
		percent: percent,
		display: strconv.Itoa(percent) + " %",
	}
}

func (o Operation) ID() string          { return o.id }
func (o Operation) Kind() Kind          { return o.kind }
func (o Operation) Adjust() ColorAdjust { return o.adjust }
func (o Operation) Percent() int        { return o.percent }
func (o Operation) Rebase() bool        { return o.rebase }
func (o Operation) Display() string     { return o.display }

func (o Operation) String() string {
	if o.display == "" {
		return o.kind.String()
	}
	return o.kind.String() + " " + o.display
}
