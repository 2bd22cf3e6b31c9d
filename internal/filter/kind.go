package filter

import (
	"fmt"
	"strings"
)

// Kind identifies one image filter operation.
type Kind int

const (
	FlipHorizontal Kind = iota
	FlipVertical
	FlipBoth
	Rotate90CW
	Rotate90CCW
	Rotate180
	Invert
	Grayscale
	Red
	Green
	Blue
	Hue
	Saturation
	Contrast
	Brightness
	Sepia
	Solarize
	Posterize
	Emboss
	Edge
	Cartoonize
	Chessboard
	Kaleidoscope
	Marble
	Stamp
	Twirl
	Scale
	Refresh

	kindCount
)

type kindInfo struct {
	name string // CLI / log name
	desc string // human description
	icon string // toolbar icon resource, empty when none exists
}

var kinds = [kindCount]kindInfo{
	FlipHorizontal: {"flip-h", "Mirror", "flip24x24.png"},
	FlipVertical:   {"flip-v", "Flip vertically", ""},
	FlipBoth:       {"flip-hv", "Flip both axes", ""},
	Rotate90CW:     {"rotate-cw", "Rotate right 90 degrees", "rotateright24x24.png"},
	Rotate90CCW:    {"rotate-ccw", "Rotate left 90 degrees", "rotateleft24x24.png"},
	Rotate180:      {"rotate-180", "Rotate 180 degrees", ""},
	Invert:         {"invert", "Negative", "negfilm24x24.png"},
	Grayscale:      {"grayscale", "Grayscale", "gray24x24.png"},
	Red:            {"red", "Red Channel Adjust", "red24x24.png"},
	Green:          {"green", "Green Channel Adjust", "green24x24.png"},
	Blue:           {"blue", "Blue Channel Adjust", "blue24x24.png"},
	Hue:            {"hue", "Hue", "hue24x24.png"},
	Saturation:     {"saturation", "Saturation", "saturation24x24.png"},
	Contrast:       {"contrast", "Contrast", "contrast24x24.png"},
	Brightness:     {"brightness", "Brightness", "brightness24x24.png"},
	Sepia:          {"sepia", "Old Photo", "sepia24x24.png"},
	Solarize:       {"solarize", "Solarize", "sun24x24.png"},
	Posterize:      {"posterize", "Posterize", "monalisa24x24.png"},
	Emboss:         {"emboss", "Emboss", "emboss24x24.png"},
	Edge:           {"edge", "Daemonize", "deamonize24x24.png"},
	Cartoonize:     {"cartoonize", "Cartoonize", "cartoonize24x24.png"},
	Chessboard:     {"chessboard", "Chessboard", "checkboard24x24.png"},
	Kaleidoscope:   {"kaleidoscope", "Kaleidoscope", "kaleidoscope24x24.png"},
	Marble:         {"marble", "Marble", "marble-gold24x24.png"},
	Stamp:          {"stamp", "Stamp", "stamp24x24.png"},
	Twirl:          {"twirl", "Twirl", "twirl24x24.png"},
	Scale:          {"scale", "Change Size", "scale24x24.png"},
	Refresh:        {"refresh", "Reload original image", "refresh24x24.png"},
}

// Kinds returns every kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, kindCount)
	for k := Kind(0); k < kindCount; k++ {
		out = append(out, k)
	}
	return out
}

// Valid reports whether k is a member of the enumeration.
func (k Kind) Valid() bool { return k >= 0 && k < kindCount }

// Name returns the short machine name used on the command line.
func (k Kind) Name() string {
	if !k.Valid() {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kinds[k].name
}

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kinds[k].desc
}

// ParseKind resolves a machine name (case-insensitive) to a Kind.
func ParseKind(name string) (Kind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for k := Kind(0); k < kindCount; k++ {
		if kinds[k].name == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("filter: unknown operation %q", name)
}

// Icon resolves the toolbar icon for k. The second result is false when no
// icon exists for the kind.
func Icon(k Kind) (string, bool) {
	if !k.Valid() || kinds[k].icon == "" {
		return "", false
	}
	return kinds[k].icon, true
}

// IsChannel reports whether k adjusts exactly one of the red, green or blue
// channels.
func (k Kind) IsChannel() bool { return k == Red || k == Green || k == Blue }

// IsColorAdjust reports whether k is handled by the composite colour pass.
func (k Kind) IsColorAdjust() bool { return k >= Red && k <= Brightness }

// IsGeometric reports whether k is a flip or rotation.
func (k Kind) IsGeometric() bool { return k >= FlipHorizontal && k <= Rotate180 }

// ResetsColor reports whether k recomputes pixel colours, which invalidates
// any pending colour adjustment.
func (k Kind) ResetsColor() bool {
	switch k {
	case Invert, Grayscale, Sepia, Solarize, Posterize, Emboss, Edge,
		Cartoonize, Chessboard, Marble, Stamp:
		return true
	}
	return false
}

// AdjustGroup partitions the colour adjustments that share a slider panel.
type AdjustGroup int

const (
	GroupNone AdjustGroup = iota
	GroupRGB
	GroupHS
)

// Group returns the slider group k belongs to.
func (k Kind) Group() AdjustGroup {
	switch k {
	case Red, Green, Blue:
		return GroupRGB
	case Hue, Saturation:
		return GroupHS
	}
	return GroupNone
}
