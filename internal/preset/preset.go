// Package preset defines named operation chains applied in one go.
package preset

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/AnyUserName/bambi-editor/internal/filter"
)

// Step is one operation of a chain. Slider is used by colour adjustments
// (-10..10), Percent by Scale.
type Step struct {
	Kind    filter.Kind
	Slider  int
	Percent int
}

func (s Step) String() string {
	switch {
	case s.Kind.IsColorAdjust():
		return fmt.Sprintf("%s=%d", s.Kind.Name(), s.Slider)
	case s.Kind == filter.Scale:
		return fmt.Sprintf("%s=%d", s.Kind.Name(), s.Percent)
	}
	return s.Kind.Name()
}

// Preset is a named chain plus output parameters.
type Preset struct {
	Name    string
	Steps   []Step
	Quality int // encoding quality 1-100
}

// Built-in presets.
var presets = map[string]Preset{
	"none": {
		Name:    "none",
		Quality: 90,
	},
	"old-photo": {
		Name: "old-photo",
		Steps: []Step{
			{Kind: filter.Sepia},
			{Kind: filter.Contrast, Slider: 2},
			{Kind: filter.Brightness, Slider: -1},
		},
		Quality: 85,
	},
	"mono": {
		Name: "mono",
		Steps: []Step{
			{Kind: filter.Grayscale},
			{Kind: filter.Contrast, Slider: 3},
		},
		Quality: 90,
	},
	"mirror": {
		Name:    "mirror",
		Steps:   []Step{{Kind: filter.FlipHorizontal}},
		Quality: 90,
	},
	"punchy": {
		Name: "punchy",
		Steps: []Step{
			{Kind: filter.Saturation, Slider: 4},
			{Kind: filter.Contrast, Slider: 2},
		},
		Quality: 90,
	},
	"negative": {
		Name:    "negative",
		Steps:   []Step{{Kind: filter.Invert}},
		Quality: 90,
	},
	"thumbnail": {
		Name:    "thumbnail",
		Steps:   []Step{{Kind: filter.Scale, Percent: 25}},
		Quality: 80,
	},
}

// Get returns a preset by name. Falls back to none if unknown.
func Get(name string) Preset {
	if p, ok := presets[name]; ok {
		return p
	}
	p := presets["none"]
	p.Name = name // preserve requested name
	return p
}

// Lookup is Get without the fallback.
func Lookup(name string) (Preset, bool) {
	p, ok := presets[name]
	return p, ok
}

// Names returns all preset names sorted.
func Names() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ParseStep parses "kind" or "kind=value". Colour adjustments and scale
// require a value; other kinds reject one.
func ParseStep(s string) (Step, error) {
	name, value, hasValue := strings.Cut(s, "=")
	k, err := filter.ParseKind(name)
	if err != nil {
		return Step{}, err
	}
	needsValue := k.IsColorAdjust() || k == filter.Scale
	switch {
	case needsValue && !hasValue:
		return Step{}, fmt.Errorf("preset: %s needs a value (%s=N)", k.Name(), k.Name())
	case !needsValue && hasValue:
		return Step{}, fmt.Errorf("preset: %s takes no value", k.Name())
	case !needsValue:
		return Step{Kind: k}, nil
	}

	v, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return Step{}, fmt.Errorf("preset: %s value %q: %w", k.Name(), value, err)
	}
	if k == filter.Scale {
		return Step{Kind: k, Percent: v}, nil
	}
	return Step{Kind: k, Slider: v}, nil
}

// Session is the part of an editing session a chain drives.
type Session interface {
	Apply(k filter.Kind) error
	Adjust(k filter.Kind, slider int) error
	Scale(percent int) error
}

// Run submits every step to s in order.
func Run(s Session, steps []Step) error {
	for _, st := range steps {
		var err error
		switch {
		case st.Kind.IsColorAdjust():
			err = s.Adjust(st.Kind, st.Slider)
		case st.Kind == filter.Scale:
			err = s.Scale(st.Percent)
		default:
			err = s.Apply(st.Kind)
		}
		if err != nil {
			return fmt.Errorf("step %s: %w", st, err)
		}
	}
	return nil
}
