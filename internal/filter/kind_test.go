package filter

import "testing"

func TestParseKind_RoundTrip(t *testing.T) {
	for _, k := range Kinds() {
		got, err := ParseKind(k.Name())
		if err != nil {
			t.Fatalf("%s: %v", k.Name(), err)
		}
		if got != k {
			t.Errorf("%s: parsed %v", k.Name(), got)
		}
	}
	if _, err := ParseKind("swirl"); err == nil {
		t.Error("expected error for unknown kind")
	}
	if k, err := ParseKind("  Rotate-CW "); err != nil || k != Rotate90CW {
		t.Errorf("case/space insensitive parse: %v %v", k, err)
	}
}

func TestIcon_Missing(t *testing.T) {
	if _, ok := Icon(FlipHorizontal); !ok {
		t.Error("flip-h should have an icon")
	}
	for _, k := range []Kind{FlipVertical, FlipBoth, Rotate180} {
		if _, ok := Icon(k); ok {
			t.Errorf("%s should have no icon", k.Name())
		}
	}
}

func TestKindPredicates(t *testing.T) {
	if !Red.IsChannel() || Hue.IsChannel() {
		t.Error("IsChannel")
	}
	if Red.Group() != GroupRGB || Saturation.Group() != GroupHS || Contrast.Group() != GroupNone {
		t.Error("Group")
	}
	if !Brightness.IsColorAdjust() || Sepia.IsColorAdjust() {
		t.Error("IsColorAdjust")
	}
	if !Grayscale.ResetsColor() || Rotate90CW.ResetsColor() {
		t.Error("ResetsColor")
	}
}

func TestOperation_Display(t *testing.T) {
	op := NewColorAdjust(Red, NeutralColorAdjust().With(Red, 0.3), false)
	if op.Display() != "+0.3" {
		t.Errorf("display: %q", op.Display())
	}
	op = NewColorAdjust(Hue, NeutralColorAdjust().With(Hue, -0.5), true)
	if op.Display() != "-0.5" || !op.Rebase() {
		t.Errorf("display: %q rebase=%v", op.Display(), op.Rebase())
	}
	if New(Rotate90CCW).Display() != "-90°" {
		t.Error("rotate ccw display")
	}
	if NewScale(50).Display() != "50 %" {
		t.Error("scale display")
	}
}
