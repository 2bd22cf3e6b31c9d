package filter

import (
	"bytes"
	"image"
	"image/color"
	"testing"
)

// makeNRGBA builds a w x h image where every pixel is distinct.
func makeNRGBA(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8((x * 251) % 256),
				G: uint8((y * 179) % 256),
				B: uint8(((x + y) * 113) % 256),
				A: uint8(255 - (x+y)%7),
			})
		}
	}
	return img
}

func sameImage(a, b *image.NRGBA) bool {
	return a.Bounds().Dx() == b.Bounds().Dx() &&
		a.Bounds().Dy() == b.Bounds().Dy() &&
		bytes.Equal(a.Pix, b.Pix)
}

var geometricModes = []Kind{FlipHorizontal, FlipVertical, FlipBoth, Rotate90CW, Rotate90CCW, Rotate180}

func TestGeometric_SelfInverse(t *testing.T) {
	src := makeNRGBA(7, 5)
	for _, k := range []Kind{FlipHorizontal, FlipVertical, FlipBoth, Rotate180} {
		g := Geometric{Mode: k}
		out := g.Apply(g.Apply(src, nil), nil)
		if !sameImage(src, out) {
			t.Errorf("%s applied twice changed the image", k.Name())
		}
	}
}

func TestGeometric_RotatePairIsIdentity(t *testing.T) {
	src := makeNRGBA(6, 3)
	cw := Geometric{Mode: Rotate90CW}
	ccw := Geometric{Mode: Rotate90CCW}
	if out := ccw.Apply(cw.Apply(src, nil), nil); !sameImage(src, out) {
		t.Error("ccw after cw is not identity")
	}
	if out := cw.Apply(ccw.Apply(src, nil), nil); !sameImage(src, out) {
		t.Error("cw after ccw is not identity")
	}
}

func TestGeometric_Dimensions(t *testing.T) {
	src := makeNRGBA(9, 4)
	for _, k := range geometricModes {
		out := Geometric{Mode: k}.Apply(src, nil)
		w, h := out.Bounds().Dx(), out.Bounds().Dy()
		switch k {
		case FlipBoth, Rotate90CW, Rotate90CCW:
			if w != 4 || h != 9 {
				t.Errorf("%s: got %dx%d, want 4x9", k.Name(), w, h)
			}
		default:
			if w != 9 || h != 4 {
				t.Errorf("%s: got %dx%d, want 9x4", k.Name(), w, h)
			}
		}
	}
}

func TestGeometric_MatchesForwardMapping(t *testing.T) {
	src := makeNRGBA(5, 3)
	for _, k := range geometricModes {
		g := Geometric{Mode: k}
		out := g.Apply(src, nil)
		for y := 0; y < 3; y++ {
			for x := 0; x < 5; x++ {
				dx, dy := g.Map(x, y, 5, 3)
				if got, want := out.NRGBAAt(dx, dy), src.NRGBAAt(x, y); got != want {
					t.Fatalf("%s: (%d,%d)->(%d,%d) got %v, want %v", k.Name(), x, y, dx, dy, got, want)
				}
			}
		}
	}
}

func TestFlipHorizontal_ReversesRows(t *testing.T) {
	src := makeNRGBA(4, 2)
	out := Geometric{Mode: FlipHorizontal}.Apply(src, nil)
	if out.Bounds().Dx() != 4 || out.Bounds().Dy() != 2 {
		t.Fatalf("size: got %v", out.Bounds())
	}
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			if out.NRGBAAt(x, y) != src.NRGBAAt(3-x, y) {
				t.Errorf("row %d col %d not mirrored", y, x)
			}
		}
	}
}

func TestRotate90CW_Origin(t *testing.T) {
	src := makeNRGBA(3, 2)
	out := Geometric{Mode: Rotate90CW}.Apply(src, nil)
	if out.Bounds().Dx() != 2 || out.Bounds().Dy() != 3 {
		t.Fatalf("size: got %dx%d, want 2x3", out.Bounds().Dx(), out.Bounds().Dy())
	}
	if out.NRGBAAt(1, 0) != src.NRGBAAt(0, 0) {
		t.Errorf("(0,0) should land on (1,0)")
	}
	if out.NRGBAAt(0, 2) != src.NRGBAAt(2, 1) {
		t.Errorf("(2,1) should land on (0,2)")
	}
}

func TestGeometric_ProgressMonotonic(t *testing.T) {
	src := makeNRGBA(300, 120)
	for _, k := range geometricModes {
		last := -1
		calls := 0
		Geometric{Mode: k}.Apply(src, func(p int) {
			if p < last {
				t.Fatalf("%s: progress went from %d to %d", k.Name(), last, p)
			}
			last = p
			calls++
		})
		if last != 100 {
			t.Errorf("%s: final progress %d, want 100", k.Name(), last)
		}
		if calls < 3 {
			t.Errorf("%s: expected sampled progress, got %d calls", k.Name(), calls)
		}
	}
}

func TestGeometric_UnknownModePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for non-geometric mode")
		}
	}()
	Geometric{Mode: Invert}.Size(1, 1)
}
