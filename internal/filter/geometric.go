package filter

import (
	"fmt"
	"image"
)

// Geometric flips or rotates an image by a fixed coordinate mapping.
//
//	FlipHorizontal (x,y) -> (w-1-x, y)
//	FlipVertical   (x,y) -> (x, h-1-y)
//	FlipBoth       (x,y) -> (y, x)          output h x w
//	Rotate90CW     (x,y) -> (h-1-y, x)      output h x w
//	Rotate90CCW    (x,y) -> (y, w-1-x)      output h x w
//	Rotate180      (x,y) -> (w-1-x, h-1-y)
type Geometric struct {
	Mode Kind
}

// Size returns the output dimensions for a w x h source.
func (g Geometric) Size(w, h int) (int, int) {
	switch g.Mode {
	case FlipBoth, Rotate90CW, Rotate90CCW:
		return h, w
	case FlipHorizontal, FlipVertical, Rotate180:
		return w, h
	}
	panic(fmt.Sprintf("filter: %s is not a geometric mode", g.Mode.Name()))
}

// Map returns the destination of source pixel (x, y) in a w x h image.
func (g Geometric) Map(x, y, w, h int) (int, int) {
	switch g.Mode {
	case FlipHorizontal:
		return w - 1 - x, y
	case FlipVertical:
		return x, h - 1 - y
	case FlipBoth:
		return y, x
	case Rotate90CW:
		return h - 1 - y, x
	case Rotate90CCW:
		return y, w - 1 - x
	case Rotate180:
		return w - 1 - x, h - 1 - y
	}
	panic(fmt.Sprintf("filter: %s is not a geometric mode", g.Mode.Name()))
}

// source is the inverse of Map: the source pixel that lands on (dx, dy).
func (g Geometric) source(dx, dy, w, h int) (int, int) {
	switch g.Mode {
	case FlipHorizontal:
		return w - 1 - dx, dy
	case FlipVertical:
		return dx, h - 1 - dy
	case FlipBoth:
		return dy, dx
	case Rotate90CW:
		return dy, h - 1 - dx
	case Rotate90CCW:
		return w - 1 - dy, dx
	case Rotate180:
		return w - 1 - dx, h - 1 - dy
	}
	panic(fmt.Sprintf("filter: %s is not a geometric mode", g.Mode.Name()))
}

// Apply implements Transform. It walks the destination in index order so
// sampled progress rises monotonically.
func (g Geometric) Apply(src *image.NRGBA, progress ProgressFunc) *image.NRGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	nw, nh := g.Size(w, h)
	dst := image.NewNRGBA(image.Rect(0, 0, nw, nh))

	total := nw * nh
	for dy := 0; dy < nh; dy++ {
		for dx := 0; dx < nw; dx++ {
			sx, sy := g.source(dx, dy, w, h)
			si := src.PixOffset(b.Min.X+sx, b.Min.Y+sy)
			di := dst.PixOffset(dx, dy)
			copy(dst.Pix[di:di+4], src.Pix[si:si+4])

			if idx := dy*nw + dx; idx%ProgressPixels == 0 {
				report(progress, idx*100/total)
			}
		}
	}
	report(progress, 100)
	return dst
}
