package filter

import (
	"image"
	"math"

	perlin "github.com/aquilax/go-perlin"
)

// InverseMap returns the source coordinate sampled for destination (x, y).
type InverseMap func(x, y float64) (sx, sy float64)

// Warp resamples an image through an inverse coordinate mapping with
// bilinear interpolation. Source coordinates outside the image wrap around.
type Warp struct {
	Map InverseMap
}

// Apply implements Transform.
func (wp Warp) Apply(src *image.NRGBA, progress ProgressFunc) *image.NRGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		report(progress, 100)
		return dst
	}

	for y := 0; y < h; y++ {
		di := dst.PixOffset(0, y)
		for x := 0; x < w; x++ {
			sx, sy := wp.Map(float64(x), float64(y))
			p := di + x*4
			bilinear(src, sx, sy, dst.Pix[p:p+4:p+4])
		}
		if y%ProgressRows == 0 {
			report(progress, y*100/h)
		}
	}
	report(progress, 100)
	return dst
}

func wrap(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}

// bilinear samples src at (sx, sy) into out. Integral coordinates return
// the source pixel unchanged.
func bilinear(src *image.NRGBA, sx, sy float64, out []uint8) {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	fx, fy := math.Floor(sx), math.Floor(sy)
	tx, ty := sx-fx, sy-fy
	x0, y0 := wrap(int(fx), w), wrap(int(fy), h)
	x1, y1 := wrap(x0+1, w), wrap(y0+1, h)

	p00 := src.PixOffset(b.Min.X+x0, b.Min.Y+y0)
	p10 := src.PixOffset(b.Min.X+x1, b.Min.Y+y0)
	p01 := src.PixOffset(b.Min.X+x0, b.Min.Y+y1)
	p11 := src.PixOffset(b.Min.X+x1, b.Min.Y+y1)
	for c := 0; c < 4; c++ {
		top := float64(src.Pix[p00+c])*(1-tx) + float64(src.Pix[p10+c])*tx
		bot := float64(src.Pix[p01+c])*(1-tx) + float64(src.Pix[p11+c])*tx
		out[c] = clamp8(top*(1-ty) + bot*ty)
	}
}

// TwirlWarp rotates pixels about the image centre. The rotation is Angle
// radians at the centre and falls off linearly to zero at Radius times the
// longer side.
type TwirlWarp struct {
	Angle  float64
	Radius float64
}

// Apply implements Transform.
func (t TwirlWarp) Apply(src *image.NRGBA, progress ProgressFunc) *image.NRGBA {
	b := src.Bounds()
	cx, cy := float64(b.Dx())/2, float64(b.Dy())/2
	radius := t.Radius * float64(max(b.Dx(), b.Dy()))
	r2 := radius * radius

	return Warp{Map: func(x, y float64) (float64, float64) {
		dx, dy := x-cx, y-cy
		d2 := dx*dx + dy*dy
		if d2 > r2 || radius == 0 {
			return x, y
		}
		d := math.Sqrt(d2)
		a := math.Atan2(dy, dx) + t.Angle*(radius-d)/radius
		return cx + d*math.Cos(a), cy + d*math.Sin(a)
	}}.Apply(src, progress)
}

// KaleidoscopeWarp folds the image into Sides mirrored wedges around the
// centre.
type KaleidoscopeWarp struct {
	Sides int
	Angle float64
}

// Apply implements Transform.
func (k KaleidoscopeWarp) Apply(src *image.NRGBA, progress ProgressFunc) *image.NRGBA {
	b := src.Bounds()
	cx, cy := float64(b.Dx())/2, float64(b.Dy())/2
	sides := float64(max(k.Sides, 1))

	return Warp{Map: func(x, y float64) (float64, float64) {
		dx, dy := x-cx, y-cy
		r := math.Hypot(dx, dy)
		theta := math.Atan2(dy, dx) - k.Angle
		theta = triangle(theta/math.Pi*sides*0.5) + k.Angle
		return cx + r*math.Cos(theta), cy + r*math.Sin(theta)
	}}.Apply(src, progress)
}

// triangle is a unit triangle wave: 0 at integers, 1 at half integers.
func triangle(x float64) float64 {
	r := x - math.Floor(x)
	if r < 0.5 {
		return 2 * r
	}
	return 2 * (1 - r)
}

// MarbleWarp displaces pixels along a Perlin noise field, which streaks the
// image like veined stone.
type MarbleWarp struct {
	Scale      float64 // noise cell size in pixels
	Turbulence float64
	Seed       int64
}

// Apply implements Transform.
func (m MarbleWarp) Apply(src *image.NRGBA, progress ProgressFunc) *image.NRGBA {
	scale := m.Scale
	if scale <= 0 {
		scale = 1
	}
	var sinT, cosT [256]float64
	for i := range sinT {
		a := 2 * math.Pi * float64(i) / 256 * m.Turbulence
		sinT[i] = -scale * math.Sin(a)
		cosT[i] = scale * math.Cos(a)
	}
	noise := perlin.NewPerlin(2, 2, 3, m.Seed)

	return Warp{Map: func(x, y float64) (float64, float64) {
		d := clampInt(int(127 * (1 + noise.Noise2D(x/scale, y/scale))))
		return x + sinT[d], y + cosT[d]
	}}.Apply(src, progress)
}
