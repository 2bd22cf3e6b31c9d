package hasher

import (
	"encoding/binary"
	"encoding/hex"
	"image"
	"io"

	"github.com/cespare/xxhash/v2"
)

// ContentHash computes the xxHash64 of data and returns a hex string
// truncated to the given length.
func ContentHash(data []byte, hexLen int) string {
	return truncate(xxhash.Sum64(data), hexLen)
}

// ContentHashReader computes xxHash64 from a reader, streaming.
func ContentHashReader(r io.Reader, hexLen int) (string, error) {
	h := xxhash.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return truncate(h.Sum64(), hexLen), nil
}

// PixelHash fingerprints the visible pixels of img together with its
// dimensions, so a transposed buffer never collides with the original.
// Rows are hashed individually; padding beyond the stride is ignored.
func PixelHash(img *image.NRGBA, hexLen int) string {
	b := img.Bounds()
	h := xxhash.New()

	var dims [16]byte
	binary.BigEndian.PutUint64(dims[:8], uint64(b.Dx()))
	binary.BigEndian.PutUint64(dims[8:], uint64(b.Dy()))
	h.Write(dims[:])

	rowLen := b.Dx() * 4
	for y := b.Min.Y; y < b.Max.Y; y++ {
		i := img.PixOffset(b.Min.X, y)
		h.Write(img.Pix[i : i+rowLen])
	}
	return truncate(h.Sum64(), hexLen)
}

func truncate(v uint64, hexLen int) string {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	full := hex.EncodeToString(b[:])
	if hexLen > 0 && hexLen < len(full) {
		return full[:hexLen]
	}
	return full
}
