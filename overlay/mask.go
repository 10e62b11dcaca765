// Package overlay turns boolean region-of-interest masks into the bit-packed
// planes a DICOM overlay group stores, and back.
package overlay

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"

	"github.com/carbocation/pfx"
)

// Mask is a row-major boolean grid marking the pixels inside a region of
// interest.
type Mask struct {
	Rows int
	Cols int
	Bits []bool
}

func NewMask(rows, cols int) *Mask {
	return &Mask{Rows: rows, Cols: cols, Bits: make([]bool, rows*cols)}
}

func (m *Mask) At(r, c int) bool {
	return m.Bits[r*m.Cols+c]
}

func (m *Mask) Set(r, c int, v bool) {
	m.Bits[r*m.Cols+c] = v
}

// Fraction reports the share of pixels inside the region.
func (m *Mask) Fraction() float64 {
	if len(m.Bits) == 0 {
		return 0
	}

	set := 0
	for _, b := range m.Bits {
		if b {
			set++
		}
	}

	return float64(set) / float64(len(m.Bits))
}

// FromImage thresholds an image into a mask: a pixel is inside the region
// when its luminance exceeds threshold. Segmentation tools export masks as
// black-and-white rasters, so half scale cleanly separates the two even when
// lossy compression has blurred the edges.
func FromImage(img image.Image, threshold uint8) *Mask {
	bounds := img.Bounds()
	m := NewMask(bounds.Dy(), bounds.Dx())

	cutoff := uint32(threshold) << 8
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			luminance := (299*r + 587*g + 114*b) / 1000
			if luminance > cutoff {
				m.Set(y-bounds.Min.Y, x-bounds.Min.X, true)
			}
		}
	}

	return m
}

// LoadMask reads a raster file and thresholds it at half scale. The image
// decoder swallows i/o errors, so the file is read fully into memory first
// and decoded from there.
func LoadMask(path string) (*Mask, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer f.Close()

	imgBytes, err := io.ReadAll(f)
	if err != nil {
		return nil, pfx.Err(err)
	}

	img, _, err := image.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		return nil, fmt.Errorf("%s: %v", path, err)
	}

	return FromImage(img, 127), nil
}
