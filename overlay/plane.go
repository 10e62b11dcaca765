package overlay

import (
	"errors"
	"fmt"
)

// ErrShapeMismatch indicates a mask whose shape differs from the image it is
// meant to annotate.
var ErrShapeMismatch = errors.New("overlay shape mismatch")

// Plane is a bit-packed overlay: row-major, 8 pixels per byte with the
// leftmost pixel in the most significant bit, and every row independently
// zero-padded to a byte boundary. The overlay origin is the image origin,
// (1,1) in DICOM's 1-based convention.
type Plane struct {
	Rows int
	Cols int
	Data []byte
}

// BytesPerRow is the packed width including padding bits.
func (p *Plane) BytesPerRow() int {
	return (p.Cols + 7) / 8
}

// Fraction reports the share of image pixels the plane marks, ignoring
// padding bits.
func (p *Plane) Fraction() float64 {
	if p.Rows*p.Cols == 0 {
		return 0
	}

	set := 0
	bpr := p.BytesPerRow()
	for r := 0; r < p.Rows; r++ {
		for c := 0; c < p.Cols; c++ {
			if p.Data[r*bpr+c/8]&(1<<(7-uint(c%8))) != 0 {
				set++
			}
		}
	}

	return float64(set) / float64(p.Rows*p.Cols)
}

// Pack validates the mask against the image shape and packs it. An all-false
// mask is legitimate (an empty region) and packs to an all-zero plane.
func Pack(mask *Mask, rows, cols int) (*Plane, error) {
	if mask.Rows != rows || mask.Cols != cols {
		return nil, fmt.Errorf("%w: mask is %dx%d but image is %dx%d", ErrShapeMismatch, mask.Rows, mask.Cols, rows, cols)
	}
	if len(mask.Bits) != rows*cols {
		return nil, fmt.Errorf("%w: mask holds %d bits for a %dx%d grid", ErrShapeMismatch, len(mask.Bits), rows, cols)
	}

	p := &Plane{Rows: rows, Cols: cols}
	p.Data = make([]byte, rows*p.BytesPerRow())

	bpr := p.BytesPerRow()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if mask.At(r, c) {
				p.Data[r*bpr+c/8] |= 1 << (7 - uint(c%8))
			}
		}
	}

	return p, nil
}

// Unpack expands the plane back into a boolean mask, discarding row padding.
func (p *Plane) Unpack() *Mask {
	m := NewMask(p.Rows, p.Cols)

	bpr := p.BytesPerRow()
	for r := 0; r < p.Rows; r++ {
		for c := 0; c < p.Cols; c++ {
			if p.Data[r*bpr+c/8]&(1<<(7-uint(c%8))) != 0 {
				m.Set(r, c, true)
			}
		}
	}

	return m
}
