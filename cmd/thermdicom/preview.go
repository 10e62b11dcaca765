package main

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/medtherm/thermdicom"
)

// writePreview renders a quick-look image of the calibrated pixels, tinting
// the overlay region so its placement can be checked without a DICOM viewer.
// The format follows the path's extension.
func writePreview(rec *thermdicom.StudyRecord, tint color.RGBA, path string) error {
	img := rec.Image
	out := image.NewNRGBA(image.Rect(0, 0, img.Cols, img.Rows))

	for r := 0; r < img.Rows; r++ {
		for c := 0; c < img.Cols; c++ {
			i := r*img.Cols + c

			var px color.NRGBA
			if img.SamplesPerPixel == 3 {
				px = color.NRGBA{R: img.RGB[i*3], G: img.RGB[i*3+1], B: img.RGB[i*3+2], A: 0xFF}
			} else {
				// Stored values span the full 16-bit range, so the top byte
				// is already a usable 8-bit rendering.
				g := uint8(img.Pixels[i] >> 8)
				px = color.NRGBA{R: g, G: g, B: g, A: 0xFF}
			}
			out.SetNRGBA(c, r, px)
		}
	}

	if rec.Overlay != nil {
		mask := rec.Overlay.Unpack()
		for r := 0; r < img.Rows; r++ {
			for c := 0; c < img.Cols; c++ {
				if !mask.At(r, c) {
					continue
				}

				px := out.NRGBAAt(c, r)
				out.SetNRGBA(c, r, color.NRGBA{
					R: uint8((int(px.R) + int(tint.R)) / 2),
					G: uint8((int(px.G) + int(tint.G)) / 2),
					B: uint8((int(px.B) + int(tint.B)) / 2),
					A: 0xFF,
				})
			}
		}
	}

	return imaging.Save(out, path)
}
