package thermfield

import (
	"fmt"
	"image"
	"image/color"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/disintegration/imaging"
)

// LoadImage decodes a raster file into a Field. Color images become 8-bit
// RGB display fields with any alpha channel dropped. Grayscale and paletted
// images are collapsed to a single luminance channel and tagged as an
// uncalibrated temperature surface, a deliberate approximation for cameras
// that export intensity maps instead of tables.
func LoadImage(path string) (*Field, error) {
	f, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
	}

	return FieldFromImage(img), nil
}

// FieldFromImage normalizes a decoded image. Gray, Gray16 and Paletted
// inputs keep one channel; everything else is normalized to 8-bit RGB.
func FieldFromImage(img image.Image) *Field {
	bounds := img.Bounds()
	rows, cols := bounds.Dy(), bounds.Dx()

	switch src := img.(type) {
	case *image.Gray:
		return luminanceField(rows, cols, func(x, y int) float64 {
			return float64(src.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y)
		})
	case *image.Gray16:
		// 16-bit sources keep their full range rather than being crushed to
		// 8 bits; the calibration encoder rescales whatever range it sees.
		return luminanceField(rows, cols, func(x, y int) float64 {
			return float64(src.Gray16At(bounds.Min.X+x, bounds.Min.Y+y).Y)
		})
	case *image.Paletted:
		return luminanceField(rows, cols, func(x, y int) float64 {
			return float64(color.GrayModel.Convert(src.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray).Y)
		})
	}

	// Clone normalizes any other decoded format to NRGBA at the origin.
	rgba := imaging.Clone(img)

	field := &Field{
		Kind: KindDisplay,
		Rows: rows,
		Cols: cols,
		RGB:  make([]uint8, rows*cols*3),
	}
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			px := rgba.NRGBAAt(x, y)
			i := (y*cols + x) * 3
			field.RGB[i], field.RGB[i+1], field.RGB[i+2] = px.R, px.G, px.B
		}
	}

	return field
}

func luminanceField(rows, cols int, at func(x, y int) float64) *Field {
	field := &Field{
		Kind:  KindTemperature,
		Rows:  rows,
		Cols:  cols,
		Temps: make([]float32, rows*cols),
		Stats: NewStats(),
	}

	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			v := at(x, y)
			field.Temps[y*cols+x] = float32(v)
			field.Stats.Push(v)
		}
	}

	return field
}
