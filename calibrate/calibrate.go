// Package calibrate quantizes normalized thermal fields into the integer
// pixel grids a DICOM file stores, together with the affine rescale pair that
// makes the stored values recoverable as temperatures.
package calibrate

import (
	"fmt"
	"math"

	"github.com/medtherm/thermdicom/thermfield"
)

const maxStored = math.MaxUint16

// Rescale is the affine map between stored pixel values and physical units:
// temperature = pixel*Slope + Intercept.
type Rescale struct {
	Slope     float64
	Intercept float64
}

// StoredToTemperature recovers the temperature a stored pixel encodes.
func (r Rescale) StoredToTemperature(pixel float64) float64 {
	return pixel*r.Slope + r.Intercept
}

// StoredFromTemperature quantizes a temperature to the nearest stored pixel,
// clamping out-of-range values to the edges of the stored range.
func (r Rescale) StoredFromTemperature(v float64) uint16 {
	pixel := math.Round((v - r.Intercept) / r.Slope)

	switch {
	case math.IsNaN(pixel), pixel < 0:
		return 0
	case pixel > maxStored:
		return maxStored
	}

	return uint16(pixel)
}

// Image is a calibrated pixel grid ready for container binding. Temperature
// fields become 16-bit MONOCHROME2 with a rescale pair; display fields
// become 8-bit RGB with their samples copied through unchanged.
type Image struct {
	Rows            int
	Cols            int
	BitsAllocated   int
	SamplesPerPixel int
	Photometric     string

	// Pixels holds Rows*Cols stored values for monochrome images.
	Pixels []uint16

	// RGB holds Rows*Cols*3 interleaved samples for display images.
	RGB []uint8

	// Rescale and Window are only meaningful when HasRescale is true.
	Rescale    Rescale
	HasRescale bool
	Window     Window
}

// Encode quantizes a field using, for temperature fields, the observed
// min/max as the stored range.
func Encode(field *thermfield.Field) (*Image, error) {
	switch field.Kind {
	case thermfield.KindDisplay:
		return encodeDisplay(field), nil
	case thermfield.KindTemperature:
		return encodeTemperature(field, field.Stats.Min, field.Stats.Max)
	}

	return nil, fmt.Errorf("unknown field kind %v", field.Kind)
}

// EncodeRange quantizes a temperature field against an explicit range, for
// callers that want consistent calibration across a series of captures.
// Values outside the range clamp to its edges.
func EncodeRange(field *thermfield.Field, min, max float64) (*Image, error) {
	if field.Kind != thermfield.KindTemperature {
		return nil, fmt.Errorf("explicit temperature range requires a temperature field, got %v", field.Kind)
	}
	if math.IsNaN(min) || math.IsNaN(max) || math.IsInf(min, 0) || math.IsInf(max, 0) {
		return nil, fmt.Errorf("temperature range [%v, %v] is not finite", min, max)
	}
	if max < min {
		return nil, fmt.Errorf("temperature range [%v, %v] is inverted", min, max)
	}

	return encodeTemperature(field, min, max)
}

func encodeTemperature(field *thermfield.Field, min, max float64) (*Image, error) {
	if field.Rows < 1 || field.Cols < 1 || len(field.Temps) != field.Rows*field.Cols {
		return nil, fmt.Errorf("malformed %dx%d temperature field with %d values", field.Rows, field.Cols, len(field.Temps))
	}

	slope := (max - min) / maxStored
	if slope == 0 {
		// A single-valued field carries no span. Slope 1 keeps the map
		// invertible: every pixel stores 0 and reads back as the intercept.
		slope = 1.0
	}

	img := &Image{
		Rows:            field.Rows,
		Cols:            field.Cols,
		BitsAllocated:   16,
		SamplesPerPixel: 1,
		Photometric:     "MONOCHROME2",
		Pixels:          make([]uint16, len(field.Temps)),
		Rescale:         Rescale{Slope: slope, Intercept: min},
		HasRescale:      true,
		Window:          deriveWindow(field),
	}

	for i, v := range field.Temps {
		img.Pixels[i] = img.Rescale.StoredFromTemperature(float64(v))
	}

	return img, nil
}

func encodeDisplay(field *thermfield.Field) *Image {
	return &Image{
		Rows:            field.Rows,
		Cols:            field.Cols,
		BitsAllocated:   8,
		SamplesPerPixel: 3,
		Photometric:     "RGB",
		RGB:             append([]uint8(nil), field.RGB...),
	}
}
