// Package thermfield normalizes raw thermal exports into a uniform in-memory
// representation. Calibrated temperature tables (delimited text, legacy
// spreadsheets) and raster images all become a Field: either a single-channel
// float32 temperature surface or a 3-channel 8-bit display image, never both.
package thermfield

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/carbocation/runningvariance"
)

var (
	// ErrUnreadable indicates the input could not be read or decoded at all:
	// missing file, zero bytes, undecodable image, unsupported extension.
	ErrUnreadable = errors.New("unreadable input")

	// ErrEmpty indicates the input was readable but normalized to a grid with
	// zero rows or zero columns.
	ErrEmpty = errors.New("empty input")
)

type Kind int

const (
	// KindTemperature is a single-channel float32 grid whose values carry
	// physical meaning (degrees, typically Celsius).
	KindTemperature Kind = iota

	// KindDisplay is a 3-channel 8-bit color image with no temperature
	// semantics. It is stored for human viewing only.
	KindDisplay
)

func (k Kind) String() string {
	switch k {
	case KindTemperature:
		return "temperature"
	case KindDisplay:
		return "display"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Stats accumulates one-pass summary statistics over the temperature values
// seen during normalization.
type Stats struct {
	runningvariance.RunningStat
	Min float64
	Max float64
}

func NewStats() *Stats {
	return &Stats{Min: math.Inf(1), Max: math.Inf(-1)}
}

func (s *Stats) Push(x float64) {
	s.RunningStat.Push(x)

	if x < s.Min {
		s.Min = x
	}
	if x > s.Max {
		s.Max = x
	}
}

// Field is one normalized thermal input. Exactly one of Temps or RGB is
// populated, according to Kind. Grids are row-major.
type Field struct {
	Kind Kind
	Rows int
	Cols int

	// Temps holds Rows*Cols temperature values when Kind is KindTemperature.
	// Normalization guarantees no NaN or infinite value survives here.
	Temps []float32

	// RGB holds Rows*Cols*3 interleaved samples when Kind is KindDisplay.
	RGB []uint8

	// Scrubbed counts cells whose value was unparseable, NaN or infinite and
	// was replaced with 0 during normalization.
	Scrubbed int

	// Stats summarizes the temperature values (nil for display fields).
	Stats *Stats
}

// At returns the temperature at row r, column c.
func (f *Field) At(r, c int) float32 {
	return f.Temps[r*f.Cols+c]
}

// Load reads and normalizes the file at path, dispatching on its extension:
// .csv/.tsv/.txt (optionally compressed) parse as delimited tables, .xls as a
// legacy spreadsheet, and the registered raster formats (PNG, JPEG, GIF, BMP,
// TIFF) as images.
func Load(path string) (*Field, error) {
	var field *Field
	var err error

	switch ext := tableExt(path); ext {
	case ".csv", ".tsv", ".txt":
		field, err = LoadTable(path)
	case ".xls":
		field, err = LoadSheet(path)
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff":
		field, err = LoadImage(path)
	default:
		return nil, fmt.Errorf("%w: %s: unsupported file type %q", ErrUnreadable, path, ext)
	}
	if err != nil {
		return nil, err
	}

	if field.Rows < 1 || field.Cols < 1 {
		return nil, fmt.Errorf("%w: %s", ErrEmpty, path)
	}

	return field, nil
}

// tableExt yields the extension that determines the loader, looking beneath
// one layer of compression suffix so that files like field.csv.gz dispatch on
// .csv.
func tableExt(path string) string {
	base := strings.ToLower(filepath.Base(path))
	for _, comp := range []string{".gz", ".bz2", ".xz", ".zip"} {
		if strings.HasSuffix(base, comp) {
			base = strings.TrimSuffix(base, comp)
			break
		}
	}

	return filepath.Ext(base)
}

// scrub maps NaN and infinite values onto the zero sentinel. The boolean
// reports whether a replacement happened.
func scrub(v float64) (float64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, true
	}

	return v, false
}
