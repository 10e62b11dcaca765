package metadata

import "strings"

const (
	// DefaultManufacturer stands in when no camera model is supplied.
	DefaultManufacturer = "THERMAL_IMAGING"

	// DefaultModel stands in for ManufacturerModelName.
	DefaultModel = "Thermal Camera"

	// DefaultSoftware identifies this assembler in SoftwareVersions.
	DefaultSoftware = "thermdicom 1.0"
)

// ManufacturerFromModel extracts a manufacturer from a free-text camera
// model as its first whitespace-separated token, upper-cased: "FLIR T540"
// yields "FLIR". The second return reports whether the model supplied one
// or the default was used.
func ManufacturerFromModel(model string) (string, bool) {
	fields := strings.Fields(model)
	if len(fields) == 0 {
		return DefaultManufacturer, false
	}

	return strings.ToUpper(fields[0]), true
}
