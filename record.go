// Package thermdicom assembles normalized thermal fields, bit-packed region
// overlays and bound acquisition metadata into DICOM secondary-capture
// files. The heavy lifting lives in the subpackages (thermfield, calibrate,
// overlay, metadata); this package binds their outputs to the container and
// owns output naming.
package thermdicom

import (
	"github.com/medtherm/thermdicom/calibrate"
	"github.com/medtherm/thermdicom/metadata"
	"github.com/medtherm/thermdicom/overlay"
)

// StudyRecord is everything that goes into one output file. It is built
// fresh per assembly, never mutated afterward, and written exactly once.
type StudyRecord struct {
	Image   *calibrate.Image
	Overlay *overlay.Plane // nil when no region of interest was supplied
	Meta    *metadata.Bound

	// SourceName is the base name of the measurement input, carried into
	// the output file name.
	SourceName string
}
