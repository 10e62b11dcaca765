package thermdicom

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/carbocation/pfx"
	"github.com/suyashkumar/dicom"

	"github.com/medtherm/thermdicom/calibrate"
	"github.com/medtherm/thermdicom/metadata"
	"github.com/medtherm/thermdicom/overlay"
	"github.com/medtherm/thermdicom/thermfield"
)

// maxNameAttempts bounds the collision-suffix search when a capture for the
// same patient lands twice within one second.
const maxNameAttempts = 100

// Build runs one capture through the full pipeline short of disk: calibrate
// the field, pack the optional region mask against the calibrated shape, and
// bind the metadata. Any validation failure aborts here, before an output
// file exists.
func Build(field *thermfield.Field, mask *overlay.Mask, fields metadata.Fields, sourceName string) (*StudyRecord, error) {
	img, err := calibrate.Encode(field)
	if err != nil {
		return nil, err
	}

	rec := &StudyRecord{Image: img, SourceName: sourceName}

	if mask != nil {
		if rec.Overlay, err = overlay.Pack(mask, img.Rows, img.Cols); err != nil {
			return nil, err
		}
	}

	if rec.Meta, err = metadata.Bind(fields); err != nil {
		return nil, err
	}

	return rec, nil
}

// Assemble serializes a record and writes it beneath dir, returning the
// created path. The whole byte stream is produced in memory first; the
// destination file only comes into existence once serialization has
// succeeded, so a failure never leaves a truncated file behind.
func Assemble(rec *StudyRecord, dir string) (string, error) {
	ds, err := BuildDataset(rec)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := dicom.Write(&buf, ds, dicom.SkipVRVerification()); err != nil {
		return "", fmt.Errorf("%w: %v", ErrWriteFailure, err)
	}

	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return "", pfx.Err(err)
	}

	path, f, err := createUnique(dir, OutputName(rec.Meta.PatientID, rec.SourceName, time.Now()))
	if err != nil {
		return "", err
	}

	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		os.Remove(path)

		return "", pfx.Err(err)
	}
	if err := f.Close(); err != nil {
		return "", pfx.Err(err)
	}

	return path, nil
}

// AssembleFile is the path-level entry point used by the command line tools:
// normalize the input, load the optional mask, then Build and Assemble.
func AssembleFile(inputPath, maskPath string, fields metadata.Fields, dir string) (string, error) {
	field, err := thermfield.Load(inputPath)
	if err != nil {
		return "", err
	}

	var mask *overlay.Mask
	if maskPath != "" {
		if mask, err = overlay.LoadMask(maskPath); err != nil {
			return "", err
		}
	}

	rec, err := Build(field, mask, fields, SourceName(inputPath))
	if err != nil {
		return "", err
	}

	return Assemble(rec, dir)
}

// SourceName is an input path's base name with its final extension removed,
// the form embedded in output file names.
func SourceName(path string) string {
	base := filepath.Base(path)

	return strings.TrimSuffix(base, filepath.Ext(base))
}

// OutputName derives the output file name for a record assembled at the
// given moment. Spaces in the patient identifier become underscores so the
// name stays shell-friendly.
func OutputName(patientID, sourceName string, now time.Time) string {
	id := strings.TrimSpace(patientID)
	if id == "" {
		id = metadata.DefaultPatientID
	}
	id = strings.ReplaceAll(id, " ", "_")

	return fmt.Sprintf("thermal_%s_%s_%s.dcm", id, sourceName, now.Format("20060102_150405"))
}

// createUnique opens a brand-new file for the given name, appending a
// numeric suffix rather than ever overwriting an existing output.
func createUnique(dir, name string) (string, *os.File, error) {
	base := strings.TrimSuffix(name, ".dcm")

	for attempt := 1; attempt <= maxNameAttempts; attempt++ {
		candidate := name
		if attempt > 1 {
			candidate = fmt.Sprintf("%s_%d.dcm", base, attempt)
		}

		path := filepath.Join(dir, candidate)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			return path, f, nil
		}
		if !os.IsExist(err) {
			return "", nil, pfx.Err(err)
		}
	}

	return "", nil, fmt.Errorf("no free output name for %s after %d attempts", name, maxNameAttempts)
}
