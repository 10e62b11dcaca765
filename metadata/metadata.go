// Package metadata validates and canonicalizes the patient, study and
// acquisition parameters that accompany a thermal capture. Free-form input
// comes in as Fields; Bind turns it into a Bound record whose values are
// safe to hand to the container writer. Hard failures (malformed identifier,
// impossible age, bad date) abort before anything touches disk; recoverable
// gaps are defaulted and flagged so callers can tell a default from a
// supplied value.
package metadata

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultPatientName      = "ANONYMOUS"
	DefaultPatientID        = "UNKNOWN"
	DefaultStudyDescription = "Thermal Medical Imaging"
	DefaultModality         = "TG"
	DefaultAcquisitionMode  = "Medical Thermal Imaging"
)

// Thermal parameter defaults for a typical skin-temperature protocol.
const (
	DefaultEmissivity = "0.98"
	DefaultDistance   = "1.0"
	DefaultAmbient    = "22.0"
	DefaultReflected  = "22.0"
	DefaultHumidity   = "50.0"
	DefaultUnit       = "C"
)

// Fields is the acquisition description as it arrives from CLI flags, a
// manifest row, or site defaults. Everything is a string; Bind validates.
type Fields struct {
	PatientName        string
	PatientID          string
	PatientAge         string
	PatientSex         string
	ReferringPhysician string

	StudyDescription  string
	SeriesDescription string
	StudyID           string
	AccessionNumber   string
	StudyDate         string
	StudyTime         string
	SeriesDate        string
	SeriesTime        string

	Modality        string
	BodyPart        string
	Laterality      string
	ViewPosition    string
	AcquisitionMode string
	CalibrationDate string

	// OrganizationUID is the site's registered UID root. Study, series and
	// instance identifiers are minted beneath it when present.
	OrganizationUID string

	CameraModel     string
	CameraSerial    string
	SoftwareVersion string

	Thermal ThermalParams
}

// ThermalParams are the acquisition-physics constants needed to reinterpret
// a temperature map: what the camera assumed about the target and the room.
type ThermalParams struct {
	Emissivity          string
	DistanceMeters      string
	AmbientC            string
	ReflectedC          string
	RelativeHumidityPct string
	Unit                string
}

// Diagnostic records a soft fallback taken during binding.
type Diagnostic struct {
	Code   string
	Detail string
}

const (
	DiagGeneratedUID        = "generated-organization-uid"
	DiagUIDOutsideRoot      = "uid-minted-outside-root"
	DiagAgePassthrough      = "age-passed-through"
	DiagUncodedBodyPart     = "uncoded-body-part"
	DiagDefaultManufacturer = "defaulted-manufacturer"
	DiagUnknownViewPosition = "unknown-view-position"
	DiagUnknownLaterality   = "unknown-laterality"
	DiagUnknownPatientSex   = "unknown-patient-sex"
	DiagThermalParamDropped = "thermal-parameter-dropped"
)

// Bound is the validated, canonical metadata for one assembly.
type Bound struct {
	PatientName        string
	PatientID          string
	PatientAge         string
	PatientSex         string
	ReferringPhysician string

	StudyDescription  string
	SeriesDescription string
	StudyID           string
	AccessionNumber   string
	StudyDate         string
	StudyTime         string
	SeriesDate        string
	SeriesTime        string

	Modality        string
	BodyPart        string
	Anatomy         *AnatomicCode
	Laterality      string
	ViewPosition    string
	AcquisitionMode string
	CalibrationDate string

	StudyUID    string
	SeriesUID   string
	InstanceUID string

	Manufacturer    string
	CameraModel     string
	CameraSerial    string
	SoftwareVersion string

	Thermal ThermalParams

	Diagnostics []Diagnostic
}

func (b *Bound) diag(code, detail string) {
	b.Diagnostics = append(b.Diagnostics, Diagnostic{Code: code, Detail: detail})
}

// Flagged reports whether binding recorded the given diagnostic code.
func (b *Bound) Flagged(code string) bool {
	for _, d := range b.Diagnostics {
		if d.Code == code {
			return true
		}
	}

	return false
}

// Bind validates fields and produces the canonical record.
func Bind(fields Fields) (*Bound, error) {
	b := &Bound{
		PatientName:        strings.TrimSpace(fields.PatientName),
		PatientID:          strings.TrimSpace(fields.PatientID),
		PatientSex:         strings.ToUpper(strings.TrimSpace(fields.PatientSex)),
		ReferringPhysician: strings.TrimSpace(fields.ReferringPhysician),
		StudyDescription:   strings.TrimSpace(fields.StudyDescription),
		SeriesDescription:  strings.TrimSpace(fields.SeriesDescription),
		StudyID:            strings.TrimSpace(fields.StudyID),
		AccessionNumber:    strings.TrimSpace(fields.AccessionNumber),
		StudyDate:          strings.TrimSpace(fields.StudyDate),
		StudyTime:          strings.TrimSpace(fields.StudyTime),
		SeriesDate:         strings.TrimSpace(fields.SeriesDate),
		SeriesTime:         strings.TrimSpace(fields.SeriesTime),
		Modality:           strings.ToUpper(strings.TrimSpace(fields.Modality)),
		Laterality:         strings.ToUpper(strings.TrimSpace(fields.Laterality)),
		ViewPosition:       strings.ToUpper(strings.TrimSpace(fields.ViewPosition)),
		AcquisitionMode:    strings.TrimSpace(fields.AcquisitionMode),
		CalibrationDate:    strings.TrimSpace(fields.CalibrationDate),
		CameraModel:        strings.TrimSpace(fields.CameraModel),
		CameraSerial:       strings.TrimSpace(fields.CameraSerial),
		SoftwareVersion:    strings.TrimSpace(fields.SoftwareVersion),
		Thermal:            fields.Thermal,
	}

	if b.PatientName == "" {
		b.PatientName = DefaultPatientName
	}
	if b.PatientID == "" {
		b.PatientID = DefaultPatientID
	}
	if b.StudyDescription == "" {
		b.StudyDescription = DefaultStudyDescription
	}
	if b.Modality == "" {
		b.Modality = DefaultModality
	}
	if b.AcquisitionMode == "" {
		b.AcquisitionMode = DefaultAcquisitionMode
	}
	if b.CameraModel == "" {
		b.CameraModel = DefaultModel
	}
	if b.SoftwareVersion == "" {
		b.SoftwareVersion = DefaultSoftware
	}

	age, passthrough, err := FormatAge(fields.PatientAge)
	if err != nil {
		return nil, err
	}
	b.PatientAge = age
	if passthrough {
		b.diag(DiagAgePassthrough, fields.PatientAge)
	}

	if b.PatientSex != "" && !KnownPatientSex(b.PatientSex) {
		b.diag(DiagUnknownPatientSex, b.PatientSex)
	}

	// A study with no date is useless for longitudinal comparison, so the
	// assembly moment stands in when none is supplied.
	now := time.Now()
	if b.StudyDate == "" {
		b.StudyDate = now.Format("20060102")
	}
	if b.StudyTime == "" {
		b.StudyTime = now.Format("150405")
	}
	if b.SeriesDate == "" {
		b.SeriesDate = b.StudyDate
	}
	if b.SeriesTime == "" {
		b.SeriesTime = b.StudyTime
	}

	for _, v := range []struct{ field, value string }{
		{"StudyDate", b.StudyDate},
		{"SeriesDate", b.SeriesDate},
		{"CalibrationDate", b.CalibrationDate},
	} {
		if err := ValidateDate(v.field, v.value); err != nil {
			return nil, err
		}
	}
	for _, v := range []struct{ field, value string }{
		{"StudyTime", b.StudyTime},
		{"SeriesTime", b.SeriesTime},
	} {
		if err := ValidateTime(v.field, v.value); err != nil {
			return nil, err
		}
	}

	root := strings.TrimSpace(fields.OrganizationUID)
	if root != "" {
		if err := ValidateUID(root); err != nil {
			return nil, err
		}
	} else {
		b.diag(DiagGeneratedUID, "no organization uid supplied")
	}
	var underRoot bool
	outsideRoot := false
	if b.StudyUID, underRoot = DeriveUID(root); root != "" && !underRoot {
		outsideRoot = true
	}
	if b.SeriesUID, underRoot = DeriveUID(root); root != "" && !underRoot {
		outsideRoot = true
	}
	if b.InstanceUID, underRoot = DeriveUID(root); root != "" && !underRoot {
		outsideRoot = true
	}
	if outsideRoot {
		b.diag(DiagUIDOutsideRoot, root)
	}

	if label := strings.TrimSpace(fields.BodyPart); label != "" {
		if code, ok := LookupBodyPart(label); ok {
			b.BodyPart = code.BodyPart
			b.Anatomy = &code
		} else {
			b.BodyPart = label
			b.diag(DiagUncodedBodyPart, label)
		}
	}

	if b.Laterality != "" && !KnownLaterality(b.Laterality) {
		b.diag(DiagUnknownLaterality, b.Laterality)
	}
	if b.ViewPosition != "" && !KnownViewPosition(b.ViewPosition) {
		b.diag(DiagUnknownViewPosition, b.ViewPosition)
	}

	var fromModel bool
	if b.Manufacturer, fromModel = ManufacturerFromModel(fields.CameraModel); !fromModel {
		b.diag(DiagDefaultManufacturer, "no camera model supplied")
	}

	b.bindThermal()

	return b, nil
}

// bindThermal defaults missing physics constants and drops unparseable
// ones, since each is written to a decimal-string element.
func (b *Bound) bindThermal() {
	for _, v := range []struct {
		name     string
		value    *string
		fallback string
	}{
		{"emissivity", &b.Thermal.Emissivity, DefaultEmissivity},
		{"distance", &b.Thermal.DistanceMeters, DefaultDistance},
		{"ambient temperature", &b.Thermal.AmbientC, DefaultAmbient},
		{"reflected temperature", &b.Thermal.ReflectedC, DefaultReflected},
		{"relative humidity", &b.Thermal.RelativeHumidityPct, DefaultHumidity},
	} {
		*v.value = strings.TrimSpace(*v.value)
		if *v.value == "" {
			*v.value = v.fallback
			continue
		}
		if _, err := strconv.ParseFloat(*v.value, 64); err != nil {
			b.diag(DiagThermalParamDropped, fmt.Sprintf("%s %q", v.name, *v.value))
			*v.value = ""
		}
	}

	if strings.TrimSpace(b.Thermal.Unit) == "" {
		b.Thermal.Unit = DefaultUnit
	}
}
