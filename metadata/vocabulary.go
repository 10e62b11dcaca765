package metadata

import "strings"

// AnatomicCode ties a body-part label to its SNOMED CT concept and the
// container's defined term for BodyPartExamined.
type AnatomicCode struct {
	Value    string // SNOMED CT concept ID
	Scheme   string // coding scheme designator
	Meaning  string // human-readable code meaning
	BodyPart string // BodyPartExamined defined term
}

// bodyParts is the process-wide controlled vocabulary for thermography
// targets, keyed by the upper-cased label a technologist types. The map is
// read-only after initialization and safe for concurrent lookups.
var bodyParts = map[string]AnatomicCode{
	"BREAST":     {Value: "76752008", Scheme: "SCT", Meaning: "Breast structure", BodyPart: "BREAST"},
	"HAND":       {Value: "85562004", Scheme: "SCT", Meaning: "Hand structure", BodyPart: "HAND"},
	"FOOT":       {Value: "56459004", Scheme: "SCT", Meaning: "Foot structure", BodyPart: "FOOT"},
	"FACE":       {Value: "89545001", Scheme: "SCT", Meaning: "Face structure", BodyPart: "FACE"},
	"CHEST":      {Value: "51185008", Scheme: "SCT", Meaning: "Thoracic structure", BodyPart: "CHEST"},
	"ABDOMEN":    {Value: "113345001", Scheme: "SCT", Meaning: "Abdominal structure", BodyPart: "ABDOMEN"},
	"BACK":       {Value: "77568009", Scheme: "SCT", Meaning: "Back structure", BodyPart: "BACK"},
	"WHOLE BODY": {Value: "38266002", Scheme: "SCT", Meaning: "Entire body as a whole", BodyPart: "WHOLEBODY"},
	"WHOLEBODY":  {Value: "38266002", Scheme: "SCT", Meaning: "Entire body as a whole", BodyPart: "WHOLEBODY"},
}

// LookupBodyPart finds the coded anatomy for a label, case-insensitively.
// A miss is not an error; free-text body parts are legal, they just go
// uncoded.
func LookupBodyPart(label string) (AnatomicCode, bool) {
	code, ok := bodyParts[strings.ToUpper(strings.TrimSpace(label))]

	return code, ok
}

// The code sets below mirror the pick lists thermography consoles offer.
// Unknown values are carried through with a diagnostic rather than rejected,
// since sites extend these locally.

var viewPositions = map[string]bool{
	"A": true, "P": true, "L": true, "R": true,
	"OBL": true, "LAT": true, "PA": true, "AP": true,
	"FFS": true, "HFS": true, "HFP": true, "FFP": true,
	"HFDL": true, "HFDR": true, "FFDL": true, "FFDR": true,
}

var lateralities = map[string]bool{"L": true, "R": true, "B": true}

var patientSexes = map[string]bool{"M": true, "F": true, "O": true}

func KnownViewPosition(v string) bool { return viewPositions[v] }

func KnownLaterality(v string) bool { return lateralities[v] }

func KnownPatientSex(v string) bool { return patientSexes[v] }
