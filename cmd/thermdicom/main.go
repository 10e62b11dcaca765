// thermdicom assembles thermal captures (temperature tables or raster
// images) into DICOM secondary-capture files, one per input, with optional
// region-of-interest overlays and site-default metadata.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/icza/gox/imagex/colorx"

	"github.com/medtherm/thermdicom"
	_ "github.com/medtherm/thermdicom/compileinfoprint"
	"github.com/medtherm/thermdicom/metadata"
	"github.com/medtherm/thermdicom/overlay"
	"github.com/medtherm/thermdicom/thermfield"
)

// E.g.: go build -ldflags "-X main.builddate=`date -u +%Y-%m-%d:%H:%M:%S%Z`"
// Consider aliasing in .profile: alias gobuild='go build -ldflags "-X main.builddate=`date -u +%Y-%m-%d:%H:%M:%S%Z`"'
var builddate string

func init() {
	flag.Usage = func() {
		flag.PrintDefaults()

		log.Println("Manifest columns (CSV or TSV, header row required; only input is mandatory):")
		log.Println(strings.Join(manifestColumns, ", "))
	}
}

func main() {
	start := time.Now()
	log.Println("thermdicom start")
	fmt.Fprintf(os.Stderr, "This thermdicom binary was built at: %s\n", builddate)
	defer func() {
		log.Printf("thermdicom end. Took %.2f seconds\n", time.Since(start).Seconds())
	}()

	var input, maskPath, manifest, outDir string
	var defaultsPath, preview, overlayColor, reportPath string
	var fields metadata.Fields

	flag.StringVar(&input, "input", "", "Path to one thermal capture: a delimited temperature table (.csv, .tsv, .txt, .xls, optionally gz/zip/xz/bz2 compressed) or a raster image (.png, .jpg, .gif, .bmp, .tif).")
	flag.StringVar(&manifest, "manifest", "", "(Optional) Path to a batch manifest. When set, -input is ignored and one output is assembled per row.")
	flag.StringVar(&maskPath, "mask", "", "(Optional) Path to a region-of-interest image; nonblack pixels mark the region. Must match the input's dimensions.")
	flag.StringVar(&outDir, "outdir", "thermal_output", "Directory for assembled .dcm files. Created if absent.")
	flag.StringVar(&defaultsPath, "defaults", "", "(Optional) YAML file with site defaults (organization UID, equipment, thermal parameters). Explicit flags win.")
	flag.StringVar(&preview, "preview", "", "(Optional) Also render a quick-look image (.png/.jpg) of the calibrated pixels to this path. Single-input mode only.")
	flag.StringVar(&overlayColor, "overlay-color", "#FF0000", "(Optional) Hex color used to tint the overlay region in the preview.")
	flag.StringVar(&reportPath, "report", "", "(Optional) Assembly report CSV path for manifest mode. Defaults to assembly_report.csv under -outdir.")

	flag.StringVar(&fields.PatientName, "patient-name", "", "Patient name. Defaults to "+metadata.DefaultPatientName+".")
	flag.StringVar(&fields.PatientID, "patient-id", "", "Patient identifier. Defaults to "+metadata.DefaultPatientID+".")
	flag.StringVar(&fields.PatientAge, "patient-age", "", "Patient age in years (0-150).")
	flag.StringVar(&fields.PatientSex, "patient-sex", "", "Patient sex (M, F or O).")
	flag.StringVar(&fields.ReferringPhysician, "referring-physician", "", "Referring physician name.")

	flag.StringVar(&fields.StudyDescription, "study-description", "", "Study description. Defaults to \""+metadata.DefaultStudyDescription+"\".")
	flag.StringVar(&fields.SeriesDescription, "series-description", "", "Series description.")
	flag.StringVar(&fields.StudyID, "study-id", "", "Study identifier.")
	flag.StringVar(&fields.AccessionNumber, "accession", "", "Accession number.")
	flag.StringVar(&fields.StudyDate, "study-date", "", "Study date as YYYYMMDD. Defaults to today.")
	flag.StringVar(&fields.StudyTime, "study-time", "", "Study time as HHMMSS. Defaults to now.")
	flag.StringVar(&fields.Modality, "modality", "", "Modality code. Defaults to "+metadata.DefaultModality+" (thermography).")

	flag.StringVar(&fields.BodyPart, "body-part", "", "Imaged body part. Recognized labels (e.g. breast, hand, foot) also get a coded anatomy entry.")
	flag.StringVar(&fields.Laterality, "laterality", "", "Laterality (L, R or B).")
	flag.StringVar(&fields.ViewPosition, "view", "", "View position code (e.g. A, P, LAT, OBL).")
	flag.StringVar(&fields.AcquisitionMode, "acquisition-mode", "", "Acquisition processing description. Defaults to \""+metadata.DefaultAcquisitionMode+"\".")
	flag.StringVar(&fields.OrganizationUID, "organization-uid", "", "Registered UID root to mint study/series/instance identifiers under. A random UUID-derived root is used when absent.")

	flag.StringVar(&fields.CameraModel, "camera-model", "", "Camera model string; its first word becomes the manufacturer code.")
	flag.StringVar(&fields.CameraSerial, "camera-serial", "", "Camera serial number.")
	flag.StringVar(&fields.SoftwareVersion, "software-version", "", "Acquisition software version.")
	flag.StringVar(&fields.CalibrationDate, "calibration-date", "", "Camera calibration date as YYYYMMDD.")

	flag.StringVar(&fields.Thermal.Emissivity, "emissivity", "", "Assumed target emissivity. Defaults to "+metadata.DefaultEmissivity+".")
	flag.StringVar(&fields.Thermal.DistanceMeters, "distance", "", "Camera-to-target distance in meters. Defaults to "+metadata.DefaultDistance+".")
	flag.StringVar(&fields.Thermal.AmbientC, "ambient", "", "Ambient temperature in Celsius. Defaults to "+metadata.DefaultAmbient+".")
	flag.StringVar(&fields.Thermal.ReflectedC, "reflected", "", "Reflected apparent temperature in Celsius. Defaults to "+metadata.DefaultReflected+".")
	flag.StringVar(&fields.Thermal.RelativeHumidityPct, "humidity", "", "Relative humidity percentage. Defaults to "+metadata.DefaultHumidity+".")
	flag.StringVar(&fields.Thermal.Unit, "unit", "", "Temperature unit of the input values. Defaults to "+metadata.DefaultUnit+".")
	flag.Parse()

	if input == "" && manifest == "" {
		flag.Usage()
		os.Exit(1)
	}

	outDir = thermdicom.ExpandHome(outDir)

	if defaultsPath != "" {
		site, err := metadata.LoadSiteDefaults(thermdicom.ExpandHome(defaultsPath))
		if err != nil {
			log.Fatalln(err)
		}
		fields = site.Apply(fields)
	}

	if manifest != "" {
		if err := runManifest(thermdicom.ExpandHome(manifest), outDir, fields, reportPath); err != nil {
			log.Fatalln(err)
		}

		return
	}

	if err := runOne(thermdicom.ExpandHome(input), thermdicom.ExpandHome(maskPath), fields, outDir, preview, overlayColor); err != nil {
		log.Fatalln(err)
	}
}

func runOne(input, maskPath string, fields metadata.Fields, outDir, preview, overlayColor string) error {
	field, err := thermfield.Load(input)
	if err != nil {
		return err
	}

	var mask *overlay.Mask
	if maskPath != "" {
		if mask, err = overlay.LoadMask(maskPath); err != nil {
			return err
		}
	}

	rec, err := thermdicom.Build(field, mask, fields, thermdicom.SourceName(input))
	if err != nil {
		return err
	}

	outPath, err := thermdicom.Assemble(rec, outDir)
	if err != nil {
		return err
	}
	log.Printf("Wrote %s\n", outPath)

	for _, d := range rec.Meta.Diagnostics {
		log.Printf("Note: %s: %s\n", d.Code, d.Detail)
	}

	if preview != "" {
		tint, err := colorx.ParseHexColor(overlayColor)
		if err != nil {
			return fmt.Errorf("overlay-color %q: %w", overlayColor, err)
		}
		previewPath := thermdicom.ExpandHome(preview)
		if err := writePreview(rec, tint, previewPath); err != nil {
			return err
		}
		log.Printf("Wrote preview %s\n", previewPath)
	}

	return nil
}
