// thermverify inspects an assembled DICOM file and checks that its stored
// pixels, rescale pair, private calibration range and overlay plane are
// mutually consistent.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/carbocation/pfx"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/medtherm/thermdicom"
	"github.com/medtherm/thermdicom/calibrate"
	_ "github.com/medtherm/thermdicom/compileinfoprint"
	"github.com/medtherm/thermdicom/overlay"
)

// E.g.: go build -ldflags "-X main.builddate=`date -u +%Y-%m-%d:%H:%M:%S%Z`"
// Consider aliasing in .profile: alias gobuild='go build -ldflags "-X main.builddate=`date -u +%Y-%m-%d:%H:%M:%S%Z`"'
var builddate string

func main() {
	start := time.Now()
	log.Println("thermverify start")
	fmt.Fprintf(os.Stderr, "This thermverify binary was built at: %s\n", builddate)
	defer func() {
		log.Printf("thermverify end. Took %.2f seconds\n", time.Since(start).Seconds())
	}()

	var input string

	flag.StringVar(&input, "input", "", "Path to a .dcm file produced by thermdicom.")
	flag.Parse()

	if input == "" {
		flag.Usage()
		os.Exit(1)
	}

	if err := run(thermdicom.ExpandHome(input)); err != nil {
		log.Fatalln(err)
	}
}

func run(path string) error {
	ds, err := dicom.ParseFile(path, nil)
	if err != nil {
		return pfx.Err(err)
	}

	sopClass := stringValue(ds, tag.SOPClassUID)
	fmt.Printf("sop_class\t%s\n", sopClass)
	if sopClass != thermdicom.SecondaryCaptureSOPClassUID {
		log.Printf("Note: SOP class %s is not secondary capture\n", sopClass)
	}

	fmt.Printf("patient_id\t%s\n", stringValue(ds, tag.PatientID))
	fmt.Printf("modality\t%s\n", stringValue(ds, tag.Modality))
	fmt.Printf("photometric\t%s\n", stringValue(ds, tag.PhotometricInterpretation))
	fmt.Printf("rows\t%d\n", intValue(ds, tag.Rows))
	fmt.Printf("cols\t%d\n", intValue(ds, tag.Columns))
	fmt.Printf("bits_allocated\t%d\n", intValue(ds, tag.BitsAllocated))

	for _, v := range []struct {
		label   string
		element uint16
	}{
		{"emissivity", 0x1001},
		{"distance_m", 0x1002},
		{"ambient_c", 0x1003},
		{"reflected_c", 0x1004},
		{"humidity_pct", 0x1005},
		{"unit", 0x1006},
	} {
		if s := stringValue(ds, tag.Tag{Group: 0x7771, Element: v.element}); s != "" {
			fmt.Printf("thermal_%s\t%s\n", v.label, s)
		}
	}

	if err := reportTemperatures(ds); err != nil {
		return err
	}

	return reportOverlay(ds)
}

// reportTemperatures reconstructs the stored pixel range through the rescale
// pair and compares it against the recorded calibration range.
func reportTemperatures(ds dicom.Dataset) error {
	slopeStr := stringValue(ds, tag.RescaleSlope)
	interceptStr := stringValue(ds, tag.RescaleIntercept)
	if slopeStr == "" || interceptStr == "" {
		fmt.Printf("rescale\tnone (display image)\n")
		return nil
	}

	slope, err := strconv.ParseFloat(slopeStr, 64)
	if err != nil {
		return fmt.Errorf("rescale slope %q: %w", slopeStr, err)
	}
	intercept, err := strconv.ParseFloat(interceptStr, 64)
	if err != nil {
		return fmt.Errorf("rescale intercept %q: %w", interceptStr, err)
	}
	r := calibrate.Rescale{Slope: slope, Intercept: intercept}
	fmt.Printf("rescale_slope\t%g\n", r.Slope)
	fmt.Printf("rescale_intercept\t%g\n", r.Intercept)

	el, err := ds.FindElementByTag(tag.PixelData)
	if err != nil {
		return pfx.Err(err)
	}
	info, ok := el.Value.GetValue().(dicom.PixelDataInfo)
	if !ok || len(info.Frames) == 0 {
		return fmt.Errorf("no native pixel frames")
	}

	native := info.Frames[0].NativeData
	minPx, maxPx := native.Data[0][0], native.Data[0][0]
	for _, px := range native.Data {
		if px[0] < minPx {
			minPx = px[0]
		}
		if px[0] > maxPx {
			maxPx = px[0]
		}
	}

	lo := r.StoredToTemperature(float64(minPx))
	hi := r.StoredToTemperature(float64(maxPx))
	fmt.Printf("temperature_min\t%g\n", lo)
	fmt.Printf("temperature_max\t%g\n", hi)

	// The private block records what pixel 0 means; the coldest stored pixel
	// can sit above it, but never below by more than quantization tolerance.
	if calMin := stringValue(ds, tag.Tag{Group: 0x7771, Element: 0x1007}); calMin != "" {
		recorded, err := strconv.ParseFloat(calMin, 64)
		if err != nil {
			return fmt.Errorf("calibration minimum %q: %w", calMin, err)
		}
		if lo < recorded-slope/2-1e-9 {
			fmt.Printf("calibration_check\tFAIL: coldest pixel reads %g, below recorded minimum %g\n", lo, recorded)
		} else {
			fmt.Printf("calibration_check\tok\n")
		}
	}

	return nil
}

func reportOverlay(ds dicom.Dataset) error {
	el, err := ds.FindElementByTag(tag.Tag{Group: 0x6000, Element: 0x3000})
	if err != nil {
		fmt.Printf("overlay\tnone\n")
		return nil
	}

	data, ok := el.Value.GetValue().([]byte)
	if !ok {
		return fmt.Errorf("overlay data is not a byte stream")
	}

	p := &overlay.Plane{
		Rows: intValue(ds, tag.Tag{Group: 0x6000, Element: 0x0010}),
		Cols: intValue(ds, tag.Tag{Group: 0x6000, Element: 0x0011}),
		Data: data,
	}
	if p.Rows < 1 || p.Cols < 1 || len(data) < p.Rows*p.BytesPerRow() {
		return fmt.Errorf("overlay plane is %dx%d but carries %d bytes", p.Rows, p.Cols, len(data))
	}

	fmt.Printf("overlay\tpresent\n")
	fmt.Printf("overlay_rows\t%d\n", p.Rows)
	fmt.Printf("overlay_cols\t%d\n", p.Cols)
	fmt.Printf("overlay_fraction\t%.4f\n", p.Fraction())

	if rows, cols := intValue(ds, tag.Rows), intValue(ds, tag.Columns); p.Rows != rows || p.Cols != cols {
		fmt.Printf("overlay_check\tFAIL: plane is %dx%d for a %dx%d image\n", p.Rows, p.Cols, rows, cols)
	} else {
		fmt.Printf("overlay_check\tok\n")
	}

	return nil
}

func stringValue(ds dicom.Dataset, t tag.Tag) string {
	el, err := ds.FindElementByTag(t)
	if err != nil {
		return ""
	}
	if vals, ok := el.Value.GetValue().([]string); ok && len(vals) > 0 {
		return vals[0]
	}

	return ""
}

func intValue(ds dicom.Dataset, t tag.Tag) int {
	el, err := ds.FindElementByTag(t)
	if err != nil {
		return 0
	}
	if vals, ok := el.Value.GetValue().([]int); ok && len(vals) > 0 {
		return vals[0]
	}

	return 0
}
