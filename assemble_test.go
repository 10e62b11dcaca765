package thermdicom

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/medtherm/thermdicom/metadata"
	"github.com/medtherm/thermdicom/overlay"
	"github.com/medtherm/thermdicom/thermfield"
)

func writeCSV(t *testing.T, dir, name, body string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	return path
}

func mustLoadField(t *testing.T, path string) *thermfield.Field {
	t.Helper()

	f, err := thermfield.Load(path)
	if err != nil {
		t.Fatal(err)
	}

	return f
}

func TestAssembleEndToEndConstantGrid(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeCSV(t, dir, "capture.csv",
		"20.0,20.0,20.0,20.0\n20.0,20.0,20.0,20.0\n20.0,20.0,20.0,20.0\n20.0,20.0,20.0,20.0\n")

	outDir := filepath.Join(dir, "out")
	path, err := AssembleFile(csvPath, "", metadata.Fields{}, outDir)
	if err != nil {
		t.Fatalf("assembling constant grid: %v", err)
	}

	if base := filepath.Base(path); !strings.HasPrefix(base, "thermal_UNKNOWN_capture_") {
		t.Errorf("output name %q lacks the thermal_UNKNOWN_capture_ prefix", base)
	}

	ds, err := dicom.ParseFile(path, nil)
	if err != nil {
		t.Fatalf("reading %s back: %v", path, err)
	}

	if got := elementString(t, ds, tag.RescaleSlope); got != "1" {
		t.Errorf("slope = %q, want 1", got)
	}
	if got := elementString(t, ds, tag.RescaleIntercept); got != "20" {
		t.Errorf("intercept = %q, want 20", got)
	}
	if got := elementInt(t, ds, tag.Rows); got != 4 {
		t.Errorf("rows = %d, want 4", got)
	}
	if got := elementString(t, ds, tag.PatientName); got != metadata.DefaultPatientName {
		t.Errorf("patient name = %q", got)
	}
	if got := elementString(t, ds, tag.StudyDescription); got != metadata.DefaultStudyDescription {
		t.Errorf("study description = %q", got)
	}

	el, err := ds.FindElementByTag(tag.PixelData)
	if err != nil {
		t.Fatal(err)
	}
	info, ok := el.Value.GetValue().(dicom.PixelDataInfo)
	if !ok {
		t.Fatalf("pixel data holds %v", el.Value)
	}
	if len(info.Frames) != 1 {
		t.Fatalf("%d frames, want 1", len(info.Frames))
	}
	native := info.Frames[0].NativeData
	if native.Rows != 4 || native.Cols != 4 {
		t.Fatalf("frame is %dx%d, want 4x4", native.Rows, native.Cols)
	}
	for i, px := range native.Data {
		if px[0] != 0 {
			t.Errorf("pixel %d = %d, want 0", i, px[0])
		}
	}
}

func TestAssembleEndToEndDisplayImage(t *testing.T) {
	dir := t.TempDir()

	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{G: 255, A: 255})
	img.SetNRGBA(0, 1, color.NRGBA{B: 255, A: 255})
	img.SetNRGBA(1, 1, color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	pngPath := filepath.Join(dir, "capture.png")
	f, err := os.Create(pngPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	path, err := AssembleFile(pngPath, "", metadata.Fields{PatientID: "RGB 01"}, filepath.Join(dir, "out"))
	if err != nil {
		t.Fatalf("assembling display image: %v", err)
	}

	if base := filepath.Base(path); !strings.HasPrefix(base, "thermal_RGB_01_capture_") {
		t.Errorf("output name %q lacks the thermal_RGB_01_capture_ prefix", base)
	}

	ds, err := dicom.ParseFile(path, nil)
	if err != nil {
		t.Fatalf("reading %s back: %v", path, err)
	}

	if got := elementString(t, ds, tag.PhotometricInterpretation); got != "RGB" {
		t.Errorf("photometric = %q", got)
	}
	if got := elementInt(t, ds, tag.BitsAllocated); got != 8 {
		t.Errorf("bits allocated = %d", got)
	}
	if got := elementInt(t, ds, tag.SamplesPerPixel); got != 3 {
		t.Errorf("samples per pixel = %d", got)
	}
	if _, err := ds.FindElementByTag(tag.RescaleSlope); err == nil {
		t.Error("display file carries a rescale slope")
	}

	el, err := ds.FindElementByTag(tag.PixelData)
	if err != nil {
		t.Fatal(err)
	}
	info := el.Value.GetValue().(dicom.PixelDataInfo)
	first := info.Frames[0].NativeData.Data[0]
	if len(first) != 3 || first[0] != 255 || first[1] != 0 || first[2] != 0 {
		t.Errorf("first pixel = %v, want [255 0 0]", first)
	}
}

func TestAssembleOverlayRoundTrip(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeCSV(t, dir, "capture.csv", "20,21\n22,23\n")

	mask := overlay.NewMask(2, 2)
	mask.Set(0, 0, true)
	mask.Set(1, 1, true)

	rec, err := Build(mustLoadField(t, csvPath), mask, metadata.Fields{}, "capture")
	if err != nil {
		t.Fatal(err)
	}
	path, err := Assemble(rec, filepath.Join(dir, "out"))
	if err != nil {
		t.Fatal(err)
	}

	ds, err := dicom.ParseFile(path, nil)
	if err != nil {
		t.Fatal(err)
	}

	el, err := ds.FindElementByTag(tag.Tag{Group: 0x6000, Element: 0x3000})
	if err != nil {
		t.Fatalf("overlay data missing: %v", err)
	}
	got, ok := el.Value.GetValue().([]byte)
	if !ok {
		t.Fatalf("overlay data holds %v", el.Value)
	}
	if len(got) != 2 || got[0] != 0x80 || got[1] != 0x40 {
		t.Errorf("overlay bytes = %v, want [0x80 0x40]", got)
	}
	if got := elementString(t, ds, tag.Tag{Group: 0x6000, Element: 0x0040}); got != "R" {
		t.Errorf("overlay type = %q", got)
	}
}

func TestBuildRejectsMismatchedMask(t *testing.T) {
	mask := overlay.NewMask(3, 3)

	_, err := Build(tempField(4, 4, 20), mask, metadata.Fields{}, "capture")
	if !errors.Is(err, overlay.ErrShapeMismatch) {
		t.Fatalf("err = %v, want shape mismatch", err)
	}
}

func TestAssembleFileInvalidAgeWritesNothing(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeCSV(t, dir, "capture.csv", "20,21\n22,23\n")
	outDir := filepath.Join(dir, "out")

	_, err := AssembleFile(csvPath, "", metadata.Fields{PatientAge: "200"}, outDir)
	if !errors.Is(err, metadata.ErrInvalidAge) {
		t.Fatalf("err = %v, want invalid age", err)
	}

	if _, err := os.Stat(outDir); !os.IsNotExist(err) {
		t.Error("output directory exists despite failed validation")
	}
}

func TestOutputName(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	for _, v := range []struct {
		id, source, want string
	}{
		{"P 01 A", "scan", "thermal_P_01_A_scan_20240102_030405.dcm"},
		{"", "capture", "thermal_UNKNOWN_capture_20240102_030405.dcm"},
		{"  padded  ", "x", "thermal_padded_x_20240102_030405.dcm"},
	} {
		if got := OutputName(v.id, v.source, now); got != v.want {
			t.Errorf("OutputName(%q, %q) = %q, want %q", v.id, v.source, got, v.want)
		}
	}
}

func TestSourceName(t *testing.T) {
	for _, v := range []struct{ path, want string }{
		{"/data/thermal/scan.csv", "scan"},
		{"scan.csv.gz", "scan.csv"},
		{"plain", "plain"},
	} {
		if got := SourceName(v.path); got != v.want {
			t.Errorf("SourceName(%q) = %q, want %q", v.path, got, v.want)
		}
	}
}

func TestCreateUniqueSuffixes(t *testing.T) {
	dir := t.TempDir()
	name := "thermal_A_scan_20240101_010101.dcm"

	p1, f1, err := createUnique(dir, name)
	if err != nil {
		t.Fatal(err)
	}
	f1.Close()
	p2, f2, err := createUnique(dir, name)
	if err != nil {
		t.Fatal(err)
	}
	f2.Close()

	if filepath.Base(p1) != name {
		t.Errorf("first path = %q", p1)
	}
	if want := "thermal_A_scan_20240101_010101_2.dcm"; filepath.Base(p2) != want {
		t.Errorf("second path = %q, want %q", p2, want)
	}
}
