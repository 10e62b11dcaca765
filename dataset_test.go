package thermdicom

import (
	"testing"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/medtherm/thermdicom/metadata"
	"github.com/medtherm/thermdicom/overlay"
	"github.com/medtherm/thermdicom/thermfield"
)

func tempField(rows, cols int, value float32) *thermfield.Field {
	f := &thermfield.Field{
		Kind:  thermfield.KindTemperature,
		Rows:  rows,
		Cols:  cols,
		Temps: make([]float32, rows*cols),
		Stats: thermfield.NewStats(),
	}
	for i := range f.Temps {
		f.Temps[i] = value
		f.Stats.Push(float64(value))
	}

	return f
}

func displayField(rows, cols int) *thermfield.Field {
	f := &thermfield.Field{
		Kind: thermfield.KindDisplay,
		Rows: rows,
		Cols: cols,
		RGB:  make([]uint8, rows*cols*3),
	}
	for i := range f.RGB {
		f.RGB[i] = uint8(i)
	}

	return f
}

func elementString(t *testing.T, ds dicom.Dataset, tg tag.Tag) string {
	t.Helper()

	el, err := ds.FindElementByTag(tg)
	if err != nil {
		t.Fatalf("element %v missing: %v", tg, err)
	}
	vals, ok := el.Value.GetValue().([]string)
	if !ok || len(vals) != 1 {
		t.Fatalf("element %v holds %v, want one string", tg, el.Value)
	}

	return vals[0]
}

func elementInt(t *testing.T, ds dicom.Dataset, tg tag.Tag) int {
	t.Helper()

	el, err := ds.FindElementByTag(tg)
	if err != nil {
		t.Fatalf("element %v missing: %v", tg, err)
	}
	vals, ok := el.Value.GetValue().([]int)
	if !ok || len(vals) != 1 {
		t.Fatalf("element %v holds %v, want one int", tg, el.Value)
	}

	return vals[0]
}

func TestBuildDatasetElementOrder(t *testing.T) {
	mask := overlay.NewMask(4, 4)
	mask.Set(1, 1, true)

	rec, err := Build(tempField(4, 4, 20), mask, metadata.Fields{BodyPart: "breast"}, "capture")
	if err != nil {
		t.Fatal(err)
	}
	ds, err := BuildDataset(rec)
	if err != nil {
		t.Fatal(err)
	}

	var prev tag.Tag
	for i, el := range ds.Elements {
		cur := el.Tag
		if i > 0 && (cur.Group < prev.Group || (cur.Group == prev.Group && cur.Element <= prev.Element)) {
			t.Errorf("element %v appears after %v", cur, prev)
		}
		prev = cur
	}

	if last := ds.Elements[len(ds.Elements)-1].Tag; last != tag.PixelData {
		t.Errorf("final element is %v, want PixelData", last)
	}
}

func TestBuildDatasetMonochrome(t *testing.T) {
	rec, err := Build(tempField(4, 4, 20), nil, metadata.Fields{}, "capture")
	if err != nil {
		t.Fatal(err)
	}
	ds, err := BuildDataset(rec)
	if err != nil {
		t.Fatal(err)
	}

	for _, v := range []struct {
		tag  tag.Tag
		want string
	}{
		{tag.MediaStorageSOPClassUID, SecondaryCaptureSOPClassUID},
		{tag.TransferSyntaxUID, ExplicitVRLittleEndianUID},
		{tag.SOPClassUID, SecondaryCaptureSOPClassUID},
		{tag.Modality, metadata.DefaultModality},
		{tag.ConversionType, "SYN"},
		{tag.Manufacturer, metadata.DefaultManufacturer},
		{tag.ManufacturerModelName, metadata.DefaultModel},
		{tag.SoftwareVersions, metadata.DefaultSoftware},
		{tag.PatientName, metadata.DefaultPatientName},
		{tag.PatientID, metadata.DefaultPatientID},
		{tag.PhotometricInterpretation, "MONOCHROME2"},
		{tag.WindowCenter, "20"},
		{tag.WindowWidth, "1"},
		{tag.RescaleIntercept, "20"},
		{tag.RescaleSlope, "1"},
	} {
		if got := elementString(t, ds, v.tag); got != v.want {
			t.Errorf("%v = %q, want %q", v.tag, got, v.want)
		}
	}

	for _, v := range []struct {
		tag  tag.Tag
		want int
	}{
		{tag.SamplesPerPixel, 1},
		{tag.Rows, 4},
		{tag.Columns, 4},
		{tag.BitsAllocated, 16},
		{tag.BitsStored, 16},
		{tag.HighBit, 15},
		{tag.PixelRepresentation, 0},
	} {
		if got := elementInt(t, ds, v.tag); got != v.want {
			t.Errorf("%v = %d, want %d", v.tag, got, v.want)
		}
	}

	if _, err := ds.FindElementByTag(tag.PlanarConfiguration); err == nil {
		t.Error("monochrome dataset carries PlanarConfiguration")
	}

	if got := elementString(t, ds, tag.Tag{Group: 0x7771, Element: 0x0010}); got != "MEDTHERM THERMDICOM 1.0" {
		t.Errorf("private creator = %q", got)
	}
	for _, v := range []struct {
		element uint16
		want    string
	}{
		{0x1001, metadata.DefaultEmissivity},
		{0x1002, metadata.DefaultDistance},
		{0x1003, metadata.DefaultAmbient},
		{0x1004, metadata.DefaultReflected},
		{0x1005, metadata.DefaultHumidity},
		{0x1006, metadata.DefaultUnit},
		{0x1007, "20"},
		{0x1008, "65555"},
	} {
		tg := tag.Tag{Group: 0x7771, Element: v.element}
		if got := elementString(t, ds, tg); got != v.want {
			t.Errorf("private element %v = %q, want %q", tg, got, v.want)
		}
	}
}

func TestBuildDatasetRescaleBinding(t *testing.T) {
	f := tempField(2, 2, 20)
	f.Temps[3] = 30
	f.Stats = thermfield.NewStats()
	for _, v := range f.Temps {
		f.Stats.Push(float64(v))
	}

	rec, err := Build(f, nil, metadata.Fields{}, "capture")
	if err != nil {
		t.Fatal(err)
	}
	ds, err := BuildDataset(rec)
	if err != nil {
		t.Fatal(err)
	}

	if got, want := elementString(t, ds, tag.RescaleSlope), dsString(rec.Image.Rescale.Slope); got != want {
		t.Errorf("slope = %q, want %q", got, want)
	}
	if got, want := elementString(t, ds, tag.RescaleIntercept), dsString(rec.Image.Rescale.Intercept); got != want {
		t.Errorf("intercept = %q, want %q", got, want)
	}
	if got := elementString(t, ds, tag.Tag{Group: 0x7771, Element: 0x1007}); got != "20" {
		t.Errorf("calibration min = %q, want 20", got)
	}
	if got := elementString(t, ds, tag.Tag{Group: 0x7771, Element: 0x1008}); got != "30" {
		t.Errorf("calibration max = %q, want 30", got)
	}
}

func TestBuildDatasetDisplay(t *testing.T) {
	rec, err := Build(displayField(2, 2), nil, metadata.Fields{}, "capture")
	if err != nil {
		t.Fatal(err)
	}
	ds, err := BuildDataset(rec)
	if err != nil {
		t.Fatal(err)
	}

	if got := elementString(t, ds, tag.PhotometricInterpretation); got != "RGB" {
		t.Errorf("photometric = %q", got)
	}
	if got := elementInt(t, ds, tag.SamplesPerPixel); got != 3 {
		t.Errorf("samples per pixel = %d", got)
	}
	if got := elementInt(t, ds, tag.BitsAllocated); got != 8 {
		t.Errorf("bits allocated = %d", got)
	}
	if got := elementInt(t, ds, tag.PlanarConfiguration); got != 0 {
		t.Errorf("planar configuration = %d", got)
	}

	for _, tg := range []tag.Tag{tag.RescaleSlope, tag.RescaleIntercept, tag.WindowCenter, tag.WindowWidth} {
		if _, err := ds.FindElementByTag(tg); err == nil {
			t.Errorf("display dataset carries %v", tg)
		}
	}
}

func TestBuildDatasetOverlayBlock(t *testing.T) {
	mask := overlay.NewMask(4, 4)
	mask.Set(0, 0, true)
	mask.Set(3, 3, true)

	rec, err := Build(tempField(4, 4, 20), mask, metadata.Fields{}, "capture")
	if err != nil {
		t.Fatal(err)
	}
	ds, err := BuildDataset(rec)
	if err != nil {
		t.Fatal(err)
	}

	if got := elementInt(t, ds, tag.Tag{Group: 0x6000, Element: 0x0010}); got != 4 {
		t.Errorf("overlay rows = %d", got)
	}
	if got := elementInt(t, ds, tag.Tag{Group: 0x6000, Element: 0x0011}); got != 4 {
		t.Errorf("overlay columns = %d", got)
	}
	if got := elementString(t, ds, tag.Tag{Group: 0x6000, Element: 0x0040}); got != "R" {
		t.Errorf("overlay type = %q", got)
	}
	if got := elementInt(t, ds, tag.Tag{Group: 0x6000, Element: 0x0100}); got != 1 {
		t.Errorf("overlay bits allocated = %d", got)
	}

	el, err := ds.FindElementByTag(tag.Tag{Group: 0x6000, Element: 0x0050})
	if err != nil {
		t.Fatal(err)
	}
	if origin, ok := el.Value.GetValue().([]int); !ok || len(origin) != 2 || origin[0] != 1 || origin[1] != 1 {
		t.Errorf("overlay origin = %v, want [1 1]", el.Value)
	}

	el, err = ds.FindElementByTag(tag.Tag{Group: 0x6000, Element: 0x3000})
	if err != nil {
		t.Fatal(err)
	}
	data, ok := el.Value.GetValue().([]byte)
	if !ok {
		t.Fatalf("overlay data holds %v, want bytes", el.Value)
	}
	if len(data) != len(rec.Overlay.Data) {
		t.Fatalf("overlay data is %d bytes, want %d", len(data), len(rec.Overlay.Data))
	}
	if data[0] != 0x80 {
		t.Errorf("first overlay byte = %#x, want 0x80", data[0])
	}
}

func TestBuildDatasetAnatomyAndOptionals(t *testing.T) {
	rec, err := Build(tempField(2, 2, 20), nil, metadata.Fields{
		BodyPart:          "breast",
		Laterality:        "l",
		ViewPosition:      "ap",
		SeriesDescription: "left lateral sweep",
		PatientAge:        "45",
	}, "capture")
	if err != nil {
		t.Fatal(err)
	}
	ds, err := BuildDataset(rec)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := ds.FindElementByTag(tag.AnatomicRegionSequence); err != nil {
		t.Errorf("coded body part missing: %v", err)
	}
	if got := elementString(t, ds, tag.BodyPartExamined); got != "BREAST" {
		t.Errorf("body part = %q", got)
	}
	if got := elementString(t, ds, tag.Laterality); got != "L" {
		t.Errorf("laterality = %q", got)
	}
	if got := elementString(t, ds, tag.ViewPosition); got != "AP" {
		t.Errorf("view position = %q", got)
	}
	if got := elementString(t, ds, tag.PatientAge); got != "045Y" {
		t.Errorf("age = %q", got)
	}
	if got := elementString(t, ds, tag.SeriesDescription); got != "left lateral sweep" {
		t.Errorf("series description = %q", got)
	}
}

func TestBuildDatasetOmitsBlankOptionals(t *testing.T) {
	rec, err := Build(tempField(2, 2, 20), nil, metadata.Fields{}, "capture")
	if err != nil {
		t.Fatal(err)
	}
	ds, err := BuildDataset(rec)
	if err != nil {
		t.Fatal(err)
	}

	for _, tg := range []tag.Tag{
		tag.SeriesDescription,
		tag.PatientAge,
		tag.BodyPartExamined,
		tag.Laterality,
		tag.ViewPosition,
		tag.AnatomicRegionSequence,
		tag.DeviceSerialNumber,
		tag.DateOfLastCalibration,
		{Group: 0x6000, Element: 0x3000},
	} {
		if _, err := ds.FindElementByTag(tg); err == nil {
			t.Errorf("dataset carries %v for blank input", tg)
		}
	}
}
