package thermdicom

import (
	"fmt"
	"strconv"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/frame"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/medtherm/thermdicom/calibrate"
)

const (
	// SecondaryCaptureSOPClassUID identifies the secondary capture image
	// storage class these files claim.
	SecondaryCaptureSOPClassUID = "1.2.840.10008.5.1.4.1.1.7"

	// ExplicitVRLittleEndianUID is the only transfer syntax this assembler
	// emits; nothing here is ever compressed.
	ExplicitVRLittleEndianUID = "1.2.840.10008.1.2.1"

	implementationClassUID = "2.25.102448850126418225869515704826347635864"
	implementationVersion  = "THERMDICOM_1_0"
	privateCreatorID       = "MEDTHERM THERMDICOM 1.0"
	overlayGroup           = 0x6000
	privateGroup           = 0x7771
)

// datasetBuilder accumulates elements in ascending tag order and remembers
// the first construction error so call sites stay flat.
type datasetBuilder struct {
	elems []*dicom.Element
	err   error
}

func (d *datasetBuilder) add(t tag.Tag, value interface{}) {
	if d.err != nil {
		return
	}

	e, err := dicom.NewElement(t, value)
	if err != nil {
		d.err = fmt.Errorf("building element %v: %v", t, err)
		return
	}
	d.elems = append(d.elems, e)
}

// addString adds a single-valued string element, omitting it entirely when
// the value is blank so optional attributes simply disappear.
func (d *datasetBuilder) addString(t tag.Tag, s string) {
	if s == "" {
		return
	}
	d.add(t, []string{s})
}

// addAs builds an element for a tag the public dictionary does not carry
// (the repeating overlay group and private blocks) by constructing it from a
// dictionary tag with a compatible value type and retagging it. VR
// verification is skipped at write time for exactly this reason.
func (d *datasetBuilder) addAs(t tag.Tag, template tag.Tag, vr string, value interface{}) {
	if d.err != nil {
		return
	}

	e, err := dicom.NewElement(template, value)
	if err != nil {
		d.err = fmt.Errorf("building element %v: %v", t, err)
		return
	}
	e.Tag = t
	e.RawValueRepresentation = vr
	e.ValueRepresentation = tag.GetVRKind(t, vr)
	d.elems = append(d.elems, e)
}

// dsString renders a float for a decimal-string element within the 16-byte
// limit those carry.
func dsString(v float64) string {
	return strconv.FormatFloat(v, 'G', 10, 64)
}

// BuildDataset lays out the complete element list for one record: file meta,
// identity, patient/study/series modules, the image pixel module with its
// rescale pair, the overlay group when a region is present, and the private
// thermal-parameter block.
func BuildDataset(rec *StudyRecord) (dicom.Dataset, error) {
	b := &datasetBuilder{}
	m := rec.Meta
	img := rec.Image

	// File meta group. The writer derives its encoding from the transfer
	// syntax element and rejects datasets missing the storage identifiers.
	b.add(tag.FileMetaInformationVersion, []byte{0x00, 0x01})
	b.add(tag.MediaStorageSOPClassUID, []string{SecondaryCaptureSOPClassUID})
	b.add(tag.MediaStorageSOPInstanceUID, []string{m.InstanceUID})
	b.add(tag.TransferSyntaxUID, []string{ExplicitVRLittleEndianUID})
	b.add(tag.ImplementationClassUID, []string{implementationClassUID})
	b.add(tag.ImplementationVersionName, []string{implementationVersion})

	b.add(tag.SpecificCharacterSet, []string{"ISO_IR 100"})
	b.add(tag.ImageType, []string{"DERIVED", "SECONDARY"})
	b.add(tag.SOPClassUID, []string{SecondaryCaptureSOPClassUID})
	b.add(tag.SOPInstanceUID, []string{m.InstanceUID})
	b.add(tag.StudyDate, []string{m.StudyDate})
	b.addString(tag.SeriesDate, m.SeriesDate)
	b.add(tag.StudyTime, []string{m.StudyTime})
	b.addString(tag.SeriesTime, m.SeriesTime)
	b.add(tag.AccessionNumber, []string{m.AccessionNumber})
	b.add(tag.Modality, []string{m.Modality})
	b.add(tag.ConversionType, []string{"SYN"})
	b.add(tag.Manufacturer, []string{m.Manufacturer})
	b.add(tag.ReferringPhysicianName, []string{m.ReferringPhysician})
	b.add(tag.StudyDescription, []string{m.StudyDescription})
	b.addString(tag.SeriesDescription, m.SeriesDescription)
	b.add(tag.ManufacturerModelName, []string{m.CameraModel})

	if m.Anatomy != nil {
		b.addAnatomySequence(m.Anatomy.Value, m.Anatomy.Scheme, m.Anatomy.Meaning)
	}

	b.add(tag.PatientName, []string{m.PatientName})
	b.add(tag.PatientID, []string{m.PatientID})
	b.add(tag.PatientSex, []string{m.PatientSex})
	b.addString(tag.PatientAge, m.PatientAge)

	b.addString(tag.BodyPartExamined, m.BodyPart)
	b.addString(tag.DeviceSerialNumber, m.CameraSerial)
	b.add(tag.SoftwareVersions, []string{m.SoftwareVersion})
	b.addString(tag.DateOfLastCalibration, m.CalibrationDate)
	b.add(tag.AcquisitionDeviceProcessingDescription, []string{m.AcquisitionMode})
	b.addString(tag.ViewPosition, m.ViewPosition)

	b.add(tag.StudyInstanceUID, []string{m.StudyUID})
	b.add(tag.SeriesInstanceUID, []string{m.SeriesUID})
	b.add(tag.StudyID, []string{m.StudyID})
	b.add(tag.SeriesNumber, []string{"1"})
	b.add(tag.InstanceNumber, []string{"1"})
	b.addString(tag.Laterality, m.Laterality)

	b.add(tag.SamplesPerPixel, []int{img.SamplesPerPixel})
	b.add(tag.PhotometricInterpretation, []string{img.Photometric})
	if img.SamplesPerPixel == 3 {
		b.add(tag.PlanarConfiguration, []int{0})
	}
	b.add(tag.Rows, []int{img.Rows})
	b.add(tag.Columns, []int{img.Cols})
	b.add(tag.BitsAllocated, []int{img.BitsAllocated})
	b.add(tag.BitsStored, []int{img.BitsAllocated})
	b.add(tag.HighBit, []int{img.BitsAllocated - 1})
	b.add(tag.PixelRepresentation, []int{0})
	if img.HasRescale {
		b.add(tag.WindowCenter, []string{dsString(img.Window.Center)})
		b.add(tag.WindowWidth, []string{dsString(img.Window.Width)})
		b.add(tag.RescaleIntercept, []string{dsString(img.Rescale.Intercept)})
		b.add(tag.RescaleSlope, []string{dsString(img.Rescale.Slope)})
	}

	if rec.Overlay != nil {
		p := rec.Overlay

		// An OW payload carries an even byte count on the wire.
		data := p.Data
		if len(data)%2 != 0 {
			data = append(append(make([]byte, 0, len(data)+1), data...), 0x00)
		}

		b.addAs(tag.Tag{Group: overlayGroup, Element: 0x0010}, tag.Rows, "US", []int{p.Rows})
		b.addAs(tag.Tag{Group: overlayGroup, Element: 0x0011}, tag.Rows, "US", []int{p.Cols})
		b.addAs(tag.Tag{Group: overlayGroup, Element: 0x0022}, tag.StudyDescription, "LO", []string{"Region of interest"})
		b.addAs(tag.Tag{Group: overlayGroup, Element: 0x0040}, tag.Modality, "CS", []string{"R"})
		b.addAs(tag.Tag{Group: overlayGroup, Element: 0x0050}, tag.Rows, "SS", []int{1, 1})
		b.addAs(tag.Tag{Group: overlayGroup, Element: 0x0100}, tag.Rows, "US", []int{1})
		b.addAs(tag.Tag{Group: overlayGroup, Element: 0x0102}, tag.Rows, "US", []int{0})
		b.addAs(tag.Tag{Group: overlayGroup, Element: 0x3000}, tag.FileMetaInformationVersion, "OW", data)
	}

	b.addAs(tag.Tag{Group: privateGroup, Element: 0x0010}, tag.StudyDescription, "LO", []string{privateCreatorID})
	b.addPrivateDS(0x1001, m.Thermal.Emissivity)
	b.addPrivateDS(0x1002, m.Thermal.DistanceMeters)
	b.addPrivateDS(0x1003, m.Thermal.AmbientC)
	b.addPrivateDS(0x1004, m.Thermal.ReflectedC)
	b.addPrivateDS(0x1005, m.Thermal.RelativeHumidityPct)
	if m.Thermal.Unit != "" {
		b.addAs(tag.Tag{Group: privateGroup, Element: 0x1006}, tag.StudyDescription, "LO", []string{m.Thermal.Unit})
	}
	if img.HasRescale {
		// Recorded calibration range: what pixel 0 and pixel 65535 mean.
		b.addPrivateDS(0x1007, dsString(img.Rescale.StoredToTemperature(0)))
		b.addPrivateDS(0x1008, dsString(img.Rescale.StoredToTemperature(65535)))
	}

	b.addPixelData(img)

	if b.err != nil {
		return dicom.Dataset{}, b.err
	}

	return dicom.Dataset{Elements: b.elems}, nil
}

func (d *datasetBuilder) addAnatomySequence(value, scheme, meaning string) {
	if d.err != nil {
		return
	}

	var item []*dicom.Element
	for _, v := range []struct {
		t tag.Tag
		s string
	}{
		{tag.CodeValue, value},
		{tag.CodingSchemeDesignator, scheme},
		{tag.CodeMeaning, meaning},
	} {
		e, err := dicom.NewElement(v.t, []string{v.s})
		if err != nil {
			d.err = fmt.Errorf("building anatomy item %v: %v", v.t, err)
			return
		}
		item = append(item, e)
	}

	d.add(tag.AnatomicRegionSequence, [][]*dicom.Element{item})
}

func (d *datasetBuilder) addPrivateDS(element uint16, value string) {
	if value == "" {
		return
	}
	d.addAs(tag.Tag{Group: privateGroup, Element: element}, tag.RescaleSlope, "DS", []string{value})
}

func (d *datasetBuilder) addPixelData(img *calibrate.Image) {
	n := img.Rows * img.Cols
	data := make([][]int, n)

	if img.SamplesPerPixel == 3 {
		for i := 0; i < n; i++ {
			data[i] = []int{int(img.RGB[i*3]), int(img.RGB[i*3+1]), int(img.RGB[i*3+2])}
		}
	} else {
		for i, px := range img.Pixels {
			data[i] = []int{int(px)}
		}
	}

	native := frame.Frame{
		Encapsulated: false,
		NativeData: frame.NativeFrame{
			BitsPerSample: img.BitsAllocated,
			Rows:          img.Rows,
			Cols:          img.Cols,
			Data:          data,
		},
	}

	d.add(tag.PixelData, dicom.PixelDataInfo{
		IsEncapsulated: false,
		Frames:         []frame.Frame{native},
	})
}
