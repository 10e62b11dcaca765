package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/araddon/dateparse"
	"github.com/carbocation/pfx"
	"github.com/gocarina/gocsv"

	"github.com/medtherm/thermdicom"
	"github.com/medtherm/thermdicom/metadata"
	"github.com/medtherm/thermdicom/overlay"
	"github.com/medtherm/thermdicom/thermfield"
)

// manifestColumns documents the recognized manifest header names, in the
// order a template manifest would carry them.
var manifestColumns = []string{
	"input", "mask", "patient_name", "patient_id", "patient_age",
	"patient_sex", "study_description", "series_description", "study_id",
	"accession", "study_date", "study_time", "body_part", "laterality",
	"view", "emissivity", "distance", "ambient", "reflected", "humidity",
}

type manifestRow struct {
	Input             string `csv:"input"`
	Mask              string `csv:"mask"`
	PatientName       string `csv:"patient_name"`
	PatientID         string `csv:"patient_id"`
	PatientAge        string `csv:"patient_age"`
	PatientSex        string `csv:"patient_sex"`
	StudyDescription  string `csv:"study_description"`
	SeriesDescription string `csv:"series_description"`
	StudyID           string `csv:"study_id"`
	Accession         string `csv:"accession"`
	StudyDate         string `csv:"study_date"`
	StudyTime         string `csv:"study_time"`
	BodyPart          string `csv:"body_part"`
	Laterality        string `csv:"laterality"`
	View              string `csv:"view"`
	Emissivity        string `csv:"emissivity"`
	Distance          string `csv:"distance"`
	Ambient           string `csv:"ambient"`
	Reflected         string `csv:"reflected"`
	Humidity          string `csv:"humidity"`
}

func runManifest(manifestPath, outDir string, base metadata.Fields, reportPath string) error {
	rows, err := readManifest(manifestPath)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("manifest %s has no rows", manifestPath)
	}

	if reportPath == "" {
		reportPath = filepath.Join(outDir, "assembly_report.csv")
	} else {
		reportPath = thermdicom.ExpandHome(reportPath)
	}

	manifestDir := filepath.Dir(manifestPath)

	concurrency := 4 * runtime.NumCPU()
	sem := make(chan bool, concurrency)

	var mu sync.Mutex
	report := make([]*reportRow, 0, len(rows))

	// Each row is an independent assembly; failures are reported per row
	// rather than aborting the batch.
	for i, row := range rows {
		sem <- true
		go func(i int, row *manifestRow) {
			defer func() { <-sem }()

			res := assembleRow(i+1, row, base, manifestDir, outDir)
			if res.Error != "" {
				log.Printf("Row %d (%s): %s\n", res.Row, res.Input, res.Error)
			}

			mu.Lock()
			report = append(report, res)
			mu.Unlock()
		}(i, row)

		if (i+1)%100 == 0 {
			log.Printf("Dispatched %d rows\n", i+1)
		}
	}

	for i := 0; i < cap(sem); i++ {
		sem <- true
	}

	sort.Slice(report, func(i, j int) bool { return report[i].Row < report[j].Row })

	wrote := 0
	for _, r := range report {
		if r.Error == "" {
			wrote++
		}
	}
	log.Printf("Assembled %d of %d rows\n", wrote, len(report))

	return writeReport(reportPath, report)
}

func readManifest(path string) ([]*manifestRow, error) {
	fileBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, pfx.Err(err)
	}

	// Spreadsheet exports come as either comma- or tab-delimited; the header
	// line tells them apart.
	comma := ','
	if line, _, _ := strings.Cut(string(fileBytes), "\n"); strings.ContainsRune(line, '\t') {
		comma = '\t'
	}

	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		r := csv.NewReader(in)
		r.Comma = comma
		r.LazyQuotes = true
		r.TrimLeadingSpace = true
		return r
	})

	rows := []*manifestRow{}
	if err := gocsv.UnmarshalBytes(fileBytes, &rows); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}

	return rows, nil
}

func assembleRow(n int, row *manifestRow, base metadata.Fields, manifestDir, outDir string) *reportRow {
	res := &reportRow{Row: n, Input: row.Input}

	if strings.TrimSpace(row.Input) == "" {
		res.Error = "no input path"
		return res
	}

	inputPath := resolvePath(manifestDir, row.Input)
	field, err := thermfield.Load(inputPath)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Kind = field.Kind.String()
	res.Rows = field.Rows
	res.Cols = field.Cols
	res.Scrubbed = field.Scrubbed

	var mask *overlay.Mask
	if strings.TrimSpace(row.Mask) != "" {
		if mask, err = overlay.LoadMask(resolvePath(manifestDir, row.Mask)); err != nil {
			res.Error = err.Error()
			return res
		}
	}

	rec, err := thermdicom.Build(field, mask, mergeRow(base, row), thermdicom.SourceName(inputPath))
	if err != nil {
		res.Error = err.Error()
		return res
	}

	outPath, err := thermdicom.Assemble(rec, outDir)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Output = outPath

	if img := rec.Image; img.HasRescale {
		res.Slope = strconv.FormatFloat(img.Rescale.Slope, 'G', 10, 64)
		res.Intercept = strconv.FormatFloat(img.Rescale.Intercept, 'G', 10, 64)
	}

	notes := make([]string, 0, len(rec.Meta.Diagnostics))
	for _, d := range rec.Meta.Diagnostics {
		notes = append(notes, d.Code)
	}
	res.Notes = strings.Join(notes, ";")

	if res.Blake2b, err = hashFile(outPath); err != nil {
		res.Error = err.Error()
	}

	return res
}

// mergeRow lays row values over the flag- and site-supplied baseline; a
// nonblank cell always wins.
func mergeRow(base metadata.Fields, row *manifestRow) metadata.Fields {
	out := base

	for _, v := range []struct {
		dst *string
		src string
	}{
		{&out.PatientName, row.PatientName},
		{&out.PatientID, row.PatientID},
		{&out.PatientAge, row.PatientAge},
		{&out.PatientSex, row.PatientSex},
		{&out.StudyDescription, row.StudyDescription},
		{&out.SeriesDescription, row.SeriesDescription},
		{&out.StudyID, row.StudyID},
		{&out.AccessionNumber, row.Accession},
		{&out.StudyDate, normalizeDate(row.StudyDate)},
		{&out.StudyTime, normalizeTime(row.StudyTime)},
		{&out.BodyPart, row.BodyPart},
		{&out.Laterality, row.Laterality},
		{&out.ViewPosition, row.View},
		{&out.Thermal.Emissivity, row.Emissivity},
		{&out.Thermal.DistanceMeters, row.Distance},
		{&out.Thermal.AmbientC, row.Ambient},
		{&out.Thermal.ReflectedC, row.Reflected},
		{&out.Thermal.RelativeHumidityPct, row.Humidity},
	} {
		if s := strings.TrimSpace(v.src); s != "" {
			*v.dst = s
		}
	}

	return out
}

// normalizeDate passes canonical YYYYMMDD through and otherwise lets
// dateparse have a go, since manifests come out of spreadsheets with
// arbitrary date styles. Anything still unparseable is handed on unchanged
// for the binder to reject by field name.
func normalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	if _, err := time.Parse("20060102", s); err == nil {
		return s
	}
	if t, err := dateparse.ParseAny(s); err == nil {
		return t.Format("20060102")
	}

	return s
}

func normalizeTime(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}

	for _, layout := range []string{"150405", "15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("150405")
		}
	}

	return s
}

// resolvePath interprets relative manifest paths against the manifest's own
// directory, the way spreadsheet authors expect.
func resolvePath(dir, p string) string {
	p = thermdicom.ExpandHome(strings.TrimSpace(p))
	if filepath.IsAbs(p) {
		return p
	}

	return filepath.Join(dir, p)
}

