package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/carbocation/pfx"
	"github.com/gocarina/gocsv"
	"github.com/minio/blake2b-simd"
)

// reportRow is one line of the assembly report: what went in, what came out,
// and a content digest of the written file so downstream transfers can be
// checked against it.
type reportRow struct {
	Row       int    `csv:"row"`
	Input     string `csv:"input"`
	Output    string `csv:"output"`
	Kind      string `csv:"kind"`
	Rows      int    `csv:"rows"`
	Cols      int    `csv:"cols"`
	Scrubbed  int    `csv:"scrubbed_cells"`
	Slope     string `csv:"rescale_slope"`
	Intercept string `csv:"rescale_intercept"`
	Blake2b   string `csv:"blake2b_256"`
	Notes     string `csv:"notes"`
	Error     string `csv:"error"`
}

func hashFile(path string) (string, error) {
	bts, err := os.ReadFile(path)
	if err != nil {
		return "", pfx.Err(err)
	}

	h, err := blake2b.New(&blake2b.Config{Size: 32})
	if err != nil {
		return "", err
	}
	if _, err := h.Write(bts); err != nil {
		return "", err
	}

	return fmt.Sprintf("%X", h.Sum(nil)), nil
}

func writeReport(path string, report []*reportRow) error {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return pfx.Err(err)
	}

	f, err := os.Create(path)
	if err != nil {
		return pfx.Err(err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(&report, f); err != nil {
		return err
	}
	log.Printf("Wrote report %s\n", path)

	return nil
}
