package thermfield

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// LoadTable parses a delimited numeric table into a temperature field.
//
// The delimiter is detected from content (comma when inconclusive). Cells
// that fail numeric parsing are treated as NaN; NaN and infinite values are
// replaced with 0 and counted on the Field. When no cell in the whole table
// parses to a finite or NaN-literal number, the parse is retried splitting on
// arbitrary whitespace, which recovers space-padded camera dumps. A table
// consisting of a single row is reshaped to a single column.
func LoadTable(path string) (*Field, error) {
	f, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rc, err := maybeDecompress(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
	}

	field, err := parseTable(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return field, nil
}

func parseTable(data []byte) (*Field, error) {
	records, err := readDelimited(data, detectDelimiter(bytes.NewReader(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	field, numeric, err := gridToField(records)
	if err != nil {
		return nil, err
	}

	// An all-NaN result usually means the delimiter guess was wrong (for
	// example, a space-separated export read as one comma-delimited cell per
	// line). Retry on whitespace and keep that result if it finds numbers.
	if numeric == 0 {
		if wsRecords := splitWhitespace(data); len(wsRecords) > 0 {
			if wsField, wsNumeric, wsErr := gridToField(wsRecords); wsErr == nil && wsNumeric > 0 {
				return wsField, nil
			}
		}
	}

	return field, nil
}

func readDelimited(data []byte, delim rune) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delim
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	return r.ReadAll()
}

func splitWhitespace(data []byte) [][]string {
	var records [][]string
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		records = append(records, fields)
	}

	return records
}

// gridToField converts string records to a temperature field, enforcing a
// rectangular shape. It also reports how many cells held a parseable,
// non-NaN value, which drives the whitespace-retry decision above.
func gridToField(records [][]string) (*Field, int, error) {
	if len(records) == 0 {
		return nil, 0, fmt.Errorf("%w: no rows", ErrEmpty)
	}

	cols := len(records[0])
	for i, rec := range records {
		if len(rec) != cols {
			return nil, 0, fmt.Errorf("%w: row %d has %d values, want %d", ErrUnreadable, i+1, len(rec), cols)
		}
	}

	// A single row is reshaped to a single column, never silently dropped.
	if len(records) == 1 && cols > 1 {
		column := make([][]string, cols)
		for i, cell := range records[0] {
			column[i] = []string{cell}
		}
		records, cols = column, 1
	}

	rows := len(records)
	field := &Field{
		Kind:  KindTemperature,
		Rows:  rows,
		Cols:  cols,
		Temps: make([]float32, rows*cols),
		Stats: NewStats(),
	}

	numeric := 0
	for i, rec := range records {
		for j, cell := range rec {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				v = math.NaN()
			} else if !math.IsNaN(v) {
				numeric++
			}

			v, replaced := scrub(v)
			if replaced {
				field.Scrubbed++
			}

			field.Temps[i*cols+j] = float32(v)
			field.Stats.Push(v)
		}
	}

	return field, numeric, nil
}

// openInput opens path and rejects files that cannot possibly hold a
// measurement.
func openInput(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
	}
	if fi.Size() == 0 {
		f.Close()
		return nil, fmt.Errorf("%w: %s: zero-byte file", ErrUnreadable, path)
	}

	return f, nil
}
