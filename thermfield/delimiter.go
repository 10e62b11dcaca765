package thermfield

import (
	"io"

	"github.com/csimplestring/go-csv/detector"
)

// detectDelimiter returns the single most likely rune delimiting the values
// in the reader, assuming a CSV-like file. In an all-numeric table the
// decimal points outnumber the real delimiters, so candidates are filtered
// to punctuation that actually delimits tabular exports. Falls back to a
// comma when detection is inconclusive.
func detectDelimiter(r io.Reader) rune {
	d := detector.New()
	delimiters := d.DetectDelimiter(r, '"')

	for _, candidate := range delimiters {
		switch c := rune(candidate[0]); c {
		case ',', '\t', ';', '|':
			return c
		}
	}

	return ','
}
