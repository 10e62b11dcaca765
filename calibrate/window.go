package calibrate

import (
	"github.com/montanaflynn/stats"

	"github.com/medtherm/thermdicom/thermfield"
)

// Window is a display hint in rescaled (temperature) units.
type Window struct {
	Center float64
	Width  float64
}

// deriveWindow picks a default display window: centered on the median, with
// the 1st-99th percentile span when the grid is large enough for percentiles
// to mean anything, so a few hot or cold outlier pixels do not wash out the
// display. Width never drops below 1 so degenerate fields stay viewable.
func deriveWindow(field *thermfield.Field) Window {
	data := make(stats.Float64Data, len(field.Temps))
	for i, v := range field.Temps {
		data[i] = float64(v)
	}

	center, err := stats.Median(data)
	if err != nil {
		center = field.Stats.Mean()
	}

	width := field.Stats.Max - field.Stats.Min
	if len(data) >= 100 {
		lo, loErr := stats.Percentile(data, 1)
		hi, hiErr := stats.Percentile(data, 99)
		if loErr == nil && hiErr == nil && hi > lo {
			width = hi - lo
		}
	}
	if width < 1 {
		width = 1
	}

	return Window{Center: center, Width: width}
}
