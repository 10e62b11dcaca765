// thermstats summarizes a thermal capture without writing any DICOM: grid
// shape, temperature distribution, the rescale pair an assembly would use,
// and a terminal histogram of the temperatures.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/wcharczuk/go-chart/v2"
	"gonum.org/v1/gonum/stat"

	"github.com/medtherm/thermdicom"
	"github.com/medtherm/thermdicom/calibrate"
	_ "github.com/medtherm/thermdicom/compileinfoprint"
	"github.com/medtherm/thermdicom/thermfield"
)

// E.g.: go build -ldflags "-X main.builddate=`date -u +%Y-%m-%d:%H:%M:%S%Z`"
// Consider aliasing in .profile: alias gobuild='go build -ldflags "-X main.builddate=`date -u +%Y-%m-%d:%H:%M:%S%Z`"'
var builddate string

func main() {
	start := time.Now()
	log.Println("thermstats start")
	fmt.Fprintf(os.Stderr, "This thermstats binary was built at: %s\n", builddate)
	defer func() {
		log.Printf("thermstats end. Took %.2f seconds\n", time.Since(start).Seconds())
	}()

	var input, chartPath string
	var bins int

	flag.StringVar(&input, "input", "", "Path to one thermal capture (table or image; same formats as thermdicom).")
	flag.IntVar(&bins, "bins", 25, "(Optional) Histogram bucket count.")
	flag.StringVar(&chartPath, "chart", "", "(Optional) Write a sorted-temperature curve PNG to this path.")
	flag.Parse()

	if input == "" {
		flag.Usage()
		os.Exit(1)
	}

	if err := run(thermdicom.ExpandHome(input), thermdicom.ExpandHome(chartPath), bins); err != nil {
		log.Fatalln(err)
	}
}

func run(input, chartPath string, bins int) error {
	field, err := thermfield.Load(input)
	if err != nil {
		return err
	}

	fmt.Printf("input\t%s\n", input)
	fmt.Printf("kind\t%s\n", field.Kind)
	fmt.Printf("rows\t%d\n", field.Rows)
	fmt.Printf("cols\t%d\n", field.Cols)
	fmt.Printf("scrubbed_cells\t%d\n", field.Scrubbed)

	if field.Kind != thermfield.KindTemperature {
		// A display capture carries no temperatures to summarize.
		return nil
	}

	vals := make([]float64, len(field.Temps))
	for i, v := range field.Temps {
		vals[i] = float64(v)
	}
	sort.Float64s(vals)

	fmt.Printf("min\t%g\n", field.Stats.Min)
	fmt.Printf("mean\t%g\n", field.Stats.Mean())
	fmt.Printf("stddev\t%g\n", field.Stats.StandardDeviation())
	fmt.Printf("max\t%g\n", field.Stats.Max)
	for _, q := range []float64{0.01, 0.05, 0.50, 0.95, 0.99} {
		fmt.Printf("q%02.0f\t%g\n", q*100, stat.Quantile(q, stat.LinInterp, vals, nil))
	}

	img, err := calibrate.Encode(field)
	if err != nil {
		return err
	}
	fmt.Printf("rescale_slope\t%g\n", img.Rescale.Slope)
	fmt.Printf("rescale_intercept\t%g\n", img.Rescale.Intercept)
	fmt.Printf("window_center\t%g\n", img.Window.Center)
	fmt.Printf("window_width\t%g\n", img.Window.Width)

	if field.Stats.Min == field.Stats.Max {
		log.Println("Every cell holds the same value; skipping the histogram")
	} else {
		hist := histogram.Hist(bins, vals)
		if err := histogram.Fprint(os.Stdout, hist, histogram.Linear(40)); err != nil {
			return err
		}
	}

	if chartPath != "" {
		if err := writeCurve(chartPath, vals); err != nil {
			return err
		}
		log.Printf("Wrote %s\n", chartPath)
	}

	return nil
}

// writeCurve plots the sorted temperatures, which makes plateaus (constant
// background) and the dynamic range easy to eyeball.
func writeCurve(filename string, sorted []float64) error {
	graph := chart.Chart{
		Width:  512,
		Height: 256,
		XAxis: chart.XAxis{
			Style: chart.Hidden(),
		},
		YAxis: chart.YAxis{
			Style: chart.Hidden(),
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				XValues: intSeq(len(sorted)),
				YValues: sorted,
			},
		},
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return err
	}

	outFile, err := os.Create(filename)
	if err != nil {
		return err
	}
	if _, err := buffer.WriteTo(outFile); err != nil {
		return err
	}

	return outFile.Close()
}

func intSeq(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}

	return out
}
