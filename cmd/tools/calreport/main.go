// calreport renders a stored calibration mapping as an interactive HTML
// scatter chart, color-graded by grid row.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/photonlab/qgrid/internal/store"
)

var (
	dbPath    = flag.String("db", "qgrid.db", "Path to the calibration store")
	mappingID = flag.String("mapping", "default", "Calibration mapping identifier")
	outPath   = flag.String("out", "calibration.html", "Output HTML path")
)

func main() {
	flag.Parse()

	db, err := store.Open(*dbPath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer db.Close()

	mapping, rows, cols, err := db.LoadMapping(*mappingID)
	if err != nil {
		log.Fatalf("failed to load mapping: %v", err)
	}

	data := make([]opts.ScatterData, 0, len(mapping))
	for site, px := range mapping {
		data = append(data, opts.ScatterData{
			Name:  site.Key(),
			Value: []interface{}{px.X, px.Y, site.Row},
		})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Calibration Mapping", Theme: "dark", Width: "900px", Height: "700px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Grid-to-pixel calibration",
			Subtitle: fmt.Sprintf("mapping=%s sites=%d grid=%dx%d", *mappingID, len(mapping), rows, cols),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "pixel x"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "pixel y"}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(rows - 1),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: []string{"#440154", "#31688e", "#35b779", "#fde725"}},
		}),
	)
	scatter.AddSeries("sites", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))

	f, err := os.Create(*outPath)
	if err != nil {
		log.Fatalf("failed to create output: %v", err)
	}
	defer f.Close()

	if err := scatter.Render(f); err != nil {
		log.Fatalf("failed to render chart: %v", err)
	}
	log.Printf("wrote %s", *outPath)
}
