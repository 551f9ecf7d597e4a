// calplot renders a stored calibration mapping as a scatter plot so the
// spread and any collisions can be inspected at the bench.
package main

import (
	"flag"
	"log"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/photonlab/qgrid/internal/store"
)

var (
	dbPath    = flag.String("db", "qgrid.db", "Path to the calibration store")
	mappingID = flag.String("mapping", "default", "Calibration mapping identifier")
	outPath   = flag.String("out", "calibration.png", "Output PNG path")
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

	pts := make(plotter.XYs, 0, len(mapping))
	for _, px := range mapping {
		pts = append(pts, plotter.XY{X: float64(px.X), Y: float64(px.Y)})
	}

	p := plot.New()
	p.Title.Text = "Calibration mapping"
	p.X.Label.Text = "pixel x"
	p.Y.Label.Text = "pixel y"
	// Image y grows downward; flip the axis so the plot matches the frame.
	p.Y.Min = 480
	p.Y.Max = 0

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		log.Fatalf("failed to build scatter: %v", err)
	}
	scatter.Radius = vg.Points(2)
	p.Add(scatter)

	if err := p.Save(8*vg.Inch, 6*vg.Inch, *outPath); err != nil {
		log.Fatalf("failed to save plot: %v", err)
	}
	log.Printf("wrote %s (%d sites of %dx%d grid)", *outPath, len(mapping), rows, cols)
}
