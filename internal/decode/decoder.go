// Package decode converts a captured readout frame into a per-site binary
// state vector using a calibration mapping.
package decode

import (
	"log"

	"github.com/photonlab/qgrid/internal/calib"
	"github.com/photonlab/qgrid/internal/frame"
	"github.com/photonlab/qgrid/internal/grid"
)

// minDenominator guards the contrast division when the decision threshold
// coincides with the background level.
const minDenominator = 1e-6

// Decoder thresholds per-site region-of-interest intensities into binary
// states.
type Decoder struct {
	// CMax is the contrast value mapped to a fully-excited site.
	CMax float64

	// Threshold is the intensity decision level the contrast is taken
	// against.
	Threshold float64

	// ROIRadius is the radius, in pixels, of the circular region sampled
	// around each mapped site.
	ROIRadius int

	// GridCols is the grid width used to resolve logical site indices.
	GridCols int
}

// NewDecoder returns a decoder with the bench defaults.
func NewDecoder() *Decoder {
	return &Decoder{
		CMax:      0.2,
		Threshold: 50,
		ROIRadius: 15,
		GridCols:  8,
	}
}

// Decode returns one binary state per logical site index in
// [0, numSites). Sites absent from the mapping, or whose contrast is too
// low, decode to 0; the result is always full length and decoding never
// aborts on a single site.
func (d *Decoder) Decode(f *frame.Frame, mapping calib.Mapping, numSites int, background *frame.Frame) []int {
	var bgMean float64
	if background != nil {
		bgMean = background.Mean()
	}

	denom := d.Threshold - bgMean
	if denom < minDenominator {
		denom = minDenominator
	}

	states := make([]int, numSites)
	for i := 0; i < numSites; i++ {
		site := grid.SiteForIndex(i, d.GridCols)
		px, ok := mapping[site]
		if !ok {
			log.Printf("decode: no mapping for %v; assuming ground state", site)
			continue
		}

		roiMean := f.CircleMean(px.X, px.Y, d.ROIRadius)
		contrast := (roiMean - bgMean) / denom

		normalized := contrast / d.CMax
		if normalized < 0 {
			normalized = 0
		}
		if normalized > 1 {
			normalized = 1
		}

		if normalized > 0.5 {
			states[i] = 1
		}
	}
	return states
}
