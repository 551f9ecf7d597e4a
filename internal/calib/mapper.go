package calib

import (
	"fmt"
	"log"
	"time"

	"github.com/photonlab/qgrid/internal/frame"
	"github.com/photonlab/qgrid/internal/grid"
)

// Emitter is the firing capability the mapper needs from the device layer.
type Emitter interface {
	Fire(row, col, durationMs int) error
}

// Sensor is the capture capability the mapper needs from the device layer.
type Sensor interface {
	CaptureFrame() (*frame.Frame, error)
	CaptureDark() (*frame.Frame, error)
}

// Options control one calibration sweep.
type Options struct {
	GridRows int
	GridCols int

	// MinContourArea is the minimum pixel count for a bright region to be
	// accepted as an emitter spot.
	MinContourArea int

	// Threshold is the fixed binarization level applied to the difference
	// image when Adaptive is false.
	Threshold float64

	// Adaptive derives the binarization level from the difference image
	// statistics instead of using the fixed Threshold.
	Adaptive bool

	// FireDuration is how long each site is illuminated per probe.
	FireDuration time.Duration

	// SettleDelay is the pause after firing before capture, letting
	// actuation and optics stabilize.
	SettleDelay time.Duration
}

// Normalize applies defaults for unset options.
func (o Options) Normalize() Options {
	opts := o
	if opts.GridRows <= 0 {
		opts.GridRows = 8
	}
	if opts.GridCols <= 0 {
		opts.GridCols = 8
	}
	if opts.MinContourArea <= 0 {
		opts.MinContourArea = 50
	}
	if opts.Threshold <= 0 {
		opts.Threshold = 50
	}
	if opts.FireDuration <= 0 {
		opts.FireDuration = 100 * time.Millisecond
	}
	return opts
}

// Report summarizes one calibration sweep.
type Report struct {
	Total       int
	Found       int
	Missing     []grid.Site
	SuccessRate float64
}

// Mapper discovers, for every site of the emitter grid, the pixel location
// it illuminates.
type Mapper struct {
	emitter Emitter
	sensor  Sensor
	opts    Options
}

// NewMapper returns a calibration mapper over the given capabilities.
func NewMapper(emitter Emitter, sensor Sensor, opts Options) *Mapper {
	return &Mapper{emitter: emitter, sensor: sensor, opts: opts.Normalize()}
}

// Calibrate sweeps the grid in row-major order, firing one site at a time
// and locating its spot in the captured frame. A site whose spot cannot be
// found is recorded as missing and the sweep continues; the sweep itself
// only fails on link or capture errors.
func (m *Mapper) Calibrate() (Mapping, Report, error) {
	opts := m.opts
	report := Report{Total: opts.GridRows * opts.GridCols}
	mapping := make(Mapping, report.Total)

	background, err := m.sensor.CaptureDark()
	if err != nil {
		return nil, report, fmt.Errorf("failed to capture calibration background: %w", err)
	}

	for row := 0; row < opts.GridRows; row++ {
		for col := 0; col < opts.GridCols; col++ {
			site := grid.Site{Row: row, Col: col}

			if err := m.emitter.Fire(row, col, int(opts.FireDuration.Milliseconds())); err != nil {
				log.Printf("calibration: fire at %v failed: %v", site, err)
				report.Missing = append(report.Missing, site)
				continue
			}
			if opts.SettleDelay > 0 {
				time.Sleep(opts.SettleDelay)
			}

			captured, err := m.sensor.CaptureFrame()
			if err != nil {
				return nil, report, fmt.Errorf("failed to capture frame for %v: %w", site, err)
			}

			px, found := locateSpot(captured, background, opts)
			if !found {
				log.Printf("calibration: no spot found for %v", site)
				report.Missing = append(report.Missing, site)
				continue
			}

			mapping[site] = px
			report.Found++
		}
	}

	report.SuccessRate = float64(report.Found) / float64(report.Total) * 100
	log.Printf("calibration complete: %d/%d sites (%.1f%%)",
		report.Found, report.Total, report.SuccessRate)
	return mapping, report, nil
}

// locateSpot finds the centroid of the dominant bright region in the
// difference image between the captured frame and the dark background.
func locateSpot(captured, background *frame.Frame, opts Options) (grid.Pixel, bool) {
	diff, err := frame.AbsDiff(captured, background)
	if err != nil {
		log.Printf("calibration: %v", err)
		return grid.Pixel{}, false
	}

	thresh := opts.Threshold
	if opts.Adaptive {
		mean, sigma := diff.MeanStdDev()
		thresh = mean + 2*sigma
		if thresh < 30 {
			thresh = 30
		}
	}

	mask := diff.Threshold(thresh)
	regions := frame.Components(mask, diff.Width, diff.Height)
	spot, ok := frame.Largest(regions, opts.MinContourArea)
	if !ok {
		return grid.Pixel{}, false
	}

	cx, cy := spot.Centroid()
	return grid.Pixel{X: cx, Y: cy}, true
}
