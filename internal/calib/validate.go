package calib

import (
	"fmt"

	"github.com/photonlab/qgrid/internal/grid"
)

// MinPixelSpan is the minimum spread, in pixels, that a plausible
// calibration must cover on each image axis. Anything tighter means the
// optics are collapsed or the sweep imaged a single spot.
const MinPixelSpan = 100

// ValidationReport describes the quality of a calibration mapping.
// Quality problems are reported, never raised: the caller decides whether
// to accept, recalibrate, or abort.
type ValidationReport struct {
	Valid     bool
	Coverage  float64
	SiteCount int
	Issues    []string
}

// Validate checks a mapping for incomplete coverage, duplicate pixel
// coordinates (ambiguous readout), and degenerate spatial spread.
func Validate(mapping Mapping, rows, cols int) ValidationReport {
	report := ValidationReport{SiteCount: len(mapping)}

	expected := rows * cols
	if expected <= 0 || len(mapping) == 0 {
		report.Issues = append(report.Issues, "no calibration data")
		return report
	}

	report.Coverage = float64(len(mapping)) / float64(expected) * 100
	if len(mapping) < expected {
		report.Issues = append(report.Issues,
			fmt.Sprintf("missing %d of %d sites", expected-len(mapping), expected))
	}

	seen := make(map[grid.Pixel]int, len(mapping))
	for _, px := range mapping {
		seen[px]++
	}
	for px, n := range seen {
		if n > 1 {
			report.Issues = append(report.Issues,
				fmt.Sprintf("duplicate pixel position %v shared by %d sites", px, n))
		}
	}

	if len(mapping) >= 4 {
		minX, maxX, minY, maxY := spread(mapping)
		if maxX-minX < MinPixelSpan || maxY-minY < MinPixelSpan {
			report.Issues = append(report.Issues,
				fmt.Sprintf("positions clustered too tightly (x span %d, y span %d)",
					maxX-minX, maxY-minY))
		}
	}

	report.Valid = len(report.Issues) == 0
	return report
}

func spread(mapping Mapping) (minX, maxX, minY, maxY int) {
	first := true
	for _, px := range mapping {
		if first {
			minX, maxX, minY, maxY = px.X, px.X, px.Y, px.Y
			first = false
			continue
		}
		if px.X < minX {
			minX = px.X
		}
		if px.X > maxX {
			maxX = px.X
		}
		if px.Y < minY {
			minY = px.Y
		}
		if px.Y > maxY {
			maxY = px.Y
		}
	}
	return minX, maxX, minY, maxY
}
