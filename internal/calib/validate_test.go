package calib

import (
	"strings"
	"testing"

	"github.com/photonlab/qgrid/internal/grid"
)

// spreadMapping builds a mapping whose positions mirror the simulated
// bench geometry: 80 pixels per column, 60 per row.
func spreadMapping(rows, cols int) Mapping {
	m := make(Mapping, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			m[grid.Site{Row: r, Col: c}] = grid.Pixel{X: c*80 + 40, Y: r*60 + 30}
		}
	}
	return m
}

func TestValidateAcceptsCompleteMapping(t *testing.T) {
	report := Validate(spreadMapping(8, 8), 8, 8)
	if !report.Valid {
		t.Fatalf("complete mapping rejected: %v", report.Issues)
	}
	if report.Coverage != 100 || report.SiteCount != 64 {
		t.Errorf("coverage=%v sites=%d, want 100/64", report.Coverage, report.SiteCount)
	}
}

func TestValidateEmptyMapping(t *testing.T) {
	report := Validate(Mapping{}, 8, 8)
	if report.Valid {
		t.Error("empty mapping accepted")
	}
	if len(report.Issues) != 1 || report.Issues[0] != "no calibration data" {
		t.Errorf("issues = %v", report.Issues)
	}
}

func TestValidateReportsMissingSites(t *testing.T) {
	m := spreadMapping(8, 8)
	delete(m, grid.Site{Row: 0, Col: 0})
	delete(m, grid.Site{Row: 4, Col: 4})

	report := Validate(m, 8, 8)
	if report.Valid {
		t.Error("incomplete mapping accepted")
	}
	if !hasIssue(report, "missing 2 of 64 sites") {
		t.Errorf("issues = %v", report.Issues)
	}
	if want := float64(62) / 64 * 100; report.Coverage != want {
		t.Errorf("coverage = %v, want %v", report.Coverage, want)
	}
}

func TestValidateReportsDuplicatePixels(t *testing.T) {
	m := spreadMapping(8, 8)
	m[grid.Site{Row: 0, Col: 1}] = m[grid.Site{Row: 0, Col: 0}]

	report := Validate(m, 8, 8)
	if report.Valid {
		t.Error("mapping with duplicate pixels accepted")
	}
	if !hasIssue(report, "duplicate pixel position") {
		t.Errorf("issues = %v", report.Issues)
	}
}

func TestValidateReportsDegenerateSpread(t *testing.T) {
	// All sites found, but every spot inside a 10x10 pixel cluster.
	m := make(Mapping, 64)
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			m[grid.Site{Row: r, Col: c}] = grid.Pixel{X: 300 + c, Y: 200 + r}
		}
	}

	report := Validate(m, 8, 8)
	if report.Valid {
		t.Error("collapsed optics accepted")
	}
	if !hasIssue(report, "clustered too tightly") {
		t.Errorf("issues = %v", report.Issues)
	}
}

func TestValidateSkipsSpreadCheckForTinyMappings(t *testing.T) {
	m := Mapping{
		{Row: 0, Col: 0}: {X: 100, Y: 100},
		{Row: 0, Col: 1}: {X: 101, Y: 100},
	}
	report := Validate(m, 1, 2)
	if !report.Valid {
		t.Errorf("two-site mapping rejected: %v", report.Issues)
	}
}

func hasIssue(report ValidationReport, substr string) bool {
	for _, issue := range report.Issues {
		if strings.Contains(issue, substr) {
			return true
		}
	}
	return false
}
