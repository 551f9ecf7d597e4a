// Package grid defines the addressing types shared by the emitter,
// calibration, and readout layers: a Site identifies one physical location
// in the emitter/readout grid, a Pixel identifies a location in a captured
// sensor frame.
package grid

import (
	"fmt"
	"strconv"
	"strings"
)

// Site identifies one addressable location in the emitter grid.
type Site struct {
	Row int
	Col int
}

// Key returns the flat "row_col" form used for serialized mappings.
func (s Site) Key() string {
	return fmt.Sprintf("%d_%d", s.Row, s.Col)
}

func (s Site) String() string {
	return fmt.Sprintf("(%d, %d)", s.Row, s.Col)
}

// Index returns the row-major logical site index for a grid of the given
// width. Logical site indices stand in for qubit numbers in the rest of
// the pipeline.
func (s Site) Index(cols int) int {
	return s.Row*cols + s.Col
}

// SiteForIndex resolves a logical site index back to its grid position.
func SiteForIndex(i, cols int) Site {
	return Site{Row: i / cols, Col: i % cols}
}

// ParseKey parses the "row_col" serialized form back into a Site.
func ParseKey(key string) (Site, error) {
	parts := strings.SplitN(key, "_", 2)
	if len(parts) != 2 {
		return Site{}, fmt.Errorf("invalid site key %q", key)
	}
	row, err := strconv.Atoi(parts[0])
	if err != nil {
		return Site{}, fmt.Errorf("invalid site key %q: %v", key, err)
	}
	col, err := strconv.Atoi(parts[1])
	if err != nil {
		return Site{}, fmt.Errorf("invalid site key %q: %v", key, err)
	}
	return Site{Row: row, Col: col}, nil
}

// Pixel is an integer pixel coordinate within a captured frame.
type Pixel struct {
	X int
	Y int
}

func (p Pixel) String() string {
	return fmt.Sprintf("(%d, %d)", p.X, p.Y)
}
