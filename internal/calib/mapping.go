// Package calib learns and validates the spatial correspondence between
// emitter grid sites and sensor pixel coordinates.
package calib

import (
	"encoding/json"
	"fmt"

	"github.com/photonlab/qgrid/internal/grid"
)

// Mapping is the learned grid-site to pixel-coordinate correspondence. It
// is built once per calibration run and never mutated outside one.
type Mapping map[grid.Site]grid.Pixel

// MarshalJSON serializes the mapping as a flat object of
// "row_col": [x, y] entries, the only form external storage sees.
func (m Mapping) MarshalJSON() ([]byte, error) {
	flat := make(map[string][2]int, len(m))
	for site, px := range m {
		flat[site.Key()] = [2]int{px.X, px.Y}
	}
	return json.Marshal(flat)
}

// UnmarshalJSON parses the flat "row_col": [x, y] form.
func (m *Mapping) UnmarshalJSON(data []byte) error {
	var flat map[string][2]int
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}
	out := make(Mapping, len(flat))
	for key, xy := range flat {
		site, err := grid.ParseKey(key)
		if err != nil {
			return fmt.Errorf("bad mapping entry: %v", err)
		}
		out[site] = grid.Pixel{X: xy[0], Y: xy[1]}
	}
	*m = out
	return nil
}
