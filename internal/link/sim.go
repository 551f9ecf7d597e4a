package link

import (
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"

	"github.com/photonlab/qgrid/internal/grid"
)

// SimConn is a software-simulated grid controller. It accepts the same
// command protocol as the real device and synthesizes frames
// deterministically from its internal active-site set: each fired site
// renders as a filled disc at its cell center in the next captured frame.
//
// SimConn keeps no real I/O and is not safe for concurrent use; like the
// physical channel it models, it must be owned by exactly one pipeline at
// a time.
type SimConn struct {
	rows, cols    int
	height, width int

	active map[grid.Site]struct{}
	dead   map[grid.Site]bool

	// states shadows per-site excitation driven by pulses, mirroring the
	// controller firmware's internal bookkeeping. It does not influence
	// frame synthesis; frames come from the active-site set only.
	states map[int]int

	// Commands records every accepted command in order, for tests.
	Commands []string

	carrierGHz float64
	bandFrac   float64
	closed     bool
}

// NewSimConn creates a simulated controller for a rows×cols emitter grid
// imaged onto a height×width sensor.
func NewSimConn(rows, cols, height, width int) *SimConn {
	return &SimConn{
		rows:       rows,
		cols:       cols,
		height:     height,
		width:      width,
		active:     make(map[grid.Site]struct{}),
		dead:       make(map[grid.Site]bool),
		states:     make(map[int]int),
		carrierGHz: 2.5,
		bandFrac:   0.1,
	}
}

// SetDead marks sites whose emitters never illuminate. Firing them still
// acknowledges OK (the controller cannot tell a dead emitter from a live
// one), but nothing appears in captured frames.
func (s *SimConn) SetDead(sites ...grid.Site) {
	for _, site := range sites {
		s.dead[site] = true
	}
}

// ClearActiveSites drops all pending illumination. The orchestrator calls
// this after its reset phase when running against the simulated device.
func (s *SimConn) ClearActiveSites() {
	s.active = make(map[grid.Site]struct{})
}

// ActiveSites returns the sites currently pending illumination.
func (s *SimConn) ActiveSites() []grid.Site {
	sites := make([]grid.Site, 0, len(s.active))
	for site := range s.active {
		sites = append(sites, site)
	}
	return sites
}

// SendCommand parses and applies one protocol command.
func (s *SimConn) SendCommand(command string) error {
	if s.closed {
		return fmt.Errorf("simulated controller is closed")
	}
	command = strings.Join(strings.Fields(command), " ")
	parts := strings.Fields(command)
	if len(parts) == 0 {
		return fmt.Errorf("%w: empty command", ErrProtocol)
	}

	switch parts[0] {
	case "FIRE_LASER":
		if len(parts) != 4 {
			return fmt.Errorf("%w: FIRE_LASER wants 3 arguments, got %d", ErrProtocol, len(parts)-1)
		}
		row, err1 := strconv.Atoi(parts[1])
		col, err2 := strconv.Atoi(parts[2])
		if err1 != nil || err2 != nil {
			return fmt.Errorf("%w: malformed FIRE_LASER arguments %q", ErrProtocol, command)
		}
		site := grid.Site{Row: row, Col: col}
		if !s.dead[site] {
			s.active[site] = struct{}{}
			s.states[site.Index(s.cols)] = 1
		}

	case "APPLY_PULSE":
		if len(parts) != 6 {
			return fmt.Errorf("%w: APPLY_PULSE wants 5 arguments, got %d", ErrProtocol, len(parts)-1)
		}
		if err := s.applyPulse(parts[1:]); err != nil {
			return err
		}

	case "CAPTURE_FRAME":
		// Frame synthesis happens on ReceiveFrame.

	case "CAPTURE_DARK":
		s.active = make(map[grid.Site]struct{})
		s.states = make(map[int]int)

	default:
		return fmt.Errorf("%w: unknown command %q", ErrProtocol, parts[0])
	}

	s.Commands = append(s.Commands, command)
	return nil
}

// applyPulse models the controller's pulse handling: carriers outside the
// resonance band are rejected, an on-resonance pi pulse flips the target's
// shadow state, and a conditional phase on a pair advances the second site
// when the first is excited.
func (s *SimConn) applyPulse(args []string) error {
	freq, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("%w: malformed pulse frequency %q", ErrProtocol, args[1])
	}
	phase, err := strconv.ParseFloat(args[4], 64)
	if err != nil {
		return fmt.Errorf("%w: malformed pulse phase %q", ErrProtocol, args[4])
	}
	if math.Abs(freq-s.carrierGHz) > s.bandFrac*s.carrierGHz {
		return fmt.Errorf("%w: pulse carrier %.3f GHz off resonance", ErrProtocol, freq)
	}

	if strings.Contains(args[0], "_") {
		pair := strings.SplitN(args[0], "_", 2)
		a, err1 := strconv.Atoi(pair[0])
		b, err2 := strconv.Atoi(pair[1])
		if err1 != nil || err2 != nil {
			return fmt.Errorf("%w: malformed pulse target %q", ErrProtocol, args[0])
		}
		if s.states[a] == 1 {
			s.states[b] = (s.states[b] + int(phase/math.Pi)) % 2
		}
		return nil
	}

	target, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("%w: malformed pulse target %q", ErrProtocol, args[0])
	}
	if math.Abs(phase-math.Pi) < 1e-6 {
		s.states[target] = 1 - s.states[target]
	}
	return nil
}

// ReceiveFrame synthesizes the pending frame: zero background with a
// filled disc at each active site's cell center, then clears the active
// set so each capture observes only illumination since the previous one.
func (s *SimConn) ReceiveFrame(height, width int) ([]byte, error) {
	if s.closed {
		return nil, fmt.Errorf("simulated controller is closed")
	}
	if height != s.height || width != s.width {
		return nil, fmt.Errorf("%w: requested %dx%d frame from %dx%d sensor",
			ErrProtocol, height, width, s.height, s.width)
	}

	data := make([]byte, height*width)
	cellW := width / s.cols
	cellH := height / s.rows
	radius := cellW
	if cellH < radius {
		radius = cellH
	}
	radius /= 3

	for site := range s.active {
		cx := site.Col*cellW + cellW/2
		cy := site.Row*cellH + cellH/2
		fillDisc(data, width, height, cx, cy, radius)
	}
	s.active = make(map[grid.Site]struct{})

	return data, nil
}

func fillDisc(data []byte, width, height, cx, cy, radius int) {
	r2 := radius * radius
	for y := cy - radius; y <= cy+radius; y++ {
		if y < 0 || y >= height {
			continue
		}
		for x := cx - radius; x <= cx+radius; x++ {
			if x < 0 || x >= width {
				continue
			}
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= r2 {
				data[y*width+x] = 255
			}
		}
	}
}

// Close marks the simulated controller closed.
func (s *SimConn) Close() error {
	s.closed = true
	log.Printf("simulated controller disconnected")
	return nil
}
