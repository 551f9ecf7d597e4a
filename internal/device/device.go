// Package device exposes the grid controller's three capabilities over a
// link.Conn: firing emitters, applying excitation pulses, and capturing
// sensor frames. Each type carries only actuation mechanics; none of them
// computes anything about the state being displayed.
package device

import (
	"fmt"
	"log"

	"github.com/photonlab/qgrid/internal/frame"
	"github.com/photonlab/qgrid/internal/grid"
	"github.com/photonlab/qgrid/internal/link"
)

// Default emitter grid and sensor geometry for the bench hardware.
const (
	DefaultGridRows = 8
	DefaultGridCols = 8

	DefaultFrameHeight = 480
	DefaultFrameWidth  = 640
)

// EmitterGrid addresses the rectangular grid of light sources.
type EmitterGrid struct {
	conn link.Conn
	rows int
	cols int
}

// NewEmitterGrid returns an emitter grid of the given dimensions.
func NewEmitterGrid(conn link.Conn, rows, cols int) *EmitterGrid {
	return &EmitterGrid{conn: conn, rows: rows, cols: cols}
}

// Rows returns the grid height.
func (e *EmitterGrid) Rows() int { return e.rows }

// Cols returns the grid width.
func (e *EmitterGrid) Cols() int { return e.cols }

// Fire illuminates the emitter at (row, col) for durationMs milliseconds.
func (e *EmitterGrid) Fire(row, col, durationMs int) error {
	if row < 0 || row >= e.rows || col < 0 || col >= e.cols {
		return fmt.Errorf("site (%d, %d) outside %dx%d grid", row, col, e.rows, e.cols)
	}
	return e.conn.SendCommand(fmt.Sprintf("FIRE_LASER %d %d %d", row, col, durationMs))
}

// FireAll fires every emitter in row-major order.
func (e *EmitterGrid) FireAll(durationMs int) error {
	for row := 0; row < e.rows; row++ {
		for col := 0; col < e.cols; col++ {
			if err := e.Fire(row, col, durationMs); err != nil {
				return err
			}
		}
	}
	return nil
}

// FirePattern fires the given sites in order. Failures on individual sites
// are logged and skipped so a partial pattern still renders.
func (e *EmitterGrid) FirePattern(sites []grid.Site, durationMs int) {
	for _, s := range sites {
		if err := e.Fire(s.Row, s.Col, durationMs); err != nil {
			log.Printf("pattern fire at %v failed: %v", s, err)
		}
	}
}

// PulseTarget addresses an excitation pulse at a single logical site or a
// site pair.
type PulseTarget struct {
	A      int
	B      int
	Paired bool
}

// Single targets one logical site.
func Single(site int) PulseTarget { return PulseTarget{A: site} }

// Pair targets a site pair (control, target).
func Pair(a, b int) PulseTarget { return PulseTarget{A: a, B: b, Paired: true} }

func (t PulseTarget) String() string {
	if t.Paired {
		return fmt.Sprintf("%d_%d", t.A, t.B)
	}
	return fmt.Sprintf("%d", t.A)
}

// Synthesizer limits of the pulse source. Carriers and amplitudes outside
// these ranges are rejected before anything is sent to hardware.
const (
	MinPulseFreqGHz = 1.0
	MaxPulseFreqGHz = 4.4
)

// PulseActuator applies parameterized excitation pulses through the
// controller.
type PulseActuator struct {
	conn link.Conn
}

// NewPulseActuator returns a pulse actuator over the given link.
func NewPulseActuator(conn link.Conn) *PulseActuator {
	return &PulseActuator{conn: conn}
}

// ApplyPulse drives one excitation pulse at the target.
func (p *PulseActuator) ApplyPulse(target PulseTarget, freqGHz, amp float64, durationNs int, phaseRad float64) error {
	if freqGHz < MinPulseFreqGHz || freqGHz > MaxPulseFreqGHz {
		return fmt.Errorf("pulse frequency %.3f GHz outside synthesizer range [%.1f, %.1f]",
			freqGHz, MinPulseFreqGHz, MaxPulseFreqGHz)
	}
	if amp < 0.0 || amp > 1.0 {
		return fmt.Errorf("pulse amplitude %.3f outside [0, 1]", amp)
	}
	return p.conn.SendCommand(fmt.Sprintf("APPLY_PULSE %s %g %g %d %g",
		target, freqGHz, amp, durationNs, phaseRad))
}

// ImageSensor captures raw intensity frames through the controller.
type ImageSensor struct {
	conn   link.Conn
	height int
	width  int
}

// NewImageSensor returns a sensor of the given resolution.
func NewImageSensor(conn link.Conn, height, width int) *ImageSensor {
	return &ImageSensor{conn: conn, height: height, width: width}
}

// Resolution returns the sensor's (height, width).
func (s *ImageSensor) Resolution() (height, width int) {
	return s.height, s.width
}

// CaptureFrame captures one frame of the scene.
func (s *ImageSensor) CaptureFrame() (*frame.Frame, error) {
	return s.capture("CAPTURE_FRAME")
}

// CaptureDark captures a background frame with no sites active.
func (s *ImageSensor) CaptureDark() (*frame.Frame, error) {
	return s.capture("CAPTURE_DARK")
}

func (s *ImageSensor) capture(command string) (*frame.Frame, error) {
	if err := s.conn.SendCommand(command); err != nil {
		return nil, err
	}
	data, err := s.conn.ReceiveFrame(s.height, s.width)
	if err != nil {
		return nil, err
	}
	return frame.FromBytes(s.height, s.width, data)
}
