package exec

import (
	"fmt"
	"log"
	"math"

	"github.com/photonlab/qgrid/internal/calib"
	"github.com/photonlab/qgrid/internal/decode"
	"github.com/photonlab/qgrid/internal/device"
	"github.com/photonlab/qgrid/internal/frame"
	"github.com/photonlab/qgrid/internal/grid"
)

// Emitter is the firing capability the orchestrator needs.
type Emitter interface {
	Fire(row, col, durationMs int) error
}

// Pulser is the pulse actuation capability the orchestrator needs.
type Pulser interface {
	ApplyPulse(target device.PulseTarget, freqGHz, amp float64, durationNs int, phaseRad float64) error
}

// Sensor is the capture capability the orchestrator needs.
type Sensor interface {
	CaptureFrame() (*frame.Frame, error)
	CaptureDark() (*frame.Frame, error)
}

// ActiveSiteClearer is implemented by the simulated device so the reset
// phase can drop illumination accumulated while normalizing hardware
// state. Real hardware needs no equivalent: its emitters simply stop.
type ActiveSiteClearer interface {
	ClearActiveSites()
}

// pulseSpec is the fixed hardware tuning for one gate name: carrier
// frequency, amplitude, and duration. The phase is the gate angle where
// the gate carries one.
type pulseSpec struct {
	freqGHz    float64
	amp        float64
	durationNs int
	phase      float64
	usesParam  bool
	paired     bool
}

// pulseTable maps gate names to their excitation pulses. This is a
// hardware-tuning detail: the drive visualizes activity and never
// determines the logical outcome.
var pulseTable = map[string]pulseSpec{
	OpHadamard:  {freqGHz: 2.5, amp: 1.0, durationNs: 100, phase: 0},
	OpRotationZ: {freqGHz: 2.5, amp: 0.5, durationNs: 50, usesParam: true},
	OpRotationY: {freqGHz: 2.5, amp: 0.5, durationNs: 50, usesParam: true},
	OpCtrlPhase: {freqGHz: 2.5, amp: 0.5, durationNs: 50, usesParam: true, paired: true},
	OpPauliX:    {freqGHz: 2.5, amp: 1.0, durationNs: 50, phase: math.Pi},
}

// resetFireDurationMs is how long each active site is fired during the
// pre-run reset phase.
const resetFireDurationMs = 100

// Orchestrator turns a gate-operation sequence plus an oracle-provided
// ground-truth bitstring into physical actuation and an observed
// bitstring read back from the sensor. The physical drive never changes
// the logical answer; it is a best-effort visualization of the oracle's
// outcome.
type Orchestrator struct {
	emitter Emitter
	pulser  Pulser
	sensor  Sensor
	decoder *decode.Decoder

	rows int
	cols int

	// clearer is non-nil when the underlying device is simulated and its
	// active-site set must be dropped after the reset phase.
	clearer ActiveSiteClearer
}

// NewOrchestrator wires the execution pipeline over the given
// capabilities for a rows×cols grid. If the device supports
// ActiveSiteClearer (the simulated controller does), pass it as clearer;
// otherwise pass nil.
func NewOrchestrator(emitter Emitter, pulser Pulser, sensor Sensor, decoder *decode.Decoder, rows, cols int, clearer ActiveSiteClearer) *Orchestrator {
	if decoder == nil {
		decoder = decode.NewDecoder()
	}
	decoder.GridCols = cols
	return &Orchestrator{
		emitter: emitter,
		pulser:  pulser,
		sensor:  sensor,
		decoder: decoder,
		rows:    rows,
		cols:    cols,
		clearer: clearer,
	}
}

// Execute runs the full pipeline strictly in order: reset, actuation,
// background capture, oracle-driven visualization, readout capture,
// decode, and high-to-low bitstring assembly. The returned bitstring has
// one character per classical bit of the sequence, defaulting missing
// information to '0'.
func (o *Orchestrator) Execute(ops []GateOp, oracleBits string, mapping calib.Mapping) (string, error) {
	// Phase 1: the sites the sequence actually drives.
	active := ActiveSites(ops)

	// Phase 2: normalize hardware state by firing each active site.
	for q := range active {
		site := grid.SiteForIndex(q, o.cols)
		if err := o.emitter.Fire(site.Row, site.Col, resetFireDurationMs); err != nil {
			return "", fmt.Errorf("reset fire at %v failed: %w", site, err)
		}
	}
	if o.clearer != nil {
		o.clearer.ClearActiveSites()
	}

	// Phase 3: best-effort pulse actuation in sequence order. Dispatch
	// failures are logged and skipped; the logical outcome comes from the
	// oracle, not from this drive.
	for _, op := range ops {
		if err := o.dispatch(op); err != nil {
			log.Printf("pulse dispatch for %q failed: %v", op.Name, err)
		}
	}

	// Phase 4: classical-bit to site correspondence.
	mmap := BuildMeasurementMap(ops)
	numClbits := len(mmap)

	// Phase 5: pristine background, captured before any
	// measurement-representing actuation.
	background, err := o.sensor.CaptureDark()
	if err != nil {
		return "", fmt.Errorf("failed to capture background: %w", err)
	}

	// Phase 6: light up each site whose oracle bit reads 1. Index 0 of
	// the oracle string is the highest-order classical bit.
	for clIdx, q := range mmap {
		if q == nil {
			continue
		}
		strIdx := numClbits - 1 - clIdx
		if strIdx < 0 || strIdx >= len(oracleBits) || oracleBits[strIdx] != '1' {
			continue
		}
		site := grid.SiteForIndex(*q, o.cols)
		if err := o.emitter.Fire(site.Row, site.Col, resetFireDurationMs); err != nil {
			log.Printf("visualization fire at %v failed: %v", site, err)
		}
	}

	// Phase 7: readout frame.
	readout, err := o.sensor.CaptureFrame()
	if err != nil {
		return "", fmt.Errorf("failed to capture readout frame: %w", err)
	}

	// Phase 8: decode every site in the grid.
	states := o.decoder.Decode(readout, mapping, o.rows*o.cols, background)

	// Phase 9: assemble classical bits from highest to lowest, matching
	// the oracle's ordering so a clean run reproduces it exactly.
	bits := make([]byte, 0, numClbits)
	for clIdx := numClbits - 1; clIdx >= 0; clIdx-- {
		bit := byte('0')
		if q := mmap[clIdx]; q != nil && *q >= 0 && *q < len(states) && states[*q] == 1 {
			bit = '1'
		}
		bits = append(bits, bit)
	}

	return string(bits), nil
}

// dispatch sends the excitation pulse for one operation. Measurements and
// barriers are no-ops at this stage.
func (o *Orchestrator) dispatch(op GateOp) error {
	spec, ok := pulseTable[op.Name]
	if !ok {
		if op.Name == OpMeasure || op.Name == OpBarrier {
			return nil
		}
		return fmt.Errorf("no pulse mapping for operation %q", op.Name)
	}

	phase := spec.phase
	if spec.usesParam {
		if len(op.Params) == 0 {
			return fmt.Errorf("operation %q missing angle parameter", op.Name)
		}
		phase = op.Params[0]
	}

	var target device.PulseTarget
	if spec.paired {
		if len(op.Qubits) < 2 {
			return fmt.Errorf("operation %q wants a site pair, got %d sites", op.Name, len(op.Qubits))
		}
		target = device.Pair(op.Qubits[0], op.Qubits[1])
	} else {
		if len(op.Qubits) < 1 {
			return fmt.Errorf("operation %q has no target site", op.Name)
		}
		target = device.Single(op.Qubits[0])
	}

	return o.pulser.ApplyPulse(target, spec.freqGHz, spec.amp, spec.durationNs, phase)
}
