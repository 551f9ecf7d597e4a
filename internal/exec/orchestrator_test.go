package exec

import (
	"fmt"
	"strings"
	"testing"

	"github.com/photonlab/qgrid/internal/calib"
	"github.com/photonlab/qgrid/internal/decode"
	"github.com/photonlab/qgrid/internal/device"
	"github.com/photonlab/qgrid/internal/grid"
	"github.com/photonlab/qgrid/internal/link"
)

type testBench struct {
	sim     *link.SimConn
	orch    *Orchestrator
	mapping calib.Mapping
}

// newTestBench wires the full pipeline over a simulated device with an
// ideal calibration: every site maps to its cell center.
func newTestBench() *testBench {
	sim := link.NewSimConn(8, 8, 480, 640)
	emitter := device.NewEmitterGrid(sim, 8, 8)
	pulser := device.NewPulseActuator(sim)
	sensor := device.NewImageSensor(sim, 480, 640)

	mapping := make(calib.Mapping, 64)
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			mapping[grid.Site{Row: r, Col: c}] = grid.Pixel{X: c*80 + 40, Y: r*60 + 30}
		}
	}

	return &testBench{
		sim:     sim,
		orch:    NewOrchestrator(emitter, pulser, sensor, decode.NewDecoder(), 8, 8, sim),
		mapping: mapping,
	}
}

// directOps builds an excite-and-measure sequence where qubit i reads out
// on classical bit i.
func directOps(n int) []GateOp {
	var ops []GateOp
	for i := 0; i < n; i++ {
		ops = append(ops, GateOp{Name: OpPauliX, Qubits: []int{i}})
	}
	for i := 0; i < n; i++ {
		ops = append(ops, GateOp{Name: OpMeasure, Qubits: []int{i}, Clbits: []int{i}})
	}
	return ops
}

func TestExecuteReproducesOracle(t *testing.T) {
	for v := 0; v < 16; v++ {
		oracle := fmt.Sprintf("%04b", v)
		t.Run(oracle, func(t *testing.T) {
			bench := newTestBench()
			got, err := bench.orch.Execute(directOps(4), oracle, bench.mapping)
			if err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if got != oracle {
				t.Errorf("readout = %q, want %q", got, oracle)
			}
		})
	}
}

func TestExecuteCrossedMeasurementOrder(t *testing.T) {
	// Qubit i reads out on classical bit 3-i. The assembled bitstring must
	// still reproduce the oracle: ordering is resolved per classical bit,
	// not per site.
	ops := []GateOp{
		{Name: OpPauliX, Qubits: []int{0}},
		{Name: OpPauliX, Qubits: []int{3}},
	}
	for i := 0; i < 4; i++ {
		ops = append(ops, GateOp{Name: OpMeasure, Qubits: []int{i}, Clbits: []int{3 - i}})
	}

	bench := newTestBench()
	got, err := bench.orch.Execute(ops, "1001", bench.mapping)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got != "1001" {
		t.Errorf("readout = %q, want %q", got, "1001")
	}

	// Only the excited sites 0 and 3 are ever fired; the zero bits light
	// nothing.
	fired := strings.Join(bench.sim.Commands, "\n")
	if strings.Contains(fired, "FIRE_LASER 0 1") || strings.Contains(fired, "FIRE_LASER 0 2") {
		t.Error("zero-bit site was fired")
	}
}

func TestExecuteUnmappedSiteReadsZero(t *testing.T) {
	bench := newTestBench()
	delete(bench.mapping, grid.Site{Row: 0, Col: 1})

	got, err := bench.orch.Execute(directOps(4), "1111", bench.mapping)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got != "1101" {
		t.Errorf("readout = %q, want %q (site 1 has no calibration)", got, "1101")
	}
}

func TestExecuteBestEffortDispatch(t *testing.T) {
	// A pair gate with a single target cannot be dispatched; the run must
	// continue and the oracle still decides the outcome.
	ops := []GateOp{
		{Name: OpCtrlPhase, Qubits: []int{0}, Params: []float64{1.0}},
		{Name: OpPauliX, Qubits: []int{1}},
		{Name: OpMeasure, Qubits: []int{0}, Clbits: []int{0}},
		{Name: OpMeasure, Qubits: []int{1}, Clbits: []int{1}},
	}

	bench := newTestBench()
	got, err := bench.orch.Execute(ops, "10", bench.mapping)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got != "10" {
		t.Errorf("readout = %q, want %q", got, "10")
	}
}

func TestExecuteMalformedMeasureIndices(t *testing.T) {
	// A measure op carrying a negative qubit index cannot be read out; its
	// classical bit defaults to '0' instead of aborting the run.
	ops := []GateOp{
		{Name: OpPauliX, Qubits: []int{1}},
		{Name: OpMeasure, Qubits: []int{-1}, Clbits: []int{0}},
		{Name: OpMeasure, Qubits: []int{1}, Clbits: []int{1}},
		{Name: OpMeasure, Qubits: []int{0}, Clbits: []int{-1}},
	}

	bench := newTestBench()
	got, err := bench.orch.Execute(ops, "11", bench.mapping)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got != "10" {
		t.Errorf("readout = %q, want %q (unreadable bit defaults to 0)", got, "10")
	}
}

func TestExecuteNoMeasurements(t *testing.T) {
	ops := []GateOp{{Name: OpHadamard, Qubits: []int{0}}}

	bench := newTestBench()
	got, err := bench.orch.Execute(ops, "", bench.mapping)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got != "" {
		t.Errorf("readout = %q, want empty string", got)
	}
}

func TestDispatchGateTable(t *testing.T) {
	bench := newTestBench()
	ops := []GateOp{
		{Name: OpHadamard, Qubits: []int{0}},
		{Name: OpRotationZ, Qubits: []int{1}, Params: []float64{0.5}},
		{Name: OpCtrlPhase, Qubits: []int{2, 3}, Params: []float64{1.5}},
		{Name: OpPauliX, Qubits: []int{4}},
	}
	for _, op := range ops {
		if err := bench.orch.dispatch(op); err != nil {
			t.Errorf("dispatch(%s): %v", op.Name, err)
		}
	}

	want := []string{
		"APPLY_PULSE 0 2.5 1 100 0",
		"APPLY_PULSE 1 2.5 0.5 50 0.5",
		"APPLY_PULSE 2_3 2.5 0.5 50 1.5",
		"APPLY_PULSE 4 2.5 1 50 3.141592653589793",
	}
	if len(bench.sim.Commands) != len(want) {
		t.Fatalf("sent %d commands, want %d", len(bench.sim.Commands), len(want))
	}
	for i, w := range want {
		if bench.sim.Commands[i] != w {
			t.Errorf("command[%d] = %q, want %q", i, bench.sim.Commands[i], w)
		}
	}
}

func TestDispatchMissingParam(t *testing.T) {
	bench := newTestBench()
	err := bench.orch.dispatch(GateOp{Name: OpRotationY, Qubits: []int{0}})
	if err == nil {
		t.Error("rotation without an angle parameter dispatched")
	}
}
