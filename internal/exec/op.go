// Package exec runs a flattened gate-operation sequence against the
// physical grid: best-effort pulse actuation, oracle-driven visualization
// of the outcome, and image readout back into a classical bitstring.
package exec

// Gate operation names as they appear in a flattened instruction sequence.
const (
	OpHadamard  = "h"
	OpRotationZ = "rz"
	OpRotationY = "ry"
	OpCtrlPhase = "cp"
	OpPauliX    = "x"
	OpMeasure   = "measure"
	OpBarrier   = "barrier"
)

// GateOp is one entry of a circuit's flattened instruction sequence after
// external transpilation.
type GateOp struct {
	Name   string    `json:"name"`
	Qubits []int     `json:"qubits"`
	Clbits []int     `json:"clbits,omitempty"`
	Params []float64 `json:"params,omitempty"`
}

// ActiveSites returns the set of logical site indices touched by any
// non-measurement, non-barrier operation.
func ActiveSites(ops []GateOp) map[int]bool {
	active := make(map[int]bool)
	for _, op := range ops {
		if op.Name == OpMeasure || op.Name == OpBarrier {
			continue
		}
		for _, q := range op.Qubits {
			active[q] = true
		}
	}
	return active
}

// MeasurementMap records, per classical bit index, which logical site that
// bit reads. Entries are nil for classical bits no measure operation
// targets.
type MeasurementMap []*int

// BuildMeasurementMap derives the classical-bit to site correspondence
// from the measure operations in the sequence. Its length is one past the
// highest classical bit index seen.
func BuildMeasurementMap(ops []GateOp) MeasurementMap {
	numClbits := 0
	for _, op := range ops {
		if op.Name != OpMeasure {
			continue
		}
		for _, cl := range op.Clbits {
			if cl+1 > numClbits {
				numClbits = cl + 1
			}
		}
	}

	mmap := make(MeasurementMap, numClbits)
	for _, op := range ops {
		if op.Name != OpMeasure || len(op.Qubits) == 0 || len(op.Clbits) == 0 {
			continue
		}
		cl := op.Clbits[0]
		if cl < 0 {
			continue
		}
		q := op.Qubits[0]
		mmap[cl] = &q
	}
	return mmap
}
