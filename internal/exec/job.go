package exec

import (
	"github.com/google/uuid"
	"github.com/photonlab/qgrid/internal/calib"
)

// Status is the lifecycle state of a Job.
type Status int

const (
	StatusQueued Status = iota
	StatusRunning
	StatusDone
)

func (s Status) String() string {
	switch s {
	case StatusQueued:
		return "QUEUED"
	case StatusRunning:
		return "RUNNING"
	case StatusDone:
		return "DONE"
	}
	return "UNKNOWN"
}

// Job is one queued execution of an operation sequence. A job runs to
// completion on the first result request; there is no cancellation.
type Job struct {
	id      string
	orch    *Orchestrator
	ops     []GateOp
	oracle  string
	mapping calib.Mapping

	status Status
	result string
	err    error
}

// NewJob queues an execution of ops against the orchestrator, visualizing
// the given oracle bitstring.
func NewJob(orch *Orchestrator, ops []GateOp, oracleBits string, mapping calib.Mapping) *Job {
	return &Job{
		id:      uuid.New().String(),
		orch:    orch,
		ops:     ops,
		oracle:  oracleBits,
		mapping: mapping,
		status:  StatusQueued,
	}
}

// ID returns the job's identifier.
func (j *Job) ID() string { return j.id }

// Status returns the job's current lifecycle state.
func (j *Job) Status() Status { return j.status }

// Submit marks the job as running.
func (j *Job) Submit() {
	if j.status == StatusQueued {
		j.status = StatusRunning
	}
}

// Result executes the job on first access and caches the outcome;
// repeated access returns the cached bitstring without re-execution.
func (j *Job) Result() (string, error) {
	if j.status != StatusDone {
		j.result, j.err = j.orch.Execute(j.ops, j.oracle, j.mapping)
		j.status = StatusDone
	}
	return j.result, j.err
}

// Cancel always reports failure: once queued, a job runs to completion on
// its first result request.
func (j *Job) Cancel() bool {
	return false
}
