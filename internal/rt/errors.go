package rt

import (
	"errors"
	"fmt"
	"time"
)

// ErrStopRequested is returned from a block's Step hook to request a
// clean stop. The current cycle completes, then the run winds down; it is
// cooperation, not a failure.
var ErrStopRequested = errors.New("stop requested")

// NonMonotonicClockError reports a time source that failed to advance.
// Clock regressions are fatal, not retried.
type NonMonotonicClockError struct {
	Last time.Duration
	Now  time.Duration
}

func (e *NonMonotonicClockError) Error() string {
	return fmt.Sprintf("time source did not advance: now %s, last %s", e.Now, e.Last)
}

// IncompleteCycleError reports an input port left unresolved after the
// full plan executed. A compiled plan covers every wired port, so this
// surfaces a scheduler bug rather than a user error.
type IncompleteCycleError struct {
	Block string
	Port  int
	T     float64
}

func (e *IncompleteCycleError) Error() string {
	return fmt.Sprintf("incomplete cycle at t=%.6fs: input %d of block %s was never set",
		e.T, e.Port, e.Block)
}

// BlockFaultError reports a per-block fault during a cycle: a non-finite
// output, a wrong result arity, or an error returned by the block itself.
// It carries the simulated time and an input snapshot for field
// debugging. Faults abort the run.
type BlockFaultError struct {
	Block  string
	Type   string
	T      float64
	Inputs []float64
	Err    error
}

func (e *BlockFaultError) Error() string {
	return fmt.Sprintf("block %s (%s) faulted at t=%.6fs with inputs %v: %v",
		e.Block, e.Type, e.T, e.Inputs, e.Err)
}

func (e *BlockFaultError) Unwrap() error { return e.Err }
