// Package rt is the real-time scheduler: it drives a compiled diagram's
// plan against a monotonic time source, one cycle at a time on one
// goroutine, ticking clocked blocks on schedule and propagating values
// through the wires. Given the same plan and the same dt sequence it
// produces the same outputs.
package rt

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/gridloop/gridloop/internal/ctxlog"
	"github.com/gridloop/gridloop/internal/diagram"
)

// State is the runtime lifecycle: Idle until Run, Running inside the
// loop, Stopped after. Stopped is terminal; a Runtime runs once.
type State int32

const (
	Idle State = iota
	Running
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// DefaultSmoothing is the default weight of the newest cycle in the
// observed-frequency moving average.
const DefaultSmoothing = 1.0 / 15

// initialFrequency seeds the moving average before any cycle has run.
const initialFrequency = 30.0

// Options configures a run.
type Options struct {
	// MaxTime stops the run once simulated time reaches it; 0 means no
	// limit.
	MaxTime time.Duration
	// Interval paces the loop by sleeping until the next multiple of the
	// interval between cycles; 0 runs back-to-back.
	Interval time.Duration
	// CatchUp picks the clock catch-up policy; default CatchUpSkip.
	CatchUp CatchUpPolicy
	// Smoothing is the frequency-average weight in (0, 1]; 0 means
	// DefaultSmoothing.
	Smoothing float64
	// Source is the monotonic time source; nil means a wall-clock
	// Monotonic anchored at Run.
	Source TimeSource
}

// Runtime executes a compiled diagram. Build one with New, run it once
// with Run. Stop may be called from any goroutine; everything else
// belongs to the run goroutine, and the accessors are meant for use after
// Run returns.
type Runtime struct {
	d    *diagram.Diagram
	plan *diagram.Plan
	opts Options

	// clocked mirrors d.Clocks(): the owned blocks of each clock,
	// asserted to Clocked once at construction so the hot loop never
	// type-asserts.
	clocked [][]diagram.Clocked

	state  atomic.Int32
	stop   atomic.Bool
	last   time.Duration
	t      time.Duration
	freq   float64
	cycles uint64
}

// New builds a runtime for a compiled diagram. It fails with
// diagram.NotCompiledError when the diagram has no current plan.
func New(d *diagram.Diagram, opts Options) (*Runtime, error) {
	plan, err := d.Plan()
	if err != nil {
		return nil, err
	}

	if opts.Smoothing == 0 {
		opts.Smoothing = DefaultSmoothing
	}
	if opts.Smoothing < 0 || opts.Smoothing > 1 {
		return nil, fmt.Errorf("smoothing must be in (0, 1], got %g", opts.Smoothing)
	}
	if opts.CatchUp != CatchUpSkip && opts.CatchUp != CatchUpReplay {
		return nil, fmt.Errorf("unknown catch-up policy %d", opts.CatchUp)
	}

	clocked := make([][]diagram.Clocked, len(d.Clocks()))
	for i, c := range d.Clocks() {
		owned := c.Blocks()
		clocked[i] = make([]diagram.Clocked, len(owned))
		for j, b := range owned {
			cb, ok := b.(diagram.Clocked)
			if !ok {
				return nil, fmt.Errorf("block %s is owned by clock %s but does not implement Tick",
					b.Core(), c.Name())
			}
			clocked[i][j] = cb
		}
	}

	return &Runtime{
		d:       d,
		plan:    plan,
		opts:    opts,
		clocked: clocked,
		freq:    initialFrequency,
	}, nil
}

// Run executes the loop until a stop condition: context cancellation,
// Stop, MaxTime, or a block requesting a stop from its Step hook. Start
// hooks run before the first cycle, Done hooks always run on the way out,
// newest block first. Cancellation is observed at the top of a cycle; a
// started cycle always completes.
func (r *Runtime) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	if !r.state.CompareAndSwap(int32(Idle), int32(Running)) {
		return fmt.Errorf("runtime is %s; a runtime runs once", State(r.state.Load()))
	}

	blocks := r.d.Blocks()
	for i, b := range blocks {
		if err := b.Start(ctx); err != nil {
			for j := i - 1; j >= 0; j-- {
				if derr := blocks[j].Done(); derr != nil {
					logger.Warn("Block done hook failed during unwind.", "block", blocks[j].Core().String(), "error", derr)
				}
			}
			r.state.Store(int32(Stopped))
			return fmt.Errorf("start hook of block %s: %w", b.Core(), err)
		}
	}

	for _, c := range r.d.Clocks() {
		c.Rewind()
	}

	source := r.opts.Source
	if source == nil {
		source = NewMonotonic()
	}

	logger.Info("Run started.",
		"blocks", len(blocks),
		"clocks", len(r.d.Clocks()),
		"max_time", r.opts.MaxTime,
		"catchup", r.opts.CatchUp.String(),
	)

	r.last = source.Now()
	var runErr error
	for {
		if err := ctx.Err(); err != nil {
			logger.Info("Run cancelled.", "cause", err)
			break
		}
		if r.stop.Load() {
			break
		}
		if r.opts.MaxTime > 0 && r.t >= r.opts.MaxTime {
			break
		}
		if r.opts.Interval > 0 {
			next := (r.last/r.opts.Interval + 1) * r.opts.Interval
			if wait := next - source.Now(); wait > 0 {
				time.Sleep(wait)
			}
		}

		if err := r.cycle(source.Now()); err != nil {
			runErr = err
			break
		}
	}

	r.state.Store(int32(Stopped))
	for i := len(blocks) - 1; i >= 0; i-- {
		if err := blocks[i].Done(); err != nil {
			logger.Warn("Block done hook failed.", "block", blocks[i].Core().String(), "error", err)
		}
	}

	logger.Info("Run finished.",
		"cycles", r.cycles,
		"elapsed", r.t,
		"frequency_hz", r.freq,
		"error", runErr,
	)
	return runErr
}

// cycle executes one full control cycle. Nothing in here may allocate or
// log; diagnostics are a single moving-average update.
func (r *Runtime) cycle(now time.Duration) error {
	for _, b := range r.plan.Order {
		b.Core().Reset()
	}

	dt := now - r.last
	if dt <= 0 {
		return &NonMonotonicClockError{Last: r.last, Now: now}
	}
	r.last = now
	r.t += dt
	tSec := r.t.Seconds()

	for i, c := range r.d.Clocks() {
		n := c.Pending(r.t)
		if n <= 0 {
			continue
		}
		period := c.Period().Seconds()
		if r.opts.CatchUp == CatchUpReplay {
			for k := 0; k < n; k++ {
				for _, cb := range r.clocked[i] {
					cb.Tick(period)
				}
			}
		} else {
			span := float64(n) * period
			for _, cb := range r.clocked[i] {
				cb.Tick(span)
			}
		}
		c.Advance(n)
	}

	for _, b := range r.plan.Order {
		c := b.Core()
		out, err := b.Output(tSec)
		if err != nil {
			return r.fault(c, err)
		}
		if len(out) != c.NOut() {
			return r.fault(c, fmt.Errorf("output returned %d values, want %d", len(out), c.NOut()))
		}
		for port, v := range out {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return r.fault(c, fmt.Errorf("non-finite value %v on output %d", v, port))
			}
			for _, tg := range r.plan.Targets(c.ID(), port) {
				tg.Block.Core().SetInput(tg.Port, v)
			}
		}
	}

	for _, b := range r.plan.Order {
		c := b.Core()
		if port := c.FirstUnset(); port >= 0 {
			return &IncompleteCycleError{Block: c.String(), Port: port, T: tSec}
		}
	}

	for _, b := range r.plan.Order {
		if err := b.Step(); err != nil {
			if errors.Is(err, ErrStopRequested) {
				r.stop.Store(true)
				continue
			}
			return r.fault(b.Core(), err)
		}
	}

	r.freq = r.opts.Smoothing*(1/dt.Seconds()) + (1-r.opts.Smoothing)*r.freq
	r.cycles++
	return nil
}

// fault wraps a per-block error with its context. Run is over at this
// point, so copying the input snapshot is fine.
func (r *Runtime) fault(c *diagram.Core, cause error) error {
	snapshot := make([]float64, len(c.Inputs()))
	copy(snapshot, c.Inputs())
	return &BlockFaultError{
		Block:  c.String(),
		Type:   c.Type(),
		T:      r.t.Seconds(),
		Inputs: snapshot,
		Err:    cause,
	}
}

// Stop requests a stop; the run ends before the next cycle. Safe from any
// goroutine.
func (r *Runtime) Stop() { r.stop.Store(true) }

// State returns the lifecycle state.
func (r *Runtime) State() State { return State(r.state.Load()) }

// Elapsed returns the simulated time covered so far.
func (r *Runtime) Elapsed() time.Duration { return r.t }

// Cycles returns the number of completed cycles.
func (r *Runtime) Cycles() uint64 { return r.cycles }

// Frequency returns the moving-average observed loop rate in Hz.
func (r *Runtime) Frequency() float64 { return r.freq }
