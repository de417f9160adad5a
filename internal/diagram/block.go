package diagram

import (
	"context"
	"fmt"
)

// Kind classifies a block for the compiler and planner.
type Kind int

const (
	// KindFunction computes outputs from this cycle's inputs.
	KindFunction Kind = iota
	// KindSource produces outputs without consuming inputs.
	KindSource
	// KindSink consumes inputs without producing outputs.
	KindSink
	// KindClocked holds discrete state updated at clock ticks; its outputs
	// never depend on the current cycle's inputs.
	KindClocked
	// KindTransfer is a continuous-time block; rejected by Compile.
	KindTransfer
	// KindSubsystem is a nested diagram; rejected by Compile.
	KindSubsystem
)

func (k Kind) String() string {
	switch k {
	case KindFunction:
		return "function"
	case KindSource:
		return "source"
	case KindSink:
		return "sink"
	case KindClocked:
		return "clocked"
	case KindTransfer:
		return "transfer"
	case KindSubsystem:
		return "subsystem"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Block is the capability interface the scheduler requires from every
// block. Concrete blocks embed Core, which provides everything except
// Output, so a block implements only the hooks it needs.
//
// Output must return exactly NOut values; the returned slice may be reused
// between calls (the scheduler copies values out before the next block
// runs). Step runs after propagation each cycle and is where sinks do
// their work. Start and Done bracket a run for resource acquisition and
// release.
type Block interface {
	Core() *Core
	Output(t float64) ([]float64, error)
	Step() error
	Start(ctx context.Context) error
	Done() error
}

// Clocked is implemented by blocks owned by a Clock. Tick updates the
// held discrete state from the current input values; dt is the simulated
// interval covered by the tick, in seconds.
type Clocked interface {
	Block
	Tick(dt float64)
}

// Core carries a block's identity, arities and input buffer. Concrete
// block types embed it by value and configure it with NewCore.
//
// The input buffer is two distinct fields: value slots and per-cycle
// resolved flags. Reset clears only the flags; value slots persist so a
// clock tick can sample the values propagated on the previous cycle.
type Core struct {
	name     string
	typeName string
	id       int
	kind     Kind
	nin      int
	nout     int
	ndstates int
	clock    *Clock

	in       []float64
	resolved []bool
	out      []float64
}

// NewCore returns a configured Core. typeName is the canonical ALLCAPS
// block-type name used for default naming and reporting.
func NewCore(kind Kind, typeName string, nin, nout int) Core {
	return Core{
		typeName: typeName,
		id:       -1,
		kind:     kind,
		nin:      nin,
		nout:     nout,
		in:       make([]float64, nin),
		resolved: make([]bool, nin),
		out:      make([]float64, nout),
	}
}

// BlockCore is an alias of Core for embedding. Embedding the type under
// the name Core would make the field shadow the Core method that Block
// requires; embedding BlockCore leaves the method visible.
type BlockCore = Core

// Core returns the receiver, satisfying the Block interface for embedders.
func (c *Core) Core() *Core { return c }

// Name returns the block's unique name within its diagram.
func (c *Core) Name() string { return c.name }

// SetName overrides the block's name. It must be called before the block
// is added to a diagram; an empty name is assigned automatically there.
func (c *Core) SetName(name string) { c.name = name }

// Type returns the canonical block-type name, e.g. "SUM".
func (c *Core) Type() string { return c.typeName }

// ID returns the block's stable id within its diagram, -1 before AddBlock.
func (c *Core) ID() int { return c.id }

// Kind returns the block's variant tag.
func (c *Core) Kind() Kind { return c.kind }

// NIn returns the input arity.
func (c *Core) NIn() int { return c.nin }

// NOut returns the output arity.
func (c *Core) NOut() int { return c.nout }

// NDStates returns the number of discrete states, 0 unless clocked.
func (c *Core) NDStates() int { return c.ndstates }

// SetDStates records the block's discrete-state count.
func (c *Core) SetDStates(n int) { c.ndstates = n }

// Clock returns the attached clock, nil for unclocked blocks.
func (c *Core) Clock() *Clock { return c.clock }

// SetClock attaches the block to a clock. The clock claims ownership when
// the block is added to a diagram.
func (c *Core) SetClock(clk *Clock) { c.clock = clk }

// Reset marks every input port unset for a new cycle. Value slots keep
// their previous contents.
func (c *Core) Reset() {
	for i := range c.resolved {
		c.resolved[i] = false
	}
}

// SetInput stores v in port i's value slot and marks the port resolved.
func (c *Core) SetInput(i int, v float64) {
	c.in[i] = v
	c.resolved[i] = true
}

// Input returns the value held in port i's slot, resolved or not.
func (c *Core) Input(i int) float64 { return c.in[i] }

// Inputs returns the live value-slot slice. Callers must not grow it.
func (c *Core) Inputs() []float64 { return c.in }

// FirstUnset returns the lowest input port not resolved this cycle, or -1
// when every port is resolved.
func (c *Core) FirstUnset() int {
	for i, ok := range c.resolved {
		if !ok {
			return i
		}
	}
	return -1
}

// Out returns the reusable output buffer, sized NOut. Concrete blocks
// fill and return it from Output to keep the hot path allocation-free.
func (c *Core) Out() []float64 { return c.out }

// Step is a no-op default; sinks and stateful blocks override it.
func (c *Core) Step() error { return nil }

// Start is a no-op default; blocks owning resources override it.
func (c *Core) Start(ctx context.Context) error { return nil }

// Done is a no-op default; blocks owning resources override it.
func (c *Core) Done() error { return nil }

func (c *Core) String() string {
	if c.name == "" {
		return c.typeName
	}
	return c.name
}
