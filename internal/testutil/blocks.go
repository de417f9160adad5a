package testutil

import "github.com/gridloop/gridloop/internal/diagram"

// Emitter is a source double whose output is computed by a callback.
type Emitter struct {
	diagram.BlockCore
	fn func(t float64, out []float64)
}

// NewEmitter returns a source block with nout outputs filled by fn.
func NewEmitter(nout int, fn func(t float64, out []float64)) *Emitter {
	return &Emitter{
		BlockCore: diagram.NewCore(diagram.KindSource, "EMITTER", 0, nout),
		fn:        fn,
	}
}

func (b *Emitter) Output(t float64) ([]float64, error) {
	out := b.Out()
	b.fn(t, out)
	return out, nil
}

// Apply is a function double computing out from in via a callback.
type Apply struct {
	diagram.BlockCore
	fn func(in, out []float64)
}

// NewApply returns a function block mapping nin inputs to nout outputs.
func NewApply(nin, nout int, fn func(in, out []float64)) *Apply {
	return &Apply{
		BlockCore: diagram.NewCore(diagram.KindFunction, "APPLY", nin, nout),
		fn:        fn,
	}
}

func (b *Apply) Output(t float64) ([]float64, error) {
	out := b.Out()
	b.fn(b.Inputs(), out)
	return out, nil
}

// Capture is a sink double that records its inputs each cycle.
type Capture struct {
	diagram.BlockCore
	Frames [][]float64
}

// NewCapture returns a sink block with nin inputs.
func NewCapture(nin int) *Capture {
	return &Capture{BlockCore: diagram.NewCore(diagram.KindSink, "CAPTURE", nin, 0)}
}

func (b *Capture) Output(t float64) ([]float64, error) {
	return b.Out(), nil
}

func (b *Capture) Step() error {
	frame := make([]float64, b.NIn())
	copy(frame, b.Inputs())
	b.Frames = append(b.Frames, frame)
	return nil
}

// Last returns the most recent frame, or nil before the first cycle.
func (b *Capture) Last() []float64 {
	if len(b.Frames) == 0 {
		return nil
	}
	return b.Frames[len(b.Frames)-1]
}

// Delay is a clocked double that outputs the input value sampled at
// the previous tick.
type Delay struct {
	diagram.BlockCore
	X float64
}

// NewDelay returns a clocked one-in one-out hold starting at x0.
func NewDelay(x0 float64) *Delay {
	b := &Delay{
		BlockCore: diagram.NewCore(diagram.KindClocked, "DELAY", 1, 1),
		X:         x0,
	}
	b.SetDStates(1)
	return b
}

func (b *Delay) Output(t float64) ([]float64, error) {
	out := b.Out()
	out[0] = b.X
	return out, nil
}

func (b *Delay) Tick(dt float64) {
	b.X = b.Input(0)
}

// Ticker is a clocked double that records the dt of every tick and
// outputs the tick count.
type Ticker struct {
	diagram.BlockCore
	Dts []float64
}

// NewTicker returns a clocked block with a single output.
func NewTicker() *Ticker {
	b := &Ticker{BlockCore: diagram.NewCore(diagram.KindClocked, "TICKER", 0, 1)}
	b.SetDStates(1)
	return b
}

func (b *Ticker) Output(t float64) ([]float64, error) {
	out := b.Out()
	out[0] = float64(len(b.Dts))
	return out, nil
}

func (b *Ticker) Tick(dt float64) {
	b.Dts = append(b.Dts, dt)
}
