package rt_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridloop/gridloop/blocks/discrete"
	"github.com/gridloop/gridloop/blocks/function"
	"github.com/gridloop/gridloop/blocks/source"
	"github.com/gridloop/gridloop/internal/diagram"
	"github.com/gridloop/gridloop/internal/rt"
	"github.com/gridloop/gridloop/internal/testutil"
)

var errBoom = errors.New("boom")

// faulty fails its Output call outright.
type faulty struct {
	diagram.BlockCore
}

func newFaulty() *faulty {
	return &faulty{BlockCore: diagram.NewCore(diagram.KindFunction, "FAULTY", 1, 1)}
}

func (b *faulty) Output(t float64) ([]float64, error) {
	return nil, errBoom
}

// shortOutput declares two outputs but returns one value.
type shortOutput struct {
	diagram.BlockCore
}

func newShortOutput() *shortOutput {
	return &shortOutput{BlockCore: diagram.NewCore(diagram.KindSource, "SHORT", 0, 2)}
}

func (b *shortOutput) Output(t float64) ([]float64, error) {
	return b.Out()[:1], nil
}

// stopAfter requests a graceful stop from its Step hook after n cycles.
type stopAfter struct {
	diagram.BlockCore
	remaining int
}

func newStopAfter(n int) *stopAfter {
	return &stopAfter{
		BlockCore: diagram.NewCore(diagram.KindSink, "STOPAFTER", 1, 0),
		remaining: n,
	}
}

func (b *stopAfter) Output(t float64) ([]float64, error) {
	return b.Out(), nil
}

func (b *stopAfter) Step() error {
	b.remaining--
	if b.remaining <= 0 {
		return rt.ErrStopRequested
	}
	return nil
}

// frozen is a time source that never advances.
type frozen struct{}

func (frozen) Now() time.Duration { return 42 * time.Millisecond }

// tickless claims KindClocked without implementing Tick.
type tickless struct {
	diagram.BlockCore
}

func newTickless() *tickless {
	return &tickless{BlockCore: diagram.NewCore(diagram.KindClocked, "LAME", 0, 1)}
}

func (b *tickless) Output(t float64) ([]float64, error) {
	return b.Out(), nil
}

func compile(t *testing.T, d *diagram.Diagram) {
	t.Helper()
	require.NoError(t, d.Compile(testutil.Context(t)))
}

func TestRun_ConstantsThroughSum(t *testing.T) {
	t.Parallel()

	d := diagram.New()
	five := d.MustAdd(source.NewConstant(source.ConstantParams{Value: 5}))
	six := d.MustAdd(source.NewConstant(source.ConstantParams{Value: 6}))
	sum, err := function.NewSum(function.SumParams{Signs: "++"})
	require.NoError(t, err)
	d.MustAdd(sum)
	capture := testutil.NewCapture(1)
	d.MustAdd(capture)
	require.NoError(t, d.Connect(diagram.All(five), diagram.Port(sum, 0)))
	require.NoError(t, d.Connect(diagram.All(six), diagram.Port(sum, 1)))
	require.NoError(t, d.Connect(diagram.All(sum), diagram.All(capture)))
	compile(t, d)

	r, err := rt.New(d, rt.Options{
		MaxTime: 50 * time.Millisecond,
		Source:  rt.NewVirtual(10 * time.Millisecond),
	})
	require.NoError(t, err)
	require.NoError(t, r.Run(testutil.Context(t)))

	require.Len(t, capture.Frames, 5)
	for _, frame := range capture.Frames {
		assert.Equal(t, 11.0, frame[0], "5 + 6 propagates as 11 every cycle")
	}
	assert.Equal(t, uint64(5), r.Cycles())
	assert.Equal(t, 50*time.Millisecond, r.Elapsed())
	assert.Equal(t, rt.Stopped, r.State())
}

func TestRun_ZeroOrderHoldSamplesPreviousCycle(t *testing.T) {
	t.Parallel()

	// A ramp feeds a 10 Hz hold. A tick fires during the cycle at t=100ms
	// and must sample the value the ramp propagated on the previous
	// cycle, not this cycle's.
	d := diagram.New()
	clk, err := d.NewClock("", 100*time.Millisecond, 0)
	require.NoError(t, err)

	ramp := d.MustAdd(testutil.NewEmitter(1, func(t float64, out []float64) { out[0] = t }))
	zoh := discrete.NewZOH(discrete.ZOHParams{})
	zoh.SetClock(clk)
	d.MustAdd(zoh)
	capture := testutil.NewCapture(1)
	d.MustAdd(capture)
	require.NoError(t, d.Connect(diagram.All(ramp), diagram.All(zoh)))
	require.NoError(t, d.Connect(diagram.All(zoh), diagram.All(capture)))
	compile(t, d)

	r, err := rt.New(d, rt.Options{
		MaxTime: 100 * time.Millisecond,
		Source:  rt.NewVirtual(10 * time.Millisecond),
	})
	require.NoError(t, err)
	require.NoError(t, r.Run(testutil.Context(t)))

	require.Len(t, capture.Frames, 10)
	for i := 0; i < 9; i++ {
		assert.Equal(t, 0.0, capture.Frames[i][0], "held value before the second tick")
	}
	assert.InDelta(t, 0.09, capture.Frames[9][0], 1e-12,
		"the t=100ms tick samples the ramp value from the t=90ms cycle")
}

func TestRun_CatchUpPolicies(t *testing.T) {
	t.Parallel()

	run := func(policy rt.CatchUpPolicy) *testutil.Ticker {
		d := diagram.New()
		clk, err := d.NewClock("", 10*time.Millisecond, 0)
		require.NoError(t, err)
		ticker := testutil.NewTicker()
		ticker.SetClock(clk)
		d.MustAdd(ticker)

		compile(t, d)
		r, err := rt.New(d, rt.Options{
			MaxTime: 70 * time.Millisecond,
			CatchUp: policy,
			Source:  rt.NewVirtual(35 * time.Millisecond),
		})
		require.NoError(t, err)
		require.NoError(t, r.Run(testutil.Context(t)))
		return ticker
	}

	// Each 35ms cycle overruns the 10ms clock by four due instants.
	skip := run(rt.CatchUpSkip)
	require.Len(t, skip.Dts, 2, "skip folds each overrun into one tick")
	assert.InDelta(t, 0.04, skip.Dts[0], 1e-12)
	assert.InDelta(t, 0.04, skip.Dts[1], 1e-12)

	replay := run(rt.CatchUpReplay)
	require.Len(t, replay.Dts, 8, "replay delivers every missed tick")
	for _, dt := range replay.Dts {
		assert.InDelta(t, 0.01, dt, 1e-12, "replayed ticks carry the nominal period")
	}
}

func TestRun_NonMonotonicClock(t *testing.T) {
	t.Parallel()

	d := diagram.New()
	d.MustAdd(source.NewConstant(source.ConstantParams{Value: 1}))
	compile(t, d)

	r, err := rt.New(d, rt.Options{Source: frozen{}})
	require.NoError(t, err)
	err = r.Run(testutil.Context(t))

	var nonMono *rt.NonMonotonicClockError
	require.ErrorAs(t, err, &nonMono)
	assert.Equal(t, 42*time.Millisecond, nonMono.Last)
	assert.Equal(t, 42*time.Millisecond, nonMono.Now)
}

func TestRun_RunsOnce(t *testing.T) {
	t.Parallel()

	d := diagram.New()
	d.MustAdd(source.NewConstant(source.ConstantParams{Value: 1}))
	compile(t, d)

	r, err := rt.New(d, rt.Options{
		MaxTime: 10 * time.Millisecond,
		Source:  rt.NewVirtual(10 * time.Millisecond),
	})
	require.NoError(t, err)
	require.NoError(t, r.Run(testutil.Context(t)))

	err = r.Run(testutil.Context(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "runs once")
}

func TestRun_StopRequestIsGraceful(t *testing.T) {
	t.Parallel()

	d := diagram.New()
	src := d.MustAdd(source.NewConstant(source.ConstantParams{Value: 1}))
	stop := newStopAfter(3)
	d.MustAdd(stop)
	require.NoError(t, d.Connect(diagram.All(src), diagram.All(stop)))
	compile(t, d)

	r, err := rt.New(d, rt.Options{Source: rt.NewVirtual(10 * time.Millisecond)})
	require.NoError(t, err)

	require.NoError(t, r.Run(testutil.Context(t)), "a requested stop is not an error")
	assert.Equal(t, uint64(3), r.Cycles(), "the stopping cycle still completes")
	assert.Equal(t, rt.Stopped, r.State())
}

func TestRun_StopFromAnotherGoroutine(t *testing.T) {
	t.Parallel()

	d := diagram.New()
	d.MustAdd(source.NewConstant(source.ConstantParams{Value: 1}))
	compile(t, d)

	r, err := rt.New(d, rt.Options{Source: rt.NewVirtual(time.Millisecond)})
	require.NoError(t, err)

	go func() {
		time.Sleep(20 * time.Millisecond)
		r.Stop()
	}()

	require.NoError(t, r.Run(testutil.Context(t)))
	assert.Equal(t, rt.Stopped, r.State())
}

func TestRun_OutputFault(t *testing.T) {
	t.Parallel()

	d := diagram.New()
	src := d.MustAdd(source.NewConstant(source.ConstantParams{Value: 7}))
	bad := d.MustAdd(newFaulty())
	require.NoError(t, d.Connect(diagram.All(src), diagram.All(bad)))
	compile(t, d)

	r, err := rt.New(d, rt.Options{Source: rt.NewVirtual(10 * time.Millisecond)})
	require.NoError(t, err)
	err = r.Run(testutil.Context(t))

	var fault *rt.BlockFaultError
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, "faulty.0", fault.Block)
	assert.Equal(t, "FAULTY", fault.Type)
	assert.Equal(t, []float64{7}, fault.Inputs, "the fault snapshots the block's inputs")
	assert.ErrorIs(t, err, errBoom)
}

func TestRun_NonFiniteOutputFault(t *testing.T) {
	t.Parallel()

	d := diagram.New()
	d.MustAdd(testutil.NewEmitter(1, func(t float64, out []float64) { out[0] = math.NaN() }))
	compile(t, d)

	r, err := rt.New(d, rt.Options{Source: rt.NewVirtual(10 * time.Millisecond)})
	require.NoError(t, err)
	err = r.Run(testutil.Context(t))

	var fault *rt.BlockFaultError
	require.ErrorAs(t, err, &fault)
	assert.Contains(t, fault.Err.Error(), "non-finite")
}

func TestRun_WrongOutputArityFault(t *testing.T) {
	t.Parallel()

	d := diagram.New()
	d.MustAdd(newShortOutput())
	compile(t, d)

	r, err := rt.New(d, rt.Options{Source: rt.NewVirtual(10 * time.Millisecond)})
	require.NoError(t, err)
	err = r.Run(testutil.Context(t))

	var fault *rt.BlockFaultError
	require.ErrorAs(t, err, &fault)
	assert.Contains(t, fault.Err.Error(), "want 2")
}

func TestRun_CancelledContext(t *testing.T) {
	t.Parallel()

	d := diagram.New()
	d.MustAdd(source.NewConstant(source.ConstantParams{Value: 1}))
	compile(t, d)

	r, err := rt.New(d, rt.Options{Source: rt.NewVirtual(10 * time.Millisecond)})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(testutil.Context(t))
	cancel()

	require.NoError(t, r.Run(ctx), "cancellation is a graceful stop")
	assert.Equal(t, uint64(0), r.Cycles())
	assert.Equal(t, rt.Stopped, r.State())
}

func TestRun_FrequencyEstimate(t *testing.T) {
	t.Parallel()

	d := diagram.New()
	d.MustAdd(source.NewConstant(source.ConstantParams{Value: 1}))
	compile(t, d)

	r, err := rt.New(d, rt.Options{
		MaxTime: 500 * time.Millisecond,
		Source:  rt.NewVirtual(10 * time.Millisecond),
	})
	require.NoError(t, err)
	require.NoError(t, r.Run(testutil.Context(t)))

	// The average starts at 30 Hz and chases the actual 100 Hz rate.
	expected := 30.0
	s := rt.DefaultSmoothing
	for i := uint64(0); i < r.Cycles(); i++ {
		expected = s*100 + (1-s)*expected
	}
	assert.InDelta(t, expected, r.Frequency(), 1e-6)
	assert.Greater(t, r.Frequency(), 90.0)
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	d := diagram.New()
	d.MustAdd(source.NewConstant(source.ConstantParams{Value: 1}))

	_, err := rt.New(d, rt.Options{})
	var notCompiled *diagram.NotCompiledError
	require.ErrorAs(t, err, &notCompiled, "the diagram must be compiled first")

	compile(t, d)

	_, err = rt.New(d, rt.Options{Smoothing: 1.5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smoothing")

	_, err = rt.New(d, rt.Options{CatchUp: rt.CatchUpPolicy(99)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catch-up")
}

func TestNew_RejectsTicklessClockedBlock(t *testing.T) {
	t.Parallel()

	// A block can claim KindClocked without implementing Tick; the
	// runtime refuses it up front rather than in the loop.
	b := newTickless()

	d := diagram.New()
	clk, err := d.NewClock("", 10*time.Millisecond, 0)
	require.NoError(t, err)
	b.SetClock(clk)
	d.MustAdd(b)
	compile(t, d)

	_, err = rt.New(d, rt.Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not implement Tick")
}
