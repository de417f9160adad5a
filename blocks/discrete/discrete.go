// Package discrete provides clocked blocks: blocks whose internal
// state advances only on ticks of their owning clock, and whose
// outputs hold steady between ticks.
package discrete

import (
	"fmt"
	"math"

	"github.com/gridloop/gridloop/internal/diagram"
	"github.com/gridloop/gridloop/internal/registry"
)

// Module registers the clocked block types.
type Module struct{}

func (Module) Register(r *registry.Registry) {
	r.Register(&registry.Def{
		Type:       "ZOH",
		Kind:       diagram.KindClocked,
		NeedsClock: true,
		NewParams:  func() any { return &ZOHParams{} },
		Build: func(a registry.Args) (diagram.Block, error) {
			b := NewZOH(*a.Params.(*ZOHParams))
			b.SetName(a.Name)
			b.SetClock(a.Clock)
			return b, nil
		},
	})
	r.Register(&registry.Def{
		Type:       "DINTEGRATOR",
		Kind:       diagram.KindClocked,
		NeedsClock: true,
		NewParams:  func() any { p := DefaultDIntegratorParams(); return &p },
		Build: func(a registry.Args) (diagram.Block, error) {
			b := NewDIntegrator(*a.Params.(*DIntegratorParams))
			b.SetName(a.Name)
			b.SetClock(a.Clock)
			return b, nil
		},
	})
	r.Register(&registry.Def{
		Type:       "ADC",
		Kind:       diagram.KindClocked,
		NeedsClock: true,
		NewParams:  func() any { return &ADCParams{} },
		Build: func(a registry.Args) (diagram.Block, error) {
			b, err := NewADC(*a.Params.(*ADCParams))
			if err != nil {
				return nil, err
			}
			b.SetName(a.Name)
			b.SetClock(a.Clock)
			return b, nil
		},
	})
	r.Register(&registry.Def{
		Type:       "PWM",
		Kind:       diagram.KindClocked,
		NeedsClock: true,
		NewParams:  func() any { p := DefaultPWMParams(); return &p },
		Build: func(a registry.Args) (diagram.Block, error) {
			b, err := NewPWM(*a.Params.(*PWMParams))
			if err != nil {
				return nil, err
			}
			b.SetName(a.Name)
			b.SetClock(a.Clock)
			return b, nil
		},
	})
}

// ZOHParams configures a ZOH block. X0 is the value held before the
// first tick.
type ZOHParams struct {
	X0 float64 `hcl:"x0,optional"`
}

// ZOH samples its input on each clock tick and holds the sample until
// the next one.
type ZOH struct {
	diagram.BlockCore
	x float64
}

func NewZOH(p ZOHParams) *ZOH {
	b := &ZOH{
		BlockCore: diagram.NewCore(diagram.KindClocked, "ZOH", 1, 1),
		x:         p.X0,
	}
	b.SetDStates(1)
	return b
}

func (b *ZOH) Output(t float64) ([]float64, error) {
	out := b.Out()
	out[0] = b.x
	return out, nil
}

func (b *ZOH) Tick(dt float64) {
	b.x = b.Input(0)
}

// DIntegratorParams configures a DINTEGRATOR block.
type DIntegratorParams struct {
	X0   float64 `hcl:"x0,optional"`
	Gain float64 `hcl:"gain,optional"`
}

func DefaultDIntegratorParams() DIntegratorParams {
	return DIntegratorParams{Gain: 1}
}

// DIntegrator is a forward Euler accumulator: on each tick the state
// advances by gain*dt*input.
type DIntegrator struct {
	diagram.BlockCore
	x    float64
	gain float64
}

func NewDIntegrator(p DIntegratorParams) *DIntegrator {
	b := &DIntegrator{
		BlockCore: diagram.NewCore(diagram.KindClocked, "DINTEGRATOR", 1, 1),
		x:         p.X0,
		gain:      p.Gain,
	}
	b.SetDStates(1)
	return b
}

func (b *DIntegrator) Output(t float64) ([]float64, error) {
	out := b.Out()
	out[0] = b.x
	return out, nil
}

func (b *DIntegrator) Tick(dt float64) {
	b.x += b.gain * dt * b.Input(0)
}

// ADCParams configures an ADC block, a simulated analog to digital
// converter. Samples are clamped to [VMin, VMax] and rounded to the
// nearest of 2^Bits - 1 quantization steps.
type ADCParams struct {
	Bits int     `hcl:"bits"`
	VMax float64 `hcl:"vmax"`
	VMin float64 `hcl:"vmin,optional"`
	X0   float64 `hcl:"x0,optional"`
}

// ADC is a quantizing sampler.
type ADC struct {
	diagram.BlockCore
	x    float64
	vmin float64
	vmax float64
	step float64
}

func NewADC(p ADCParams) (*ADC, error) {
	if p.Bits < 1 {
		return nil, fmt.Errorf("adc bit width must be at least 1, got %d", p.Bits)
	}
	if p.VMax <= p.VMin {
		return nil, fmt.Errorf("adc range inverted: vmax %g <= vmin %g", p.VMax, p.VMin)
	}
	steps := math.Pow(2, float64(p.Bits)) - 1
	b := &ADC{
		BlockCore: diagram.NewCore(diagram.KindClocked, "ADC", 1, 1),
		x:         p.X0,
		vmin:      p.VMin,
		vmax:      p.VMax,
		step:      (p.VMax - p.VMin) / steps,
	}
	b.SetDStates(1)
	return b, nil
}

func (b *ADC) Output(t float64) ([]float64, error) {
	out := b.Out()
	out[0] = b.x
	return out, nil
}

func (b *ADC) Tick(dt float64) {
	v := b.Input(0)
	switch {
	case v < b.vmin:
		b.x = b.vmin
	case v > b.vmax:
		b.x = b.vmax
	default:
		b.x = math.Round((v-b.vmin)/b.step)*b.step + b.vmin
	}
}

// PWMParams configures a PWM block, a simulated pulse width modulator
// driven by a duty cycle input in [0,1]. In approximate mode the
// output is the cycle-averaged level; otherwise the output switches
// between VOn and VOff within each carrier period.
type PWMParams struct {
	Freq        float64 `hcl:"freq"`
	VOn         float64 `hcl:"von"`
	VOff        float64 `hcl:"voff,optional"`
	Duty0       float64 `hcl:"duty0,optional"`
	Approximate bool    `hcl:"approximate,optional"`
}

func DefaultPWMParams() PWMParams {
	return PWMParams{Approximate: true}
}

// PWM converts a duty cycle to a switched or averaged voltage level.
type PWM struct {
	diagram.BlockCore
	x           float64
	period      float64
	von, voff   float64
	approximate bool
}

func NewPWM(p PWMParams) (*PWM, error) {
	if p.Freq <= 0 {
		return nil, fmt.Errorf("pwm carrier frequency must be positive, got %g", p.Freq)
	}
	b := &PWM{
		BlockCore:   diagram.NewCore(diagram.KindClocked, "PWM", 1, 1),
		x:           p.Duty0,
		period:      1 / p.Freq,
		von:         p.VOn,
		voff:        p.VOff,
		approximate: p.Approximate,
	}
	b.SetDStates(1)
	return b, nil
}

func (b *PWM) Output(t float64) ([]float64, error) {
	out := b.Out()
	if b.approximate {
		out[0] = b.x*(b.von-b.voff) + b.voff
		return out, nil
	}
	tCycle := math.Mod(t, b.period)
	if tCycle <= b.x*b.period {
		out[0] = b.von
	} else {
		out[0] = b.voff
	}
	return out, nil
}

func (b *PWM) Tick(dt float64) {
	b.x = b.Input(0)
}
