// Package source provides the signal-generating block library: blocks
// with no inputs whose outputs depend only on diagram time.
package source

import (
	"fmt"
	"math"

	"github.com/gridloop/gridloop/internal/diagram"
	"github.com/gridloop/gridloop/internal/registry"
)

// Module registers the source block types.
type Module struct{}

func (Module) Register(r *registry.Registry) {
	r.Register(&registry.Def{
		Type:      "CONSTANT",
		Kind:      diagram.KindSource,
		NewParams: func() any { return &ConstantParams{} },
		Build: func(a registry.Args) (diagram.Block, error) {
			b := NewConstant(*a.Params.(*ConstantParams))
			b.SetName(a.Name)
			return b, nil
		},
	})
	r.Register(&registry.Def{
		Type:      "STEP",
		Kind:      diagram.KindSource,
		NewParams: func() any { p := DefaultStepParams(); return &p },
		Build: func(a registry.Args) (diagram.Block, error) {
			b := NewStep(*a.Params.(*StepParams))
			b.SetName(a.Name)
			return b, nil
		},
	})
	r.Register(&registry.Def{
		Type:      "WAVEFORM",
		Kind:      diagram.KindSource,
		NewParams: func() any { p := DefaultWaveformParams(); return &p },
		Build: func(a registry.Args) (diagram.Block, error) {
			b, err := NewWaveform(*a.Params.(*WaveformParams))
			if err != nil {
				return nil, err
			}
			b.SetName(a.Name)
			return b, nil
		},
	})
}

// ConstantParams configures a CONSTANT block.
type ConstantParams struct {
	Value float64 `hcl:"value"`
}

// Constant emits a fixed value every cycle.
type Constant struct {
	diagram.BlockCore
	value float64
}

func NewConstant(p ConstantParams) *Constant {
	return &Constant{
		BlockCore: diagram.NewCore(diagram.KindSource, "CONSTANT", 0, 1),
		value:     p.Value,
	}
}

func (b *Constant) Output(t float64) ([]float64, error) {
	out := b.Out()
	out[0] = b.value
	return out, nil
}

// StepParams configures a STEP block.
type StepParams struct {
	Time float64 `hcl:"time,optional"`
	Off  float64 `hcl:"off,optional"`
	On   float64 `hcl:"on,optional"`
}

func DefaultStepParams() StepParams {
	return StepParams{Time: 1, Off: 0, On: 1}
}

// Step emits Off before Time and On from Time onward.
type Step struct {
	diagram.BlockCore
	at  float64
	off float64
	on  float64
}

func NewStep(p StepParams) *Step {
	return &Step{
		BlockCore: diagram.NewCore(diagram.KindSource, "STEP", 0, 1),
		at:        p.Time,
		off:       p.Off,
		on:        p.On,
	}
}

func (b *Step) Output(t float64) ([]float64, error) {
	out := b.Out()
	if t >= b.at {
		out[0] = b.on
	} else {
		out[0] = b.off
	}
	return out, nil
}

// Waveform shapes.
const (
	Sine     = "sine"
	Square   = "square"
	Triangle = "triangle"
)

// WaveformParams configures a WAVEFORM block. Phase is a fraction of
// one cycle in [0,1). Duty applies to square waves only.
type WaveformParams struct {
	Wave      string  `hcl:"wave"`
	Freq      float64 `hcl:"freq"`
	Amplitude float64 `hcl:"amplitude,optional"`
	Offset    float64 `hcl:"offset,optional"`
	Phase     float64 `hcl:"phase,optional"`
	Duty      float64 `hcl:"duty,optional"`
}

func DefaultWaveformParams() WaveformParams {
	return WaveformParams{Amplitude: 1, Duty: 0.5}
}

// Waveform emits a periodic signal: sine, square or triangle.
type Waveform struct {
	diagram.BlockCore
	p WaveformParams
}

func NewWaveform(p WaveformParams) (*Waveform, error) {
	switch p.Wave {
	case Sine, Square, Triangle:
	default:
		return nil, fmt.Errorf("unknown waveform %q (want sine, square or triangle)", p.Wave)
	}
	if p.Freq <= 0 {
		return nil, fmt.Errorf("waveform frequency must be positive, got %g", p.Freq)
	}
	if p.Duty < 0 || p.Duty > 1 {
		return nil, fmt.Errorf("waveform duty must be in [0,1], got %g", p.Duty)
	}
	return &Waveform{
		BlockCore: diagram.NewCore(diagram.KindSource, "WAVEFORM", 0, 1),
		p:         p,
	}, nil
}

func (b *Waveform) Output(t float64) ([]float64, error) {
	x := b.p.Freq*t + b.p.Phase
	frac := x - math.Floor(x)

	var v float64
	switch b.p.Wave {
	case Sine:
		v = math.Sin(2 * math.Pi * frac)
	case Square:
		if frac < b.p.Duty {
			v = 1
		} else {
			v = -1
		}
	case Triangle:
		// Rises 0 to 1 over the first quarter cycle, falls to -1 by
		// three quarters, returns to 0 at the cycle end.
		if frac < 0.25 {
			v = 4 * frac
		} else if frac < 0.75 {
			v = 2 - 4*frac
		} else {
			v = 4*frac - 4
		}
	}
	out := b.Out()
	out[0] = b.p.Amplitude*v + b.p.Offset
	return out, nil
}
