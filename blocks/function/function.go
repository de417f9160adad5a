// Package function provides memoryless blocks whose outputs are pure
// functions of their current inputs.
package function

import (
	"fmt"
	"math"

	"github.com/gridloop/gridloop/internal/diagram"
	"github.com/gridloop/gridloop/internal/registry"
)

// Module registers the function block types.
type Module struct{}

func (Module) Register(r *registry.Registry) {
	r.Register(&registry.Def{
		Type:      "SUM",
		Kind:      diagram.KindFunction,
		NewParams: func() any { p := DefaultSumParams(); return &p },
		Build: func(a registry.Args) (diagram.Block, error) {
			b, err := NewSum(*a.Params.(*SumParams))
			if err != nil {
				return nil, err
			}
			b.SetName(a.Name)
			return b, nil
		},
	})
	r.Register(&registry.Def{
		Type:      "PROD",
		Kind:      diagram.KindFunction,
		NewParams: func() any { p := DefaultProdParams(); return &p },
		Build: func(a registry.Args) (diagram.Block, error) {
			b, err := NewProd(*a.Params.(*ProdParams))
			if err != nil {
				return nil, err
			}
			b.SetName(a.Name)
			return b, nil
		},
	})
	r.Register(&registry.Def{
		Type:      "GAIN",
		Kind:      diagram.KindFunction,
		NewParams: func() any { return &GainParams{} },
		Build: func(a registry.Args) (diagram.Block, error) {
			b := NewGain(*a.Params.(*GainParams))
			b.SetName(a.Name)
			return b, nil
		},
	})
	r.Register(&registry.Def{
		Type:      "CLIP",
		Kind:      diagram.KindFunction,
		NewParams: func() any { p := DefaultClipParams(); return &p },
		Build: func(a registry.Args) (diagram.Block, error) {
			b, err := NewClip(*a.Params.(*ClipParams))
			if err != nil {
				return nil, err
			}
			b.SetName(a.Name)
			return b, nil
		},
	})
}

// SumParams configures a SUM block. Signs holds one '+' or '-' per
// input, so "++-" builds a three-input block computing in0+in1-in2.
type SumParams struct {
	Signs string `hcl:"signs,optional"`
}

func DefaultSumParams() SumParams {
	return SumParams{Signs: "++"}
}

// Sum adds its inputs with per-input signs.
type Sum struct {
	diagram.BlockCore
	signs string
}

func NewSum(p SumParams) (*Sum, error) {
	if p.Signs == "" {
		return nil, fmt.Errorf("sum needs at least one sign")
	}
	for _, c := range p.Signs {
		if c != '+' && c != '-' {
			return nil, fmt.Errorf("sum signs must be '+' or '-', got %q", p.Signs)
		}
	}
	return &Sum{
		BlockCore: diagram.NewCore(diagram.KindFunction, "SUM", len(p.Signs), 1),
		signs:     p.Signs,
	}, nil
}

func (b *Sum) Output(t float64) ([]float64, error) {
	var acc float64
	for i, c := range b.signs {
		if c == '+' {
			acc += b.Input(i)
		} else {
			acc -= b.Input(i)
		}
	}
	out := b.Out()
	out[0] = acc
	return out, nil
}

// ProdParams configures a PROD block. Ops holds one '*' or '/' per
// input, so "*/" builds a two-input block computing in0/in1.
type ProdParams struct {
	Ops string `hcl:"ops,optional"`
}

func DefaultProdParams() ProdParams {
	return ProdParams{Ops: "**"}
}

// Prod multiplies or divides its inputs in order.
type Prod struct {
	diagram.BlockCore
	ops string
}

func NewProd(p ProdParams) (*Prod, error) {
	if p.Ops == "" {
		return nil, fmt.Errorf("prod needs at least one op")
	}
	for _, c := range p.Ops {
		if c != '*' && c != '/' {
			return nil, fmt.Errorf("prod ops must be '*' or '/', got %q", p.Ops)
		}
	}
	return &Prod{
		BlockCore: diagram.NewCore(diagram.KindFunction, "PROD", len(p.Ops), 1),
		ops:       p.Ops,
	}, nil
}

func (b *Prod) Output(t float64) ([]float64, error) {
	acc := 1.0
	for i, c := range b.ops {
		if c == '*' {
			acc *= b.Input(i)
		} else {
			acc /= b.Input(i)
		}
	}
	out := b.Out()
	out[0] = acc
	return out, nil
}

// GainParams configures a GAIN block.
type GainParams struct {
	K float64 `hcl:"k"`
}

// Gain scales its input by a constant.
type Gain struct {
	diagram.BlockCore
	k float64
}

func NewGain(p GainParams) *Gain {
	return &Gain{
		BlockCore: diagram.NewCore(diagram.KindFunction, "GAIN", 1, 1),
		k:         p.K,
	}
}

func (b *Gain) Output(t float64) ([]float64, error) {
	out := b.Out()
	out[0] = b.k * b.Input(0)
	return out, nil
}

// ClipParams configures a CLIP block. Absent bounds are unbounded.
type ClipParams struct {
	Min float64 `hcl:"min,optional"`
	Max float64 `hcl:"max,optional"`
}

func DefaultClipParams() ClipParams {
	return ClipParams{Min: math.Inf(-1), Max: math.Inf(1)}
}

// Clip saturates its input to [Min, Max].
type Clip struct {
	diagram.BlockCore
	min, max float64
}

func NewClip(p ClipParams) (*Clip, error) {
	if p.Min > p.Max {
		return nil, fmt.Errorf("clip bounds inverted: min %g > max %g", p.Min, p.Max)
	}
	return &Clip{
		BlockCore: diagram.NewCore(diagram.KindFunction, "CLIP", 1, 1),
		min:       p.Min,
		max:       p.Max,
	}, nil
}

func (b *Clip) Output(t float64) ([]float64, error) {
	v := b.Input(0)
	if v < b.min {
		v = b.min
	} else if v > b.max {
		v = b.max
	}
	out := b.Out()
	out[0] = v
	return out, nil
}
