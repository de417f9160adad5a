package hcl

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/zclconf/go-cty/cty"

	"github.com/gridloop/gridloop/internal/ctxlog"
	"github.com/gridloop/gridloop/internal/diagram"
	"github.com/gridloop/gridloop/internal/registry"
)

// clockAttrSchema splits the reserved clock attribute out of a block
// body, leaving the type-specific params as the remainder.
var clockAttrSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{{Name: "clock"}},
}

// assemble builds a diagram from merged declarations: clocks first, then
// blocks through the registry, then wires. Declaration order becomes
// insertion order.
func assemble(ctx context.Context, m *model, reg *registry.Registry) (*diagram.Diagram, error) {
	logger := ctxlog.FromContext(ctx)
	d := diagram.New()

	for _, cs := range m.Clocks {
		if err := translateClock(d, cs); err != nil {
			return nil, err
		}
	}

	for _, bs := range m.Blocks {
		if err := translateBlock(d, reg, bs); err != nil {
			return nil, err
		}
	}

	for _, ws := range m.Wires {
		if err := translateWire(d, ws); err != nil {
			return nil, err
		}
	}

	logger.Debug("Diagram assembled.",
		"blocks", len(d.Blocks()), "wires", len(d.Wires()), "clocks", len(d.Clocks()))
	return d, nil
}

func translateClock(d *diagram.Diagram, cs *clockSchema) error {
	if cs.Period != nil && cs.Hz != nil {
		return fmt.Errorf("clock %q: period and hz are mutually exclusive", cs.Name)
	}

	var period time.Duration
	switch {
	case cs.Period != nil:
		p, err := time.ParseDuration(*cs.Period)
		if err != nil {
			return fmt.Errorf("clock %q: invalid period: %w", cs.Name, err)
		}
		period = p
	case cs.Hz != nil:
		if *cs.Hz <= 0 {
			return fmt.Errorf("clock %q: hz must be positive, got %g", cs.Name, *cs.Hz)
		}
		period = time.Duration(float64(time.Second) / *cs.Hz)
	default:
		return fmt.Errorf("clock %q: one of period or hz is required", cs.Name)
	}

	var offset time.Duration
	if cs.Offset != nil {
		o, err := time.ParseDuration(*cs.Offset)
		if err != nil {
			return fmt.Errorf("clock %q: invalid offset: %w", cs.Name, err)
		}
		offset = o
	}

	if _, err := d.NewClock(cs.Name, period, offset); err != nil {
		return fmt.Errorf("clock %q: %w", cs.Name, err)
	}
	return nil
}

func translateBlock(d *diagram.Diagram, reg *registry.Registry, bs *blockSchema) error {
	def, err := reg.Resolve(bs.Type)
	if err != nil {
		return fmt.Errorf("block %q: %w", bs.Name, err)
	}

	content, remain, diags := bs.Body.PartialContent(clockAttrSchema)
	if diags.HasErrors() {
		return fmt.Errorf("block %q: %w", bs.Name, diags)
	}

	var clk *diagram.Clock
	if attr, ok := content.Attributes["clock"]; ok {
		if !def.NeedsClock {
			return fmt.Errorf("block %q: type %s does not take a clock", bs.Name, def.Type)
		}
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return fmt.Errorf("block %q: %w", bs.Name, diags)
		}
		if val.Type() != cty.String {
			return fmt.Errorf("block %q: clock must be a clock name string", bs.Name)
		}
		name := val.AsString()
		c, ok := d.Clock(name)
		if !ok {
			return fmt.Errorf("block %q: unknown clock %q", bs.Name, name)
		}
		clk = c
	} else if def.NeedsClock {
		return fmt.Errorf("block %q: type %s requires a clock attribute", bs.Name, def.Type)
	}

	var params any
	if def.NewParams != nil {
		params = def.NewParams()
	} else {
		params = &struct{}{}
	}
	if diags := gohcl.DecodeBody(remain, nil, params); diags.HasErrors() {
		return fmt.Errorf("block %q: %w", bs.Name, diags)
	}

	b, err := def.Build(registry.Args{Name: bs.Name, Clock: clk, Params: params})
	if err != nil {
		return fmt.Errorf("block %q: %w", bs.Name, err)
	}
	if err := d.AddBlock(b); err != nil {
		return fmt.Errorf("block %q: %w", bs.Name, err)
	}
	return nil
}

func translateWire(d *diagram.Diagram, ws *wireSchema) error {
	src, err := resolvePlug(d, ws.From)
	if err != nil {
		return fmt.Errorf("wire from %q: %w", ws.From, err)
	}
	dst, err := resolvePlug(d, ws.To)
	if err != nil {
		return fmt.Errorf("wire to %q: %w", ws.To, err)
	}

	name := ""
	if ws.Name != nil {
		name = *ws.Name
	}
	if err := d.ConnectNamed(name, src, dst); err != nil {
		return fmt.Errorf("wire %s -> %s: %w", ws.From, ws.To, err)
	}
	return nil
}

func resolvePlug(d *diagram.Diagram, ref string) (diagram.Plug, error) {
	pr, err := parsePortRef(ref)
	if err != nil {
		return diagram.Plug{}, err
	}
	b, ok := d.Block(pr.Name)
	if !ok {
		return diagram.Plug{}, fmt.Errorf("unknown block %q", pr.Name)
	}
	if pr.Whole {
		return diagram.All(b), nil
	}
	if pr.Width == 1 {
		return diagram.Port(b, pr.Start), nil
	}
	return diagram.Range(b, pr.Start, pr.Width), nil
}
