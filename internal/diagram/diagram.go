// Package diagram holds the block-diagram data model and its compiler: a
// graph of blocks joined by wires, clocks owning discrete-state blocks,
// and the planner that turns a wired graph into a deterministic execution
// order. The real-time loop that drives a compiled diagram lives in
// internal/rt.
package diagram

import (
	"fmt"
	"strings"
	"time"
)

// Diagram owns blocks, wires and clocks, and compiles them into a Plan.
// Insertion order is significant: it defines block ids and the planner's
// deterministic tie-break. Any change to the wiring invalidates a
// previous compile.
type Diagram struct {
	blocks   []Block
	byName   map[string]Block
	wires    []*Wire
	clocks   []*Clock
	counters map[string]int
	nclocks  int

	compiled bool
	plan     *Plan
}

// New returns an empty diagram.
func New() *Diagram {
	return &Diagram{
		byName:   make(map[string]Block),
		counters: make(map[string]int),
	}
}

// AddBlock adds b, assigning its stable id and, when the block is
// unnamed, a default name "{type}.{counter}" with a per-type counter.
// Clocked blocks are attached to their clock's owned list here.
func (d *Diagram) AddBlock(b Block) error {
	c := b.Core()
	if c.id >= 0 {
		return fmt.Errorf("block %s is already part of a diagram", c)
	}

	if c.name == "" {
		typ := strings.ToLower(c.typeName)
		c.name = fmt.Sprintf("%s.%d", typ, d.counters[typ])
		d.counters[typ]++
	}
	if _, ok := d.byName[c.name]; ok {
		return &DuplicateNameError{Name: c.name}
	}

	c.id = len(d.blocks)
	d.blocks = append(d.blocks, b)
	d.byName[c.name] = b

	if c.clock != nil {
		c.clock.attach(b)
	}

	d.invalidate()
	return nil
}

// MustAdd adds b and panics on error. Intended for programmatic assembly
// where a failure is a programming mistake.
func (d *Diagram) MustAdd(b Block) Block {
	if err := d.AddBlock(b); err != nil {
		panic(err)
	}
	return b
}

// Connect wires the source plug to each destination plug. Plug widths
// must match after whole-block resolution; a width-n connection expands
// to n wires pairing index i with index i.
func (d *Diagram) Connect(src Plug, dsts ...Plug) error {
	return d.connect("", src, dsts...)
}

// ConnectNamed is Connect with a wire name. Expanded wires of a range
// connection are named "{name}[i]".
func (d *Diagram) ConnectNamed(name string, src Plug, dsts ...Plug) error {
	return d.connect(name, src, dsts...)
}

func (d *Diagram) connect(name string, src Plug, dsts ...Plug) error {
	if len(dsts) == 0 {
		return &ConnectError{Plug: src.String(), Reason: "no destinations given"}
	}

	sc, err := d.member(src)
	if err != nil {
		return err
	}
	sStart, sWidth := src.resolve(sc.nout)
	if err := checkSpan(src, sStart, sWidth, sc.nout, "output"); err != nil {
		return err
	}

	for _, dst := range dsts {
		dc, err := d.member(dst)
		if err != nil {
			return err
		}
		dStart, dWidth := dst.resolve(dc.nin)
		if err := checkSpan(dst, dStart, dWidth, dc.nin, "input"); err != nil {
			return err
		}
		if sWidth != dWidth {
			return &WidthMismatchError{
				Src: src.String(), Dst: dst.String(),
				SrcWidth: sWidth, DstWidth: dWidth,
			}
		}

		for i := 0; i < sWidth; i++ {
			wname := name
			if wname != "" && sWidth > 1 {
				wname = fmt.Sprintf("%s[%d]", name, i)
			}
			d.wires = append(d.wires, &Wire{
				id:   len(d.wires),
				name: wname,
				src:  src.Block, srcPort: sStart + i,
				dst: dst.Block, dstPort: dStart + i,
			})
		}
	}

	d.invalidate()
	return nil
}

func (d *Diagram) member(p Plug) (*Core, error) {
	if p.Block == nil {
		return nil, &ConnectError{Plug: "?", Reason: "plug has no block"}
	}
	c := p.Block.Core()
	if c.id < 0 || c.id >= len(d.blocks) || d.blocks[c.id] != p.Block {
		return nil, &ConnectError{Plug: p.String(), Reason: "block is not part of this diagram"}
	}
	return c, nil
}

func checkSpan(p Plug, start, width, arity int, side string) error {
	if width < 1 {
		return &ConnectError{Plug: p.String(), Reason: "plug width must be at least 1"}
	}
	if start < 0 || start+width > arity {
		return &ConnectError{
			Plug:   p.String(),
			Reason: fmt.Sprintf("%s ports [%d:%d] out of range, block has %d", side, start, start+width, arity),
		}
	}
	return nil
}

// NewClock creates a clock with the given period and phase offset and
// registers it. An empty name gets the default "clock.N".
func (d *Diagram) NewClock(name string, period, offset time.Duration) (*Clock, error) {
	if period <= 0 {
		return nil, fmt.Errorf("clock period must be positive, got %s", period)
	}
	if offset < 0 {
		return nil, fmt.Errorf("clock offset must not be negative, got %s", offset)
	}
	if name == "" {
		name = fmt.Sprintf("clock.%d", d.nclocks)
	}
	for _, c := range d.clocks {
		if c.name == name {
			return nil, &DuplicateNameError{Name: name}
		}
	}

	c := &Clock{name: name, period: period, offset: offset}
	d.clocks = append(d.clocks, c)
	d.nclocks++
	d.invalidate()
	return c, nil
}

// NewClockHz creates a clock from a rate in hertz with zero offset.
func (d *Diagram) NewClockHz(name string, hz float64) (*Clock, error) {
	if hz <= 0 {
		return nil, fmt.Errorf("clock rate must be positive, got %g Hz", hz)
	}
	return d.NewClock(name, time.Duration(float64(time.Second)/hz), 0)
}

// Block looks a block up by name.
func (d *Diagram) Block(name string) (Block, bool) {
	b, ok := d.byName[name]
	return b, ok
}

// Clock looks a clock up by name.
func (d *Diagram) Clock(name string) (*Clock, bool) {
	for _, c := range d.clocks {
		if c.name == name {
			return c, true
		}
	}
	return nil, false
}

// Blocks returns the block list in insertion order.
func (d *Diagram) Blocks() []Block { return d.blocks }

// Wires returns the wire list in creation order.
func (d *Diagram) Wires() []*Wire { return d.wires }

// Clocks returns the clock list in creation order.
func (d *Diagram) Clocks() []*Clock { return d.clocks }

// Compiled reports whether the diagram holds a valid plan.
func (d *Diagram) Compiled() bool { return d.compiled }

// Plan returns the compiled plan, or NotCompiledError before a successful
// Compile or after a wiring change.
func (d *Diagram) Plan() (*Plan, error) {
	if !d.compiled {
		return nil, &NotCompiledError{}
	}
	return d.plan, nil
}

func (d *Diagram) invalidate() {
	d.compiled = false
	d.plan = nil
}
