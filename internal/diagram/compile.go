package diagram

import (
	"context"

	"github.com/gridloop/gridloop/internal/ctxlog"
)

// Compile validates the diagram and builds its execution plan. The steps
// run in order and each is a hard precondition for the next: structural
// block checks, input-port linkage, variant rejection, then planning.
// Compiling an already-compiled diagram is a no-op.
func (d *Diagram) Compile(ctx context.Context) error {
	if d.compiled {
		return nil
	}
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Compiling diagram.", "blocks", len(d.blocks), "wires", len(d.wires), "clocks", len(d.clocks))

	for _, b := range d.blocks {
		c := b.Core()
		if c.nin == 0 && c.nout == 0 {
			return &InvalidBlockError{Block: c.String(), Reason: "block has no ports"}
		}
		if c.kind == KindClocked {
			if c.clock == nil {
				return &InvalidBlockError{Block: c.String(), Reason: "clocked block has no clock attached"}
			}
			if _, ok := c.clock.blockOf(b); !ok {
				return &InvalidBlockError{Block: c.String(), Reason: "clocked block is not owned by its clock"}
			}
		}
	}
	logger.Debug("Structural checks passed.")

	drivers, err := d.linkPorts()
	if err != nil {
		return err
	}
	logger.Debug("Port linkage built.")

	for _, b := range d.blocks {
		c := b.Core()
		switch c.kind {
		case KindTransfer:
			return &UnsupportedBlockError{
				Block: c.String(), Type: c.typeName,
				Reason: "continuous transfer blocks cannot run in the real-time profile",
			}
		case KindSubsystem:
			return &UnsupportedBlockError{
				Block: c.String(), Type: c.typeName,
				Reason: "subsystems must be flattened before compiling",
			}
		}
	}

	plan, err := buildPlan(d.blocks, drivers)
	if err != nil {
		return err
	}
	logger.Debug("Execution plan built.", "groups", len(plan.Groups))

	d.plan = plan
	d.compiled = true
	return nil
}

// linkPorts builds the input-port → driving-wire table, rejecting ports
// with zero or more than one driver.
func (d *Diagram) linkPorts() ([][]*Wire, error) {
	drivers := make([][]*Wire, len(d.blocks))
	for i, b := range d.blocks {
		drivers[i] = make([]*Wire, b.Core().nin)
	}

	for _, w := range d.wires {
		id := w.dst.Core().id
		if prev := drivers[id][w.dstPort]; prev != nil {
			return nil, &MultiplyDrivenInputError{
				Block: w.dst.Core().String(),
				Port:  w.dstPort,
				Wires: [2]int{prev.id, w.id},
			}
		}
		drivers[id][w.dstPort] = w
	}

	for i, b := range d.blocks {
		for port, w := range drivers[i] {
			if w == nil {
				return nil, &UnconnectedInputError{Block: b.Core().String(), Port: port}
			}
		}
	}
	return drivers, nil
}

// blockOf reports whether b is in the clock's owned list.
func (c *Clock) blockOf(b Block) (int, bool) {
	for i, owned := range c.blocks {
		if owned == b {
			return i, true
		}
	}
	return 0, false
}
