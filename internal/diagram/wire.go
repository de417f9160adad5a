package diagram

import "fmt"

// Wire is a directed edge from one output port to one input port. Range
// connections are stored fully expanded, one Wire per index pair.
type Wire struct {
	id      int
	name    string
	src     Block
	srcPort int
	dst     Block
	dstPort int
}

// ID returns the wire's stable id, its index in creation order.
func (w *Wire) ID() int { return w.id }

// Name returns the optional user-supplied name, "" when unnamed.
func (w *Wire) Name() string { return w.name }

// Src returns the sourcing block and output port.
func (w *Wire) Src() (Block, int) { return w.src, w.srcPort }

// Dst returns the destination block and input port.
func (w *Wire) Dst() (Block, int) { return w.dst, w.dstPort }

func (w *Wire) String() string {
	return fmt.Sprintf("%s[%d] -> %s[%d]",
		w.src.Core().String(), w.srcPort, w.dst.Core().String(), w.dstPort)
}
