package diagram

import (
	"fmt"
	"strings"
)

// DuplicateNameError reports a caller-supplied block name that collides
// with an existing block.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("duplicate block name %q", e.Name)
}

// ConnectError reports a structurally invalid Connect call, such as an
// out-of-range port or a block that was never added to the diagram.
type ConnectError struct {
	Plug   string
	Reason string
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("cannot connect %s: %s", e.Plug, e.Reason)
}

// WidthMismatchError reports a connection whose source and destination
// plugs resolve to different widths.
type WidthMismatchError struct {
	Src      string
	Dst      string
	SrcWidth int
	DstWidth int
}

func (e *WidthMismatchError) Error() string {
	return fmt.Sprintf("width mismatch: %s has width %d but %s has width %d",
		e.Src, e.SrcWidth, e.Dst, e.DstWidth)
}

// InvalidBlockError reports a block that fails the structural compile
// checks.
type InvalidBlockError struct {
	Block  string
	Reason string
}

func (e *InvalidBlockError) Error() string {
	return fmt.Sprintf("invalid block %s: %s", e.Block, e.Reason)
}

// UnconnectedInputError reports an input port with no driving wire.
type UnconnectedInputError struct {
	Block string
	Port  int
}

func (e *UnconnectedInputError) Error() string {
	return fmt.Sprintf("input %d of block %s is not connected", e.Port, e.Block)
}

// MultiplyDrivenInputError reports an input port driven by more than one
// wire. Wires holds the ids of the first two offenders.
type MultiplyDrivenInputError struct {
	Block string
	Port  int
	Wires [2]int
}

func (e *MultiplyDrivenInputError) Error() string {
	return fmt.Sprintf("input %d of block %s is driven by wires %d and %d; each input takes exactly one wire",
		e.Port, e.Block, e.Wires[0], e.Wires[1])
}

// UnsupportedBlockError reports a block variant the real-time profile
// rejects.
type UnsupportedBlockError struct {
	Block  string
	Type   string
	Reason string
}

func (e *UnsupportedBlockError) Error() string {
	return fmt.Sprintf("unsupported block %s (%s): %s", e.Block, e.Type, e.Reason)
}

// CyclicGraphError reports a dependency loop not broken by discrete
// state. Cycle holds the member block names in walk order.
type CyclicGraphError struct {
	Cycle []string
}

func (e *CyclicGraphError) Error() string {
	if len(e.Cycle) == 0 {
		return "cycle detected"
	}
	return fmt.Sprintf("cycle detected involving block '%s': %s",
		e.Cycle[0], strings.Join(e.Cycle, " -> "))
}

// NotCompiledError reports a plan request on a diagram that has not been
// compiled, or was rewired since its last compile.
type NotCompiledError struct{}

func (e *NotCompiledError) Error() string {
	return "diagram is not compiled; call Compile after any wiring change"
}
