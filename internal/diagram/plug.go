package diagram

import "fmt"

// Plug addresses a block's ports: the whole block, a single index, or a
// contiguous half-open range. Whether it selects inputs or outputs is
// decided by its position in a Connect call; a whole-block Plug resolves
// its width against the relevant arity at connect time.
type Plug struct {
	Block Block
	start int
	width int
	whole bool
}

// All addresses every port of b.
func All(b Block) Plug {
	return Plug{Block: b, whole: true}
}

// Port addresses the single port i of b.
func Port(b Block, i int) Plug {
	return Plug{Block: b, start: i, width: 1}
}

// Range addresses the ports [start, start+width) of b.
func Range(b Block, start, width int) Plug {
	return Plug{Block: b, start: start, width: width}
}

// resolve returns the concrete (start, width) given the arity the plug is
// being matched against.
func (p Plug) resolve(arity int) (int, int) {
	if p.whole {
		return 0, arity
	}
	return p.start, p.width
}

func (p Plug) String() string {
	name := "?"
	if p.Block != nil {
		name = p.Block.Core().String()
	}
	switch {
	case p.whole:
		return name
	case p.width == 1:
		return fmt.Sprintf("%s[%d]", name, p.start)
	default:
		return fmt.Sprintf("%s[%d:%d]", name, p.start, p.start+p.width)
	}
}
