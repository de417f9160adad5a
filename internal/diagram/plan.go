package diagram

import (
	"fmt"
	"strings"
	"text/tabwriter"
)

// Target is a propagation destination: one input port fed by a wire.
type Target struct {
	Block Block
	Port  int
}

// Plan is the compiled execution order. Order lists every block exactly
// once, dependencies first; Groups is the same content batched by planner
// pass for display. The fan-out tables map each output port to the input
// ports its wires feed.
type Plan struct {
	Order  []Block
	Groups [][]Block

	targets [][][]Target
}

// Targets returns the wired destinations of output port `port` of the
// block with the given id.
func (p *Plan) Targets(id, port int) []Target {
	return p.targets[id][port]
}

// buildPlan runs the planner: a Kahn-style topological sort seeded by the
// blocks that need no same-cycle input. Source blocks have no inputs;
// clocked blocks output held state, so both may run before their input
// producers. The scan order is insertion order, which makes the plan
// deterministic and recompiles identical.
func buildPlan(blocks []Block, drivers [][]*Wire) (*Plan, error) {
	planned := make([]bool, len(blocks))
	order := make([]Block, 0, len(blocks))
	var groups [][]Block

	var seeds []Block
	for _, b := range blocks {
		k := b.Core().kind
		if k == KindSource || k == KindClocked {
			planned[b.Core().id] = true
			seeds = append(seeds, b)
		}
	}
	if len(seeds) > 0 {
		order = append(order, seeds...)
		groups = append(groups, seeds)
	}

	for len(order) < len(blocks) {
		var group []Block
		for _, b := range blocks {
			c := b.Core()
			if planned[c.id] || !eligible(c, drivers, planned) {
				continue
			}
			planned[c.id] = true
			group = append(group, b)
			order = append(order, b)
		}
		if len(group) == 0 {
			return nil, &CyclicGraphError{Cycle: findCycle(blocks, drivers, planned)}
		}
		groups = append(groups, group)
	}

	return &Plan{
		Order:   order,
		Groups:  groups,
		targets: buildTargets(blocks, drivers),
	}, nil
}

// eligible reports whether every input port's driving block is planned.
func eligible(c *Core, drivers [][]*Wire, planned []bool) bool {
	for _, w := range drivers[c.id] {
		if !planned[w.src.Core().id] {
			return false
		}
	}
	return true
}

// findCycle walks unplanned dependencies from the first stalled block
// until one repeats, and returns the names of the loop's members. At a
// stall every unplanned block has at least one unplanned driver, so the
// walk always closes.
func findCycle(blocks []Block, drivers [][]*Wire, planned []bool) []string {
	var start Block
	for _, b := range blocks {
		if !planned[b.Core().id] {
			start = b
			break
		}
	}
	if start == nil {
		return nil
	}

	visited := make(map[int]int)
	var path []Block
	b := start
	for {
		id := b.Core().id
		if at, seen := visited[id]; seen {
			names := make([]string, 0, len(path)-at)
			for _, m := range path[at:] {
				names = append(names, m.Core().String())
			}
			return names
		}
		visited[id] = len(path)
		path = append(path, b)

		next := b
		for _, w := range drivers[id] {
			if !planned[w.src.Core().id] {
				next = w.src
				break
			}
		}
		b = next
	}
}

func buildTargets(blocks []Block, drivers [][]*Wire) [][][]Target {
	targets := make([][][]Target, len(blocks))
	for i, b := range blocks {
		targets[i] = make([][]Target, b.Core().nout)
	}
	for _, ws := range drivers {
		for _, w := range ws {
			id := w.src.Core().id
			targets[id][w.srcPort] = append(targets[id][w.srcPort], Target{Block: w.dst, Port: w.dstPort})
		}
	}
	return targets
}

// String renders the plan as a table of passes and their blocks.
func (p *Plan) String() string {
	var sb strings.Builder
	tw := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQUENCE\tBLOCKS")
	for i, group := range p.Groups {
		names := make([]string, len(group))
		for j, b := range group {
			names[j] = b.Core().String()
		}
		fmt.Fprintf(tw, "%d\t%s\n", i, strings.Join(names, ", "))
	}
	tw.Flush()
	return sb.String()
}
