package diagram

import (
	"fmt"
	"strings"
	"text/tabwriter"
)

// Report renders the assembled diagram as block, wire and clock tables.
// It does not require a compile and is meant for field debugging, off the
// hot path.
func (d *Diagram) Report() string {
	var sb strings.Builder

	tw := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Blocks (%d):\n", len(d.blocks))
	fmt.Fprintln(tw, "ID\tNAME\tTYPE\tKIND\tNIN\tNOUT\tNDSTATES\tCLOCK")
	for _, b := range d.blocks {
		c := b.Core()
		clock := "-"
		if c.clock != nil {
			clock = c.clock.name
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			c.id, c.name, c.typeName, c.kind, c.nin, c.nout, c.ndstates, clock)
	}
	tw.Flush()

	sb.WriteString("\n")
	tw = tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Wires (%d):\n", len(d.wires))
	fmt.Fprintln(tw, "ID\tSOURCE\tDEST\tNAME")
	for _, w := range d.wires {
		name := w.name
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(tw, "%d\t%s[%d]\t%s[%d]\t%s\n",
			w.id, w.src.Core().String(), w.srcPort, w.dst.Core().String(), w.dstPort, name)
	}
	tw.Flush()

	sb.WriteString("\n")
	tw = tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Clocks (%d):\n", len(d.clocks))
	fmt.Fprintln(tw, "NAME\tPERIOD\tOFFSET\tBLOCKS")
	for _, c := range d.clocks {
		names := make([]string, len(c.blocks))
		for i, b := range c.blocks {
			names[i] = b.Core().String()
		}
		owned := strings.Join(names, ", ")
		if owned == "" {
			owned = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.name, c.period, c.offset, owned)
	}
	tw.Flush()

	return sb.String()
}
