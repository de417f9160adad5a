package hcl

import "github.com/hashicorp/hcl/v2"

// diagramFile is the top-level structure of one diagram file: clock,
// block and wire blocks in any order.
type diagramFile struct {
	Clocks []*clockSchema `hcl:"clock,block"`
	Blocks []*blockSchema `hcl:"block,block"`
	Wires  []*wireSchema  `hcl:"wire,block"`
}

// clockSchema declares a periodic clock. Exactly one of period (duration
// string) or hz must be set.
type clockSchema struct {
	Name   string   `hcl:"name,label"`
	Period *string  `hcl:"period,optional"`
	Hz     *float64 `hcl:"hz,optional"`
	Offset *string  `hcl:"offset,optional"`
}

// blockSchema declares one block instance: `block "TYPE" "name" { ... }`.
// The body carries the type's free-form params plus the reserved `clock`
// attribute for clocked types.
type blockSchema struct {
	Type string   `hcl:"type,label"`
	Name string   `hcl:"name,label"`
	Body hcl.Body `hcl:",remain"`
}

// wireSchema declares one edge. From and To are port references:
// "name" (whole block), "name[2]" (single port), "name[0:2]" (range).
type wireSchema struct {
	From string  `hcl:"from"`
	To   string  `hcl:"to"`
	Name *string `hcl:"name,optional"`
}

// model is the merged content of all loaded diagram files, declaration
// order preserved. Declaration order matters: it fixes block ids and the
// planner's tie-break.
type model struct {
	Clocks []*clockSchema
	Blocks []*blockSchema
	Wires  []*wireSchema
}
