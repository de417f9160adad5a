// Package registry maps canonical block-type names to factories. It is
// an explicit object owned by the app and handed to the loader; block
// packages register into it, nothing registers into globals.
package registry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agext/levenshtein"
	"github.com/gridloop/gridloop/internal/diagram"
)

// Args carries what a factory needs to build one block instance.
type Args struct {
	// Name is the block's diagram name; empty means auto-named at AddBlock.
	Name string
	// Clock is the resolved clock for clocked types, nil otherwise.
	Clock *diagram.Clock
	// Params is the decoded params struct the type's NewParams produced.
	Params any
}

// Def describes one registered block type.
type Def struct {
	// Type is the canonical ALLCAPS name, e.g. "WAVEFORM".
	Type string
	// Kind is the variant the factory produces, for listings and clock
	// validation.
	Kind diagram.Kind
	// NeedsClock marks types whose blocks must be attached to a clock.
	NeedsClock bool
	// NewParams returns a fresh params struct carrying the type's
	// defaults, ready for decoding. Nil when the type takes no params.
	NewParams func() any
	// Build constructs the block.
	Build func(a Args) (diagram.Block, error)
}

// Module is implemented by block packages that register their types.
type Module interface {
	Register(r *Registry)
}

// Registry holds block-type definitions keyed by canonical name.
type Registry struct {
	defs map[string]*Def
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{defs: make(map[string]*Def)}
}

// Register adds a definition. Registration happens at startup from
// compiled-in block packages, so a duplicate or malformed def is a
// programmer error and panics.
func (r *Registry) Register(def *Def) {
	if def == nil || def.Type == "" || def.Build == nil {
		panic("registry: definition must have a type name and a build function")
	}
	key := canonical(def.Type)
	if key != def.Type {
		panic(fmt.Sprintf("registry: type name %q must be ALLCAPS", def.Type))
	}
	if _, ok := r.defs[key]; ok {
		panic(fmt.Sprintf("registry: block type %q registered twice", key))
	}
	r.defs[key] = def
}

// Resolve looks a type up by name, case-insensitively. Unknown names
// return an UnknownTypeError carrying the three closest registered names.
func (r *Registry) Resolve(name string) (*Def, error) {
	key := canonical(name)
	if def, ok := r.defs[key]; ok {
		return def, nil
	}
	return nil, &UnknownTypeError{Name: name, Suggestions: r.nearest(key, 3)}
}

// Types returns the registered canonical names, sorted.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.defs))
	for t := range r.defs {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Len returns the number of registered types.
func (r *Registry) Len() int { return len(r.defs) }

// nearest returns up to n registered names ordered by edit distance to
// name, ties broken alphabetically.
func (r *Registry) nearest(name string, n int) []string {
	type scored struct {
		name string
		dist int
	}
	candidates := make([]scored, 0, len(r.defs))
	for t := range r.defs {
		candidates = append(candidates, scored{name: t, dist: levenshtein.Distance(name, t, nil)})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].dist != candidates[j].dist {
			return candidates[i].dist < candidates[j].dist
		}
		return candidates[i].name < candidates[j].name
	})

	if n > len(candidates) {
		n = len(candidates)
	}
	names := make([]string, n)
	for i := 0; i < n; i++ {
		names[i] = candidates[i].name
	}
	return names
}

func canonical(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// UnknownTypeError reports a block-type lookup miss, with the closest
// registered names to point at likely typos.
type UnknownTypeError struct {
	Name        string
	Suggestions []string
}

func (e *UnknownTypeError) Error() string {
	if len(e.Suggestions) == 0 {
		return fmt.Sprintf("unknown block type %q", e.Name)
	}
	return fmt.Sprintf("unknown block type %q; closest matches: %s",
		e.Name, strings.Join(e.Suggestions, ", "))
}
