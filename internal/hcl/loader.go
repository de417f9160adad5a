// Package hcl loads block diagrams from .hcl files: clock, block and
// wire declarations are parsed with hclparse/gohcl and assembled into a
// diagram through the block-type registry.
package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/gridloop/gridloop/internal/ctxlog"
	"github.com/gridloop/gridloop/internal/diagram"
	"github.com/gridloop/gridloop/internal/fsutil"
	"github.com/gridloop/gridloop/internal/registry"
)

// Loader parses diagram files and assembles diagrams.
type Loader struct {
	parser *hclparse.Parser
}

// NewLoader returns a Loader with a fresh parser.
func NewLoader() *Loader {
	return &Loader{parser: hclparse.NewParser()}
}

// Load resolves paths (files or directories) to .hcl diagram files,
// parses them in order, and assembles the merged declarations into a
// compiled-ready diagram using reg for block-type lookup.
func (l *Loader) Load(ctx context.Context, reg *registry.Registry, paths ...string) (*diagram.Diagram, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := fsutil.CollectFiles(paths, ".hcl")
	if err != nil {
		return nil, fmt.Errorf("failed to find diagram files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl diagram files found in %v", paths)
	}
	logger.Debug("Loading diagram files.", "count", len(files))

	var m model
	for _, file := range files {
		parsed, err := l.loadFile(file)
		if err != nil {
			return nil, err
		}
		m.Clocks = append(m.Clocks, parsed.Clocks...)
		m.Blocks = append(m.Blocks, parsed.Blocks...)
		m.Wires = append(m.Wires, parsed.Wires...)
	}
	logger.Debug("Diagram files parsed.",
		"clocks", len(m.Clocks), "blocks", len(m.Blocks), "wires", len(m.Wires))

	return assemble(ctx, &m, reg)
}

// loadFile parses a single diagram file into its schema form.
func (l *Loader) loadFile(path string) (*diagramFile, error) {
	hclFile, diags := l.parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse %s: %w", path, diags)
	}

	var parsed diagramFile
	if diags := gohcl.DecodeBody(hclFile.Body, nil, &parsed); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode %s: %w", path, diags)
	}
	return &parsed, nil
}
