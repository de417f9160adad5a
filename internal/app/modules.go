package app

import (
	"github.com/gridloop/gridloop/blocks/data"
	"github.com/gridloop/gridloop/blocks/discrete"
	"github.com/gridloop/gridloop/blocks/function"
	"github.com/gridloop/gridloop/blocks/livescope"
	"github.com/gridloop/gridloop/blocks/sink"
	"github.com/gridloop/gridloop/blocks/source"
	"github.com/gridloop/gridloop/internal/registry"
)

// coreModules is the definitive list of all block modules that are compiled
// into the gridloop binary.
var coreModules = []registry.Module{
	source.Module{},
	function.Module{},
	discrete.Module{},
	sink.Module{},
	data.Module{},
	livescope.Module{},
}
