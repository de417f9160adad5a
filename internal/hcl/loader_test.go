package hcl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridloop/gridloop/blocks/discrete"
	"github.com/gridloop/gridloop/blocks/function"
	"github.com/gridloop/gridloop/blocks/sink"
	"github.com/gridloop/gridloop/blocks/source"
	"github.com/gridloop/gridloop/internal/diagram"
	"github.com/gridloop/gridloop/internal/registry"
	"github.com/gridloop/gridloop/internal/testutil"
)

func testRegistry() *registry.Registry {
	r := registry.New()
	source.Module{}.Register(r)
	function.Module{}.Register(r)
	discrete.Module{}.Register(r)
	sink.Module{}.Register(r)
	return r
}

func TestLoad_AssemblesDiagram(t *testing.T) {
	t.Parallel()

	dir := testutil.WriteHCL(t, map[string]string{
		"main.hcl": `
			clock "main" {
				period = "100ms"
			}

			block "CONSTANT" "ref" {
				value = 2.5
			}

			block "ZOH" "hold" {
				clock = "main"
			}

			block "PRINT" "out" {}

			wire {
				from = "ref"
				to   = "hold"
			}

			wire {
				from = "hold"
				to   = "out"
				name = "held"
			}
		`,
	})

	ctx := testutil.Context(t)
	d, err := NewLoader().Load(ctx, testRegistry(), dir)
	require.NoError(t, err)

	require.Len(t, d.Blocks(), 3)
	require.Len(t, d.Wires(), 2)
	require.Len(t, d.Clocks(), 1)

	hold, ok := d.Block("hold")
	require.True(t, ok)
	require.NotNil(t, hold.Core().Clock())
	assert.Equal(t, "main", hold.Core().Clock().Name())
	assert.Equal(t, 100*time.Millisecond, hold.Core().Clock().Period())
	assert.Equal(t, diagram.KindClocked, hold.Core().Kind())

	assert.Equal(t, "held", d.Wires()[1].Name())

	require.NoError(t, d.Compile(ctx), "the loaded diagram must compile")
}

func TestLoad_MergesFilesInOrder(t *testing.T) {
	t.Parallel()

	// Wires may live in a different file than the blocks they join;
	// assembly translates all blocks before any wire.
	dir := testutil.WriteHCL(t, map[string]string{
		"a_wires.hcl": `
			wire {
				from = "ref"
				to   = "out"
			}
		`,
		"b_blocks.hcl": `
			block "CONSTANT" "ref" {
				value = 1
			}

			block "PRINT" "out" {}
		`,
	})

	d, err := NewLoader().Load(testutil.Context(t), testRegistry(), dir)
	require.NoError(t, err)
	assert.Len(t, d.Wires(), 1)
}

func TestLoad_HzClock(t *testing.T) {
	t.Parallel()

	dir := testutil.WriteHCL(t, map[string]string{
		"main.hcl": `
			clock "fast" {
				hz = 50
			}

			block "CONSTANT" "ref" {
				value = 1
			}
		`,
	})

	d, err := NewLoader().Load(testutil.Context(t), testRegistry(), dir)
	require.NoError(t, err)

	c, ok := d.Clock("fast")
	require.True(t, ok)
	assert.Equal(t, 20*time.Millisecond, c.Period())
}

func TestLoad_ClockValidation(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		src     string
		wantErr string
	}{
		"period and hz together": {
			src: `
				clock "c" {
					period = "10ms"
					hz     = 100
				}
			`,
			wantErr: "mutually exclusive",
		},
		"neither period nor hz": {
			src:     `clock "c" {}`,
			wantErr: "one of period or hz is required",
		},
		"bad period": {
			src:     `clock "c" { period = "fast" }`,
			wantErr: "invalid period",
		},
		"negative hz": {
			src:     `clock "c" { hz = -1 }`,
			wantErr: "hz must be positive",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			dir := testutil.WriteHCL(t, map[string]string{"main.hcl": tc.src})
			_, err := NewLoader().Load(testutil.Context(t), testRegistry(), dir)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoad_UnknownTypeSuggests(t *testing.T) {
	t.Parallel()

	dir := testutil.WriteHCL(t, map[string]string{
		"main.hcl": `
			block "WAVFORM" "w" {
				wave = "sine"
				freq = 1
			}
		`,
	})

	_, err := NewLoader().Load(testutil.Context(t), testRegistry(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `block "w"`)
	assert.Contains(t, err.Error(), "WAVEFORM", "the typo's neighbor is suggested")
}

func TestLoad_ClockAttribute(t *testing.T) {
	t.Parallel()

	t.Run("clocked type without clock", func(t *testing.T) {
		t.Parallel()
		dir := testutil.WriteHCL(t, map[string]string{
			"main.hcl": `block "ZOH" "hold" {}`,
		})
		_, err := NewLoader().Load(testutil.Context(t), testRegistry(), dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "requires a clock attribute")
	})

	t.Run("unclocked type with clock", func(t *testing.T) {
		t.Parallel()
		dir := testutil.WriteHCL(t, map[string]string{
			"main.hcl": `
				clock "main" { period = "10ms" }
				block "CONSTANT" "ref" {
					value = 1
					clock = "main"
				}
			`,
		})
		_, err := NewLoader().Load(testutil.Context(t), testRegistry(), dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "does not take a clock")
	})

	t.Run("unknown clock name", func(t *testing.T) {
		t.Parallel()
		dir := testutil.WriteHCL(t, map[string]string{
			"main.hcl": `
				block "ZOH" "hold" {
					clock = "ghost"
				}
			`,
		})
		_, err := NewLoader().Load(testutil.Context(t), testRegistry(), dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown clock "ghost"`)
	})
}

func TestLoad_MissingRequiredParam(t *testing.T) {
	t.Parallel()

	dir := testutil.WriteHCL(t, map[string]string{
		"main.hcl": `block "CONSTANT" "ref" {}`,
	})

	_, err := NewLoader().Load(testutil.Context(t), testRegistry(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "value")
}

func TestLoad_WirePortIndexing(t *testing.T) {
	t.Parallel()

	dir := testutil.WriteHCL(t, map[string]string{
		"main.hcl": `
			block "CONSTANT" "a" {
				value = 1
			}

			block "CONSTANT" "b" {
				value = 2
			}

			block "SUM" "total" {
				signs = "+-"
			}

			block "PRINT" "out" {}

			wire {
				from = "a"
				to   = "total[0]"
			}

			wire {
				from = "b"
				to   = "total[1]"
			}

			wire {
				from = "total"
				to   = "out"
			}
		`,
	})

	ctx := testutil.Context(t)
	d, err := NewLoader().Load(ctx, testRegistry(), dir)
	require.NoError(t, err)
	require.NoError(t, d.Compile(ctx))
	assert.Len(t, d.Wires(), 3)
}

func TestLoad_BadWireReference(t *testing.T) {
	t.Parallel()

	dir := testutil.WriteHCL(t, map[string]string{
		"main.hcl": `
			block "CONSTANT" "a" {
				value = 1
			}

			wire {
				from = "a"
				to   = "nowhere"
			}
		`,
	})

	_, err := NewLoader().Load(testutil.Context(t), testRegistry(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown block "nowhere"`)
}

func TestLoad_NoFiles(t *testing.T) {
	t.Parallel()

	dir := testutil.WriteHCL(t, map[string]string{"readme.txt": "not a diagram"})

	_, err := NewLoader().Load(testutil.Context(t), testRegistry(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no .hcl diagram files")
}

func TestLoad_SyntaxError(t *testing.T) {
	t.Parallel()

	dir := testutil.WriteHCL(t, map[string]string{
		"main.hcl": `block "CONSTANT" "a" {`,
	})

	_, err := NewLoader().Load(testutil.Context(t), testRegistry(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
}
