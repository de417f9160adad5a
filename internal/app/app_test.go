package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridloop/gridloop/blocks/source"
	"github.com/gridloop/gridloop/internal/rt"
	"github.com/gridloop/gridloop/internal/testutil"
)

func TestNewConfig_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewConfig(Config{})
	assert.ErrorContains(t, err, "at least one diagram path")

	_, err = NewConfig(Config{ListTypes: true})
	assert.NoError(t, err, "list-types needs no diagram")

	_, err = NewConfig(Config{Paths: []string{"d"}, MaxTime: -time.Second})
	assert.ErrorContains(t, err, "max-time cannot be negative")

	_, err = NewConfig(Config{Paths: []string{"d"}, Interval: -time.Second})
	assert.ErrorContains(t, err, "interval cannot be negative")

	cfg, err := NewConfig(Config{Paths: []string{"d"}})
	require.NoError(t, err)
	assert.Equal(t, rt.DefaultSmoothing, cfg.Smoothing)
}

func TestNewApp_RegistersCoreModules(t *testing.T) {
	t.Parallel()

	a, _ := SetupAppTest(t, &Config{ListTypes: true})
	assert.Equal(t, 17, a.Registry().Len())
}

func TestNewApp_CustomModules(t *testing.T) {
	t.Parallel()

	a, _ := SetupAppTest(t, &Config{ListTypes: true}, source.Module{})
	assert.Equal(t, 3, a.Registry().Len())
}

func TestRun_ListTypes(t *testing.T) {
	t.Parallel()

	a, buf := SetupAppTest(t, &Config{ListTypes: true})
	require.NoError(t, a.Run(context.Background()))

	out := buf.String()
	for _, typ := range []string{"CONSTANT", "SUM", "ZOH", "PRINT", "DATASENDER", "LIVESCOPE"} {
		assert.Contains(t, out, typ)
	}
}

func TestRun_CheckMode(t *testing.T) {
	t.Parallel()

	dir := testutil.WriteHCL(t, map[string]string{
		"main.hcl": `
			block "CONSTANT" "ref" {
				value = 1
			}

			block "PRINT" "out" {}

			wire {
				from = "ref"
				to   = "out"
			}
		`,
	})

	a, buf := SetupAppTest(t, &Config{Paths: []string{dir}, Check: true})
	require.NoError(t, a.Run(context.Background()))
	assert.Contains(t, buf.String(), "Diagram compiles cleanly.")
}

func TestRun_ReportAndPlan(t *testing.T) {
	t.Parallel()

	dir := testutil.WriteHCL(t, map[string]string{
		"main.hcl": `
			block "CONSTANT" "ref" {
				value = 1
			}

			block "PRINT" "out" {}

			wire {
				from = "ref"
				to   = "out"
			}
		`,
	})

	a, buf := SetupAppTest(t, &Config{Paths: []string{dir}, Report: true, Plan: true})
	require.NoError(t, a.Run(context.Background()))

	out := buf.String()
	assert.Contains(t, out, "Blocks (2):")
	assert.Contains(t, out, "SEQUENCE")
}

func TestRun_LoadError(t *testing.T) {
	t.Parallel()

	dir := testutil.WriteHCL(t, map[string]string{
		"main.hcl": `block "CONSTANT" {`,
	})

	a, _ := SetupAppTest(t, &Config{Paths: []string{dir}, Check: true})
	assert.ErrorContains(t, a.Run(context.Background()), "loading diagram")
}

func TestRun_CompileError(t *testing.T) {
	t.Parallel()

	dir := testutil.WriteHCL(t, map[string]string{
		"main.hcl": `
			block "CONSTANT" "a" {
				value = 1
			}

			block "SUM" "total" {}

			block "PRINT" "out" {}

			wire {
				from = "a"
				to   = "total[0]"
			}

			wire {
				from = "total"
				to   = "out"
			}
		`,
	})

	a, _ := SetupAppTest(t, &Config{Paths: []string{dir}, Check: true})
	assert.ErrorContains(t, a.Run(context.Background()), "compiling diagram")
}

func TestRun_ExecutesToCompletion(t *testing.T) {
	t.Parallel()

	csvPath := filepath.Join(t.TempDir(), "out.csv")
	dir := testutil.WriteHCL(t, map[string]string{
		"main.hcl": fmt.Sprintf(`
			block "CONSTANT" "ref" {
				value = 2
			}

			block "GAIN" "amp" {
				k = 3
			}

			block "CSV" "log" {
				path = %q
			}

			wire {
				from = "ref"
				to   = "amp"
			}

			wire {
				from = "amp"
				to   = "log"
			}
		`, csvPath),
	})

	cfg := &Config{
		Paths:   []string{dir},
		MaxTime: 30 * time.Millisecond,
		Source:  rt.NewVirtual(10 * time.Millisecond),
	}
	a, buf := SetupAppTest(t, cfg)
	require.NoError(t, a.Run(context.Background()))

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Equal(t, "t,in0\n0.01,6\n0.02,6\n0.03,6\n", string(data))
	assert.Contains(t, buf.String(), "Execution finished.")
}

func TestRun_StopBlockEndsTheRun(t *testing.T) {
	t.Parallel()

	dir := testutil.WriteHCL(t, map[string]string{
		"main.hcl": `
			block "STEP" "trip" {
				time = 0.05
			}

			block "STOP" "halt" {}

			wire {
				from = "trip"
				to   = "halt"
			}
		`,
	})

	cfg := &Config{
		Paths:  []string{dir},
		Source: rt.NewVirtual(10 * time.Millisecond),
	}
	a, buf := SetupAppTest(t, cfg)
	require.NoError(t, a.Run(context.Background()))
	assert.Contains(t, buf.String(), "Run finished.")
}
