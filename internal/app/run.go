package app

import (
	"context"
	"fmt"

	"github.com/gridloop/gridloop/internal/ctxlog"
	"github.com/gridloop/gridloop/internal/hcl"
	"github.com/gridloop/gridloop/internal/rt"
)

// Run executes the main application logic: load the diagram, compile it,
// and either print the requested inspection output or hand the diagram to
// the real-time runtime.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.cfg.ListTypes {
		for _, name := range a.reg.Types() {
			fmt.Fprintln(a.outW, name)
		}
		return nil
	}

	loader := hcl.NewLoader()
	d, err := loader.Load(ctx, a.reg, a.cfg.Paths...)
	if err != nil {
		return fmt.Errorf("loading diagram: %w", err)
	}
	a.logger.Debug("Diagram loaded.",
		"blocks", len(d.Blocks()), "wires", len(d.Wires()), "clocks", len(d.Clocks()))

	if err := d.Compile(ctx); err != nil {
		return fmt.Errorf("compiling diagram: %w", err)
	}

	if a.cfg.Report {
		fmt.Fprint(a.outW, d.Report())
	}
	if a.cfg.Plan {
		plan, err := d.Plan()
		if err != nil {
			return err
		}
		fmt.Fprint(a.outW, plan.String())
	}
	if a.cfg.Check || a.cfg.Report || a.cfg.Plan {
		a.logger.Info("Diagram compiles cleanly.", "blocks", len(d.Blocks()))
		return nil
	}

	runtime, err := rt.New(d, rt.Options{
		MaxTime:   a.cfg.MaxTime,
		Interval:  a.cfg.Interval,
		CatchUp:   a.cfg.CatchUp,
		Smoothing: a.cfg.Smoothing,
		Source:    a.cfg.Source,
	})
	if err != nil {
		return err
	}

	a.logger.Info("🚀 Starting real-time execution...")
	if err := runtime.Run(ctx); err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}
	a.logger.Info("🏁 Execution finished.")

	a.logger.Debug("App.Run method finished.")
	return nil
}
