// Package sink provides terminal blocks that consume signals: console
// and file logging, and run termination.
package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/gridloop/gridloop/internal/diagram"
	"github.com/gridloop/gridloop/internal/registry"
	"github.com/gridloop/gridloop/internal/rt"
)

// Module registers the sink block types.
type Module struct{}

func (Module) Register(r *registry.Registry) {
	r.Register(&registry.Def{
		Type:      "PRINT",
		Kind:      diagram.KindSink,
		NewParams: func() any { p := DefaultPrintParams(); return &p },
		Build: func(a registry.Args) (diagram.Block, error) {
			b, err := NewPrint(*a.Params.(*PrintParams))
			if err != nil {
				return nil, err
			}
			b.SetName(a.Name)
			return b, nil
		},
	})
	r.Register(&registry.Def{
		Type:      "CSV",
		Kind:      diagram.KindSink,
		NewParams: func() any { p := DefaultCSVParams(); return &p },
		Build: func(a registry.Args) (diagram.Block, error) {
			b, err := NewCSV(*a.Params.(*CSVParams))
			if err != nil {
				return nil, err
			}
			b.SetName(a.Name)
			return b, nil
		},
	})
	r.Register(&registry.Def{
		Type:      "STOP",
		Kind:      diagram.KindSink,
		NewParams: func() any { return &StopParams{} },
		Build: func(a registry.Args) (diagram.Block, error) {
			b := NewStop(*a.Params.(*StopParams))
			b.SetName(a.Name)
			return b, nil
		},
	})
}

// PrintParams configures a PRINT block. Format is the fmt verb used
// for each value.
type PrintParams struct {
	Nin    int    `hcl:"nin,optional"`
	Format string `hcl:"format,optional"`
}

func DefaultPrintParams() PrintParams {
	return PrintParams{Nin: 1, Format: "%.6g"}
}

// Print writes its input values to a writer once per cycle.
type Print struct {
	diagram.BlockCore
	format string
	w      io.Writer
}

func NewPrint(p PrintParams) (*Print, error) {
	if p.Nin < 1 {
		return nil, fmt.Errorf("print needs at least one input, got %d", p.Nin)
	}
	return &Print{
		BlockCore: diagram.NewCore(diagram.KindSink, "PRINT", p.Nin, 0),
		format:    p.Format,
		w:         os.Stdout,
	}, nil
}

// SetWriter redirects output away from stdout.
func (b *Print) SetWriter(w io.Writer) { b.w = w }

func (b *Print) Output(t float64) ([]float64, error) {
	return b.Out(), nil
}

func (b *Print) Step() error {
	if _, err := fmt.Fprintf(b.w, "%s:", b.Name()); err != nil {
		return err
	}
	for _, v := range b.Inputs() {
		if _, err := fmt.Fprintf(b.w, " "+b.format, v); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(b.w)
	return err
}

// CSVParams configures a CSV block. Labels name the value columns;
// when empty, Nin columns named in0..inN-1 are written. The first
// column is always the simulated time t.
type CSVParams struct {
	Path   string   `hcl:"path"`
	Nin    int      `hcl:"nin,optional"`
	Labels []string `hcl:"labels,optional"`
}

func DefaultCSVParams() CSVParams {
	return CSVParams{Nin: 1}
}

// CSV appends one row of simulated time and input values per cycle to
// a file, with a header row of column labels.
type CSV struct {
	diagram.BlockCore
	path   string
	labels []string
	t      float64
	f      *os.File
	w      *csv.Writer
	record []string
}

func NewCSV(p CSVParams) (*CSV, error) {
	if p.Path == "" {
		return nil, fmt.Errorf("csv needs a path")
	}
	labels := p.Labels
	if len(labels) == 0 {
		if p.Nin < 1 {
			return nil, fmt.Errorf("csv needs at least one input, got %d", p.Nin)
		}
		labels = make([]string, p.Nin)
		for i := range labels {
			labels[i] = fmt.Sprintf("in%d", i)
		}
	}
	return &CSV{
		BlockCore: diagram.NewCore(diagram.KindSink, "CSV", len(labels), 0),
		path:      p.Path,
		labels:    labels,
		record:    make([]string, len(labels)+1),
	}, nil
}

func (b *CSV) Start(ctx context.Context) error {
	f, err := os.Create(b.path)
	if err != nil {
		return fmt.Errorf("opening csv output: %w", err)
	}
	b.f = f
	b.w = csv.NewWriter(f)
	header := append([]string{"t"}, b.labels...)
	if err := b.w.Write(header); err != nil {
		f.Close()
		return fmt.Errorf("writing csv header: %w", err)
	}
	return nil
}

func (b *CSV) Output(t float64) ([]float64, error) {
	b.t = t
	return b.Out(), nil
}

func (b *CSV) Step() error {
	b.record[0] = strconv.FormatFloat(b.t, 'g', -1, 64)
	for i, v := range b.Inputs() {
		b.record[i+1] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return b.w.Write(b.record)
}

func (b *CSV) Done() error {
	if b.f == nil {
		return nil
	}
	b.w.Flush()
	err := b.w.Error()
	if cerr := b.f.Close(); err == nil {
		err = cerr
	}
	b.f = nil
	return err
}

// StopParams configures a STOP block.
type StopParams struct{}

// Stop requests a graceful shutdown whenever its input is nonzero.
type Stop struct {
	diagram.BlockCore
}

func NewStop(StopParams) *Stop {
	return &Stop{BlockCore: diagram.NewCore(diagram.KindSink, "STOP", 1, 0)}
}

func (b *Stop) Output(t float64) ([]float64, error) {
	return b.Out(), nil
}

func (b *Stop) Step() error {
	if b.Input(0) != 0 {
		return rt.ErrStopRequested
	}
	return nil
}
