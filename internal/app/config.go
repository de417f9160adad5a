package app

import (
	"errors"
	"time"

	"github.com/gridloop/gridloop/internal/rt"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	Paths []string // .hcl files or directories containing them

	LogFormat string
	LogLevel  string

	MaxTime   time.Duration // stop after this much diagram time, 0 runs until stopped
	Interval  time.Duration // pace cycles to this period, 0 free-runs
	CatchUp   rt.CatchUpPolicy
	Smoothing float64

	Check     bool // compile the diagram and exit
	Plan      bool // print the execution plan and exit
	Report    bool // print the diagram tables and exit
	ListTypes bool // print the registered block types and exit

	// Source overrides the runtime's time source. Tests use this to
	// drive the loop with a deterministic clock.
	Source rt.TimeSource
}

func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.Paths) == 0 && !cfg.ListTypes {
		return nil, errors.New("at least one diagram path is required")
	}
	if cfg.MaxTime < 0 {
		return nil, errors.New("max-time cannot be negative")
	}
	if cfg.Interval < 0 {
		return nil, errors.New("interval cannot be negative")
	}
	if cfg.Smoothing == 0 {
		cfg.Smoothing = rt.DefaultSmoothing
	}
	return &cfg, nil
}
