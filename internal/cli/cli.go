package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/gridloop/gridloop/internal/app"
	"github.com/gridloop/gridloop/internal/rt"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("gridloop", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
Gridloop - a real-time block diagram runner.

Usage:
  gridloop [options] PATH...

Arguments:
  PATH
    One or more .hcl diagram files, or directories containing them.

Options:
`)
		flagSet.PrintDefaults()
	}

	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	maxTimeFlag := flagSet.Duration("max-time", 0, "Stop after this much diagram time has elapsed. 0 runs until stopped.")
	intervalFlag := flagSet.Duration("interval", 0, "Pace the loop to one cycle per interval. 0 runs as fast as possible.")
	catchUpFlag := flagSet.String("catchup", "skip", "Clock catch-up policy after an overrun. Options: 'skip' or 'replay'.")
	smoothingFlag := flagSet.Float64("smoothing", 0, "Weight of the newest cycle in the frequency estimate, in (0,1]. 0 uses the default.")
	checkFlag := flagSet.Bool("check", false, "Compile the diagram, then exit without running it.")
	planFlag := flagSet.Bool("plan", false, "Print the execution plan, then exit.")
	reportFlag := flagSet.Bool("report", false, "Print the diagram's block, wire and clock tables, then exit.")
	listTypesFlag := flagSet.Bool("list-types", false, "Print the registered block types, then exit.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	paths := flagSet.Args()
	if len(paths) == 0 && !*listTypesFlag {
		slog.Debug("No diagram path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	catchUp, err := rt.ParseCatchUp(*catchUpFlag)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	if s := *smoothingFlag; s < 0 || s > 1 {
		return nil, false, &ExitError{Code: 2, Message: "invalid smoothing: must be in (0,1]"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		Paths:     paths,
		LogFormat: logFormat,
		LogLevel:  logLevel,
		MaxTime:   *maxTimeFlag,
		Interval:  *intervalFlag,
		CatchUp:   catchUp,
		Smoothing: *smoothingFlag,
		Check:     *checkFlag,
		Plan:      *planFlag,
		Report:    *reportFlag,
		ListTypes: *listTypesFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.")
	return config, false, nil
}
