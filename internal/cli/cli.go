package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
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

// Config holds every setting kconfgo's CLI front-end needs to run.
type Config struct {
	KconfigPath  string
	InputConfig  string
	OutputConfig string
	Title        string
	Sets         []KeyValue
	Filter       string
	FilterRegex  bool
	LogFormat    string
	LogLevel     string
}

// KeyValue is one "-set NAME=VALUE" assignment.
type KeyValue struct {
	Name, Value string
}

// assignments is a flag.Value collecting repeated "-set NAME=VALUE" flags.
type assignments struct {
	values *[]KeyValue
}

func (a assignments) String() string { return "" }

func (a assignments) Set(s string) error {
	idx := strings.IndexByte(s, '=')
	if idx < 0 {
		return fmt.Errorf("expected NAME=VALUE, got %q", s)
	}
	*a.values = append(*a.values, KeyValue{Name: s[:idx], Value: s[idx+1:]})
	return nil
}

// Parse processes command-line arguments. It returns a populated Config, a
// boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("kconfgo", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
kconfgo - a Kconfig parser, dependency evaluator, and .config tool.

Usage:
  kconfgo [options] KCONFIG_PATH

Arguments:
  KCONFIG_PATH
    Path to the root Kconfig file.

Options:
`)
		flagSet.PrintDefaults()
	}

	inputFlag := flagSet.String("config", "", "Path to an existing .config file to load as an overlay before writing output.")
	outputFlag := flagSet.String("output", ".config", "Path to write the resulting .config file.")
	titleFlag := flagSet.String("title", "", "Title line to emit in the .config banner.")
	filterFlag := flagSet.String("filter", "", "Search pattern; the names of matching symbols are printed.")
	filterRegexFlag := flagSet.Bool("filter-regex", false, "Treat -filter as a regular expression instead of a substring match.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	var sets []KeyValue
	flagSet.Var(assignments{&sets}, "set", "Assign NAME=VALUE before writing output; may be repeated.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	if flagSet.NArg() == 0 {
		slog.Debug("No Kconfig path provided, printing usage and exiting.")
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
	slog.Debug("CLI parameter validation complete.")

	cfg := &Config{
		KconfigPath:  flagSet.Arg(0),
		InputConfig:  *inputFlag,
		OutputConfig: *outputFlag,
		Title:        *titleFlag,
		Sets:         sets,
		Filter:       *filterFlag,
		FilterRegex:  *filterRegexFlag,
		LogFormat:    logFormat,
		LogLevel:     logLevel,
	}
	slog.Debug("CLI parser finished successfully.", "config", cfg)
	return cfg, false, nil
}
