// Command kconfgo parses a Kconfig tree, optionally loads a .config
// overlay and applies -set assignments, optionally runs a -filter search,
// and writes the resulting .config.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/kconfgo/kconfgo"
	"github.com/kconfgo/kconfgo/internal/cli"
	"github.com/kconfgo/kconfgo/internal/ctxlog"
	"github.com/kconfgo/kconfgo/internal/source"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := run(os.Stdout, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(outW io.Writer, args []string) error {
	cfg, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	logger := newLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	ctx := ctxlog.WithLogger(context.Background(), logger)

	tree, diags := kconfgo.Parse(ctx, cfg.KconfigPath, source.OSEnv{})
	for _, d := range diags {
		logger.Warn(d.Summary, "detail", d.Detail)
	}
	if diags.HasErrors() {
		return &cli.ExitError{Code: 1, Message: fmt.Sprintf("failed to parse %s: %s", cfg.KconfigPath, diags.Error())}
	}

	if cfg.InputConfig != "" {
		f, err := os.Open(cfg.InputConfig)
		if err != nil {
			return &cli.ExitError{Code: 1, Message: err.Error()}
		}
		unknown, diags, err := tree.LoadDotConfig(ctx, f)
		f.Close()
		if err != nil {
			return &cli.ExitError{Code: 1, Message: err.Error()}
		}
		for _, d := range diags {
			logger.Warn(d.Summary, "detail", d.Detail)
		}
		for _, name := range unknown {
			logger.Warn("overlay references unknown symbol", "name", name)
		}
	}

	for _, kv := range cfg.Sets {
		diags, err := tree.SetValue(ctx, kv.Name, kv.Value)
		if err != nil {
			return &cli.ExitError{Code: 1, Message: err.Error()}
		}
		for _, d := range diags {
			logger.Warn(d.Summary, "detail", d.Detail)
		}
	}

	if cfg.Filter != "" {
		matched, err := tree.FilterSelect(cfg.Filter, cfg.FilterRegex)
		if err != nil {
			return &cli.ExitError{Code: 2, Message: err.Error()}
		}
		for _, m := range matched {
			fmt.Fprintln(outW, m.Name())
		}
	}

	out, err := os.Create(cfg.OutputConfig)
	if err != nil {
		return &cli.ExitError{Code: 1, Message: err.Error()}
	}
	defer out.Close()
	if err := tree.WriteDotConfig(out, cfg.Title); err != nil {
		return &cli.ExitError{Code: 1, Message: err.Error()}
	}

	return nil
}

func newLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if formatStr == "json" {
		handler = slog.NewJSONHandler(outW, handlerOpts)
	} else {
		handler = slog.NewTextHandler(outW, handlerOpts)
	}
	return slog.New(handler)
}
