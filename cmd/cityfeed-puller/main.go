// Command cityfeed-puller converges a publish root onto the latest remote
// manifest: content-addressed object downloads, an atomically promoted
// snapshot, and an atomically switched "current" symlink.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	flag "github.com/spf13/pflag"

	"github.com/cityfeed/puller"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flags := flag.NewFlagSet("cityfeed-puller", flag.ContinueOnError)
	origins := flags.StringArray("origin", nil, "origin base URL (repeatable, tried in order)")
	root := flags.String("root", "/var/www/cityfeed", "publish root directory")
	configPath := flags.String("config", "", "optional YAML config file")
	timeout := flags.Duration("timeout", puller.DefaultTimeout, "per-request network timeout")
	jobs := flags.Int("jobs", 1, "concurrent object downloads (1 = sequential)")
	logLevel := flags.String("log-level", "info", "log level: debug, info, warn, error")
	logFormat := flags.String("log-format", "text", "log format: text or json")
	showVersion := flags.BoolP("version", "V", false, "print version and exit")

	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if *showVersion {
		fmt.Println("cityfeed-puller " + puller.Version)
		return nil
	}

	cfg := defaultConfig()
	if *configPath != "" {
		loaded, err := loadConfig(*configPath)
		if err != nil {
			return err
		}
		cfg = cfg.merged(loaded)
	}
	cfg.applyFlags(flags, *origins, *root, *timeout, *jobs, *logLevel, *logFormat)

	logger := newLogger(cfg.LogLevel, cfg.LogFormat)

	p, err := puller.New(cfg.Origins, cfg.Root,
		puller.WithLogger(logger),
		puller.WithTimeout(cfg.Timeout.value),
		puller.WithJobs(cfg.Jobs),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return p.Run(ctx)
}

func newLogger(level, format string) *slog.Logger {
	logLevel := parseLevel(level)
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	default:
		handler = tint.NewHandler(os.Stderr, &tint.Options{
			Level:      logLevel,
			TimeFormat: time.TimeOnly,
		})
	}
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
