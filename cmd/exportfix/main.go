// # cmd/exportfix/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"exportfix/internal/config"
	"exportfix/internal/shared/observability"
)

var (
	configPath     = flag.String("config", "./exportfix.toml", "Path to config file")
	dryRun         = flag.Bool("dry-run", false, "Plan and report fixes without writing any file")
	duplicatesOnly = flag.Bool("fix-duplicates-only", false, "Only fix duplicate exports and double semicolons")
	verbose        = flag.Bool("verbose", false, "Print per-file decisions and debug logs")
	watch          = flag.Bool("watch", false, "Stay resident and re-run on filesystem changes")
	preview        = flag.Bool("preview", false, "Browse planned changes interactively, apply on confirm")
	logLevel       = flag.String("log-level", "info", "Log level: debug, info, warn, error")
	metricsAddr    = flag.String("metrics-addr", "", "Serve /metrics and /health on this address")
	version        = flag.Bool("version", false, "Print version and exit")
)

const VERSION = "1.0.0"

func main() {
	flag.Parse()
	os.Exit(run())
}

func run() int {
	if *version {
		fmt.Printf("exportfix v%s\n", VERSION)
		return 0
	}

	// Setup logging
	level, err := parseLogLevel(*logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))

	cwd, err := os.Getwd()
	if err != nil {
		slog.Error("failed to detect working directory", "error", err)
		return 1
	}

	// Load config
	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	if *watch && *preview {
		fmt.Fprintln(os.Stderr, "--watch and --preview cannot be used together")
		return 1
	}

	if flag.NArg() > 0 {
		cfg.WatchPaths = []string{flag.Arg(0)}
		if cfg.ProjectRoot == "." {
			if root, rootErr := config.DetectProjectRoot([]string{flag.Arg(0)}); rootErr == nil {
				cfg.ProjectRoot = root
			}
		}
	}

	config.ApplyEnvOverrides(cfg)

	if *metricsAddr != "" {
		cfg.Observability.Enabled = true
		cfg.Observability.MetricsAddr = *metricsAddr
	}

	paths, err := config.ResolvePaths(cfg, cwd)
	if err != nil {
		slog.Error("failed to resolve runtime paths", "error", err)
		return 1
	}

	if *preview {
		// In preview mode, stderr logs would corrupt the TUI.
		closeLogs := redirectLogsToFile(paths.LogPath, level)
		defer closeLogs()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Observability.EnableTracing && strings.TrimSpace(cfg.Observability.OTLPEndpoint) != "" {
		shutdown, traceErr := observability.SetupTracing(ctx, cfg.Observability.OTLPEndpoint, cfg.Observability.OTLPInsecure)
		if traceErr != nil {
			slog.Warn("tracing setup failed", "error", traceErr)
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					slog.Warn("tracing shutdown failed", "error", err)
				}
			}()
		}
	}

	// Initialize app
	app, err := NewApp(cfg, paths, Modes{
		DryRun:         *dryRun,
		DuplicatesOnly: *duplicatesOnly,
		Verbose:        *verbose,
	})
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		return 1
	}
	defer app.Close()

	if cfg.Observability.Enabled {
		obs := observability.NewServer(cfg.Observability.MetricsAddr, app)
		if err := obs.Start(ctx); err != nil {
			slog.Error("failed to start observability server", "error", err)
			return 1
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = obs.Stop(stopCtx)
		}()
	}

	if *preview {
		if err := app.RunPreview(ctx); err != nil {
			slog.Error("failed to run preview", "error", err)
			return 1
		}
		return 0
	}

	if _, err := app.RunOnce(ctx, *dryRun); err != nil {
		slog.Error("run did not complete", "error", err)
		return 1
	}

	if !*watch {
		return 0
	}

	// Watch mode
	if err := app.StartWatcher(ctx); err != nil {
		slog.Error("failed to start watcher", "error", err)
		return 1
	}

	<-ctx.Done()
	return 0
}

// loadConfig tries the configured path, then the example config, then pure
// defaults. A missing file only falls through when the path was not given
// explicitly; a broken file is always fatal.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil
	}
	if path != "./exportfix.toml" || !os.IsNotExist(err) {
		return nil, err
	}

	cfg, err = config.Load("./exportfix.example.toml")
	if err == nil {
		return cfg, nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}

	return config.Default(), nil
}

func parseLogLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q (expected debug, info, warn, or error)", raw)
}

// redirectLogsToFile moves the default logger onto the state-dir log file.
// Failures fall back to stderr with a warning so the process keeps going.
func redirectLogsToFile(logPath string, level slog.Level) func() {
	if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to create log dir for %s: %v\n", logPath, err)
		return func() {}
	}
	if fi, err := os.Lstat(logPath); err == nil && (fi.Mode()&os.ModeSymlink) != 0 {
		fmt.Fprintf(os.Stderr, "warning: refusing to write logs to symlink path %s\n", logPath)
		return func() {}
	}
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to open log file %s: %v\n", logPath, err)
		return func() {}
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{
		Level: level,
	})))
	return func() { _ = f.Close() }
}
