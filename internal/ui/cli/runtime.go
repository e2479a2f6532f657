package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	coreapp "javakg/internal/core/app"
	"javakg/internal/core/config"
	coreerrors "javakg/internal/core/errors"
	"javakg/internal/data/query"
	"javakg/internal/shared/observability"
	"javakg/internal/shared/version"
)

// Run is the javakg entry point. It returns the process exit code: 0 on
// success, 1 on a fatal run error and 2 on bad usage.
func Run(args []string) int {
	opts, err := parseOptions(args, os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(os.Stderr, err.Error())
		return 2
	}

	if opts.version {
		fmt.Printf("javakg v%s\n", version.Version)
		return 0
	}
	if opts.ui && opts.watch {
		fmt.Fprintln(os.Stderr, "--ui and --watch cannot be used together")
		return 2
	}

	cleanupLogs := configureLogging(opts.ui, opts.verbose)
	defer cleanupLogs()

	if err := config.LoadDotEnv(".env"); err != nil {
		slog.Warn("ignoring .env", "error", err)
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}
	if err := applyOptions(opts, cfg); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown := startObservability(ctx, cfg)
	defer shutdown()

	a, err := coreapp.New(cfg, slog.Default())
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		return 1
	}

	switch {
	case opts.watch:
		return runWatch(ctx, a, os.Stdout)
	case opts.ui:
		res, err := runUI(ctx, a)
		if err != nil {
			slog.Error("extraction failed", "error", err)
			fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
			return 1
		}
		fmt.Print(renderSummary(res))
		return printQuery(os.Stdout, res, opts)
	default:
		res, err := a.Run(ctx)
		if err != nil {
			slog.Error("extraction failed", "error", err, "code", coreerrors.CodeOf(err))
			return 1
		}
		fmt.Print(renderSummary(res))
		return printQuery(os.Stdout, res, opts)
	}
}

// loadConfig reads path, or ./javakg.toml when path is empty and the file
// exists, or falls back to defaults plus environment overrides.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	if _, err := os.Stat(config.DefaultFile); err == nil {
		return config.Load(config.DefaultFile)
	}
	return config.Finish(&config.Config{})
}

// applyOptions lets explicit flags and the positional root win over the
// config file, then re-validates.
func applyOptions(opts cliOptions, cfg *config.Config) error {
	if len(opts.args) == 1 {
		cfg.Source.Root = opts.args[0]
	}
	if opts.set["out"] {
		cfg.Output.JSON = opts.out
	}
	if opts.set["workers"] {
		cfg.Extract.Workers = opts.workers
	}
	if opts.set["dot"] {
		cfg.Output.DOT = opts.dot
	}
	if opts.set["mermaid"] {
		cfg.Output.Mermaid = opts.mermaid
	}
	if opts.set["sqlite"] {
		cfg.Output.SQLite = opts.sqlite
	}
	if opts.set["id-style"] {
		cfg.Graph.IDStyle = opts.idStyle
	}
	if opts.noCompact {
		compact := false
		cfg.Output.Compact = &compact
	}
	if opts.indent {
		cfg.Output.Indent = true
	}
	if opts.members {
		cfg.Output.Members = true
	}
	if opts.verify {
		cfg.Extract.VerifySyntax = true
	}

	if errs := config.Validate(cfg); len(errs) > 0 {
		return fmt.Errorf("invalid options: %w", errors.Join(errs...))
	}
	return nil
}

// printQuery runs --query against the finished graph, one tab separated row
// per line.
func printQuery(w io.Writer, res *coreapp.Result, opts cliOptions) int {
	if opts.query == "" {
		return 0
	}
	rows, err := query.Execute(res.Graph, opts.query, opts.queryLimit)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 2
	}
	for _, n := range rows.Nodes {
		fmt.Fprintf(w, "%s\t%s\t%s\n", n.Kind, n.ID, n.Name)
	}
	for _, e := range rows.Edges {
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.Kind, e.SourceID, e.TargetID)
	}
	return 0
}

func runWatch(ctx context.Context, a *coreapp.App, stdout io.Writer) int {
	slog.Info("watching for changes", "root", a.Config.Source.Root)
	err := a.Watch(ctx, func(res *coreapp.Result, err error) {
		if err != nil {
			slog.Error("extraction failed", "error", err)
			return
		}
		fmt.Fprint(stdout, renderSummary(res))
	})
	if err != nil {
		slog.Error("watch stopped", "error", err)
		return 1
	}
	return 0
}

// startObservability starts the metrics endpoint and OTLP tracing when they
// are enabled. The returned func stops both.
func startObservability(ctx context.Context, cfg *config.Config) func() {
	obs := cfg.Observability
	if !obs.Enabled {
		return func() {}
	}

	var stops []func(context.Context) error
	if obs.EnableMetrics {
		srv := observability.NewMetricsServer(fmt.Sprintf(":%d", obs.Port))
		srv.Start()
		stops = append(stops, srv.Stop)
	}
	if obs.EnableTracing {
		shutdown, err := observability.SetupTracing(ctx, obs.OTLPEndpoint, obs.OTLPInsecure)
		if err != nil {
			slog.Warn("tracing disabled", "error", err)
		} else {
			stops = append(stops, shutdown)
		}
	}

	return func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, stop := range stops {
			if err := stop(stopCtx); err != nil {
				slog.Warn("observability shutdown failed", "error", err)
			}
		}
	}
}

func configureLogging(uiMode, verbose bool) func() {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	output := os.Stderr
	var closeFn func() = func() {}
	if uiMode {
		// Keep log lines out of the terminal view.
		logPath := resolveLogPath()
		if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to create log dir for %s: %v\n", logPath, err)
		} else {
			if fi, err := os.Lstat(logPath); err == nil && (fi.Mode()&os.ModeSymlink) != 0 {
				fmt.Fprintf(os.Stderr, "warning: refusing to write logs to symlink path %s\n", logPath)
			} else {
				f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
				if err == nil {
					output = f
					closeFn = func() { _ = f.Close() }
				} else {
					fmt.Fprintf(os.Stderr, "warning: failed to open log file %s: %v\n", logPath, err)
				}
			}
		}
	}

	logger := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
	return closeFn
}

func resolveLogPath() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "javakg", "javakg.log")
	}

	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".local", "state", "javakg", "javakg.log")
	}

	return "javakg.log"
}
