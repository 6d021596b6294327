package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"calibrate/internal/config"
	"calibrate/internal/metrics"
	"calibrate/internal/metrics/datadog"
	"calibrate/internal/metrics/prompush"
	"calibrate/internal/storage"
	"calibrate/internal/watch"

	// register all backends with the storage factory.
	// config specifies which to use but we need to build in support for all of them.
	_ "calibrate/internal/storage/all"
)

// cliOptions holds the flags that are not part of config.Run.
type cliOptions struct {
	configPath string
	validate   bool
	verbose    bool
}

// main is the entry point for the calibrate binary. It resolves the run
// config, optionally initializes a metrics backend and history storage,
// then prints both calibration sums for the input document.
func main() {
	cfg, opts, err := parseArgs(os.Args[1:])
	if err != nil {
		fatalf("%v", err)
	}

	issues := config.Validate(cfg, storage.ListKinds())
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		log.Printf("configuration is invalid")
		os.Exit(1)
	}
	if opts.validate {
		log.Printf("configuration is valid")
		os.Exit(0)
	}

	closeMetrics := setupMetrics(cfg, opts.verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = execute(ctx, cfg, opts.verbose, os.Stdout)
	stop()
	closeMetrics()
	if err != nil {
		fatalf("%v", err)
	}
}

// execute performs one run, or keeps re-running on input changes in watch
// mode until ctx is canceled.
func execute(ctx context.Context, cfg config.Run, verbose bool, out io.Writer) error {
	r, err := newRunner(ctx, cfg, out, verbose)
	if err != nil {
		return err
	}
	defer r.Close()

	infof(verbose, "run: job=%s input=%s workers=%d storage=%q table=%s",
		cfg.Job, cfg.Input.Path, cfg.Runtime.Workers, cfg.Storage.Kind, cfg.Storage.DB.Table)

	if !cfg.Watch.Enabled {
		start := time.Now()
		err := r.once(ctx)
		flushMetrics()
		if err == nil {
			infof(verbose, "completed in %s", time.Since(start).Truncate(time.Millisecond))
		}
		return err
	}

	// In watch mode a failing run is logged and the watcher keeps going.
	rerun := func() {
		if err := r.once(ctx); err != nil {
			log.Printf("%v", err)
		}
		flushMetrics()
	}
	rerun()

	debounce := time.Duration(cfg.Watch.DebounceMS) * time.Millisecond
	infof(verbose, "watching %s for changes", cfg.Input.Path)
	if err := watch.Watch(ctx, cfg.Input.Path, debounce, rerun); err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	return nil
}

// parseArgs builds the effective config. Precedence per field is
// flag → env → config file → default.
func parseArgs(args []string) (config.Run, cliOptions, error) {
	var (
		opts cliOptions

		inputPath      string
		workers        int
		metricsBackend string
		pushgatewayURL string
		datadogAddr    string
		storageKind    string
		dsn            string
		table          string
		watchMode      bool
	)

	fs := flag.NewFlagSet("calibrate", flag.ExitOnError)
	fs.StringVar(&opts.configPath, "config", "", "optional run config JSON path")
	fs.StringVar(&inputPath, "input", config.DefaultInputPath, "calibration document path")
	fs.IntVar(&workers, "workers", 0, "goroutines per part (0 or 1 runs sequentially)")
	fs.StringVar(&metricsBackend, "metrics-backend", "", "metrics backend: none, pushgateway, datadog (overrides env METRICS_BACKEND)")
	fs.StringVar(&pushgatewayURL, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	fs.StringVar(&datadogAddr, "datadog-addr", "", "DogStatsD address (overrides env DATADOG_ADDR)")
	fs.StringVar(&storageKind, "storage", "", "history storage kind (e.g. sqlite, postgres, mssql, mysql); empty disables history")
	fs.StringVar(&dsn, "dsn", "", "history storage DSN (overrides env CALIBRATE_DSN)")
	fs.StringVar(&table, "table", "", "history table name")
	fs.BoolVar(&watchMode, "watch", false, "re-run whenever the input file changes")
	fs.BoolVar(&opts.validate, "validate", false, "validate the configuration and exit")
	fs.BoolVar(&opts.verbose, "v", false, "enable verbose logs")

	if err := fs.Parse(args); err != nil {
		return config.Run{}, opts, err
	}

	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return cfg, opts, err
		}
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if set["input"] || opts.configPath == "" {
		cfg.Input.Path = inputPath
	}
	if set["workers"] {
		cfg.Runtime.Workers = workers
	}
	if set["storage"] {
		cfg.Storage.Kind = storageKind
	}
	if set["table"] {
		cfg.Storage.DB.Table = table
	}
	if set["watch"] {
		cfg.Watch.Enabled = watchMode
	}

	cfg.Metrics.Backend = pick(metricsBackend, cfg.Metrics.Backend, "METRICS_BACKEND")
	cfg.Metrics.PushgatewayURL = pick(pushgatewayURL, cfg.Metrics.PushgatewayURL, "PUSHGATEWAY_URL")
	cfg.Metrics.DatadogAddr = pick(datadogAddr, cfg.Metrics.DatadogAddr, "DATADOG_ADDR")
	cfg.Storage.DB.DSN = pick(dsn, cfg.Storage.DB.DSN, "CALIBRATE_DSN")

	if cfg.Metrics.PushgatewayURL == "" {
		cfg.Metrics.PushgatewayURL = config.DefaultPushgatewayURL
	}
	if cfg.Metrics.DatadogAddr == "" {
		cfg.Metrics.DatadogAddr = config.DefaultDatadogAddr
	}
	return cfg, opts, nil
}

// pick returns the flag value when set, then the env value, then current.
func pick(flagVal, current, envKey string) string {
	if flagVal != "" {
		return flagVal
	}
	return config.Getenv(current, envKey)
}

// setupMetrics installs the configured backend and returns its shutdown
// func. A backend that fails to initialize leaves the nop backend in place.
func setupMetrics(cfg config.Run, verbose bool) func() {
	noop := func() {}
	switch backendName := cfg.Metrics.Backend; backendName {
	case "pushgateway":
		b, err := prompush.NewBackend(cfg.Job, cfg.Metrics.PushgatewayURL)
		if err != nil {
			log.Printf("metrics: failed to init prom push backend: %v; using nop", err)
			return noop
		}
		infof(verbose, "metrics: url=%v, backend=%v, job_name=%v", cfg.Metrics.PushgatewayURL, backendName, cfg.Job)
		metrics.SetBackend(b)
		return noop

	case "datadog":
		b, err := datadog.NewBackend(datadog.Config{
			Addr:       cfg.Metrics.DatadogAddr,
			Namespace:  "calibrate.",
			GlobalTags: cfg.Metrics.Tags,
		})
		if err != nil {
			log.Printf("metrics: failed to init datadog backend: %v; using nop", err)
			return noop
		}
		infof(verbose, "metrics: addr=%v, backend=%v", cfg.Metrics.DatadogAddr, backendName)
		metrics.SetBackend(b)
		return func() {
			if err := b.Close(); err != nil {
				log.Printf("metrics: datadog close error: %v", err)
			}
		}

	case "", "none":
		// metrics disabled; nop backend remains
		infof(verbose, "metrics: disabled (backend=%q)", backendName)

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", backendName)
	}
	return noop
}

// infof logs progress only when -v is set. Failures and warnings always go
// through log.Printf.
func infof(verbose bool, format string, a ...any) {
	if verbose {
		log.Printf(format, a...)
	}
}

func flushMetrics() {
	if err := metrics.Flush(); err != nil {
		log.Printf("metrics: flush error: %v", err)
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
