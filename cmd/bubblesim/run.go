package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/bubble-simulator/core"
	"github.com/signalsfoundry/bubble-simulator/internal/config"
	"github.com/signalsfoundry/bubble-simulator/internal/logging"
	"github.com/signalsfoundry/bubble-simulator/internal/observability"
	"github.com/signalsfoundry/bubble-simulator/internal/storage"
)

type runOptions struct {
	scenarioPath string
	steps        int
	seed         uint64
	seedSet      bool
	csvPrefix    string
	sqlitePath   string
	metricsAddr  string
}

func newRunCommand() *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a simulation scenario",
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.seedSet = cmd.Flags().Changed("seed")
			return runScenario(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVarP(&opts.scenarioPath, "scenario", "f", "", "path to a YAML scenario file (required)")
	cmd.Flags().IntVar(&opts.steps, "steps", 0, "override the scenario's step count")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "override the scenario's random seed")
	cmd.Flags().StringVar(&opts.csvPrefix, "csv", "", "write <prefix>_series.csv, <prefix>_counts.csv and <prefix>_params.csv")
	cmd.Flags().StringVar(&opts.sqlitePath, "sqlite", "", "persist the run into the given SQLite database")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus /metrics on this address during the run")
	_ = cmd.MarkFlagRequired("scenario")
	return cmd
}

func runScenario(parent context.Context, opts *runOptions) error {
	log := logging.NewFromEnv()
	runLog, runID := logging.WithRunLogger(log, logging.NewRunID())

	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	collector, err := observability.NewSimCollector(nil)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	metricsSrv := serveMetrics(opts.metricsAddr, collector, log)
	defer func() {
		if metricsSrv != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsSrv.Shutdown(shutdownCtx)
		}
	}()

	scenario, err := config.Load(opts.scenarioPath)
	if err != nil {
		return err
	}
	if opts.steps > 0 {
		scenario.Steps = opts.steps
	}
	if opts.seedSet {
		scenario.Seed = opts.seed
	}

	engine, params, err := scenario.Build(runLog, collector)
	if err != nil {
		return err
	}
	steps, err := scenario.RunSteps(params)
	if err != nil {
		return err
	}

	runLog.Info(ctx, "scenario loaded",
		logging.String("scenario", opts.scenarioPath),
		logging.String("variant", scenario.Variant),
		logging.Int("steps", steps),
		logging.Any("seed", scenario.Seed))

	start := time.Now()
	runErr := engine.Run(ctx, steps)
	if runErr != nil {
		// Committed steps stay inspectable; persist what completed before
		// reporting the failure.
		runLog.Error(ctx, "run aborted",
			logging.Int("committed_steps", engine.Step()),
			logging.String("error", runErr.Error()))
	} else {
		runLog.Info(ctx, "run complete",
			logging.Int("steps", engine.Step()),
			logging.Int("population", engine.Population().Len()),
			logging.String("elapsed", time.Since(start).String()))
	}

	if err := writeOutputs(ctx, opts, runID, engine, runLog); err != nil {
		if runErr != nil {
			return fmt.Errorf("%w (also failed writing outputs: %v)", runErr, err)
		}
		return err
	}
	return runErr
}

func writeOutputs(ctx context.Context, opts *runOptions, runID string, engine *core.Engine, log logging.Logger) error {
	if opts.csvPrefix != "" {
		files := []struct {
			suffix string
			write  func(f *os.File) error
		}{
			{"_series.csv", func(f *os.File) error { return storage.WriteSeriesCSV(f, engine.Series()) }},
			{"_counts.csv", func(f *os.File) error { return storage.WriteCountsCSV(f, engine.Series()) }},
			{"_params.csv", func(f *os.File) error { return storage.WriteParamsCSV(f, engine.Params()) }},
		}
		for _, out := range files {
			path := opts.csvPrefix + out.suffix
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("create %s: %w", path, err)
			}
			err = out.write(f)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			log.Info(ctx, "wrote CSV", logging.String("path", path))
		}
	}

	if opts.sqlitePath != "" {
		store := storage.NewSQLiteStore(opts.sqlitePath)
		if err := store.Open(ctx); err != nil {
			return fmt.Errorf("open sqlite store: %w", err)
		}
		defer store.Close()
		if err := store.WriteRun(ctx, runID, engine.Params(), engine.Series()); err != nil {
			return fmt.Errorf("persist run: %w", err)
		}
		log.Info(ctx, "persisted run",
			logging.String("path", opts.sqlitePath),
			logging.String("run_id", runID))
	}
	return nil
}

func serveMetrics(addr string, collector *observability.SimCollector, log logging.Logger) *http.Server {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.String("error", err.Error()))
		}
	}()
	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}

func newVariantsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "variants",
		Short: "List the built-in simulation variants",
		Run: func(cmd *cobra.Command, _ []string) {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, v := range core.BuiltinVariants() {
				name := v.Name
				if v.Deprecated {
					name += " (deprecated)"
				}
				fmt.Fprintf(tw, "%s\t%s\n", name, v.Description)
			}
			_ = tw.Flush()
		},
	}
}
