// Package cmd provides the command-line interface of dmsched.
package cmd

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/dmsched/config"
	"github.com/sarchlab/dmsched/datarecording"
	"github.com/sarchlab/dmsched/sched"
	"github.com/sarchlab/dmsched/taskio"
	"github.com/sarchlab/dmsched/telemetry"
	"github.com/sarchlab/dmsched/timing"
	"github.com/sarchlab/dmsched/tracing"
)

// Execute runs the command line and exits with status 1 on error.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		atexit.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dmsched <input_file>",
		Short: "Simulate deadline-monotonic scheduling of periodic tasks.",
		Long: `dmsched reads one task per line as "execution_time,period,deadline" ` +
			`(or a YAML/JSON task file), simulates preemptive deadline-monotonic ` +
			`scheduling over one hyperperiod, and prints 1 and the preemption ` +
			`count of every task if all deadlines are met, or 0 otherwise.`,
		Args: cobra.ExactArgs(1),
		RunE: runSimulate,
	}

	flags := rootCmd.PersistentFlags()
	flags.String("env-file", "", "settings file to load (default .env)")
	flags.String("log-level", "", "log level: panic, fatal, error, warn, info, debug, trace")
	flags.String("max-hyperperiod", "", "largest hyperperiod to simulate, 0 for no limit")

	rootCmd.Flags().String("record", "", "write the execution trace to this SQLite path prefix")
	rootCmd.Flags().Bool("metrics", false, "print OpenTelemetry metrics to stderr")

	rootCmd.AddCommand(newHyperperiodCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newTraceCmd())

	return rootCmd
}

// setup loads the settings, applies the flags that were set, and creates the
// logger.
func setup(cmd *cobra.Command) (config.Config, *logrus.Logger, error) {
	envFile, _ := cmd.Flags().GetString("env-file")

	cfg, err := config.Load(envFile)
	if err != nil {
		return cfg, nil, err
	}

	if err := applyFlags(cmd, &cfg); err != nil {
		return cfg, nil, err
	}

	logger := logrus.New()
	logger.SetOutput(cmd.ErrOrStderr())
	logger.SetLevel(cfg.LogLevel)

	return cfg, logger, nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	if flags.Changed("log-level") {
		v, _ := flags.GetString("log-level")

		level, err := logrus.ParseLevel(v)
		if err != nil {
			return fmt.Errorf("--log-level: %w", err)
		}

		cfg.LogLevel = level
	}

	if flags.Changed("max-hyperperiod") {
		v, _ := flags.GetString("max-hyperperiod")

		ceiling, err := timing.Parse(v)
		if err != nil {
			return fmt.Errorf("--max-hyperperiod: %w", err)
		}

		if ceiling.Sign() < 0 {
			return fmt.Errorf("--max-hyperperiod: %s is negative", v)
		}

		cfg.MaxHyperperiod = ceiling
	}

	if f := flags.Lookup("record"); f != nil && f.Changed {
		cfg.Record = f.Value.String()
	}

	if f := flags.Lookup("metrics"); f != nil && f.Changed {
		cfg.Metrics, _ = flags.GetBool("metrics")
	}

	if f := flags.Lookup("addr"); f != nil && f.Changed {
		cfg.Addr = f.Value.String()
	}

	return nil
}

// simulatorBuilder adds the hooks the settings ask for. The returned
// function releases what the hooks hold and must be called once the
// simulator is done.
func simulatorBuilder(
	cmd *cobra.Command,
	cfg config.Config,
	logger *logrus.Logger,
) (sched.Builder, func(), error) {
	builder := cfg.SimulatorBuilder().WithLogger(logger)
	var closers []func()

	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if logger.IsLevelEnabled(logrus.DebugLevel) {
		builder = builder.WithHook(tracing.NewEventLogger(logger))
	}

	if cfg.Record != "" {
		recorder, err := datarecording.New(cfg.Record)
		if err != nil {
			return builder, closeAll, err
		}

		builder = builder.WithHook(tracing.NewTraceRecorder(recorder))
		closers = append(closers, func() {
			if err := recorder.Close(); err != nil {
				logger.WithError(err).Error("closing trace")
			}
		})

		logger.WithField("path", cfg.Record+".sqlite3").Info("recording trace")
	}

	if cfg.Metrics {
		shutdown, err := telemetry.SetupStdout(cmd.ErrOrStderr())
		if err != nil {
			return builder, closeAll, err
		}

		closers = append(closers, func() {
			if err := shutdown(context.Background()); err != nil {
				logger.WithError(err).Error("exporting metrics")
			}
		})

		hook, err := telemetry.NewMetricsHook(telemetry.Meter())
		if err != nil {
			return builder, closeAll, err
		}

		builder = builder.WithHook(hook)
	}

	return builder, closeAll, nil
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	set, err := taskio.Load(args[0])
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"tasks":       len(set),
		"utilization": set.Utilization(),
	}).Info("tasks loaded")

	builder, closeAll, err := simulatorBuilder(cmd, cfg, logger)
	defer closeAll()

	if err != nil {
		return err
	}

	result := builder.Build().Simulate(set)
	if result.Verdict == sched.Inconclusive {
		logger.WithField("hyperperiod", result.Hyperperiod).
			Warn("not simulated, raise --max-hyperperiod to decide")
	}

	return taskio.WriteResult(cmd.OutOrStdout(), result)
}
