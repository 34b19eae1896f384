package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // zone database for minimal images

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hazz-dev/sitepulse/internal/broker"
	"github.com/hazz-dev/sitepulse/internal/checker"
	"github.com/hazz-dev/sitepulse/internal/config"
	"github.com/hazz-dev/sitepulse/internal/logging"
	"github.com/hazz-dev/sitepulse/internal/metrics"
	"github.com/hazz-dev/sitepulse/internal/publisher"
	"github.com/hazz-dev/sitepulse/internal/scheduler"
	"github.com/hazz-dev/sitepulse/internal/server"
	"github.com/hazz-dev/sitepulse/internal/status"
	"github.com/hazz-dev/sitepulse/internal/version"
)

var targetsFile string

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "sitepulse",
		Short:        "Website health checker publishing to MQTT",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&targetsFile, "targets", "", "targets file path (overrides TARGETS_FILE)")

	root.AddCommand(versionCmd())
	root.AddCommand(runCmd())
	root.AddCommand(checkCmd())
	root.AddCommand(topicsCmd())

	return root
}

// loadConfig reads the environment, applies the --targets override and
// loads the registry.
func loadConfig() (*config.Config, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if targetsFile != "" {
		cfg.TargetsFile = targetsFile
	}
	cfg.Targets, err = config.LoadTargets(cfg.TargetsFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "sitepulse %s (commit %s, built %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Check every target forever and publish the results",
		RunE:  runLoop,
	}
}

func runLoop(cmd *cobra.Command, _ []string) error {
	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// 2. Logger
	logger, err := logging.New(cfg.LogLevel, cfg.LogDir)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("config loaded",
		zap.Int("targets", len(cfg.Targets)),
		zap.String("broker", cfg.Broker.Kind),
		zap.Duration("interval", cfg.Interval),
		zap.String("root", cfg.Topics.Root),
		zap.String("source", cfg.Topics.Source),
	)

	out := cmd.OutOrStdout()
	printBanner(out, cfg)

	// 3. Metrics and latest-result board
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	board := status.NewBoard()

	// 4. Scheduler
	connect := func(ctx context.Context) (scheduler.Publisher, error) {
		b, err := broker.Dial(ctx, cfg.Broker)
		if err != nil {
			return nil, err
		}
		return publisher.New(b, publisher.Config{
			Root:     cfg.Topics.Root,
			Source:   cfg.Topics.Source,
			Timezone: cfg.Timezone,
		}, logger.Named("publisher"), publisher.WithFailureHook(m.PublishFailed)), nil
	}

	sched := scheduler.New(scheduler.Options{
		Targets:     cfg.Targets,
		Checker:     checker.New(cfg.ProbeTimeout),
		Connect:     connect,
		Interval:    cfg.Interval,
		TargetDelay: cfg.TargetDelay,
		Out:         out,
	}, logger.Named("scheduler"))
	sched.SetOnResult(func(t config.Target, r checker.CheckResult) {
		m.ObserveResult(t, r)
		board.Record(t, r)
	})
	sched.SetOnCycle(func(cs scheduler.CycleStats) {
		m.ObserveCycle(cs.Duration)
	})

	// 5. Signal context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// 6. Optional status API
	var httpServer *http.Server
	serverErr := make(chan error, 1)
	if cfg.StatusAddr != "" {
		api := server.New(cfg.Targets, board, func() string { return sched.State().String() }, reg, logger.Named("server"))
		httpServer = &http.Server{
			Addr:              cfg.StatusAddr,
			Handler:           api.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("listening", zap.String("address", cfg.StatusAddr))
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- err
			}
		}()
	}

	// 7. Run until interrupted
	schedDone := make(chan error, 1)
	go func() { schedDone <- sched.Run(ctx) }()

	select {
	case err = <-schedDone:
	case err = <-serverErr:
		logger.Error("status server failed", zap.Error(err))
		stop()
		<-schedDone
		err = fmt.Errorf("status server: %w", err)
	}

	if httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("status server shutdown", zap.Error(err))
		}
	}

	fmt.Fprintln(out, "\nShutting down...")
	logger.Info("shutdown complete")
	return err
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run a one-off check of every target without publishing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			runChecks(cmd.Context(), cmd.OutOrStdout(), cfg)
			return nil
		},
	}
}

func topicsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "topics",
		Short: "Print the topics each target publishes to",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			printTopics(cmd.OutOrStdout(), cfg)
			return nil
		},
	}
}
