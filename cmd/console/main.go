package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/xela07ax/mdm-merge-console/internal/connectors"
	"github.com/xela07ax/mdm-merge-console/internal/console/service"
	"github.com/xela07ax/mdm-merge-console/internal/engine"
	"github.com/xela07ax/mdm-merge-console/internal/infra"
	"github.com/xela07ax/mdm-merge-console/internal/present"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "mdm-console",
		Short:         "Operator console for the MDM entity-resolution backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runTUI,
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "path to config file (default ./config.yaml or ./configs/config.yaml)")
	pf.String("backend", "", "backend base URL, overrides backend.base_url")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.Bool("demo", false, "run against the built-in mock backend")
	pf.Duration("demo-latency", 300*time.Millisecond, "simulated latency of the mock backend")

	root.AddCommand(newTUICmd(), newRunCmd(), newOpsCmd(), newServeCmd())
	root.SetErr(os.Stderr)
	return root
}

// app собранный граф зависимостей, общий для всех режимов.
type app struct {
	cfg      *infra.Config
	logger   *zap.Logger
	registry *prometheus.Registry
	dash     *service.Dashboard
}

// buildApp читает конфиг и собирает цепочку
// транспорт -> предохранитель -> сервисы -> дашборд.
// quiet глушит логи в stderr, чтобы они не ломали полноэкранный TUI.
func buildApp(ctx context.Context, cmd *cobra.Command, quiet bool) (*app, error) {
	cfg, err := infra.LoadConfig(cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := zap.NewNop()
	if !quiet || cfg.Logger.File != "" {
		if logger, err = infra.NewLogger(cfg.Logger); err != nil {
			return nil, fmt.Errorf("init logger: %w", err)
		}
	}

	if demo, _ := cmd.Flags().GetBool("demo"); demo {
		latency, _ := cmd.Flags().GetDuration("demo-latency")
		url, err := connectors.StartMockBackend(ctx, "127.0.0.1:0", connectors.NewMockBackend(latency), logger)
		if err != nil {
			return nil, err
		}
		cfg.Backend.BaseURL = url
	}

	adapter, err := connectors.NewHTTPAdapter(cfg.Backend.BaseURL, cfg.Backend.Timeout, logger)
	if err != nil {
		return nil, fmt.Errorf("init transport: %w", err)
	}

	registry := prometheus.NewRegistry()
	metrics := engine.NewMetrics(registry)

	var sender service.Sender = adapter
	if b := cfg.Backend.Breaker; b.Enabled {
		sender = engine.NewReliabilityWrapper(adapter, engine.BreakerSettings{
			MaxRequests: b.MaxRequests,
			Interval:    b.Interval,
			Timeout:     b.Timeout,
			Failures:    b.Failures,
		}, metrics, logger)
	}

	// Недоступный бэкенд не мешает старту: операции просто завершатся Failed
	if err := engine.WaitReady(ctx, sender, cfg.Backend.ReadyAttempts, cfg.Backend.ReadyDelay, logger); err != nil {
		logger.Warn("backend is not ready, continuing", zap.String("url", adapter.BaseURL()), zap.Error(err))
	}

	composer := service.NewComposer(sender, cfg.Dashboard.AuditLimit, logger)
	dash := service.NewDashboard(adapter.BaseURL(), composer, logger,
		service.WithMetrics(metrics),
		service.WithFormatter(present.Formatter{Layout: cfg.Dashboard.TimeLayout, Location: time.Local}),
	)

	return &app{cfg: cfg, logger: logger, registry: registry, dash: dash}, nil
}
