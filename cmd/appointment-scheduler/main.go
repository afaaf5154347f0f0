// cmd/appointment-scheduler/main.go
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"appointment-scheduler/internal/common/config"
	"appointment-scheduler/internal/common/errors"
	"appointment-scheduler/internal/common/logger"
	"appointment-scheduler/internal/common/metrics"
	"appointment-scheduler/internal/common/observability"
	"appointment-scheduler/internal/engine"
	"appointment-scheduler/internal/pipeline"
	"appointment-scheduler/internal/render"
)

const pushTimeout = 10 * time.Second

func main() {
	os.Exit(realMain())
}

func realMain() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, envFile, err := loadConfig()
	if err != nil {
		bootLog := logger.New("info", "console")
		bootLog.Error("config load failed", zap.Error(err))
		_ = bootLog.Sync()
		return 1
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"app":     cfg.App.Name,
		"version": cfg.App.Version,
	})
	if envFile != "" {
		log.Debug("Loaded environment file", map[string]interface{}{"path": envFile})
	}

	obs := observability.New(cfg.App.Name, log)
	defer obs.Shutdown()

	eng, err := engine.New(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Error("Engine initialization failed", map[string]interface{}{
			"engine":    cfg.Engine.Kind,
			"errorCode": string(errors.CodeOf(err)),
		})
		return 1
	}
	defer func() {
		if err := eng.Close(); err != nil {
			log.WithError(err).Warn("Engine close failed", nil)
		}
	}()

	if err := run(ctx, os.Stdout, cfg, eng, log, obs); err != nil {
		fields := map[string]interface{}{
			"errorCode": string(errors.CodeOf(err)),
		}
		if errors.IsInputError(err) {
			fields["inputsPath"] = cfg.Pipeline.InputsPath
		}
		log.WithError(err).Error("Appointment scheduling run failed", fields)
		return 1
	}
	return 0
}

// loadConfig reads the file named by APP_CONFIG_FILE when set, otherwise it
// searches the default config locations.
func loadConfig() (*config.Config, string, error) {
	if path := os.Getenv("APP_CONFIG_FILE"); path != "" {
		cfg, err := config.LoadFromFile(path)
		return cfg, "", err
	}
	return config.Load()
}

// run dispatches the configured inputs once and renders the result to out.
// Metrics are pushed afterwards whether or not the run succeeded.
func run(ctx context.Context, out io.Writer, cfg *config.Config, eng engine.Engine, log logger.Logger, obs *observability.Observability) error {
	ctx, end := obs.StartSpan(ctx, "pipeline.run",
		attribute.String("engine.kind", cfg.Engine.Kind),
		attribute.String("pipeline.inputs_path", cfg.Pipeline.InputsPath),
	)
	start := time.Now()

	dispatcher := pipeline.NewDispatcher(pipeline.NewConfig(cfg.Pipeline), eng, log)
	output, err := dispatcher.RunWithInputs(ctx, cfg.Pipeline.InputsPath)

	status := "success"
	if err != nil {
		status = string(errors.CodeOf(err))
	}
	obs.RecordRun(ctx, time.Since(start), status)
	end(err)
	pushMetrics(ctx, cfg.Observability, log)
	if err != nil {
		return err
	}

	title := cfg.Pipeline.Title
	if title == "" {
		title = config.DefaultTitle
	}
	render.Print(out, title, output)
	return nil
}

func pushMetrics(ctx context.Context, cfg config.ObservabilityConfig, log logger.Logger) {
	if cfg.PushgatewayURL == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), pushTimeout)
	defer cancel()

	if err := metrics.Push(ctx, cfg.PushgatewayURL, cfg.PushJob, prometheus.DefaultGatherer); err != nil {
		log.WithError(err).Warn("Metrics push failed", nil)
		return
	}
	log.Debug("Metrics pushed", map[string]interface{}{"gateway": cfg.PushgatewayURL, "job": cfg.PushJob})
}
