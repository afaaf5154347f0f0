// internal/pipeline/dispatcher.go
package pipeline

import (
	"context"
	"os"
	"time"
	"unicode/utf8"

	"appointment-scheduler/internal/common/errors"
	"appointment-scheduler/internal/common/logger"
	"appointment-scheduler/internal/common/metrics"
	"appointment-scheduler/internal/engine"

	"github.com/google/uuid"
)

// Dispatcher validates an input document and hands it to the engine once.
type Dispatcher struct {
	config *Config
	engine engine.Engine
	logger logger.Logger
}

func NewDispatcher(config *Config, eng engine.Engine, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		config: config,
		engine: eng,
		logger: log,
	}
}

// RunWithInputs loads the inputs at inputsPath, checks the required keys,
// reads the pipeline definition and executes it. Nothing is dispatched
// unless every required key is present and both files are valid UTF-8.
// Errors from reading the definition and from the engine are returned
// unchanged.
func (d *Dispatcher) RunWithInputs(ctx context.Context, inputsPath string) (string, error) {
	log := d.logger.WithFields(map[string]interface{}{
		"runId":      uuid.NewString(),
		"inputsPath": inputsPath,
	})

	inputs, err := LoadInputs(inputsPath)
	if err != nil {
		return "", d.fail(log, metrics.OutcomeInputRejected, err)
	}
	if err := CheckRequired(inputs); err != nil {
		return "", d.fail(log, metrics.OutcomeInputRejected, err)
	}

	definition, err := os.ReadFile(d.config.DefinitionPath)
	if err != nil {
		return "", d.fail(log, metrics.OutcomeDefinitionRead, err)
	}
	if !utf8.Valid(definition) {
		err := errors.NewMalformedDefinitionError(d.config.DefinitionPath, "file is not valid UTF-8")
		return "", d.fail(log, metrics.OutcomeDefinitionRead, err)
	}

	log.Info("Dispatching pipeline", map[string]interface{}{
		"definitionPath": d.config.DefinitionPath,
		"inputKeys":      len(inputs),
	})

	start := time.Now()
	metrics.PipelineDispatches.Inc()
	result, err := d.engine.Execute(ctx, string(definition), inputs)
	metrics.PipelineDispatchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return "", d.fail(log, metrics.OutcomeEngineFailed, err)
	}

	output, err := result.MainOutput()
	if err != nil {
		return "", d.fail(log, metrics.OutcomeResultInvalid, err)
	}

	metrics.PipelineRuns.WithLabelValues(metrics.OutcomeSuccess).Inc()
	log.Info("Pipeline completed", map[string]interface{}{
		"duration": time.Since(start).String(),
	})
	return output, nil
}

func (d *Dispatcher) fail(log logger.Logger, outcome string, err error) error {
	metrics.PipelineRuns.WithLabelValues(outcome).Inc()
	code := errors.CodeOf(err)
	log.WithError(err).Error("Pipeline run failed", map[string]interface{}{
		"outcome":       outcome,
		"errorCode":     string(code),
		"errorCategory": errors.GetErrorCategory(code),
	})
	return err
}
