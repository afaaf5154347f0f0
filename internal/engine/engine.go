// Package engine hides the external pipeline-execution service behind a
// single blocking call.
package engine

import (
	"context"
	"strings"

	"appointment-scheduler/internal/common/config"
	"appointment-scheduler/internal/common/errors"
	"appointment-scheduler/internal/common/logger"
	"appointment-scheduler/internal/common/validation"
)

// MainOutputField is the result variable holding the pipeline's textual output.
const MainOutputField = "main_stuff_as_str"

// Engine executes a pipeline definition against an input document.
type Engine interface {
	// Execute runs definition with inputs and blocks until the engine
	// reports a result or fails.
	Execute(ctx context.Context, definition string, inputs map[string]interface{}) (*Result, error)
	Close() error
}

// Result is the opaque outcome of one pipeline execution.
type Result struct {
	Variables   map[string]interface{}
	InstanceKey int64
}

var mainOutputSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{MainOutputField},
	"properties": map[string]interface{}{
		MainOutputField: map[string]interface{}{"type": "string"},
	},
}

// MainOutput returns the string held in MainOutputField.
func (r *Result) MainOutput() (string, error) {
	if r == nil || r.Variables == nil {
		return "", errors.NewResultFieldMissingError(MainOutputField, "engine returned no variables")
	}

	vr, err := validation.ValidateDocument(mainOutputSchema, r.Variables)
	if err != nil {
		return "", errors.NewResultFieldMissingError(MainOutputField, err.Error())
	}
	if !vr.Valid {
		return "", errors.NewResultFieldMissingError(MainOutputField, strings.Join(vr.GetErrorMessages(), "; "))
	}

	out, _ := r.Variables[MainOutputField].(string)
	return out, nil
}

// New initializes the engine selected by cfg.Engine.Kind. The caller owns
// the returned handle and must Close it.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (Engine, error) {
	switch cfg.Engine.Kind {
	case config.EngineKindZeebe, "":
		return NewZeebeEngine(ctx, cfg.Engine.Camunda, cfg.Pipeline.PipeCode, log)
	case config.EngineKindHTTP:
		return NewHTTPEngine(cfg.Engine.HTTP, cfg.Pipeline.PipeCode, log), nil
	default:
		return nil, errors.NewUnsupportedEngineError(cfg.Engine.Kind)
	}
}
