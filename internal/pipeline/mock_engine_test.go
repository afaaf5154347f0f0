package pipeline

import (
	"context"

	"appointment-scheduler/internal/engine"
)

type executeCall struct {
	Definition string
	Inputs     map[string]interface{}
}

// MockEngine records every Execute call and answers through ExecuteFunc.
type MockEngine struct {
	ExecuteFunc func(ctx context.Context, definition string, inputs map[string]interface{}) (*engine.Result, error)
	Calls       []executeCall
	Closed      bool
}

func (m *MockEngine) Execute(ctx context.Context, definition string, inputs map[string]interface{}) (*engine.Result, error) {
	m.Calls = append(m.Calls, executeCall{Definition: definition, Inputs: inputs})
	if m.ExecuteFunc == nil {
		return &engine.Result{Variables: map[string]interface{}{engine.MainOutputField: "ok"}}, nil
	}
	return m.ExecuteFunc(ctx, definition, inputs)
}

func (m *MockEngine) Close() error {
	m.Closed = true
	return nil
}

func returning(output string) func(context.Context, string, map[string]interface{}) (*engine.Result, error) {
	return func(context.Context, string, map[string]interface{}) (*engine.Result, error) {
		return &engine.Result{Variables: map[string]interface{}{engine.MainOutputField: output}}, nil
	}
}
