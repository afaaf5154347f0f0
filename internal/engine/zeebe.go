package engine

import (
	"context"
	"fmt"

	"appointment-scheduler/internal/common/camunda"
	"appointment-scheduler/internal/common/config"
	"appointment-scheduler/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
)

// gateway is the subset of the Zeebe client the engine drives.
type gateway interface {
	DeployDefinition(ctx context.Context, name string, definition []byte) (*pb.DeployResourceResponse, error)
	RunProcess(ctx context.Context, processID string, variables map[string]interface{}) (map[string]interface{}, int64, error)
	Close() error
}

// ZeebeEngine deploys the definition as a BPMN resource and awaits one
// process instance per Execute.
type ZeebeEngine struct {
	gw           gateway
	resourceName string
	pipeCode     string
	logger       logger.Logger
}

func NewZeebeEngine(ctx context.Context, cfg config.CamundaConfig, pipeCode string, log logger.Logger) (*ZeebeEngine, error) {
	client, err := camunda.NewClientWithConfig(ctx, &camunda.ClientConfig{
		GatewayAddress:         cfg.BrokerAddress,
		UsePlaintextConnection: cfg.UsePlaintext,
		ConnectionTimeout:      config.GetDuration(cfg.ConnectionTimeout),
		RequestTimeout:         config.GetDuration(cfg.RequestTimeout),
	})
	if err != nil {
		return nil, err
	}

	log.Info("Connected to Zeebe gateway", map[string]interface{}{
		"address": cfg.BrokerAddress,
	})
	return newZeebeEngine(client, cfg.ResourceName, pipeCode, log), nil
}

func newZeebeEngine(gw gateway, resourceName, pipeCode string, log logger.Logger) *ZeebeEngine {
	return &ZeebeEngine{
		gw:           gw,
		resourceName: resourceName,
		pipeCode:     pipeCode,
		logger:       log.WithFields(map[string]interface{}{"engine": config.EngineKindZeebe}),
	}
}

func (e *ZeebeEngine) Execute(ctx context.Context, definition string, inputs map[string]interface{}) (*Result, error) {
	deployment, err := e.gw.DeployDefinition(ctx, e.resourceName, []byte(definition))
	if err != nil {
		return nil, err
	}

	processID := e.pipeCode
	if processID == "" {
		if processID, err = camunda.ProcessIDFromDeployment(deployment); err != nil {
			return nil, err
		}
	}

	e.logger.Info("Deployed pipeline definition", map[string]interface{}{
		"deploymentKey": deployment.GetKey(),
		"resource":      e.resourceName,
		"processId":     processID,
	})

	variables, instanceKey, err := e.gw.RunProcess(ctx, processID, inputs)
	if err != nil {
		return nil, fmt.Errorf("process %s: %w", processID, err)
	}

	e.logger.Info("Process instance completed", map[string]interface{}{
		"processId":          processID,
		"processInstanceKey": instanceKey,
	})
	return &Result{Variables: variables, InstanceKey: instanceKey}, nil
}

func (e *ZeebeEngine) Close() error {
	return e.gw.Close()
}
