// internal/common/camunda/client.go
package camunda

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"appointment-scheduler/internal/common/errors"

	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const serviceName = "zeebe"

// Client wraps the Zeebe gRPC client with error mapping.
type Client struct {
	client zbc.Client
	config *ClientConfig
}

// ClientConfig holds configuration for the Camunda/Zeebe client.
type ClientConfig struct {
	GatewayAddress         string
	UsePlaintextConnection bool
	ConnectionTimeout      time.Duration
	// RequestTimeout bounds a single awaited process instance. Zero sends no
	// deadline and the gateway's default request timeout applies.
	RequestTimeout time.Duration
}

// NewClientWithConfig creates a Camunda client and checks the gateway
// topology once. There is no connection retry.
func NewClientWithConfig(ctx context.Context, config *ClientConfig) (*Client, error) {
	zeebeClient, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         config.GatewayAddress,
		UsePlaintextConnection: config.UsePlaintextConnection,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Zeebe client: %w", err)
	}

	c := &Client{client: zeebeClient, config: config}
	if err := c.HealthCheck(ctx); err != nil {
		zeebeClient.Close()
		return nil, fmt.Errorf("failed to connect to Zeebe broker at %s: %w", config.GatewayAddress, err)
	}
	return c, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// DeployDefinition deploys definition under resource name and returns the
// gateway's deployment record.
func (c *Client) DeployDefinition(ctx context.Context, name string, definition []byte) (*pb.DeployResourceResponse, error) {
	resp, err := c.client.NewDeployResourceCommand().
		AddResource(definition, name).
		Send(ctx)
	if err != nil {
		return nil, mapZeebeError(err, "deploy "+name)
	}
	return resp, nil
}

// RunProcess starts the latest version of processID with variables and
// blocks until the instance completes, returning its final variables.
func (c *Client) RunProcess(ctx context.Context, processID string, variables map[string]interface{}) (map[string]interface{}, int64, error) {
	cmd, err := c.client.NewCreateInstanceCommand().
		BPMNProcessId(processID).
		LatestVersion().
		VariablesFromMap(variables)
	if err != nil {
		return nil, 0, fmt.Errorf("encode process variables: %w", err)
	}

	if c.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.RequestTimeout)
		defer cancel()
	}

	resp, err := cmd.WithResult().Send(ctx)
	if err != nil {
		return nil, 0, mapZeebeError(err, "run "+processID)
	}

	vars, err := DecodeVariables(resp.GetVariables())
	if err != nil {
		return nil, resp.GetProcessInstanceKey(), err
	}
	return vars, resp.GetProcessInstanceKey(), nil
}

// HealthCheck performs a basic health check against the Zeebe broker.
func (c *Client) HealthCheck(ctx context.Context) error {
	timeout := c.config.ConnectionTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if _, err := c.client.NewTopologyCommand().Send(ctx); err != nil {
		return mapZeebeError(err, "topology")
	}
	return nil
}

// ProcessIDFromDeployment returns the BPMN process id of the first process
// contained in a deployment.
func ProcessIDFromDeployment(resp *pb.DeployResourceResponse) (string, error) {
	for _, deployment := range resp.GetDeployments() {
		if process := deployment.GetProcess(); process != nil && process.GetBpmnProcessId() != "" {
			return process.GetBpmnProcessId(), nil
		}
	}
	return "", errors.NewDefinitionRejectedError(serviceName, "deployment contains no executable process")
}

// DecodeVariables parses a Zeebe variables document, keeping numbers as
// json.Number.
func DecodeVariables(raw string) (map[string]interface{}, error) {
	vars := map[string]interface{}{}
	if strings.TrimSpace(raw) == "" {
		return vars, nil
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	if err := dec.Decode(&vars); err != nil {
		return nil, fmt.Errorf("decode process variables: %w", err)
	}
	if vars == nil {
		vars = map[string]interface{}{}
	}
	return vars, nil
}

// mapZeebeError converts Zeebe errors into standardized application errors.
func mapZeebeError(err error, operation string) error {
	if stderrors.Is(err, context.Canceled) || status.Code(err) == codes.Canceled {
		return fmt.Errorf("Zeebe operation '%s' cancelled: %w", operation, err)
	}

	msg := err.Error()
	lowerMsg := strings.ToLower(msg)
	enhanced := fmt.Errorf("Zeebe operation '%s' failed: %w", operation, err)

	if st, ok := status.FromError(err); ok && st.Code() != codes.Unknown {
		switch st.Code() {
		case codes.Unavailable, codes.ResourceExhausted, codes.Aborted:
			return errors.NewExternalServiceError(serviceName, enhanced)
		case codes.DeadlineExceeded:
			return errors.NewTimeoutError(serviceName, enhanced)
		case codes.NotFound:
			return errors.NewResourceNotFoundError(serviceName, enhanced.Error())
		case codes.InvalidArgument, codes.FailedPrecondition:
			return errors.NewDefinitionRejectedError(serviceName, st.Message())
		case codes.Unauthenticated, codes.PermissionDenied:
			return errors.NewAuthenticationError(enhanced.Error())
		}
	}

	switch {
	case strings.Contains(lowerMsg, "connection refused") ||
		strings.Contains(lowerMsg, "connection reset") ||
		strings.Contains(lowerMsg, "unavailable") ||
		strings.Contains(lowerMsg, "unreachable"):
		return errors.NewExternalServiceError(serviceName, enhanced)

	case strings.Contains(lowerMsg, "timeout") ||
		strings.Contains(lowerMsg, "deadline exceeded"):
		return errors.NewTimeoutError(serviceName, enhanced)

	case strings.Contains(lowerMsg, "not found"):
		return errors.NewResourceNotFoundError(serviceName, enhanced.Error())

	case strings.Contains(lowerMsg, "permission denied") ||
		strings.Contains(lowerMsg, "unauthorized"):
		return errors.NewAuthenticationError(enhanced.Error())

	default:
		return errors.NewExternalServiceError(serviceName, enhanced)
	}
}
