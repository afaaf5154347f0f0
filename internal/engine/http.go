package engine

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net"
	"strings"

	"appointment-scheduler/internal/common/auth"
	"appointment-scheduler/internal/common/config"
	"appointment-scheduler/internal/common/errors"
	commonhttp "appointment-scheduler/internal/common/http"
	"appointment-scheduler/internal/common/logger"
)

const (
	executePath     = "/api/v1/pipeline/execute"
	httpService     = "pipeline-api"
	maxErrorSnippet = 512
)

type executeRequest struct {
	PlxContent string                 `json:"plx_content"`
	PipeCode   string                 `json:"pipe_code,omitempty"`
	Inputs     map[string]interface{} `json:"inputs"`
}

type tokenSource interface {
	Token(ctx context.Context) (string, error)
}

// HTTPEngine posts the definition and inputs to a remote execution service.
type HTTPEngine struct {
	client   *commonhttp.Client
	endpoint string
	apiKey   string
	tokens   tokenSource
	pipeCode string
	logger   logger.Logger
}

func NewHTTPEngine(cfg config.HTTPConfig, pipeCode string, log logger.Logger) *HTTPEngine {
	e := &HTTPEngine{
		client:   commonhttp.NewClient(config.GetDuration(cfg.Timeout)),
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + executePath,
		apiKey:   cfg.APIKey,
		pipeCode: pipeCode,
		logger:   log.WithFields(map[string]interface{}{"engine": config.EngineKindHTTP}),
	}
	if kc := cfg.Keycloak; kc.Enabled() {
		e.tokens = auth.NewKeycloakClient(kc.URL, kc.Realm, kc.ClientID, kc.ClientSecret)
	}
	return e
}

func (e *HTTPEngine) Execute(ctx context.Context, definition string, inputs map[string]interface{}) (*Result, error) {
	headers, err := e.authHeaders(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := e.client.PostJSON(ctx, e.endpoint, headers, executeRequest{
		PlxContent: definition,
		PipeCode:   e.pipeCode,
		Inputs:     inputs,
	})
	if err != nil {
		if isTimeout(err) {
			return nil, errors.NewTimeoutError(httpService, err)
		}
		return nil, errors.NewExternalServiceError(httpService, err)
	}

	e.logger.Debug("Pipeline service responded", map[string]interface{}{
		"status": resp.StatusCode,
		"bytes":  len(resp.Body),
	})

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, errors.NewEngineRejectedError(httpService, resp.StatusCode, snippet(resp.Body))
	default:
		return nil, errors.NewExternalServiceError(httpService,
			fmt.Errorf("unexpected status %d: %s", resp.StatusCode, snippet(resp.Body)))
	}

	variables := map[string]interface{}{}
	dec := json.NewDecoder(bytes.NewReader(resp.Body))
	dec.UseNumber()
	if err := dec.Decode(&variables); err != nil || variables == nil {
		return nil, errors.NewResultFieldMissingError(MainOutputField, "response body is not a JSON object")
	}
	return &Result{Variables: variables}, nil
}

// authHeaders prefers a Keycloak token over the static API key.
func (e *HTTPEngine) authHeaders(ctx context.Context) (map[string]string, error) {
	headers := map[string]string{}
	switch {
	case e.tokens != nil:
		token, err := e.tokens.Token(ctx)
		if err != nil {
			return nil, err
		}
		headers["Authorization"] = "Bearer " + token
	case e.apiKey != "":
		headers["Authorization"] = "Bearer " + e.apiKey
	}
	return headers, nil
}

func (e *HTTPEngine) Close() error {
	return nil
}

func isTimeout(err error) bool {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return stderrors.As(err, &netErr) && netErr.Timeout()
}

func snippet(body []byte) string {
	if len(body) > maxErrorSnippet {
		return string(body[:maxErrorSnippet]) + "..."
	}
	return string(body)
}
