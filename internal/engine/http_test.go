package engine

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"appointment-scheduler/internal/common/config"
	apperrors "appointment-scheduler/internal/common/errors"
	"appointment-scheduler/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHTTPEngine(t *testing.T, handler http.HandlerFunc, cfg config.HTTPConfig, pipeCode string) *HTTPEngine {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	cfg.BaseURL = server.URL
	return NewHTTPEngine(cfg, pipeCode, logger.NewTestLogger(t))
}

func TestHTTPEngine_Execute(t *testing.T) {
	var got map[string]interface{}
	eng := newTestHTTPEngine(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, executePath, r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"main_stuff_as_str":"Appointment booked","attempts":3}`))
	}, config.HTTPConfig{APIKey: "secret"}, "appointment_scheduling_workflow")

	inputs := map[string]interface{}{"person_email": "a@b.c", "person_phone": "+1555"}
	result, err := eng.Execute(context.Background(), "domain = \"x\"", inputs)
	require.NoError(t, err)

	assert.Equal(t, "domain = \"x\"", got["plx_content"])
	assert.Equal(t, "appointment_scheduling_workflow", got["pipe_code"])
	assert.Equal(t, map[string]interface{}{"person_email": "a@b.c", "person_phone": "+1555"}, got["inputs"])
	assert.Equal(t, json.Number("3"), result.Variables["attempts"])

	out, err := result.MainOutput()
	require.NoError(t, err)
	assert.Equal(t, "Appointment booked", out)
}

func TestHTTPEngine_OmitsOptionalFields(t *testing.T) {
	var got map[string]interface{}
	eng := newTestHTTPEngine(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{}`))
	}, config.HTTPConfig{}, "")

	_, err := eng.Execute(context.Background(), "def", map[string]interface{}{})
	require.NoError(t, err)
	_, hasPipeCode := got["pipe_code"]
	assert.False(t, hasPipeCode)
}

func TestHTTPEngine_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   apperrors.ErrorCode
	}{
		{"bad request", http.StatusBadRequest, `{"error":"invalid plx"}`, apperrors.ErrCodeEngineRejected},
		{"unauthorized", http.StatusUnauthorized, `denied`, apperrors.ErrCodeEngineRejected},
		{"server error", http.StatusInternalServerError, `boom`, apperrors.ErrCodeEngineUnavailable},
		{"bad gateway", http.StatusBadGateway, ``, apperrors.ErrCodeEngineUnavailable},
		{"array body", http.StatusOK, `[1,2]`, apperrors.ErrCodeResultFieldMissing},
		{"null body", http.StatusOK, `null`, apperrors.ErrCodeResultFieldMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := newTestHTTPEngine(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}, config.HTTPConfig{}, "")

			_, err := eng.Execute(context.Background(), "def", map[string]interface{}{})
			require.Error(t, err)
			assert.Equal(t, tt.want, apperrors.CodeOf(err))
		})
	}
}

func TestHTTPEngine_RedirectIsNotFollowed(t *testing.T) {
	var methods []string
	eng := newTestHTTPEngine(t, func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method)
		if r.URL.Path == executePath {
			http.Redirect(w, r, "/v2/execute", http.StatusMovedPermanently)
			return
		}
		_, _ = w.Write([]byte(`{"main_stuff_as_str":"served by redirect target"}`))
	}, config.HTTPConfig{}, "")

	_, err := eng.Execute(context.Background(), "def", map[string]interface{}{})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeEngineUnavailable, apperrors.CodeOf(err))
	assert.Contains(t, err.Error(), "301")
	assert.Equal(t, []string{http.MethodPost}, methods)
}

func TestHTTPEngine_Timeout(t *testing.T) {
	eng := newTestHTTPEngine(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}, config.HTTPConfig{Timeout: 50}, "")

	_, err := eng.Execute(context.Background(), "def", map[string]interface{}{})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeEngineTimeout, apperrors.CodeOf(err))
}

func TestHTTPEngine_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	eng := NewHTTPEngine(config.HTTPConfig{BaseURL: url}, "", logger.NewNoOpLogger())
	_, err := eng.Execute(context.Background(), "def", map[string]interface{}{})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeEngineUnavailable, apperrors.CodeOf(err))
}

func TestSnippet(t *testing.T) {
	long := make([]byte, maxErrorSnippet+10)
	for i := range long {
		long[i] = 'x'
	}
	assert.Len(t, snippet(long), maxErrorSnippet+3)
	assert.Equal(t, "short", snippet([]byte("short")))
}

func TestHTTPEngine_KeycloakToken(t *testing.T) {
	keycloak := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/realms/scheduling/protocol/openid-connect/token", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"kc-token","expires_in":300}`))
	}))
	defer keycloak.Close()

	eng := newTestHTTPEngine(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer kc-token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"main_stuff_as_str":"ok"}`))
	}, config.HTTPConfig{
		APIKey: "static-key",
		Keycloak: config.KeycloakConfig{
			URL:      keycloak.URL,
			Realm:    "scheduling",
			ClientID: "scheduler",
		},
	}, "")

	result, err := eng.Execute(context.Background(), "def", map[string]interface{}{})
	require.NoError(t, err)
	out, err := result.MainOutput()
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestHTTPEngine_KeycloakFailureSkipsDispatch(t *testing.T) {
	keycloak := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer keycloak.Close()

	called := false
	eng := newTestHTTPEngine(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	}, config.HTTPConfig{
		Keycloak: config.KeycloakConfig{URL: keycloak.URL, Realm: "r", ClientID: "c"},
	}, "")

	_, err := eng.Execute(context.Background(), "def", map[string]interface{}{})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeAuthentication, apperrors.CodeOf(err))
	assert.False(t, called)
}
