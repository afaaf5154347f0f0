package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_PostJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "value", body["key"])

		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := NewClient(5 * time.Second)
	resp, err := client.PostJSON(context.Background(), server.URL, map[string]string{"Authorization": "Bearer abc"}, map[string]string{"key": "value"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.JSONEq(t, `{"ok":true}`, string(resp.Body))
}

func TestClient_PostJSON_ErrorStatusIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad definition", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	resp, err := NewClient(0).PostJSON(context.Background(), server.URL, nil, struct{}{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, string(resp.Body), "bad definition")
}

func TestClient_PostJSON_DoesNotFollowRedirects(t *testing.T) {
	targetHit := false
	mux := http.NewServeMux()
	mux.HandleFunc("/moved", func(w http.ResponseWriter, r *http.Request) {
		targetHit = true
		_, _ = w.Write([]byte(`{"main_stuff_as_str":"wrong"}`))
	})
	mux.HandleFunc("/execute", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/moved", http.StatusFound)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	resp, err := NewClient(time.Second).PostJSON(context.Background(), server.URL+"/execute", nil, map[string]string{"k": "v"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.False(t, targetHit)
}

func TestClient_PostJSON_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewClient(time.Second).PostJSON(context.Background(), url, nil, struct{}{})
	require.Error(t, err)
}
