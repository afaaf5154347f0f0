package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "appointment-scheduler/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenServer(t *testing.T, body string, requests *int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*requests++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestTokenURL(t *testing.T) {
	assert.Equal(t,
		"https://kc.example.com/realms/scheduling/protocol/openid-connect/token",
		TokenURL("https://kc.example.com/", "scheduling"))
}

func TestKeycloakClient_Token(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		assert.Equal(t, "/realms/scheduling/protocol/openid-connect/token", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(t, "scheduler", r.PostForm.Get("client_id"))
		assert.Equal(t, "s3cret", r.PostForm.Get("client_secret"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-1","expires_in":300,"token_type":"Bearer"}`))
	}))
	defer server.Close()

	client := NewKeycloakClient(server.URL+"/", "scheduling", "scheduler", "s3cret")

	token, err := client.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)

	token, err = client.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)
	assert.Equal(t, 1, requests, "cached token should be reused")
}

func TestKeycloakClient_RefreshesExpiredToken(t *testing.T) {
	requests := 0
	// oauth2 treats tokens within ten seconds of expiry as expired.
	server := tokenServer(t, `{"access_token":"short-lived","expires_in":5,"token_type":"Bearer"}`, &requests)
	client := NewKeycloakClient(server.URL, "r", "c", "s")

	_, err := client.Token(context.Background())
	require.NoError(t, err)
	_, err = client.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, requests)
}

func TestKeycloakClient_TokenErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"rejected credentials", http.StatusUnauthorized, `{"error":"unauthorized_client"}`},
		{"server error", http.StatusInternalServerError, `boom`},
		{"empty token", http.StatusOK, `{"expires_in":60}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewKeycloakClient(server.URL, "r", "c", "s").Token(context.Background())
			require.Error(t, err)
			assert.Equal(t, apperrors.ErrCodeAuthentication, apperrors.CodeOf(err))
		})
	}
}

func TestKeycloakClient_CancelledContext(t *testing.T) {
	requests := 0
	server := tokenServer(t, `{"access_token":"tok","expires_in":300}`, &requests)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewKeycloakClient(server.URL, "r", "c", "s").Token(ctx)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeAuthentication, apperrors.CodeOf(err))
}
