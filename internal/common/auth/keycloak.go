// internal/common/auth/keycloak.go
package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"appointment-scheduler/internal/common/errors"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// KeycloakClient obtains service tokens from a Keycloak realm using the
// client credentials grant. Tokens are reused until oauth2 considers them
// expired.
type KeycloakClient struct {
	config     *clientcredentials.Config
	httpClient *http.Client
	token      *oauth2.Token
}

// NewKeycloakClient creates a new instance of KeycloakClient.
func NewKeycloakClient(baseURL, realm, clientID, clientSecret string) *KeycloakClient {
	return &KeycloakClient{
		config: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     TokenURL(baseURL, realm),
			AuthStyle:    oauth2.AuthStyleInParams,
		},
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// TokenURL returns the OpenID Connect token endpoint of a Keycloak realm.
func TokenURL(baseURL, realm string) string {
	return fmt.Sprintf("%s/realms/%s/protocol/openid-connect/token", strings.TrimSuffix(baseURL, "/"), url.PathEscape(realm))
}

// Token returns a valid access token, fetching a new one when the cached
// token is missing or expired.
func (k *KeycloakClient) Token(ctx context.Context) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, k.httpClient)

	token, err := oauth2.ReuseTokenSource(k.token, k.config.TokenSource(ctx)).Token()
	if err != nil {
		return "", errors.NewAuthenticationError(fmt.Sprintf("keycloak token request failed: %v", err))
	}

	k.token = token
	return token.AccessToken, nil
}
