// internal/common/config/config.go
package config

import "time"

// Engine kinds understood by engine.New.
const (
	EngineKindZeebe = "zeebe"
	EngineKindHTTP  = "http"
)

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Pipeline      PipelineConfig      `mapstructure:"pipeline"`
	Engine        EngineConfig        `mapstructure:"engine"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// PipelineConfig locates the two files read per run and labels the output.
type PipelineConfig struct {
	InputsPath     string `mapstructure:"inputs_path"`
	DefinitionPath string `mapstructure:"definition_path"`
	PipeCode       string `mapstructure:"pipe_code"` // optional when the definition declares its main process
	Title          string `mapstructure:"title"`
}

// EngineConfig selects and configures the external execution engine.
type EngineConfig struct {
	Kind    string        `mapstructure:"kind"`
	Camunda CamundaConfig `mapstructure:"camunda"`
	HTTP    HTTPConfig    `mapstructure:"http"`
}

type CamundaConfig struct {
	BrokerAddress     string `mapstructure:"broker_address"`
	UsePlaintext      bool   `mapstructure:"use_plaintext"`
	ResourceName      string `mapstructure:"resource_name"`
	ConnectionTimeout int    `mapstructure:"connection_timeout"` // milliseconds
	RequestTimeout    int    `mapstructure:"request_timeout"`    // milliseconds, 0 = gateway default
}

type HTTPConfig struct {
	BaseURL  string         `mapstructure:"base_url"`
	APIKey   string         `mapstructure:"api_key"`
	Timeout  int            `mapstructure:"timeout"` // milliseconds, 0 = none
	Keycloak KeycloakConfig `mapstructure:"keycloak"`
}

// KeycloakConfig enables client-credentials tokens for the HTTP engine in
// place of a static API key.
type KeycloakConfig struct {
	URL          string `mapstructure:"url"`
	Realm        string `mapstructure:"realm"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
}

// Enabled reports whether a token endpoint is configured.
func (k KeycloakConfig) Enabled() bool {
	return k.URL != ""
}

// ObservabilityConfig controls where run metrics go once the process is done.
type ObservabilityConfig struct {
	PushgatewayURL string `mapstructure:"pushgateway_url"` // empty disables the push
	PushJob        string `mapstructure:"push_job"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
