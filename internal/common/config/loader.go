// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Defaults mirror the fixed locations the scheduler has always used.
const (
	DefaultInputsPath     = "results/inputs.json"
	DefaultDefinitionPath = "results/generated_pipeline_1st_iteration_01.plx"
	DefaultTitle          = "Appointment Scheduling - WhatsApp Voice Message Status"
	DefaultResourceName   = "appointment_scheduling_workflow.bpmn"
)

// Load reads .env, configs/config.yaml and config.<APP_ENVIRONMENT>.yaml,
// applies environment overrides and validates the result. It returns the
// path of the .env file that was loaded, if any.
func Load() (*Config, string, error) {
	envFile := loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")
	bindEnv(v)

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, envFile, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional

	cfg, err := decode(v)
	if err != nil {
		return nil, envFile, err
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = env
	}
	return cfg, envFile, nil
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return decode(v)
}

func bindEnv(v *viper.Viper) {
	applyDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

func decode(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	overrideEmptyConfig(&cfg)
	cfg.Engine.Kind = strings.ToLower(strings.TrimSpace(cfg.Engine.Kind))

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// loadEnvFile loads the first .env found in the working directory, its
// parents or the module root.
func loadEnvFile() string {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// expandEnvVars resolves ${VAR} placeholders inside string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig falls back to the conventional variable names used by
// the engines' own tooling.
func overrideEmptyConfig(cfg *Config) {
	if cfg.Engine.Camunda.BrokerAddress == "" {
		if val := os.Getenv("ZEEBE_ADDRESS"); val != "" {
			cfg.Engine.Camunda.BrokerAddress = val
		}
	}
	if cfg.Engine.HTTP.APIKey == "" {
		if val := os.Getenv("PIPELINE_API_KEY"); val != "" {
			cfg.Engine.HTTP.APIKey = val
		}
	}
	if cfg.Engine.HTTP.BaseURL == "" {
		if val := os.Getenv("PIPELINE_API_URL"); val != "" {
			cfg.Engine.HTTP.BaseURL = val
		}
	}
}

// applyDefaults registers every key with viper so AutomaticEnv can override
// keys that are absent from the config file.
func applyDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "appointment-scheduler")
	v.SetDefault("app.version", "dev")
	v.SetDefault("app.environment", "")

	v.SetDefault("pipeline.inputs_path", DefaultInputsPath)
	v.SetDefault("pipeline.definition_path", DefaultDefinitionPath)
	v.SetDefault("pipeline.pipe_code", "")
	v.SetDefault("pipeline.title", DefaultTitle)

	v.SetDefault("engine.kind", EngineKindZeebe)
	v.SetDefault("engine.camunda.broker_address", "")
	v.SetDefault("engine.camunda.use_plaintext", true)
	v.SetDefault("engine.camunda.resource_name", DefaultResourceName)
	v.SetDefault("engine.camunda.connection_timeout", 10000)
	v.SetDefault("engine.camunda.request_timeout", 0)
	v.SetDefault("engine.http.base_url", "")
	v.SetDefault("engine.http.api_key", "")
	v.SetDefault("engine.http.timeout", 0)
	v.SetDefault("engine.http.keycloak.url", "")
	v.SetDefault("engine.http.keycloak.realm", "")
	v.SetDefault("engine.http.keycloak.client_id", "")
	v.SetDefault("engine.http.keycloak.client_secret", "")

	v.SetDefault("observability.pushgateway_url", "")
	v.SetDefault("observability.push_job", "appointment-scheduler")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Pipeline.InputsPath == "" {
		return fmt.Errorf("pipeline.inputs_path is required")
	}
	if cfg.Pipeline.DefinitionPath == "" {
		return fmt.Errorf("pipeline.definition_path is required")
	}

	switch cfg.Engine.Kind {
	case EngineKindZeebe:
		if cfg.Engine.Camunda.BrokerAddress == "" {
			return fmt.Errorf("engine.camunda.broker_address is required")
		}
		if !strings.HasSuffix(cfg.Engine.Camunda.ResourceName, ".bpmn") {
			return fmt.Errorf("engine.camunda.resource_name must end in .bpmn, got %q", cfg.Engine.Camunda.ResourceName)
		}
	case EngineKindHTTP:
		if cfg.Engine.HTTP.BaseURL == "" {
			return fmt.Errorf("engine.http.base_url is required")
		}
		if kc := cfg.Engine.HTTP.Keycloak; kc.Enabled() && (kc.Realm == "" || kc.ClientID == "") {
			return fmt.Errorf("engine.http.keycloak requires realm and client_id")
		}
	default:
		return fmt.Errorf("engine.kind must be %q or %q, got %q", EngineKindZeebe, EngineKindHTTP, cfg.Engine.Kind)
	}

	if cfg.Observability.PushgatewayURL != "" && cfg.Observability.PushJob == "" {
		return fmt.Errorf("observability.push_job is required when pushgateway_url is set")
	}

	if cfg.Engine.Camunda.ConnectionTimeout < 0 || cfg.Engine.Camunda.RequestTimeout < 0 || cfg.Engine.HTTP.Timeout < 0 {
		return fmt.Errorf("engine timeouts must not be negative")
	}
	return nil
}
