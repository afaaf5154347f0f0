// internal/pipeline/config.go
package pipeline

import "appointment-scheduler/internal/common/config"

// Config locates the pipeline definition read on every run.
type Config struct {
	DefinitionPath string
}

func NewConfig(cfg config.PipelineConfig) *Config {
	return &Config{
		DefinitionPath: cfg.DefinitionPath,
	}
}
