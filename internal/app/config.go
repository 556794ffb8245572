package app

import (
	"errors"
	"time"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	PipelinePath string // .hcl file or directory
	Preset       string
	Source       string // replaces the preset's dataset location
	WorkflowPath string // compiled document to run instead of compiling

	ArtifactRoot string
	RunID        string
	WorkerCount  int
	FailFast     bool

	HealthcheckPort int
	EventsURL       string
	EventsNamespace string
	EventsName      string
	EventsTimeout   time.Duration

	LogFormat string
	LogLevel  string
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	sources := 0
	for _, s := range []string{cfg.PipelinePath, cfg.Preset, cfg.WorkflowPath} {
		if s != "" {
			sources++
		}
	}
	if sources == 0 {
		return nil, errors.New("one of pipeline, preset or workflow is required")
	}
	if sources > 1 {
		return nil, errors.New("pipeline, preset and workflow are mutually exclusive")
	}
	if cfg.Source != "" && cfg.Preset == "" {
		return nil, errors.New("source can only be used with a preset")
	}
	if cfg.WorkerCount < 0 {
		return nil, errors.New("workers cannot be negative")
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, errors.New("healthcheck port must be between 0 and 65535")
	}
	if cfg.ArtifactRoot == "" {
		cfg.ArtifactRoot = ".gridflow/artifacts"
	}
	return &cfg, nil
}
