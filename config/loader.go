package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// ProjectConfigFile is the name of the project-level config file
const ProjectConfigFile = "oracletrack.yaml"

// Loader handles configuration loading with layered precedence
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a new configuration loader
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load loads configuration with layered precedence:
// 1. Default config
// 2. Project config (oracletrack.yaml in current or parent directories)
// 3. Explicit config file, when path is non-empty
//
// Flag overrides are merged by the caller afterwards.
func (l *Loader) Load(path string) (*Config, error) {
	config := DefaultConfig()

	if path == "" {
		if projectPath := l.findProjectConfig(); projectPath != "" {
			projectConfig, err := LoadFromFile(projectPath)
			if err != nil {
				return nil, fmt.Errorf("load project config %s: %w", projectPath, err)
			}
			l.logger.Debug("Loaded project config", slog.String("path", projectPath))
			config.Merge(projectConfig)
		} else {
			l.logger.Debug("No project config found")
		}
		return config, nil
	}

	fileConfig, err := LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	l.logger.Debug("Loaded config file", slog.String("path", path))
	config.Merge(fileConfig)

	return config, nil
}

// findProjectConfig searches for oracletrack.yaml in current and
// parent directories
func (l *Loader) findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	dir := cwd
	for {
		configPath := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}
