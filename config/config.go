// Package config provides configuration loading and management for
// oracletrack. The configuration is built once at startup and passed
// into every component; no component reads ambient environment state.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Output format selectors for reports.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config represents the complete oracletrack configuration
type Config struct {
	Repo     RepoConfig     `yaml:"repo"`
	Scan     ScanConfig     `yaml:"scan"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Report   ReportConfig   `yaml:"report"`
	Watch    WatchConfig    `yaml:"watch"`
}

// RepoConfig configures the monitored data source
type RepoConfig struct {
	// Path is the data root containing the protocol data files
	Path string `yaml:"path"`
	// WebURL is the browsable repository URL used for commit links
	WebURL string `yaml:"web_url"`
}

// ScanConfig configures dataset extraction
type ScanConfig struct {
	// Targets is the ordered list of data files to scan, resolved
	// against the data root. Doublestar glob patterns are allowed.
	// Later files win on id collisions.
	Targets []string `yaml:"targets"`
	// ReportCollisions surfaces cross-file id overrides
	ReportCollisions bool `yaml:"report_collisions"`
}

// SnapshotConfig configures snapshot persistence
type SnapshotConfig struct {
	// Path is the snapshot file location
	Path string `yaml:"path"`
}

// ReportConfig configures change-set rendering
type ReportConfig struct {
	// Format selects the output form: "text" or "json"
	Format string `yaml:"format"`
}

// WatchConfig configures the file watch trigger
type WatchConfig struct {
	// Debounce is how long to wait for more changes before re-scanning
	Debounce time.Duration `yaml:"debounce"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Repo: RepoConfig{
			Path: "", // Must be supplied by flag or file
		},
		Scan: ScanConfig{
			Targets: []string{"data.ts", "data1.ts", "data2.ts", "data3.ts", "data4.ts"},
		},
		Snapshot: SnapshotConfig{
			Path: "oracle_state.json",
		},
		Report: ReportConfig{
			Format: FormatText,
		},
		Watch: WatchConfig{
			Debounce: 2 * time.Second,
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Repo.Path == "" {
		return fmt.Errorf("repo.path is required")
	}
	if len(c.Scan.Targets) == 0 {
		return fmt.Errorf("scan.targets must list at least one file")
	}
	if c.Snapshot.Path == "" {
		return fmt.Errorf("snapshot.path is required")
	}
	if c.Report.Format != FormatText && c.Report.Format != FormatJSON {
		return fmt.Errorf("report.format must be %q or %q", FormatText, FormatJSON)
	}
	if c.Watch.Debounce <= 0 {
		return fmt.Errorf("watch.debounce must be positive")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence
// for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Repo
	if other.Repo.Path != "" {
		c.Repo.Path = other.Repo.Path
	}
	if other.Repo.WebURL != "" {
		c.Repo.WebURL = other.Repo.WebURL
	}

	// Scan
	if len(other.Scan.Targets) > 0 {
		c.Scan.Targets = other.Scan.Targets
	}
	if other.Scan.ReportCollisions {
		c.Scan.ReportCollisions = true
	}

	// Snapshot
	if other.Snapshot.Path != "" {
		c.Snapshot.Path = other.Snapshot.Path
	}

	// Report
	if other.Report.Format != "" {
		c.Report.Format = other.Report.Format
	}

	// Watch
	if other.Watch.Debounce != 0 {
		c.Watch.Debounce = other.Watch.Debounce
	}
}
