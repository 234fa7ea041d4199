// Package cli provides CLI-specific logic including configuration loading.
package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the .patchscan.yml configuration file.
type Config struct {
	Version string       `yaml:"version"`
	Source  SourceConfig `yaml:"source"`
	Output  OutputConfig `yaml:"output"`
}

// SourceConfig controls where patch bytes are fetched from when the scan
// command is given a PR reference instead of a local file or stdin.
type SourceConfig struct {
	GitHubAPIURL string `yaml:"github_api_url"`
	ForgejoURL   string `yaml:"forgejo_url"`
	TokenEnv     string `yaml:"token_env"`
}

// OutputConfig controls scan summary output settings.
type OutputConfig struct {
	Format  string `yaml:"format"`
	Verbose bool   `yaml:"verbose"`
}

// LoadConfig reads and parses a .patchscan.yml configuration file.
// If path is empty, it looks for .patchscan.yml in the current directory.
// If the default config file is not found, sensible defaults are returned.
// If an explicitly specified config file is not found, an error is returned.
func LoadConfig(path string) (*Config, error) {
	useDefault := path == ""
	if useDefault {
		path = ".patchscan.yml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && useDefault {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("cli: reading config %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cli: parsing config %s: %w", path, err)
	}

	applyDefaults(cfg)
	return cfg, nil
}

// DefaultConfig returns a Config with sensible defaults matching the
// documented .patchscan.yml schema.
func DefaultConfig() *Config {
	cfg := &Config{Version: "1"}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults fills in zero-value fields with sensible defaults.
func applyDefaults(cfg *Config) {
	if cfg.Source.GitHubAPIURL == "" {
		cfg.Source.GitHubAPIURL = "https://api.github.com"
	}
	if cfg.Source.TokenEnv == "" {
		cfg.Source.TokenEnv = "PATCHSCAN_TOKEN"
	}
	if cfg.Output.Format == "" {
		cfg.Output.Format = "terminal"
	}
}
