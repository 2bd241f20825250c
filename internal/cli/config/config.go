package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const ConfigFileName = "pcadmin.yaml"

// Environment represents one deployment of the admin API
type Environment struct {
	Alias string `yaml:"alias" json:"alias"`
	URL   string `yaml:"url" json:"url"`
}

// Validate checks that the environment points at an absolute http(s) URL
func (e Environment) Validate() error {
	if e.URL == "" {
		return fmt.Errorf("environment %q has no url. Please edit %s and add the API address", e.Alias, ConfigFileName)
	}
	u, err := url.Parse(e.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("environment %q has an invalid url %q (expected http(s)://host[:port])", e.Alias, e.URL)
	}
	return nil
}

// Config represents the CLI configuration file
type Config struct {
	Environments []Environment `yaml:"environments"`
}

// FindConfigFile searches for pcadmin.yaml in current directory and parent directories
func FindConfigFile() (string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	// Search upwards until we find pcadmin.yaml or reach root
	dir := currentDir
	for {
		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("%s not found in %s or any parent directory", ConfigFileName, currentDir)
}

// Load reads the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// LoadFromCurrentDir loads config from current directory or parent directories
func LoadFromCurrentDir() (*Config, error) {
	configPath, err := FindConfigFile()
	if err != nil {
		return nil, err
	}

	return Load(configPath)
}

// Save writes the configuration to a file
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetEnvironmentByAlias returns an environment by its alias
func (c *Config) GetEnvironmentByAlias(alias string) (*Environment, error) {
	for i := range c.Environments {
		if c.Environments[i].Alias == alias {
			return &c.Environments[i], nil
		}
	}
	return nil, fmt.Errorf("environment with alias '%s' not found", alias)
}

// GetEnvironmentByURLOrAlias finds an environment by API URL or alias
func (c *Config) GetEnvironmentByURLOrAlias(urlOrAlias string) (*Environment, error) {
	normalized := strings.TrimRight(urlOrAlias, "/")
	for i := range c.Environments {
		if strings.TrimRight(c.Environments[i].URL, "/") == normalized {
			return &c.Environments[i], nil
		}
	}
	return c.GetEnvironmentByAlias(urlOrAlias)
}

// AddEnvironment appends an environment unless its URL is already present.
// It returns false when nothing was added.
func (c *Config) AddEnvironment(apiURL string) (*Environment, bool) {
	apiURL = strings.TrimRight(apiURL, "/")
	for i := range c.Environments {
		if strings.TrimRight(c.Environments[i].URL, "/") == apiURL {
			return &c.Environments[i], false
		}
	}

	alias := "production"
	if len(c.Environments) > 0 {
		alias = fmt.Sprintf("env-%d", len(c.Environments)+1)
	}
	c.Environments = append(c.Environments, Environment{Alias: alias, URL: apiURL})
	return &c.Environments[len(c.Environments)-1], true
}
