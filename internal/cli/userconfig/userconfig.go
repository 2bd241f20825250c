// Package userconfig holds per-user console state that does not belong in
// a project's pcadmin.yaml: the selected environment and the last email
// used to sign in to each environment.
package userconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	configDirName  = "pcadmin"
	configFileName = "state.yaml"
)

// UserConfig is stored in ~/.config/pcadmin/state.yaml
type UserConfig struct {
	SelectedEnvironment string            `yaml:"selected_environment,omitempty"`
	LastEmails          map[string]string `yaml:"last_emails,omitempty"`
}

// Path returns the location of the user config file
func Path() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", configDirName, configFileName), nil
}

// Load reads the user config. A missing file is an empty config.
func Load() (*UserConfig, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	cfg := &UserConfig{}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg, creating the config directory when needed
func Save(cfg *UserConfig) error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode user config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func update(fn func(*UserConfig)) error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	fn(cfg)
	return Save(cfg)
}

// SetSelectedEnvironment records the environment URL used by default.
// An empty URL clears the selection.
func SetSelectedEnvironment(apiURL string) error {
	return update(func(cfg *UserConfig) {
		cfg.SelectedEnvironment = apiURL
	})
}

// GetSelectedEnvironment returns the selected environment URL, or "" if none
func GetSelectedEnvironment() (string, error) {
	cfg, err := Load()
	if err != nil {
		return "", err
	}
	return cfg.SelectedEnvironment, nil
}

// RememberEmail stores the email last used to sign in to apiURL
func RememberEmail(apiURL, email string) error {
	return update(func(cfg *UserConfig) {
		if cfg.LastEmails == nil {
			cfg.LastEmails = make(map[string]string)
		}
		cfg.LastEmails[apiURL] = email
	})
}

// LastEmail returns the email last used to sign in to apiURL
func LastEmail(apiURL string) (string, error) {
	cfg, err := Load()
	if err != nil {
		return "", err
	}
	return cfg.LastEmails[apiURL], nil
}
