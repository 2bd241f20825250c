package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/procharity/pcadmin/internal/cli/config"
	"github.com/procharity/pcadmin/internal/cli/userconfig"
)

// TestInitCommand_NewConfig tests creating a brand new config file
func TestInitCommand_NewConfig(t *testing.T) {
	tempDir := t.TempDir()
	chdirForTest(t, tempDir)

	var output bytes.Buffer
	if err := runInit("https://admin.example.org/", WithOutput(&output)); err != nil {
		t.Fatalf("init command failed: %v", err)
	}

	configPath := filepath.Join(tempDir, config.ConfigFileName)
	cfg, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("failed to load created config: %v", err)
	}

	if len(cfg.Environments) != 1 {
		t.Fatalf("expected 1 environment, got %d", len(cfg.Environments))
	}
	if cfg.Environments[0].URL != "https://admin.example.org" {
		t.Errorf("expected trailing slash trimmed, got %q", cfg.Environments[0].URL)
	}
	if cfg.Environments[0].Alias != "production" {
		t.Errorf("expected alias 'production', got %q", cfg.Environments[0].Alias)
	}
	if !strings.Contains(output.String(), "Created ./"+config.ConfigFileName) {
		t.Errorf("unexpected output: %s", output.String())
	}
}

// TestInitCommand_AppendAndDuplicate tests adding a second environment and
// re-adding an existing one
func TestInitCommand_AppendAndDuplicate(t *testing.T) {
	tempDir := t.TempDir()
	chdirForTest(t, tempDir)

	for _, url := range []string{"https://admin.example.org", "http://localhost:8080", "https://admin.example.org"} {
		if err := runInit(url, WithOutput(&bytes.Buffer{})); err != nil {
			t.Fatalf("init %s failed: %v", url, err)
		}
	}

	cfg, err := config.Load(filepath.Join(tempDir, config.ConfigFileName))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if len(cfg.Environments) != 2 {
		t.Fatalf("expected 2 environments, got %d", len(cfg.Environments))
	}
	if cfg.Environments[1].Alias != "env-2" {
		t.Errorf("expected alias 'env-2', got %q", cfg.Environments[1].Alias)
	}
}

func TestInitCommand_InvalidURL(t *testing.T) {
	tempDir := t.TempDir()
	chdirForTest(t, tempDir)

	if err := runInit("ftp://example.org", WithOutput(&bytes.Buffer{})); err == nil {
		t.Fatal("expected invalid url error, got nil")
	}
	if _, err := os.Stat(filepath.Join(tempDir, config.ConfigFileName)); !os.IsNotExist(err) {
		t.Error("expected no config file to be written")
	}
}

func TestSelectEnvCommand(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	tempDir := t.TempDir()
	chdirForTest(t, tempDir)

	cfg := &config.Config{Environments: []config.Environment{
		{Alias: "production", URL: "https://admin.example.org"},
		{Alias: "staging", URL: "https://staging.example.org"},
	}}
	if err := config.Save(filepath.Join(tempDir, config.ConfigFileName), cfg); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	var output bytes.Buffer
	if err := runSelectEnv("staging", WithOutput(&output)); err != nil {
		t.Fatalf("select-env failed: %v", err)
	}

	selected, err := userconfig.GetSelectedEnvironment()
	if err != nil {
		t.Fatalf("failed to read selection: %v", err)
	}
	if selected != "https://staging.example.org" {
		t.Errorf("expected staging to be selected, got %q", selected)
	}
	if !strings.Contains(output.String(), "Selected environment: staging") {
		t.Errorf("unexpected output: %s", output.String())
	}

	if err := runSelectEnv("unknown", WithOutput(&bytes.Buffer{})); err == nil {
		t.Error("expected unknown environment to be rejected")
	}
}
