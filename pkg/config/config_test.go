package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sampleConfig struct {
	Name string `yaml:"name"`
	Port int    `yaml:"port"`
}

type validatedConfig struct {
	Port int `yaml:"port"`
}

func (c *validatedConfig) Validate() error {
	if c.Port <= 0 {
		return fmt.Errorf("port must be positive")
	}
	return nil
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ParsesYAML(t *testing.T) {
	path := writeConfig(t, "name: demo\nport: 9000\n")

	var cfg sampleConfig
	if err := Load(path, &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "demo" || cfg.Port != 9000 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	t.Setenv("CONFIG_TEST_NAME", "from-env")
	path := writeConfig(t, "name: ${CONFIG_TEST_NAME}\nport: 1\n")

	var cfg sampleConfig
	if err := Load(path, &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "from-env" {
		t.Errorf("name = %q, want from-env", cfg.Name)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	var cfg sampleConfig
	if err := Load(filepath.Join(t.TempDir(), "absent.yaml"), &cfg); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_RunsValidation(t *testing.T) {
	path := writeConfig(t, "port: 0\n")

	var cfg validatedConfig
	err := Load(path, &cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "config validation failed") {
		t.Errorf("error = %v", err)
	}
}

func TestLoadIfExists_MissingFileKeepsDefaults(t *testing.T) {
	cfg := sampleConfig{Name: "default", Port: 8080}
	if err := LoadIfExists(filepath.Join(t.TempDir(), "absent.yaml"), &cfg); err != nil {
		t.Fatalf("LoadIfExists: %v", err)
	}
	if cfg.Name != "default" || cfg.Port != 8080 {
		t.Errorf("defaults clobbered: %+v", cfg)
	}
}

func TestLoadIfExists_MissingFileStillValidates(t *testing.T) {
	cfg := validatedConfig{Port: 0}
	if err := LoadIfExists(filepath.Join(t.TempDir(), "absent.yaml"), &cfg); err == nil {
		t.Fatal("invalid defaults should fail even without a file")
	}
}

func TestLoadIfExists_PresentFileLoads(t *testing.T) {
	path := writeConfig(t, "name: loaded\nport: 7000\n")

	cfg := sampleConfig{Name: "default", Port: 8080}
	if err := LoadIfExists(path, &cfg); err != nil {
		t.Fatalf("LoadIfExists: %v", err)
	}
	if cfg.Name != "loaded" || cfg.Port != 7000 {
		t.Errorf("cfg = %+v", cfg)
	}
}
