package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/multierr"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	config, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.Http.Port != 8080 || config.Http.Timeout != 30*time.Second {
		t.Fatalf("unexpected http defaults: %+v", config.Http)
	}
	if config.Model.Source != SourceFile || config.Model.Path != "models/classifier.json" {
		t.Fatalf("unexpected model defaults: %+v", config.Model)
	}
	if config.Log.Level != "info" {
		t.Fatalf("unexpected log level %q", config.Log.Level)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
http:
  port: 9090
  timeout: 5s
log:
  level: debug
model:
  source: sqlite
  database: artifacts.db
  name: best
  cache_size: 16
`)
	config, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.Http.Port != 9090 || config.Http.Timeout != 5*time.Second {
		t.Fatalf("unexpected http config: %+v", config.Http)
	}
	if config.Model.Source != SourceSQLite || config.Model.Name != "best" || config.Model.CacheSize != 16 {
		t.Fatalf("unexpected model config: %+v", config.Model)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "7070")
	t.Setenv("MODEL_PATH", "/tmp/other.json")
	t.Setenv("LOG_LEVEL", "warn")

	config, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.Http.Port != 7070 || config.Model.Path != "/tmp/other.json" || config.Log.Level != "warn" {
		t.Fatalf("env overrides not applied: %+v", config)
	}

	t.Setenv("PORT", "http")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for invalid PORT")
	}
}

func TestValidateCollectsErrors(t *testing.T) {
	path := writeConfig(t, `
http:
  port: 70000
log:
  level: loud
model:
  source: s3
`)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if n := len(multierr.Errors(err)); n != 3 {
		t.Fatalf("expected 3 errors, got %d: %v", n, err)
	}
	if !strings.Contains(err.Error(), "model.source") {
		t.Fatalf("expected model.source error, got %v", err)
	}
}

func TestNegativeDisables(t *testing.T) {
	path := writeConfig(t, `
http:
  timeout: -1s
  rate_limit: -1
model:
  cache_size: -1
`)
	config, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.Http.Timeout >= 0 || config.Http.RateLimit >= 0 || config.Model.CacheSize >= 0 {
		t.Fatalf("negative settings were replaced by defaults: %+v %+v", config.Http, config.Model)
	}
}

func TestLoadMembers(t *testing.T) {
	path := writeConfig(t, `
ui:
  project: ADA442 Project
  members:
    - Ada
    - Grace
`)
	config, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.UI.Project != "ADA442 Project" || len(config.UI.Members) != 2 || config.UI.Members[1] != "Grace" {
		t.Fatalf("unexpected ui config: %+v", config.UI)
	}
}
