package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaultsForDevProfile(t *testing.T) {
	lookup := mapLookup(map[string]string{})
	cfg, err := Load("crossquery", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Profile != ProfileDev {
		t.Fatalf("Profile = %q, want %q", cfg.Profile, ProfileDev)
	}
	if cfg.Engine.MaxConcurrency != 8 {
		t.Fatalf("Engine.MaxConcurrency = %d", cfg.Engine.MaxConcurrency)
	}
	if cfg.Engine.DefaultTimeout != 30*time.Second {
		t.Fatalf("Engine.DefaultTimeout = %v", cfg.Engine.DefaultTimeout)
	}
	if cfg.Engine.SoftRowCap != 100000 {
		t.Fatalf("Engine.SoftRowCap = %d", cfg.Engine.SoftRowCap)
	}
	if cfg.Engine.Pool.MaxOpenConns != 10 {
		t.Fatalf("Engine.Pool.MaxOpenConns = %d", cfg.Engine.Pool.MaxOpenConns)
	}
	if cfg.ObjectStore.Endpoint != "localhost:9000" {
		t.Fatalf("ObjectStore.Endpoint = %q", cfg.ObjectStore.Endpoint)
	}
	if cfg.Observability.LogLevel != slog.LevelDebug {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
}

func TestLoadProdProfileDefaults(t *testing.T) {
	lookup := mapLookup(map[string]string{"CROSSQUERY_PROFILE": "prod"})
	cfg, err := Load("crossquery", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Profile != ProfileProd {
		t.Fatalf("Profile = %q, want %q", cfg.Profile, ProfileProd)
	}
	if cfg.Observability.LogLevel != slog.LevelInfo {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if !cfg.ObjectStore.UseSSL {
		t.Fatal("ObjectStore.UseSSL should default to true in prod")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	lookup := mapLookup(map[string]string{
		"CROSSQUERY_PROFILE":                "test",
		"CROSSQUERY_SERVICE_NAME":           "crossquery-ci",
		"CROSSQUERY_ENGINE_MAX_CONCURRENCY": "2",
		"CROSSQUERY_ENGINE_DEFAULT_TIMEOUT": "5s",
		"CROSSQUERY_ENGINE_SOFT_ROW_CAP":    "500",
		"CROSSQUERY_OBJECTSTORE_BUCKET":     "ci-tables",
		"CROSSQUERY_LOG_JSON":               "false",
		"CROSSQUERY_LOG_LEVEL":              "error",
	})
	cfg, err := Load("crossquery", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Service.Name != "crossquery-ci" {
		t.Fatalf("Service.Name = %q", cfg.Service.Name)
	}
	if cfg.Engine.MaxConcurrency != 2 {
		t.Fatalf("Engine.MaxConcurrency = %d", cfg.Engine.MaxConcurrency)
	}
	if cfg.Engine.DefaultTimeout != 5*time.Second {
		t.Fatalf("Engine.DefaultTimeout = %v", cfg.Engine.DefaultTimeout)
	}
	if cfg.Engine.SoftRowCap != 500 {
		t.Fatalf("Engine.SoftRowCap = %d", cfg.Engine.SoftRowCap)
	}
	if cfg.ObjectStore.Bucket != "ci-tables" {
		t.Fatalf("ObjectStore.Bucket = %q", cfg.ObjectStore.Bucket)
	}
	if cfg.Observability.LogJSON {
		t.Fatal("LogJSON override not applied")
	}
	if cfg.Observability.LogLevel != slog.LevelError {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"profile":     {"CROSSQUERY_PROFILE": "staging"},
		"concurrency": {"CROSSQUERY_ENGINE_MAX_CONCURRENCY": "zero"},
		"timeout":     {"CROSSQUERY_ENGINE_DEFAULT_TIMEOUT": "soon"},
		"log level":   {"CROSSQUERY_LOG_LEVEL": "verbose"},
		"bool":        {"CROSSQUERY_LOG_JSON": "maybe"},
	}
	for name, env := range cases {
		if _, err := Load("crossquery", mapLookup(env)); err == nil {
			t.Fatalf("Load() with invalid %s should fail", name)
		}
	}
}

func TestLoadRequiresPositiveConcurrency(t *testing.T) {
	lookup := mapLookup(map[string]string{"CROSSQUERY_ENGINE_MAX_CONCURRENCY": "0"})
	if _, err := Load("crossquery", lookup); err == nil {
		t.Fatal("Load() should reject zero concurrency")
	}
}

func mapLookup(env map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		value, ok := env[key]
		return value, ok
	}
}
