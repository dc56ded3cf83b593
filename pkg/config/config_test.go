package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Endpoint != DefaultEndpoint {
		t.Errorf("expected default endpoint, got %q", cfg.Endpoint)
	}
	if cfg.DefaultQuery != "redux" {
		t.Errorf("expected default query redux, got %q", cfg.DefaultQuery)
	}
	if cfg.HitsPerPage != 100 {
		t.Errorf("expected 100 hits per page, got %d", cfg.HitsPerPage)
	}
	if cfg.RequestTimeout.Duration != 0 {
		t.Errorf("expected no request timeout, got %s", cfg.RequestTimeout)
	}
	if cfg.Web.Addr() != "localhost:8080" {
		t.Errorf("unexpected web address %q", cfg.Web.Addr())
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
endpoint = "http://127.0.0.1:9999/search"
default_query = "golang"
hits_per_page = 20
request_timeout = "5s"
stale_responses = "latest"

[web]
port = 9090
session_ttl = "1h"
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Endpoint != "http://127.0.0.1:9999/search" {
		t.Errorf("endpoint = %q", cfg.Endpoint)
	}
	if cfg.DefaultQuery != "golang" || cfg.HitsPerPage != 20 {
		t.Errorf("unexpected query settings: %+v", cfg)
	}
	if cfg.RequestTimeout.Duration != 5*time.Second {
		t.Errorf("request_timeout = %s", cfg.RequestTimeout)
	}
	if cfg.StaleResponses != "latest" {
		t.Errorf("stale_responses = %q", cfg.StaleResponses)
	}
	if cfg.Web.Host != DefaultHost || cfg.Web.Port != 9090 {
		t.Errorf("web = %+v", cfg.Web)
	}
	if cfg.Web.SessionTTL.Duration != time.Hour {
		t.Errorf("session_ttl = %s", cfg.Web.SessionTTL)
	}
	if cfg.Web.MaxSessions != DefaultMaxSessions {
		t.Errorf("max_sessions = %d", cfg.Web.MaxSessions)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"bad toml", "endpoint = ", "unmarshaling config"},
		{"bad duration", `request_timeout = "soon"`, "unmarshaling config"},
		{"negative timeout", `request_timeout = "-1s"`, "request_timeout"},
		{"bad policy", `stale_responses = "newest"`, "stale_responses"},
		{"bad port", "[web]\nport = 70000", "web.port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tt.data), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := LoadConfig(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestSaveTemplateConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := GetDefaultConfig().SaveTemplateConfig(path); err != nil {
		t.Fatalf("SaveTemplateConfig: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("template does not load: %v", err)
	}
	if cfg.DefaultQuery != "redux" || cfg.Web.SessionTTL.Duration != 30*time.Minute {
		t.Errorf("template values differ from defaults: %+v", cfg)
	}
}

func TestGetDefaultConfigPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	path, err := GetDefaultConfigPath()
	if err != nil {
		t.Fatalf("GetDefaultConfigPath: %v", err)
	}
	if want := filepath.Join(dir, "hnsearch", "config.toml"); path != want {
		t.Errorf("path = %q, want %q", path, want)
	}
}
