package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("N8N_WEBHOOK_URL", "https://n8n.example/webhook/chat")
	t.Setenv("BEARER_TOKEN", "secret")
	t.Setenv("DB_PATH", "./data/chat.db")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %q", cfg.Port)
	}
	if !cfg.HideEmpty {
		t.Error("expected HideEmpty to default to true")
	}
	if cfg.GatewayTimeout != 0 {
		t.Errorf("expected no gateway timeout by default, got %v", cfg.GatewayTimeout)
	}
}

func TestLoadMissingRequiredValues(t *testing.T) {
	tests := []struct {
		name  string
		unset string
	}{
		{"missing webhook url", "N8N_WEBHOOK_URL"},
		{"missing bearer token", "BEARER_TOKEN"},
		{"missing db path", "DB_PATH"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.unset, "")

			if _, err := Load(); err == nil {
				t.Fatalf("expected Load to fail without %s", tt.unset)
			}
		})
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "9090")
	t.Setenv("SIDEBAR_HIDE_EMPTY", "false")
	t.Setenv("GATEWAY_TIMEOUT", "45s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %q", cfg.Port)
	}
	if cfg.HideEmpty {
		t.Error("expected HideEmpty to be false")
	}
	if cfg.GatewayTimeout != 45*time.Second {
		t.Errorf("expected 45s gateway timeout, got %v", cfg.GatewayTimeout)
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"1", true},
		{"true", true},
		{"YES", true},
		{"on", true},
		{"0", false},
		{"false", false},
		{"off", false},
		{"garbage", true}, // falls back to the default
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("TEST_BOOL", tt.value)
			if got := getEnvBool("TEST_BOOL", true); got != tt.want {
				t.Errorf("getEnvBool(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}
