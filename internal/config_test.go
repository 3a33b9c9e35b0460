package internal

import (
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestDefaultConfigValidates(t *testing.T) {
	if err := NewDefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestDuration_UnmarshalYAML(t *testing.T) {
	var cfg struct {
		Timeout Duration `yaml:"timeout"`
	}
	if err := yaml.Unmarshal([]byte("timeout: 90s"), &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Timeout.Std() != 90*time.Second {
		t.Errorf("timeout = %v, want 90s", cfg.Timeout.Std())
	}

	if err := yaml.Unmarshal([]byte("timeout: ninety"), &cfg); err == nil {
		t.Error("invalid duration should fail")
	}
}

func TestAnimationConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AnimationConfig)
	}{
		{"max below min", func(c *AnimationConfig) { c.MinFrames = 8; c.MaxFrames = 4 }},
		{"zero duration", func(c *AnimationConfig) { c.TotalDuration = 0 }},
		{"unknown theme", func(c *AnimationConfig) { c.Theme = "vaporwave" }},
		{"stagger above one", func(c *AnimationConfig) { c.StaggerFraction = 1.5 }},
		{"min frames below two", func(c *AnimationConfig) { c.MinFrames = 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig().Animation
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSourcesConfig_WatchNeedsPath(t *testing.T) {
	cfg := SourcesConfig{Watch: true, Path: ""}
	if err := cfg.Validate(); err == nil {
		t.Error("watch without path should fail")
	}
	cfg.Watch = false
	if err := cfg.Validate(); err != nil {
		t.Errorf("watch disabled should pass: %v", err)
	}
}

func TestRenderConfig_Validate(t *testing.T) {
	cfg := NewDefaultConfig().Render
	cfg.Concurrency = 0
	if err := cfg.Validate(); err == nil {
		t.Error("zero concurrency should fail")
	}

	cfg = NewDefaultConfig().Render
	cfg.Command = ""
	if err := cfg.Validate(); err == nil {
		t.Error("empty command should fail")
	}
}

func TestFullConfig_SectionValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("full config validate should catch auth error")
	}

	cfg = NewDefaultConfig()
	cfg.Animation.Theme = "vaporwave"
	if err := cfg.Validate(); err == nil {
		t.Fatal("full config validate should catch animation error")
	}
}
