package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/eidsvag/animere/internal/theme"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Duration wraps time.Duration so YAML configs can use "30s" / "2m" strings.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Workshop  WorkshopConfig    `yaml:"workshop"`
	Sources   SourcesConfig     `yaml:"sources"`
	SQLite    SQLiteConfig      `yaml:"sqlite"`
	LLM       LLMConfig         `yaml:"llm"`
	Render    RenderConfig      `yaml:"render"`
	Animation AnimationConfig   `yaml:"animation"`
	Auth      AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Workshop.Validate(); err != nil {
		return err
	}
	if err := c.Sources.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.LLM.Validate(); err != nil {
		return err
	}
	if err := c.Render.Validate(); err != nil {
		return err
	}
	if err := c.Animation.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// WorkshopConfig holds the path to the workshop directory where composited
// artifacts are stored.
type WorkshopConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the workshop configuration.
func (c *WorkshopConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// SourcesConfig holds the watched diagram sources directory.
type SourcesConfig struct {
	Path     string   `yaml:"path"`
	Watch    bool     `yaml:"watch"`
	Debounce Duration `yaml:"debounce"`
}

// Validate validates the sources configuration.
func (c *SourcesConfig) Validate() error {
	if c.Watch && c.Path == "" {
		return fmt.Errorf("sources: watch is enabled but path is empty")
	}
	return nil
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// LLMConfig holds the language-model collaborator configuration. APIKey is
// normally injected via environment expansion (e.g. ${ANTHROPIC_API_KEY}).
type LLMConfig struct {
	APIKey    string   `yaml:"api_key"`
	Model     string   `yaml:"model"`
	Timeout   Duration `yaml:"timeout"`
	MaxTokens int      `yaml:"max_tokens"`
}

// Validate validates the collaborator configuration.
func (c *LLMConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Model, validation.Required),
		validation.Field(&c.MaxTokens, validation.Min(0)),
	)
}

// RenderConfig holds the external rendering tool configuration.
type RenderConfig struct {
	Command     string   `yaml:"command"`
	ScratchDir  string   `yaml:"scratch_dir"`
	Timeout     Duration `yaml:"timeout"`
	Concurrency int      `yaml:"concurrency"`
	Width       int      `yaml:"width"`
	Height      int      `yaml:"height"`
	Background  string   `yaml:"background"`
}

// Validate validates the render configuration.
func (c *RenderConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Command, validation.Required),
		validation.Field(&c.Concurrency, validation.Required, validation.Min(1), validation.Max(64)),
		validation.Field(&c.Width, validation.Required, validation.Min(16)),
		validation.Field(&c.Height, validation.Required, validation.Min(16)),
	)
}

// AnimationConfig holds the animation planning and compositing defaults.
type AnimationConfig struct {
	TotalDuration   Duration `yaml:"total_duration"`
	StaggerFraction float64  `yaml:"stagger_fraction"`
	MinFrames       int      `yaml:"min_frames"`
	MaxFrames       int      `yaml:"max_frames"`
	Theme           string   `yaml:"theme"`
	Loop            bool     `yaml:"loop"`
}

// Validate validates the animation configuration.
func (c *AnimationConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.StaggerFraction, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&c.MinFrames, validation.Required, validation.Min(2)),
		validation.Field(&c.MaxFrames, validation.Required, validation.Min(2)),
	); err != nil {
		return err
	}
	if c.MaxFrames < c.MinFrames {
		return fmt.Errorf("animation: max_frames (%d) below min_frames (%d)", c.MaxFrames, c.MinFrames)
	}
	if c.TotalDuration <= 0 {
		return fmt.Errorf("animation: total_duration must be positive")
	}
	if _, ok := theme.Lookup(c.Theme); !ok {
		return fmt.Errorf("animation: unknown theme %q", c.Theme)
	}
	return nil
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Workshop: WorkshopConfig{
			Path: "./workshop",
		},
		Sources: SourcesConfig{
			Path:     "./sources",
			Watch:    false,
			Debounce: Duration(300 * time.Millisecond),
		},
		SQLite: SQLiteConfig{
			Path: "./animere.db",
		},
		LLM: LLMConfig{
			Model:     "claude-sonnet-4-5",
			Timeout:   Duration(60 * time.Second),
			MaxTokens: 8192,
		},
		Render: RenderConfig{
			Command:     "mmdc",
			Timeout:     Duration(30 * time.Second),
			Concurrency: 4,
			Width:       800,
			Height:      600,
			Background:  "transparent",
		},
		Animation: AnimationConfig{
			TotalDuration:   Duration(6 * time.Second),
			StaggerFraction: 0.25,
			MinFrames:       2,
			MaxFrames:       10,
			Theme:           "cyberpunk",
			Loop:            false,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
