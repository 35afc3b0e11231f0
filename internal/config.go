package internal

import (
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/daybook/internal/layout"
	"github.com/starford/daybook/internal/pathmatch"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Journal JournalConfig     `yaml:"journal"`
	Catalog CatalogConfig     `yaml:"catalog"`
	Auth    AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Journal.Validate(); err != nil {
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

// JournalConfig describes where entries live and how files are classified.
//
// Base is shorthand for a single default scope and is ignored when Scopes is
// set. Patterns are tried in order; the first matching rule wins.
type JournalConfig struct {
	Base      string           `yaml:"base"`
	Ext       string           `yaml:"ext"`
	Scopes    []layout.Scope   `yaml:"scopes"`
	Templates layout.Templates `yaml:"templates"`
	Patterns  []pathmatch.Rule `yaml:"patterns"`
}

// Validate validates the journal configuration.
func (c *JournalConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Base, validation.When(len(c.Scopes) == 0, validation.Required.Error("base or scopes is required"))),
		validation.Field(&c.Ext, validation.Required),
	); err != nil {
		return err
	}
	t := &c.Templates
	if err := validation.ValidateStruct(t,
		validation.Field(&t.Entry, validation.Required),
		validation.Field(&t.Notes, validation.Required),
		validation.Field(&t.Note, validation.Required),
		validation.Field(&t.Header, validation.Required),
		validation.Field(&t.NoteHeader, validation.Required),
	); err != nil {
		return fmt.Errorf("journal: templates: %w", err)
	}
	for i, s := range c.Scopes {
		if err := validation.ValidateStruct(&s,
			validation.Field(&s.Name, validation.Required),
			validation.Field(&s.Base, validation.Required),
		); err != nil {
			return fmt.Errorf("journal: scopes[%d]: %w", i, err)
		}
	}
	for i, p := range c.Patterns {
		if !p.Type.Valid() {
			return fmt.Errorf("journal: patterns[%d]: unknown type %q", i, p.Type)
		}
	}
	return nil
}

// ScopeList returns the configured scopes, falling back to Base as the default scope.
func (c *JournalConfig) ScopeList() []layout.Scope {
	if len(c.Scopes) > 0 {
		return c.Scopes
	}
	return []layout.Scope{{Name: layout.DefaultScope, Base: c.Base}}
}

// Rules returns the classification rules, or the built-in ones when none are configured.
func (c *JournalConfig) Rules() []pathmatch.Rule {
	if len(c.Patterns) > 0 {
		return c.Patterns
	}
	return pathmatch.DefaultRules()
}

// CatalogConfig holds the SQLite catalog configuration. An empty path disables it.
type CatalogConfig struct {
	Path string `yaml:"path"`
}

// Enabled reports whether a catalog should be opened.
func (c *CatalogConfig) Enabled() bool {
	return c.Path != ""
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty and must
//     not contain an unexpanded ${VAR} reference.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
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
	if c.Mode == AuthModeToken && strings.Contains(c.Token, "${") {
		return fmt.Errorf("auth: token %q references an unset environment variable", c.Token)
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
		Journal: JournalConfig{
			Base:      "~/journal",
			Ext:       "md",
			Templates: layout.DefaultTemplates(),
		},
		Catalog: CatalogConfig{
			Path: "./daybook.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
