package internal

import (
	"errors"
	"log/slog"
	"net"
	"strconv"

	"github.com/alecthomas/chroma/v2/styles"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/tinywiki/internal/pathkey"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Wiki    WikiConfig        `yaml:"wiki"`
	Session SessionConfig     `yaml:"session"`
	Index   IndexConfig       `yaml:"index"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Wiki.Validate(); err != nil {
		return err
	}
	if err := c.Session.Validate(); err != nil {
		return err
	}
	return c.Index.Validate()
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
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return net.JoinHostPort(c.Bind, strconv.Itoa(c.Port))
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// WikiConfig holds the page tree location and presentation settings.
type WikiConfig struct {
	Root           string `yaml:"root"`
	HomePage       string `yaml:"home_page"`
	HighlightStyle string `yaml:"highlight_style"`
}

// Validate validates the wiki configuration.
func (c *WikiConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
		validation.Field(&c.HomePage, validation.Required, validation.By(validPageName)),
		validation.Field(&c.HighlightStyle, validation.By(knownStyle)),
	)
}

func validPageName(v any) error {
	s, _ := v.(string)
	if s != "" && !pathkey.Parse(s).Valid() {
		return errors.New("must contain at least one letter, digit, _ or -")
	}
	return nil
}

func knownStyle(v any) error {
	s, _ := v.(string)
	if s == "" {
		return nil
	}
	if _, ok := styles.Registry[s]; !ok {
		return errors.New("unknown highlight style")
	}
	return nil
}

// SessionConfig holds the flash message cookie settings.
//
// An empty Secret makes the server generate a random key at startup, which
// invalidates pending flash messages on restart.
type SessionConfig struct {
	Secret       string `yaml:"secret"`
	SecureCookie bool   `yaml:"secure_cookie"`
}

// Validate validates the session configuration.
func (c *SessionConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Secret, validation.When(c.Secret != "", validation.Length(32, 0))),
	)
}

// IndexConfig holds the SQLite link graph configuration.
type IndexConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Validate validates the index configuration.
func (c *IndexConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.When(c.Enabled, validation.Required)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Bind: "0.0.0.0",
				Port: 4567,
			},
		},
		Wiki: WikiConfig{
			Root:           "./wiki",
			HomePage:       "Home",
			HighlightStyle: "github",
		},
		Index: IndexConfig{
			Enabled: true,
			Path:    "./tinywiki.db",
		},
	}
}
