package internal

import (
	"fmt"
	"log/slog"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var extRe = regexp.MustCompile(`^\.[a-z0-9]+$`)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App        ApplicationConfig `yaml:"app"`
	Archive    ArchiveConfig     `yaml:"archive"`
	Classifier ClassifierConfig  `yaml:"classifier"`
	Search     SearchConfig      `yaml:"search"`
	Auth       AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Archive.Validate(); err != nil {
		return err
	}
	if err := c.Classifier.Validate(); err != nil {
		return err
	}
	if err := c.Search.Validate(); err != nil {
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

// ArchiveConfig describes the exported essay archive on disk.
type ArchiveConfig struct {
	Path      string `yaml:"path"`
	MarkupExt string `yaml:"markup_ext"`
	ImageDir  string `yaml:"image_dir"`
	Watch     bool   `yaml:"watch"`
}

// Validate validates the archive configuration.
func (c *ArchiveConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.MarkupExt, validation.Required, validation.Match(extRe)),
		validation.Field(&c.ImageDir, validation.Required),
	)
}

// ClassifierConfig holds the completeness-classification inputs.
//
// Finished is the operator's authoritative override set of canonical ids;
// CommentWordLimit separates short comment-like artifacts from drafts.
type ClassifierConfig struct {
	Finished         []string `yaml:"finished"`
	CommentWordLimit int      `yaml:"comment_word_limit"`
}

// Validate validates the classifier configuration.
func (c *ClassifierConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.CommentWordLimit, validation.Min(1)),
	)
}

// SearchConfig holds the tunable constants of the index and similarity
// engine. Zero values select the documented defaults.
type SearchConfig struct {
	CommonalityCeiling float64 `yaml:"commonality_ceiling"`
	SimilarityFloor    float64 `yaml:"similarity_floor"`
	SyntheticTopics    int     `yaml:"synthetic_topics"`
}

// Validate validates the search configuration.
func (c *SearchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.CommonalityCeiling, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&c.SimilarityFloor, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&c.SyntheticTopics, validation.Min(0)),
	)
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
		Archive: ArchiveConfig{
			Path:      "./archive",
			MarkupExt: ".html",
			ImageDir:  "img",
			Watch:     true,
		},
		Classifier: ClassifierConfig{
			CommentWordLimit: 200,
		},
		Search: SearchConfig{
			CommonalityCeiling: 0.6,
			SimilarityFloor:    0.1,
			SyntheticTopics:    5,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
