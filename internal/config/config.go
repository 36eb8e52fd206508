package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"taskprompt/internal/logging"
	"taskprompt/pkg/fileops"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const APP_NAME = "taskprompt" // application name used for config and data directories

// ConfigPathEnv overrides the config file location.
const ConfigPathEnv = "TASKPROMPT_CONFIG_PATH"

const (
	DefaultMaxTemplateSize int64 = 1 << 20
	maxTemplateSizeCeiling int64 = 16 << 20
)

// PromptOverride is configured text applied to one template before
// rendering. Mode is "replace" or "append" (the default).
type PromptOverride struct {
	Mode string `yaml:"mode,omitempty"`
	Text string `yaml:"text"`
}

// Config holds user configuration for taskprompt.
type Config struct {
	// TemplatesDir is the allowed root for prompt templates. A relative
	// value in a config file is resolved against that file's directory.
	TemplatesDir string `yaml:"templates_dir"`

	// DataDir is the allowed root for data-store files such as tasks.json.
	// Relative values resolve like TemplatesDir.
	DataDir string `yaml:"data_dir"`

	// TemplateExtensions limits which files may be loaded as templates.
	// Empty allows any extension.
	TemplateExtensions []string `yaml:"template_extensions,omitempty"`

	// Preload lists templates warmed at startup. Nil uses the built-in list.
	Preload []string `yaml:"preload,omitempty"`

	MaxTemplateSize int64 `yaml:"max_template_size,omitempty"`

	// Watch clears the template cache when files under TemplatesDir change.
	// Development only.
	Watch bool `yaml:"watch,omitempty"`

	// PromptOverrides is keyed by logical template path.
	PromptOverrides map[string]PromptOverride `yaml:"prompt_overrides,omitempty"`
}

// ConfigPath returns the config file location for the current platform
func ConfigPath() string {
	if p := os.Getenv(ConfigPathEnv); p != "" {
		return fileops.ExpandPath(p)
	}
	configPath := filepath.Join(xdg.ConfigHome, APP_NAME, "config.yaml")

	logging.Debug("Determined config path", "path", configPath)
	return configPath
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	base := filepath.Join(xdg.DataHome, APP_NAME)
	logging.Debug("Using default data directory", "path", base)

	return Config{
		TemplatesDir:       filepath.Join(base, "templates"),
		DataDir:            filepath.Join(base, "data"),
		TemplateExtensions: []string{".md"},
		MaxTemplateSize:    DefaultMaxTemplateSize,
	}
}

// Load loads the config from the standard location. A missing file yields
// DefaultConfig.
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom loads config from a specific path. Fields absent from the file
// keep their default values. A missing file yields DefaultConfig.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		logging.Info("No config file, using defaults", "path", path)
		return &cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	logging.Info("Reading config file", "path", path)
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	baseDir := filepath.Dir(path)
	cfg.TemplatesDir = resolveDir(baseDir, cfg.TemplatesDir)
	cfg.DataDir = resolveDir(baseDir, cfg.DataDir)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return &cfg, nil
}

// resolveDir expands ~ and anchors relative paths at baseDir. Blank values
// are left for Validate to reject.
func resolveDir(baseDir, dir string) string {
	dir = fileops.ExpandPath(dir)
	if strings.TrimSpace(dir) == "" || filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(baseDir, dir)
}

// Save writes the config to the standard location
func (c *Config) Save() error {
	return c.SaveTo(ConfigPath())
}

// SaveTo writes the config to a specific path with owner-only permissions.
func (c *Config) SaveTo(path string) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid config: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := fileops.AtomicWriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	logging.Info("Configuration saved", "path", path)
	return nil
}

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.TemplatesDir) == "" {
		return fmt.Errorf("templates_dir cannot be empty")
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("data_dir cannot be empty")
	}
	if c.MaxTemplateSize < 0 || c.MaxTemplateSize > maxTemplateSizeCeiling {
		return fmt.Errorf("max_template_size must be between 0 and %d bytes", maxTemplateSizeCeiling)
	}

	for _, ext := range c.TemplateExtensions {
		ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
		if ext == "" || strings.ContainsAny(ext, `/\.`) {
			return fmt.Errorf("invalid template extension %q", ext)
		}
	}

	for _, p := range c.Preload {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("preload entries cannot be empty")
		}
	}

	for path, o := range c.PromptOverrides {
		switch strings.ToLower(strings.TrimSpace(o.Mode)) {
		case "", "append", "replace":
		default:
			return fmt.Errorf("prompt override %s: unknown mode %q", path, o.Mode)
		}
	}

	return nil
}
