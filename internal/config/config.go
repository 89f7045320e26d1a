// Package config loads labelsheet application settings and layout files.
package config

import (
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/porticus-lab/labelsheet"
)

// EnvPrefix prefixes environment variables overriding settings, e.g.
// LABELSHEET_BROWSER_NOSANDBOX=true.
const EnvPrefix = "LABELSHEET"

// Config holds the application settings shared by every command.
type Config struct {
	Layout     string
	LayoutFile string
	Output     string
	Rasterizer string
	Scale      float64
	Input      InputConfig
	Browser    BrowserConfig
	Logging    LoggingConfig
}

// InputConfig controls how label files are read.
type InputConfig struct {
	Delimiter string
	Encoding  string
}

// BrowserConfig configures the headless browser rasterizer.
type BrowserConfig struct {
	ChromePath   string
	NoSandbox    bool
	AutoDownload bool
	Timeout      time.Duration
}

// LoggingConfig selects the log level and the text or json formatter.
type LoggingConfig struct {
	Level  string
	Format string
}

// Rasterizer names.
const (
	RasterizerBrowser = "browser"
	RasterizerNative  = "native"
)

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("layout", labelsheet.DefaultLayoutName)
	v.SetDefault("layoutFile", "")
	v.SetDefault("output", labelsheet.DefaultFilename)
	v.SetDefault("rasterizer", RasterizerBrowser)
	v.SetDefault("scale", labelsheet.DefaultScale)
	v.SetDefault("input.delimiter", "")
	v.SetDefault("input.encoding", "")
	v.SetDefault("browser.chromePath", "")
	v.SetDefault("browser.noSandbox", false)
	v.SetDefault("browser.autoDownload", false)
	v.SetDefault("browser.timeout", 30*time.Second)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Load reads settings into a Config. Values come, in increasing priority,
// from defaults, the YAML file at path (if path is not empty), LABELSHEET_*
// environment variables and flags bound to v.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "reading config %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decoding config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that cannot be checked by their consumers.
func (c *Config) Validate() error {
	switch c.Rasterizer {
	case RasterizerBrowser, RasterizerNative:
	default:
		return errors.Errorf("unknown rasterizer %q (want %s or %s)", c.Rasterizer, RasterizerBrowser, RasterizerNative)
	}
	if c.Scale <= 0 {
		return errors.Errorf("scale %g must be positive", c.Scale)
	}
	if _, err := c.Input.Rune(); err != nil {
		return err
	}
	return nil
}

// Rune returns the configured delimiter, or zero for auto detection.
// "tab" and "\t" both name the tab character.
func (c InputConfig) Rune() (rune, error) {
	switch c.Delimiter {
	case "":
		return 0, nil
	case "tab", `\t`:
		return '\t', nil
	}
	if utf8.RuneCountInString(c.Delimiter) != 1 {
		return 0, errors.Errorf("delimiter %q must be a single character", c.Delimiter)
	}
	r, _ := utf8.DecodeRuneInString(c.Delimiter)
	return r, nil
}

// ReadOptions converts the input settings for labelsheet.ReadLabels.
func (c InputConfig) ReadOptions() (*labelsheet.ReadOptions, error) {
	delim, err := c.Rune()
	if err != nil {
		return nil, err
	}
	return &labelsheet.ReadOptions{Delimiter: delim, Encoding: c.Encoding}, nil
}

// ResolveLayout returns the layout named by the config, or the layout file
// when one is set.
func (c *Config) ResolveLayout() (labelsheet.Layout, error) {
	if c.LayoutFile != "" {
		return LoadLayoutFile(c.LayoutFile)
	}
	return labelsheet.LookupLayout(c.Layout)
}

// LoadLayoutFile reads a YAML layout. Fields missing from the file keep
// the values of the preset named by its "base" key, or of the default
// layout.
func LoadLayoutFile(path string) (labelsheet.Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return labelsheet.Layout{}, errors.Wrap(err, "failed to read layout file")
	}
	return ParseLayout(data)
}

// ParseLayout decodes a YAML layout document.
func ParseLayout(data []byte) (labelsheet.Layout, error) {
	var head struct {
		Base string `yaml:"base"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return labelsheet.Layout{}, errors.Wrap(err, "failed to parse layout file")
	}

	layout := labelsheet.DefaultLayout()
	if head.Base != "" {
		base, err := labelsheet.LookupLayout(head.Base)
		if err != nil {
			return labelsheet.Layout{}, err
		}
		layout = base
	}
	if err := yaml.Unmarshal(data, &layout); err != nil {
		return labelsheet.Layout{}, errors.Wrap(err, "failed to parse layout file")
	}
	if err := layout.Validate(); err != nil {
		return labelsheet.Layout{}, errors.Wrap(err, "invalid layout")
	}
	return layout, nil
}

// MarshalLayouts renders layouts as a YAML document keyed by name.
func MarshalLayouts(layouts []labelsheet.Layout) ([]byte, error) {
	byName := make(map[string]labelsheet.Layout, len(layouts))
	for _, l := range layouts {
		byName[l.Name] = l
	}
	out, err := yaml.Marshal(byName)
	if err != nil {
		return nil, errors.Wrap(err, "encoding layouts")
	}
	return out, nil
}
