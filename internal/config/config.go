// Package config provides configuration management for sitecsp using Viper
// for loading from files, environment variables, and command-line flags.
//
// The configuration system supports a YAML file (.sitecsp.yml), environment
// variable overrides with the SITECSP_ prefix, and validation. It covers
// policy generation settings, the site build pipeline, and the watcher.
package config

import (
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/conneroisu/sitecsp/internal/csp"
	"github.com/conneroisu/sitecsp/internal/errors"
)

const (
	// DefaultFileName is looked up in the working directory when no config
	// file is given.
	DefaultFileName = ".sitecsp.yml"
	// EnvPrefix prefixes every environment override, e.g. SITECSP_CSP_INDENTATION.
	EnvPrefix = "SITECSP"

	MaxWorkers = 256
)

type Config struct {
	CSP   CSPConfig   `mapstructure:"csp" yaml:"csp"`
	Build BuildConfig `mapstructure:"build" yaml:"build"`
	Watch WatchConfig `mapstructure:"watch" yaml:"watch"`
}

// CSPConfig mirrors csp.Config in file form.
type CSPConfig struct {
	Indentation int      `mapstructure:"indentation" yaml:"indentation"`
	Newlines    bool     `mapstructure:"newlines" yaml:"newlines"`
	Debug       bool     `mapstructure:"debug" yaml:"debug"`
	InjectSelf  []string `mapstructure:"inject_self" yaml:"inject_self"`
}

type BuildConfig struct {
	SiteDir       string   `mapstructure:"site_dir" yaml:"site_dir"`
	Extensions    []string `mapstructure:"extensions" yaml:"extensions"`
	Exclude       []string `mapstructure:"exclude" yaml:"exclude"`
	Workers       int      `mapstructure:"workers" yaml:"workers"`
	MetricsFile   string   `mapstructure:"metrics_file" yaml:"metrics_file"`
	WriteAttempts uint     `mapstructure:"write_attempts" yaml:"write_attempts"`
}

type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		CSP: CSPConfig{
			Indentation: 2,
			Newlines:    true,
			InjectSelf:  csp.BuiltinDirectives(),
		},
		Build: BuildConfig{
			SiteDir:       "_site",
			Extensions:    []string{".html"},
			Exclude:       []string{},
			Workers:       runtime.NumCPU(),
			WriteAttempts: 3,
		},
		Watch: WatchConfig{
			Debounce: 300 * time.Millisecond,
		},
	}
}

// SetDefaults registers every default with v so that environment variables
// are picked up by Unmarshal for keys that appear nowhere else.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("csp.indentation", d.CSP.Indentation)
	v.SetDefault("csp.newlines", d.CSP.Newlines)
	v.SetDefault("csp.debug", d.CSP.Debug)
	v.SetDefault("csp.inject_self", d.CSP.InjectSelf)
	v.SetDefault("build.site_dir", d.Build.SiteDir)
	v.SetDefault("build.extensions", d.Build.Extensions)
	v.SetDefault("build.exclude", d.Build.Exclude)
	v.SetDefault("build.workers", d.Build.Workers)
	v.SetDefault("build.metrics_file", d.Build.MetricsFile)
	v.SetDefault("build.write_attempts", d.Build.WriteAttempts)
	v.SetDefault("watch.debounce", d.Watch.Debounce)
}

// ConfigureViper sets up environment overrides and defaults on v.
func ConfigureViper(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
}

// Load reads the configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom unmarshals v, fills in defaults for unset keys and validates the
// result.
func LoadFrom(v *viper.Viper) (*Config, error) {
	config := Default()
	if err := v.Unmarshal(config); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, errors.ErrCodeConfigInvalid,
			"failed to decode configuration")
	}

	// Slices given as a single comma separated env value arrive as one element.
	if v.IsSet("csp.inject_self") {
		config.CSP.InjectSelf = splitList(v.GetStringSlice("csp.inject_self"))
	}
	if v.IsSet("build.extensions") {
		config.Build.Extensions = splitList(v.GetStringSlice("build.extensions"))
	}
	if v.IsSet("build.exclude") {
		config.Build.Exclude = splitList(v.GetStringSlice("build.exclude"))
	}

	if config.Build.SiteDir == "" {
		config.Build.SiteDir = "_site"
	}
	for i, ext := range config.Build.Extensions {
		config.Build.Extensions[i] = normalizeExtension(ext)
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

// GeneratorConfig returns the policy generator configuration.
func (c CSPConfig) GeneratorConfig() csp.Config {
	return csp.Config{
		Indentation:    c.Indentation,
		EnableNewlines: c.Newlines,
		Debug:          c.Debug,
		InjectSelf:     append([]string(nil), c.InjectSelf...),
	}.Resolved()
}

// IsHTML reports whether path has one of the configured HTML extensions.
func (b BuildConfig) IsHTML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, want := range b.Extensions {
		if ext == want {
			return true
		}
	}
	return false
}

// IsExcluded reports whether rel, a slash separated path relative to the
// site directory, matches an exclude pattern. Patterns are matched against
// both the full relative path and the base name.
func (b BuildConfig) IsExcluded(rel string) bool {
	rel = filepath.ToSlash(rel)
	base := filepath.Base(rel)
	for _, pattern := range b.Exclude {
		if ok, _ := filepath.Match(pattern, rel); ok {
			return true
		}
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
		if strings.HasSuffix(pattern, "/") && strings.HasPrefix(rel, pattern) {
			return true
		}
	}
	return false
}

func splitList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func normalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
