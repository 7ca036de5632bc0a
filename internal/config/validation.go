package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/conneroisu/sitecsp/internal/csp"
	"github.com/conneroisu/sitecsp/internal/errors"
)

// ValidationResult holds the result of configuration validation
type ValidationResult struct {
	Errors   errors.ValidationErrorCollection
	Warnings errors.ValidationErrorCollection
}

// Valid reports whether no validation errors were found. Warnings do not
// make a configuration invalid.
func (vr *ValidationResult) Valid() bool {
	return !vr.Errors.HasErrors()
}

// String returns a formatted string of all validation issues
func (vr *ValidationResult) String() string {
	var builder strings.Builder

	write := func(title string, issues []errors.ValidationError) {
		if len(issues) == 0 {
			return
		}
		builder.WriteString(title + ":\n")
		for _, issue := range issues {
			builder.WriteString(fmt.Sprintf("  - %s: %v\n", issue.Field(), issue.Value()))
			builder.WriteString(fmt.Sprintf("    %s\n", issue.Error()))
			for _, suggestion := range issue.Suggestions() {
				builder.WriteString(fmt.Sprintf("    hint: %s\n", suggestion))
			}
		}
	}

	write("Validation errors", vr.Errors.Errors)
	write("Validation warnings", vr.Warnings.Errors)

	return builder.String()
}

// ValidateConfigWithDetails validates config and reports every problem found
func ValidateConfigWithDetails(config *Config) *ValidationResult {
	result := &ValidationResult{}

	validateCSPConfig(&config.CSP, result)
	validateBuildConfig(&config.Build, result)
	validateWatchConfig(&config.Watch, result)

	return result
}

// validateConfig returns the validation errors of config as a single error
func validateConfig(config *Config) error {
	result := ValidateConfigWithDetails(config)
	if result.Valid() {
		return nil
	}
	appErr := result.Errors.ToAppError()
	appErr.Type = errors.ErrorTypeConfig
	appErr.Message = "invalid configuration: " + appErr.Message
	return appErr
}

func validateCSPConfig(config *CSPConfig, result *ValidationResult) {
	if config.Indentation < 0 {
		result.Errors.AddField("csp.indentation", config.Indentation,
			"indentation must not be negative",
			"Use 0 for no indentation or 2 for the default layout")
	}
	if !config.Newlines && config.Indentation > 0 {
		result.Warnings.AddField("csp.indentation", config.Indentation,
			"indentation is ignored when newlines are disabled",
			"Set csp.newlines to true to keep the indentation")
	}

	builtin := csp.BuiltinDirectives()
	for _, name := range config.InjectSelf {
		if strings.ContainsAny(name, " \t\n;") {
			result.Errors.AddField("csp.inject_self", name,
				fmt.Sprintf("directive name %q contains whitespace or ';'", name))
			continue
		}
		if !contains(builtin, name) {
			result.Warnings.AddField("csp.inject_self", name,
				fmt.Sprintf("'self' is only added to %q when a page already declares it", name),
				"Built-in directives: "+strings.Join(builtin, ", "))
		}
	}
}

func validateBuildConfig(config *BuildConfig, result *ValidationResult) {
	if strings.TrimSpace(config.SiteDir) == "" {
		result.Errors.AddField("build.site_dir", config.SiteDir, "site directory cannot be empty",
			"Use '_site' for Jekyll output or 'public' for Hugo output")
	} else if strings.ContainsRune(config.SiteDir, 0) {
		result.Errors.AddField("build.site_dir", config.SiteDir, "site directory contains a NUL byte")
	}

	if len(config.Extensions) == 0 {
		result.Errors.AddField("build.extensions", config.Extensions,
			"at least one HTML extension is required",
			"Use '.html' for most static site generators")
	}
	for _, ext := range config.Extensions {
		if ext == "" || ext == "." || strings.ContainsAny(ext, `/\`) {
			result.Errors.AddField("build.extensions", ext, fmt.Sprintf("invalid extension %q", ext))
		}
	}

	for _, pattern := range config.Exclude {
		if _, err := filepath.Match(pattern, ""); err != nil {
			result.Errors.AddField("build.exclude", pattern, fmt.Sprintf("malformed pattern: %v", err),
				"Patterns use filepath.Match syntax, for example 'drafts/*' or '*.amp.html'")
		}
	}

	if config.Workers < 1 || config.Workers > MaxWorkers {
		result.Errors.AddField("build.workers", config.Workers,
			fmt.Sprintf("workers must be between 1 and %d", MaxWorkers))
	}

	if config.WriteAttempts == 0 {
		result.Errors.AddField("build.write_attempts", config.WriteAttempts,
			"write_attempts must be at least 1")
	}

	if config.MetricsFile != "" && filepath.Ext(config.MetricsFile) != ".prom" {
		result.Warnings.AddField("build.metrics_file", config.MetricsFile,
			"node_exporter's textfile collector only reads *.prom files")
	}
}

func validateWatchConfig(config *WatchConfig, result *ValidationResult) {
	if config.Debounce < 0 {
		result.Errors.AddField("watch.debounce", config.Debounce, "debounce must not be negative")
	}
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
