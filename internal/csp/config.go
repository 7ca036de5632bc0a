package csp

// Config is the resolved configuration of one generator.
type Config struct {
	// Indentation is the number of spaces per formatting unit.
	Indentation int
	// EnableNewlines puts every directive and source on its own line.
	// Disabling it forces Indentation to 0.
	EnableNewlines bool
	// Debug enables the generator's debug log lines.
	Debug bool
	// InjectSelf lists the directives that receive 'self' before scanning.
	InjectSelf []string
}

// DefaultConfig returns the defaults: two-space indentation, newlines on,
// debug off and 'self' injected into all built-in directives.
func DefaultConfig() Config {
	return Config{
		Indentation:    2,
		EnableNewlines: true,
		Debug:          false,
		InjectSelf:     BuiltinDirectives(),
	}
}

// Resolved returns cfg with its formatting rules applied.
func (cfg Config) Resolved() Config {
	out := cfg
	if out.Indentation < 0 {
		out.Indentation = 0
	}
	if !out.EnableNewlines {
		out.Indentation = 0
	}
	out.InjectSelf = append([]string(nil), cfg.InjectSelf...)
	return out
}

func (cfg Config) injectsSelf(name string) bool {
	for _, n := range cfg.InjectSelf {
		if n == name {
			return true
		}
	}
	return false
}
