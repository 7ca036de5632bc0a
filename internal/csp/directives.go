package csp

// Built-in directive names, in the order they are declared in every policy.
const (
	FrameSrc  = "frame-src"
	ScriptSrc = "script-src"
	ImgSrc    = "img-src"
	StyleSrc  = "style-src"
)

// SourceSelf is the 'self' source keyword injected as a default.
const SourceSelf = "'self'"

// BuiltinDirectives returns the four directives every generated policy carries.
func BuiltinDirectives() []string {
	return []string{FrameSrc, ScriptSrc, ImgSrc, StyleSrc}
}

// Directive is one entry of a Directives set.
type Directive struct {
	Name    string
	Sources []string
}

// Directives is an ordered set of CSP directives, each holding an ordered
// list of unique source tokens. Directive names are case-sensitive.
// Entries keep the order in which directives were first seen, and sources
// keep the order of their first append. Nothing is ever removed.
//
// A Directives value belongs to a single run and is not safe for
// concurrent use.
type Directives struct {
	order   []string
	sources map[string][]string
	seen    map[string]map[string]struct{}
}

// NewDirectives creates a set pre-populated with empty entries for names.
func NewDirectives(names ...string) *Directives {
	d := &Directives{
		sources: make(map[string][]string),
		seen:    make(map[string]map[string]struct{}),
	}
	for _, name := range names {
		d.Ensure(name)
	}
	return d
}

// NewPolicy creates a set holding the four built-in directives.
func NewPolicy() *Directives {
	return NewDirectives(BuiltinDirectives()...)
}

// Ensure creates an empty entry for name if it does not exist yet.
func (d *Directives) Ensure(name string) {
	if _, ok := d.seen[name]; ok {
		return
	}
	d.order = append(d.order, name)
	d.sources[name] = nil
	d.seen[name] = make(map[string]struct{})
}

// Append adds token to name unless it is already present. The directive is
// created when missing. It reports whether the token was added.
func (d *Directives) Append(name, token string) bool {
	d.Ensure(name)
	if _, dup := d.seen[name][token]; dup {
		return false
	}
	d.seen[name][token] = struct{}{}
	d.sources[name] = append(d.sources[name], token)
	return true
}

// Has reports whether name is present.
func (d *Directives) Has(name string) bool {
	_, ok := d.seen[name]
	return ok
}

// Contains reports whether token is listed under name.
func (d *Directives) Contains(name, token string) bool {
	_, ok := d.seen[name][token]
	return ok
}

// Sources returns a copy of the tokens recorded for name.
func (d *Directives) Sources(name string) []string {
	src := d.sources[name]
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// Names returns directive names in declaration order.
func (d *Directives) Names() []string {
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}

// Len returns the number of directives.
func (d *Directives) Len() int {
	return len(d.order)
}

// Entries returns every directive with its sources in declaration order.
func (d *Directives) Entries() []Directive {
	entries := make([]Directive, 0, len(d.order))
	for _, name := range d.order {
		entries = append(entries, Directive{Name: name, Sources: d.Sources(name)})
	}
	return entries
}
