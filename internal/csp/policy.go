package csp

import (
	"strings"
)

// ParsePolicy reads a serialized policy (the content of a CSP meta element
// or header) into d. Segments are separated by ';'. In each segment the
// first whitespace-separated field is the directive name and the rest are
// its sources. Empty segments are skipped; a name without sources still
// creates the directive.
func ParsePolicy(content string, d *Directives) {
	for _, segment := range strings.Split(content, ";") {
		fields := strings.Fields(segment)
		if len(fields) == 0 {
			continue
		}
		name := fields[0]
		d.Ensure(name)
		for _, token := range fields[1:] {
			d.Append(name, token)
		}
	}
}

// Serialize renders d as the value of a CSP meta element content attribute.
//
// With newlines enabled each directive starts on its own line indented by
// 3 units, and each source sits on its own line indented by 4 units. A
// directive with sources ends in "; ", an empty one in ";".
func Serialize(d *Directives, cfg Config) string {
	cfg = cfg.Resolved()

	lineSep := ""
	if cfg.EnableNewlines {
		lineSep = "\n"
	}
	nameIndent := indent(cfg.Indentation, 3)
	sourceIndent := indent(cfg.Indentation, 4)
	sourceSep := " " + lineSep + sourceIndent

	var b strings.Builder
	for _, entry := range d.Entries() {
		b.WriteString(lineSep)
		b.WriteString(nameIndent)
		b.WriteString(entry.Name)

		if len(entry.Sources) == 0 {
			b.WriteString(";")
			continue
		}

		b.WriteString(" ")
		b.WriteString(lineSep)
		b.WriteString(sourceIndent)
		b.WriteString(strings.Join(entry.Sources, sourceSep))
		b.WriteString("; ")
	}
	return b.String()
}

func indent(width, units int) string {
	return strings.Repeat(" ", width*units)
}
