//go:build property

package csp

import (
	"context"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestDirectivesProperties validates the ordering and uniqueness guarantees of Directives
func TestDirectivesProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1234)
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	// Property: a source appears at most once per directive, in first-seen order
	properties.Property("append deduplicates and keeps first occurrence order", prop.ForAll(
		func(sources []string) bool {
			d := NewDirectives(ScriptSrc)
			var expected []string
			seen := make(map[string]bool)
			for _, s := range sources {
				added := d.Append(ScriptSrc, s)
				if added == seen[s] {
					return false
				}
				if !seen[s] {
					seen[s] = true
					expected = append(expected, s)
				}
			}
			got := d.Sources(ScriptSrc)
			if len(got) != len(expected) {
				return false
			}
			for i := range got {
				if got[i] != expected[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.OneConstOf("'self'", "https://a.com/", "https://b.com/", "data:", "'none'")),
	))

	// Property: hashing is deterministic and always produces a quoted sha256 token
	properties.Property("hash source is deterministic", prop.ForAll(
		func(content string) bool {
			h := HashSource(content)
			return h == HashSource(content) &&
				strings.HasPrefix(h, "'sha256-") &&
				strings.HasSuffix(h, "='") &&
				len(h) == len("'sha256-'")+44
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

// TestSerializeProperties validates that serialized policies parse back unchanged
func TestSerializeProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1234)
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	token := gen.RegexMatch(`[a-z][a-z0-9:/.'-]{0,20}`)

	properties.Property("serialize then parse is the identity", prop.ForAll(
		func(names []string, sources []string, indentation int, newlines bool) bool {
			d := NewPolicy()
			for i, name := range names {
				d.Ensure(name)
				if i < len(sources) {
					d.Append(name, sources[i])
				}
			}

			cfg := Config{Indentation: indentation, EnableNewlines: newlines}
			out := Serialize(d, cfg)

			reparsed := NewPolicy()
			ParsePolicy(out, reparsed)

			return Serialize(reparsed, cfg) == out && len(reparsed.Entries()) == d.Len()
		},
		gen.SliceOf(gen.RegexMatch(`[a-z]{1,8}-src`)),
		gen.SliceOf(token),
		gen.IntRange(0, 6),
		gen.Bool(),
	))

	properties.Property("generator output is stable under reprocessing", prop.ForAll(
		func(scripts []string) bool {
			var b strings.Builder
			b.WriteString("<html><head></head><body>")
			for _, s := range scripts {
				b.WriteString("<script>" + s + "</script>")
			}
			b.WriteString("</body></html>")

			g := NewGenerator(DefaultConfig())
			first, err := g.Run(context.Background(), b.String())
			if err != nil {
				return false
			}
			second, err := g.Run(context.Background(), first)
			return err == nil && first == second
		},
		gen.SliceOf(gen.RegexMatch(`[a-z]{1,10}\(\d\)`)),
	))

	properties.TestingRun(t)
}
