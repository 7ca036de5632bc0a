//go:build property

package watcher

import (
	"sort"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestDebouncerProperties validates batching guarantees of the debouncer
func TestDebouncerProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1357)
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	// Property: a flushed batch holds each path once, sorted, and nothing else
	properties.Property("flush deduplicates and sorts by path", prop.ForAll(
		func(paths []string) bool {
			d := &Debouncer{
				delay:  time.Hour,
				output: make(chan []ChangeEvent, 1),
			}
			for _, p := range paths {
				d.pending = append(d.pending, ChangeEvent{Path: p})
			}
			d.flush()

			unique := make(map[string]struct{})
			for _, p := range paths {
				unique[p] = struct{}{}
			}

			if len(paths) == 0 {
				return len(d.output) == 0
			}

			batch := <-d.output
			if len(batch) != len(unique) {
				return false
			}
			got := make([]string, len(batch))
			for i, e := range batch {
				got[i] = e.Path
			}
			return sort.StringsAreSorted(got) && len(d.pending) == 0
		},
		gen.SliceOf(gen.OneConstOf("a.html", "b.html", "blog/c.html", "index.html")),
	))

	properties.TestingRun(t)
}
