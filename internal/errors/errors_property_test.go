//go:build property

package errors

import (
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestErrorCollectorProperties validates error collection under concurrency.
func TestErrorCollectorProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(2468)
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("concurrent AddFile loses no errors", prop.ForAll(
		func(goroutines, perGoroutine int) bool {
			collector := NewErrorCollector()

			var wg sync.WaitGroup
			for g := 0; g < goroutines; g++ {
				wg.Add(1)
				go func(id int) {
					defer wg.Done()
					for e := 0; e < perGoroutine; e++ {
						collector.AddFile(fmt.Sprintf("page_%d_%d.html", id, e), fmt.Errorf("failure %d", e))
					}
				}(g)
			}
			wg.Wait()

			return len(collector.GetFileErrors()) == goroutines*perGoroutine
		},
		gen.IntRange(1, 8),
		gen.IntRange(0, 20),
	))

	properties.Property("file errors are sorted by path", prop.ForAll(
		func(paths []string) bool {
			collector := NewErrorCollector()
			for _, p := range paths {
				collector.AddFile(p, fmt.Errorf("failed"))
			}

			files := collector.GetFileErrors()
			return len(files) == len(paths) && sort.SliceIsSorted(files, func(i, j int) bool {
				return files[i].Path < files[j].Path
			})
		},
		gen.SliceOf(gen.Identifier()),
	))

	properties.Property("nil errors are ignored", prop.ForAll(
		func(n int) bool {
			collector := NewErrorCollector()
			for i := 0; i < n; i++ {
				collector.AddFile(fmt.Sprintf("page_%d.html", i), nil)
			}
			return len(collector.GetFileErrors()) == 0
		},
		gen.IntRange(0, 50),
	))

	properties.TestingRun(t)
}

// TestAppErrorProperties validates AppError formatting and matching.
func TestAppErrorProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1357)
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("Error contains code, location and message", prop.ForAll(
		func(code, message, path string) bool {
			err := NewIOError(code, message, nil).WithLocation(path)
			want := fmt.Sprintf("[%s] %s %s", code, path, message)
			return err.Error() == want
		},
		gen.Identifier(),
		gen.AlphaString().SuchThat(func(s string) bool { return s != "" }),
		gen.Identifier().Map(func(s string) string { return s + ".html" }),
	))

	properties.Property("Is matches on type and code only", prop.ForAll(
		func(code, a, b string) bool {
			left := WrapParse(fmt.Errorf("cause"), code, a)
			right := WrapParse(fmt.Errorf("other cause"), code, b)
			other := NewIOError(code, a, nil)
			return left.Is(right) && !left.Is(other)
		},
		gen.Identifier(),
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.Property("validation collections keep every field", prop.ForAll(
		func(fields []string) bool {
			var vec ValidationErrorCollection
			for _, f := range fields {
				vec.AddField(f, 0, "invalid")
			}
			if len(fields) == 0 {
				return vec.ToAppError() == nil
			}
			appErr := vec.ToAppError()
			for _, f := range fields {
				if _, ok := appErr.Context[f]; !ok {
					return false
				}
			}
			return appErr.Type == ErrorTypeValidation
		},
		gen.SliceOfN(5, gen.Identifier()),
	))

	properties.TestingRun(t)
}
