// Package output renders recommendations, totals and model listings for
// humans and machines.
package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"invoice-advisor/core/model"
	"invoice-advisor/core/types"
	apperrors "invoice-advisor/internal/errors"
)

// Format represents output format type
type Format string

const (
	// FormatCLI is a human-readable table
	FormatCLI Format = "cli"

	// FormatJSON is machine-readable JSON
	FormatJSON Format = "json"

	// FormatMarkdown is a markdown report
	FormatMarkdown Format = "markdown"
)

// Formatter produces output in a specific format
type Formatter interface {
	// Format returns the format type
	Format() Format

	// Recommendation renders one recommendation
	Recommendation(w io.Writer, rec *types.Recommendation) error

	// Totals renders invoice totals
	Totals(w io.Writer, totals *types.Totals) error

	// Models renders the loaded model list
	Models(w io.Writer, models []model.Info) error
}

// Registry manages formatter registration
type Registry struct {
	mu         sync.RWMutex
	formatters map[Format]Formatter
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{formatters: make(map[Format]Formatter)}
}

// Register adds a formatter, rejecting duplicates
func (r *Registry) Register(f Formatter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.formatters[f.Format()]; exists {
		return fmt.Errorf("formatter %q already registered", f.Format())
	}
	r.formatters[f.Format()] = f
	return nil
}

// Get returns the formatter for a format name
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.formatters[Format(strings.ToLower(strings.TrimSpace(name)))]
	if !ok {
		return nil, apperrors.Validationf("unknown output format %q (want one of %s)", name, strings.Join(r.names(), ", ")).
			WithContext("field", "format")
	}
	return f, nil
}

// Formats lists the registered format names
func (r *Registry) Formats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.names()
}

func (r *Registry) names() []string {
	names := make([]string, 0, len(r.formatters))
	for f := range r.formatters {
		names = append(names, string(f))
	}
	sort.Strings(names)
	return names
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// Default returns the registry holding the built-in formatters
func Default() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
		for _, f := range []Formatter{&CLIFormatter{}, &JSONFormatter{Indent: "  "}, &MarkdownFormatter{}} {
			if err := defaultRegistry.Register(f); err != nil {
				panic(err)
			}
		}
	})
	return defaultRegistry
}
