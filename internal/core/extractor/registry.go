package extractor

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// Strategy is one self-contained way of retrieving a post from upstream
type Strategy interface {
	// Name returns the strategy name used in config and diagnostics (e.g., "page")
	Name() string

	// Attempt performs one upstream probe. A nil error always comes with a
	// non-nil Result.
	Attempt(ctx context.Context, id Identifier) (*Result, error)
}

// Factory builds a strategy on top of the shared upstream client
type Factory func(c *Client) Strategy

// strategiesByName maps strategy names to their factories
var strategiesByName = map[string]Factory{}

// DefaultOrder is the default priority order, highest fidelity first
var DefaultOrder = []string{"page", "embed", "graphql", "api", "oembed"}

// DefaultTimeouts bounds each strategy, tightest for the oEmbed fallback
var DefaultTimeouts = map[string]time.Duration{
	"page":    20 * time.Second,
	"embed":   15 * time.Second,
	"graphql": 12 * time.Second,
	"api":     10 * time.Second,
	"oembed":  8 * time.Second,
}

// Register adds a strategy factory under name
func Register(name string, f Factory) {
	strategiesByName[name] = f
}

// Names returns all registered strategy names, sorted
func Names() []string {
	names := make([]string, 0, len(strategiesByName))
	for name := range strategiesByName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build instantiates the named strategies in the given order
func Build(c *Client, names []string) ([]Strategy, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("no strategies configured")
	}
	seen := make(map[string]bool, len(names))
	out := make([]Strategy, 0, len(names))
	for _, name := range names {
		f, ok := strategiesByName[name]
		if !ok {
			return nil, fmt.Errorf("unknown strategy %q (available: %v)", name, Names())
		}
		if seen[name] {
			return nil, fmt.Errorf("strategy %q listed twice", name)
		}
		seen[name] = true
		out = append(out, f(c))
	}
	return out, nil
}
