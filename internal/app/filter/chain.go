package filter

import (
	"context"
	"sort"

	"github.com/cockroachdb/errors"
	levenshtein "github.com/ka-weihe/fast-levenshtein"
	"github.com/samber/lo"

	"github.com/osa030/playdeck/internal/domain/track"
)

// Chain executes filters in sequence.
type Chain struct {
	filters []Filter
}

// NewChain creates a new filter chain.
func NewChain() *Chain {
	return &Chain{
		filters: make([]Filter, 0),
	}
}

// Build creates a chain from the enabled filters and their settings, in
// name order. Unknown names are an error.
func Build(enabled map[string]map[string]any) (*Chain, error) {
	names := lo.Keys(enabled)
	sort.Strings(names)

	c := NewChain()
	for _, name := range names {
		factory, ok := registry[name]
		if !ok {
			return nil, errUnknownFilter(name)
		}
		f := factory()
		if err := f.ValidateConfig(enabled[name]); err != nil {
			return nil, errors.Wrapf(err, "filter %s", name)
		}
		c.Add(f)
	}
	return c, nil
}

// Add adds a filter to the chain.
func (c *Chain) Add(f Filter) {
	c.filters = append(c.filters, f)
}

// Execute runs all filters in sequence.
// Returns immediately if any filter rejects the request.
func (c *Chain) Execute(ctx context.Context, req Request, existing []track.Track) Result {
	for _, f := range c.filters {
		result := f.Check(ctx, req, existing)
		if !result.Accepted {
			return result
		}
	}
	return Accept()
}

// Filters returns all filters in the chain.
func (c *Chain) Filters() []Filter {
	return c.filters
}

func errUnknownFilter(name string) error {
	known := lo.Keys(registry)
	if len(known) == 0 {
		return errors.Newf("unknown filter %s", name)
	}
	closest := lo.MinBy(known, func(a, b string) bool {
		return levenshtein.Distance(name, a) < levenshtein.Distance(name, b)
	})
	return errors.Newf("unknown filter %s, did you mean %s?", name, closest)
}
