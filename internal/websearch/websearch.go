// Package websearch turns a query into a rate-limited provider call and a
// markdown answer.
package websearch

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/ddgsearch/internal/search"
)

const (
	// DefaultCount is used when the caller does not ask for a result count.
	DefaultCount = 10
	// MaxResults caps the rendered items regardless of the requested count.
	MaxResults = 20
)

// Admitter gates calls before they reach the provider.
type Admitter interface {
	Admit() error
}

// Adapter runs one search per call: admit, query the provider with safe
// search off, truncate, format. It never retries.
type Adapter struct {
	Provider search.Provider
	Governor Admitter
	// Region is passed to the provider unchanged; empty means provider default.
	Region string
}

// New returns an Adapter.
func New(p search.Provider, g Admitter) *Adapter {
	return &Adapter{Provider: p, Governor: g}
}

// Search returns the markdown answer for query. Rate limit failures are
// returned before the provider is contacted; provider failures are logged
// and returned unchanged. A query without matches is not an error.
func (a *Adapter) Search(ctx context.Context, query string, count int) (string, error) {
	if a.Provider == nil {
		return "", errors.New("websearch: provider is nil")
	}
	if a.Governor != nil {
		if err := a.Governor.Admit(); err != nil {
			return "", err
		}
	}

	resp, err := a.Provider.Search(ctx, query, search.Options{
		Limit:      MaxResults,
		SafeSearch: search.SafeSearchOff,
		Region:     a.Region,
	})
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("provider", a.Provider.Name()).Str("query", query).Msg("search failed")
		return "", err
	}
	if resp.Empty() {
		return FormatNoResults(query), nil
	}
	items := truncate(resp.Results, count)
	log.Ctx(ctx).Debug().Str("provider", a.Provider.Name()).Int("returned", len(resp.Results)).Int("rendered", len(items)).Msg("search ok")
	return FormatResults(query, items), nil
}

// truncate keeps the first min(count, MaxResults, len(items)) items. A
// non-positive count keeps none.
func truncate(items []search.Result, count int) []search.Result {
	n := count
	if n > MaxResults {
		n = MaxResults
	}
	if n < 0 {
		n = 0
	}
	if n > len(items) {
		n = len(items)
	}
	return items[:n]
}
