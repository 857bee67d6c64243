package search

import "context"

// Result represents a single search hit from any provider.
type Result struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url"`
	Source      string `json:"source,omitempty"` // provider name for observability
}

// Response is what a provider returns for one query. NoResults is set when
// the provider explicitly reported that nothing matched; callers should also
// treat an empty Results slice the same way.
type Response struct {
	NoResults bool
	Results   []Result
}

// Empty reports whether the response carries no usable results.
func (r Response) Empty() bool {
	return r.NoResults || len(r.Results) == 0
}

// Options tune a single provider call.
type Options struct {
	// Limit caps the number of results returned. Zero or negative means no cap.
	Limit      int
	SafeSearch SafeSearch
	// Region is a provider region code such as "wt-wt" or "us-en".
	Region string
}

// Provider is a minimal interface for search providers.
type Provider interface {
	Search(ctx context.Context, query string, opts Options) (Response, error)
	Name() string
}

// SafeSearch selects the provider's content filtering mode.
type SafeSearch int

const (
	SafeSearchModerate SafeSearch = iota
	SafeSearchStrict
	SafeSearchOff
)

// String returns the mode name used in logs.
func (s SafeSearch) String() string {
	switch s {
	case SafeSearchStrict:
		return "strict"
	case SafeSearchOff:
		return "off"
	default:
		return "moderate"
	}
}
