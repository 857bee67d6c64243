package websearch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperifyio/ddgsearch/internal/quota"
	"github.com/hyperifyio/ddgsearch/internal/search"
)

type stubProvider struct {
	resp  search.Response
	err   error
	calls int
	opts  search.Options
	query string
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Search(_ context.Context, query string, opts search.Options) (search.Response, error) {
	s.calls++
	s.query = query
	s.opts = opts
	return s.resp, s.err
}

func items(n int) []search.Result {
	out := make([]search.Result, n)
	for i := range out {
		out[i] = search.Result{
			Title:       fmt.Sprintf("Title %d", i+1),
			Description: fmt.Sprintf("Description %d", i+1),
			URL:         fmt.Sprintf("https://example.com/%d", i+1),
		}
	}
	return out
}

type allowAll struct{}

func (allowAll) Admit() error { return nil }

func TestSearch_FormatsInProviderOrder(t *testing.T) {
	p := &stubProvider{resp: search.Response{Results: []search.Result{
		{Title: "B first", Description: "second letter", URL: "https://b.example"},
		{Title: "A second", URL: "https://a.example"},
	}}}
	a := New(p, allowAll{})

	got, err := a.Search(context.Background(), "letters", DefaultCount)
	require.NoError(t, err)

	want := "# DuckDuckGo Search Results\n" +
		"Search results for \"letters\" (2 found)\n" +
		"---\n" +
		"### B first\nsecond letter\n\n🔗 [Read more](https://b.example)\n\n" +
		"### A second\n\n\n🔗 [Read more](https://a.example)"
	assert.Equal(t, want, got)
	assert.Equal(t, search.SafeSearchOff, p.opts.SafeSearch)
	assert.Equal(t, "letters", p.query)
}

func TestSearch_CountBounds(t *testing.T) {
	cases := []struct {
		count, provided, want int
	}{
		{count: 10, provided: 30, want: 10},
		{count: 25, provided: 30, want: 20},
		{count: 100, provided: 5, want: 5},
		{count: 0, provided: 30, want: 0},
		{count: -3, provided: 30, want: 0},
		{count: 20, provided: 20, want: 20},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("count=%d/provided=%d", tc.count, tc.provided), func(t *testing.T) {
			a := New(&stubProvider{resp: search.Response{Results: items(tc.provided)}}, allowAll{})
			got, err := a.Search(context.Background(), "q", tc.count)
			require.NoError(t, err)
			assert.Equal(t, tc.want, strings.Count(got, "\n### "))
			assert.Contains(t, got, fmt.Sprintf("(%d found)", tc.want))
		})
	}
}

func TestSearch_NoResults(t *testing.T) {
	for name, resp := range map[string]search.Response{
		"flagged": {NoResults: true, Results: items(2)},
		"empty":   {Results: []search.Result{}},
		"absent":  {},
	} {
		t.Run(name, func(t *testing.T) {
			a := New(&stubProvider{resp: resp}, allowAll{})
			got, err := a.Search(context.Background(), `rare "query"`, 10)
			require.NoError(t, err)
			assert.Equal(t, FormatNoResults(`rare "query"`), got)
			assert.Contains(t, got, `rare "query"`)
		})
	}
}

func TestSearch_ProviderErrorUnchanged(t *testing.T) {
	boom := errors.New("connection reset by peer")
	a := New(&stubProvider{err: boom}, allowAll{})
	_, err := a.Search(context.Background(), "q", 10)
	assert.Same(t, boom, err)
}

func TestSearch_RateLimitSkipsProvider(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	g := quota.New(quota.DefaultLimits(), quota.WithClock(func() time.Time { return now }))
	p := &stubProvider{resp: search.Response{Results: items(3)}}
	a := New(p, g)

	_, err := a.Search(context.Background(), "q", 10)
	require.NoError(t, err)
	_, err = a.Search(context.Background(), "q", 10)
	require.ErrorIs(t, err, quota.ErrRateLimitExceeded)
	assert.Equal(t, 1, p.calls)

	now = now.Add(1500 * time.Millisecond)
	_, err = a.Search(context.Background(), "q", 10)
	require.NoError(t, err)
	assert.Equal(t, 2, p.calls)
}

func TestSearch_NilProvider(t *testing.T) {
	_, err := (&Adapter{}).Search(context.Background(), "q", 10)
	require.Error(t, err)
}
