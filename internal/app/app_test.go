package app

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperifyio/ddgsearch/internal/llmtools"
)

const resultsJSON = `[
  {"title": "The Go Programming Language", "description": "Build simple, secure, scalable systems with Go.", "url": "https://go.dev/"},
  {"title": "Effective Go", "description": "Tips for writing clear, idiomatic Go code.", "url": "https://go.dev/doc/effective_go"}
]`

func fileConfig(t *testing.T) Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.SearchFile = writeFile(t, "results.json", resultsJSON)
	return cfg
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PerMonthLimit = 0
	_, err := New(cfg)
	require.Error(t, err)

	cfg = DefaultConfig()
	cfg.MonthlyReset = "not a schedule"
	_, err = New(cfg)
	require.Error(t, err)
}

func TestApp_FileProviderEndToEnd(t *testing.T) {
	a, err := New(fileConfig(t))
	require.NoError(t, err)

	specs := a.Registry().Specs()
	require.Len(t, specs, 1)
	assert.Equal(t, llmtools.WebSearchToolName, specs[0].Name)
	assert.Equal(t, []llmtools.ToolMeta{{StableName: llmtools.WebSearchToolName, SemVer: "v1.0.0", Capabilities: []string{"search"}}},
		a.Registry().Catalog())

	p := a.Registry().Dispatch(context.Background(), llmtools.WebSearchToolName, json.RawMessage(`{"query":"go","count":1}`))
	require.False(t, p.IsError, p.Text)
	want := "# DuckDuckGo Search Results\n" +
		"Search results for \"go\" (1 found)\n" +
		"---\n" +
		"### The Go Programming Language\n" +
		"Build simple, secure, scalable systems with Go.\n\n" +
		"🔗 [Read more](https://go.dev/)"
	assert.Equal(t, want, p.Text)
	assert.Equal(t, 1, a.Quota().MonthCount)

	// Same second, default ceiling of one.
	p = a.Registry().Dispatch(context.Background(), llmtools.WebSearchToolName, json.RawMessage(`{"query":"go"}`))
	assert.True(t, p.IsError)
	assert.Equal(t, "Error: rate limit exceeded", p.Text)
	assert.Equal(t, 1, a.Quota().MonthCount)
}

func TestApp_DuckDuckGoProvider(t *testing.T) {
	page, err := os.ReadFile(filepath.Join("..", "search", "testdata", "results.html"))
	require.NoError(t, err)
	var gotUA, gotRegion string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotRegion = r.URL.Query().Get("kl")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page)
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.DDGBaseURL = srv.URL + "/html/"
	cfg.DDGRegion = "fi-fi"
	cfg.DDGUserAgent = "ddgsearch-test"
	cfg.DDGTimeout = 5 * time.Second
	a, err := New(cfg)
	require.NoError(t, err)

	out, err := a.Adapter().Search(context.Background(), "golang", 2)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "# DuckDuckGo Search Results\nSearch results for \"golang\" (2 found)\n---\n"))
	assert.Contains(t, out, "### The Go Programming Language")
	assert.NotContains(t, out, "pkg.go.dev")
	assert.Equal(t, "ddgsearch-test", gotUA)
	assert.Equal(t, "fi-fi", gotRegion)
}

func TestApp_RunUntilInputCloses(t *testing.T) {
	a, err := New(fileConfig(t))
	require.NoError(t, err)

	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	done := make(chan error, 1)
	go func() {
		done <- a.Run(context.Background(), inR, outW)
		_ = outW.Close()
	}()

	lines := make(chan string, 4)
	go func() {
		sc := bufio.NewScanner(outR)
		sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	_, err = io.WriteString(inW, `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"t","version":"1"}}}`+"\n")
	require.NoError(t, err)

	select {
	case line := <-lines:
		assert.Contains(t, line, `"id":1`)
		assert.Contains(t, line, DefaultServerName)
	case <-time.After(5 * time.Second):
		t.Fatal("no initialize response")
	}

	require.NoError(t, inW.Close())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after input closed")
	}
}
