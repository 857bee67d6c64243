package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// FileProvider answers queries from a local JSON file, for offline runs and
// tests. The file is an array of {"title", "description", "url"} objects; a
// result matches when its title or description contains the query
// (case-insensitive). Safe search and region are ignored.
type FileProvider struct {
	Path string
}

func (f *FileProvider) Name() string { return "file" }

func (f *FileProvider) Search(_ context.Context, query string, opts Options) (Response, error) {
	if strings.TrimSpace(f.Path) == "" {
		return Response{}, errors.New("file provider path is empty")
	}
	b, err := os.ReadFile(f.Path)
	if err != nil {
		return Response{}, err
	}
	var raw []Result
	if err := json.Unmarshal(b, &raw); err != nil {
		return Response{}, fmt.Errorf("parse %s: %w", f.Path, err)
	}
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]Result, 0, len(raw))
	for _, r := range raw {
		if r.URL == "" || r.Title == "" {
			continue
		}
		if q == "" || strings.Contains(strings.ToLower(r.Title), q) || strings.Contains(strings.ToLower(r.Description), q) {
			r.Source = f.Name()
			out = append(out, r)
			if opts.Limit > 0 && len(out) >= opts.Limit {
				break
			}
		}
	}
	return Response{NoResults: len(out) == 0, Results: out}, nil
}
