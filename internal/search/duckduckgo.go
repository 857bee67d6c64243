package search

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/unicode/norm"

	"github.com/hyperifyio/ddgsearch/internal/fetch"
)

// DefaultDuckDuckGoURL is the JavaScript-free results endpoint.
const DefaultDuckDuckGoURL = "https://html.duckduckgo.com/html/"

// ErrBlocked is returned when DuckDuckGo answers with its bot challenge page
// instead of results.
var ErrBlocked = errors.New("duckduckgo: request blocked by anomaly detection")

// DuckDuckGo scrapes the HTML results page.
type DuckDuckGo struct {
	BaseURL string
	Client  *fetch.Client
}

// NewDuckDuckGo returns a provider for baseURL, or DefaultDuckDuckGoURL when empty.
func NewDuckDuckGo(baseURL string, client *fetch.Client) *DuckDuckGo {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultDuckDuckGoURL
	}
	if client == nil {
		client = &fetch.Client{}
	}
	return &DuckDuckGo{BaseURL: baseURL, Client: client}
}

func (d *DuckDuckGo) Name() string { return "duckduckgo" }

func (d *DuckDuckGo) Search(ctx context.Context, query string, opts Options) (Response, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Response{}, errors.New("duckduckgo: query cannot be empty")
	}
	endpoint, err := d.searchURL(query, opts)
	if err != nil {
		return Response{}, err
	}
	log.Ctx(ctx).Debug().Str("url", endpoint).Stringer("safe_search", opts.SafeSearch).Msg("duckduckgo request")
	body, contentType, err := d.Client.Get(ctx, endpoint)
	if err != nil {
		return Response{}, fmt.Errorf("duckduckgo: %w", err)
	}
	resp, err := ParseResultsPage(body, contentType, opts.Limit)
	if err != nil {
		return Response{}, err
	}
	for i := range resp.Results {
		resp.Results[i].Source = d.Name()
	}
	return resp, nil
}

func (d *DuckDuckGo) searchURL(query string, opts Options) (string, error) {
	u, err := url.Parse(d.BaseURL)
	if err != nil {
		return "", fmt.Errorf("duckduckgo: invalid base url: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("kp", safeSearchParam(opts.SafeSearch))
	if r := strings.TrimSpace(opts.Region); r != "" {
		q.Set("kl", r)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// safeSearchParam maps a mode onto DuckDuckGo's kp parameter.
func safeSearchParam(s SafeSearch) string {
	switch s {
	case SafeSearchStrict:
		return "1"
	case SafeSearchOff:
		return "-2"
	default:
		return "-1"
	}
}

// ParseResultsPage extracts organic results from an html.duckduckgo.com page
// in page order. Ads are skipped. contentType is used to pick the charset.
func ParseResultsPage(body []byte, contentType string, limit int) (Response, error) {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return Response{}, fmt.Errorf("duckduckgo: decode page: %w", err)
	}
	node, err := html.Parse(r)
	if err != nil {
		return Response{}, fmt.Errorf("duckduckgo: parse page: %w", err)
	}
	doc := goquery.NewDocumentFromNode(node)

	if doc.Find(".anomaly-modal__mask, #challenge-form").Length() > 0 {
		return Response{}, ErrBlocked
	}
	if doc.Find(".no-results").Length() > 0 {
		return Response{NoResults: true}, nil
	}

	var out []Result
	seen := make(map[string]bool)
	doc.Find("div.result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.HasClass("result--ad") || s.HasClass("result--no-result") {
			return true
		}
		a := s.Find("a.result__a").First()
		title := cleanText(a.Text())
		href, _ := a.Attr("href")
		link := unwrapRedirect(href)
		if title == "" || link == "" || seen[link] {
			return true
		}
		seen[link] = true
		out = append(out, Result{
			Title:       title,
			Description: cleanText(s.Find(".result__snippet").First().Text()),
			URL:         link,
		})
		return limit <= 0 || len(out) < limit
	})
	if len(out) == 0 {
		return Response{NoResults: true}, nil
	}
	return Response{Results: out}, nil
}

// unwrapRedirect turns DuckDuckGo's //duckduckgo.com/l/?uddg=<target> links
// into the target URL. Only absolute http(s) links survive.
func unwrapRedirect(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if strings.HasSuffix(u.Hostname(), "duckduckgo.com") && strings.HasPrefix(u.Path, "/l/") {
		target := u.Query().Get("uddg")
		if target == "" {
			return ""
		}
		u, err = url.Parse(target)
		if err != nil {
			return ""
		}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	if u.Host == "" {
		return ""
	}
	return u.String()
}

func cleanText(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}
