package app

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/ddgsearch/internal/fetch"
	"github.com/hyperifyio/ddgsearch/internal/llmtools"
	"github.com/hyperifyio/ddgsearch/internal/mcpserver"
	"github.com/hyperifyio/ddgsearch/internal/quota"
	"github.com/hyperifyio/ddgsearch/internal/search"
	"github.com/hyperifyio/ddgsearch/internal/websearch"
)

type App struct {
	cfg      Config
	governor *quota.Governor
	provider search.Provider
	adapter  *websearch.Adapter
	registry *llmtools.Registry
	server   *mcpserver.Server
}

// New validates cfg and wires provider, rate governor, search adapter, tool
// registry and MCP server together. It performs no network I/O.
func New(cfg Config) (*App, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	schedule, err := quota.ParseResetSchedule(cfg.MonthlyReset)
	if err != nil {
		return nil, err
	}
	var opts []quota.Option
	if schedule != nil {
		opts = append(opts, quota.WithMonthlyReset(schedule))
	}
	gov := quota.New(quota.Limits{PerSecond: cfg.PerSecondLimit, PerMonth: cfg.PerMonthLimit}, opts...)

	provider := newProvider(cfg)
	adapter := websearch.New(provider, gov)
	adapter.Region = cfg.DDGRegion

	reg, err := llmtools.NewSearchRegistry(adapter, websearch.DefaultCount)
	if err != nil {
		return nil, fmt.Errorf("register tools: %w", err)
	}
	srv, err := mcpserver.New(reg, DefaultServerName, BuildVersion)
	if err != nil {
		return nil, err
	}

	for _, meta := range reg.Catalog() {
		log.Debug().
			Str("tool", meta.StableName).
			Str("semver", meta.SemVer).
			Strs("capabilities", meta.Capabilities).
			Msg("tool registered")
	}
	log.Debug().
		Str("provider", provider.Name()).
		Int("per_second_limit", cfg.PerSecondLimit).
		Int("per_month_limit", cfg.PerMonthLimit).
		Str("monthly_reset", cfg.MonthlyReset).
		Msg("app initialized")

	return &App{cfg: cfg, governor: gov, provider: provider, adapter: adapter, registry: reg, server: srv}, nil
}

func newProvider(cfg Config) search.Provider {
	if cfg.SearchFile != "" {
		return &search.FileProvider{Path: cfg.SearchFile}
	}
	client := &fetch.Client{
		HTTPClient:        newSearchHTTPClient(cfg.DDGTimeout),
		UserAgent:         cfg.DDGUserAgent,
		PerRequestTimeout: cfg.DDGTimeout,
		RedirectMaxHops:   5,
		MaxConcurrent:     1,
		Pacer:             fetch.NewPacer(cfg.DDGRequestsPerSecond),
	}
	return search.NewDuckDuckGo(cfg.DDGBaseURL, client)
}

// Registry returns the tool registry served by the app.
func (a *App) Registry() *llmtools.Registry { return a.registry }

// Adapter returns the search adapter behind the registered tool.
func (a *App) Adapter() *websearch.Adapter { return a.adapter }

// Quota reports the current rate governor counters.
func (a *App) Quota() quota.State { return a.governor.Snapshot() }

// Run serves the MCP protocol on in/out until the stream closes or ctx is
// canceled. Transport failures are returned.
func (a *App) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	log.Info().Str("provider", a.provider.Name()).Str("version", BuildVersion).Msg("starting")
	err := mcpserver.ServeStdio(ctx, a.server, in, out)
	s := a.governor.Snapshot()
	log.Info().Int("month_count", s.MonthCount).Msg("transport closed")
	return err
}
