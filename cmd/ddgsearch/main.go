package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/ddgsearch/internal/app"
	"github.com/hyperifyio/ddgsearch/internal/llmtools"
)

type options struct {
	configPath string
	envFiles   string
	printTools bool
	version    bool
}

func main() {
	// Logging setup; stdout carries the protocol
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	zerolog.DefaultContextLogger = &log.Logger

	cfg, opts, err := parseConfig(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		log.Error().Err(err).Msg("invalid configuration")
		os.Exit(1)
	}

	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	switch {
	case opts.version:
		fmt.Println(app.VersionString())
		return
	case opts.printTools:
		if err := printTools(cfg, os.Stdout); err != nil {
			log.Error().Err(err).Msg("print tools failed")
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Stdin, os.Stdout); err != nil {
		log.Error().Err(err).Msg("server failed")
		stop()
		os.Exit(1)
	}
}

// parseConfig resolves configuration with precedence flags > env > config
// file > defaults. Dotenv files are loaded before the environment is read.
func parseConfig(args []string) (app.Config, options, error) {
	var (
		opts         options
		perSecond    int
		perMonth     int
		monthlyReset string
		ddgURL       string
		ddgUA        string
		ddgRegion    string
		ddgTimeout   time.Duration
		ddgRPS       float64
		searchFile   string
		verbose      bool
	)
	def := app.DefaultConfig()

	fs := flag.NewFlagSet("ddgsearch", flag.ContinueOnError)
	fs.StringVar(&opts.configPath, "config", os.Getenv("DDGSEARCH_CONFIG"), "Path to YAML or JSON config file")
	fs.StringVar(&opts.envFiles, "env-file", ".env", "Comma-separated dotenv files to load (missing files are skipped)")
	fs.IntVar(&perSecond, "rate.perSecond", def.PerSecondLimit, "Maximum searches per one-second window")
	fs.IntVar(&perMonth, "rate.perMonth", def.PerMonthLimit, "Maximum searches per month")
	fs.StringVar(&monthlyReset, "rate.monthlyReset", "", "Cron expression resetting the monthly counter, e.g. @monthly (empty: reset on restart only)")
	fs.StringVar(&ddgURL, "ddg.url", "", "DuckDuckGo HTML endpoint")
	fs.StringVar(&ddgUA, "ddg.ua", def.DDGUserAgent, "User-Agent for DuckDuckGo requests")
	fs.StringVar(&ddgRegion, "ddg.region", def.DDGRegion, "DuckDuckGo region code (kl)")
	fs.DurationVar(&ddgTimeout, "ddg.timeout", def.DDGTimeout, "Per-request timeout for DuckDuckGo")
	fs.Float64Var(&ddgRPS, "ddg.rps", 0, "Outbound request pacing in requests per second; 0 disables")
	fs.StringVar(&searchFile, "search.file", "", "Path to JSON file for offline file-based search provider")
	fs.BoolVar(&verbose, "v", false, "Verbose logging")
	fs.BoolVar(&opts.printTools, "tools.print", false, "Print the tool catalog as OpenAI function tools and exit")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")
	if err := fs.Parse(args); err != nil {
		return app.Config{}, opts, err
	}

	if err := app.LoadEnvFiles(strings.Split(opts.envFiles, ",")...); err != nil {
		return app.Config{}, opts, fmt.Errorf("load env files: %w", err)
	}

	cfg := def
	if opts.configPath != "" {
		fc, err := app.LoadConfigFile(opts.configPath)
		if err != nil {
			return app.Config{}, opts, fmt.Errorf("load config %s: %w", opts.configPath, err)
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	app.ApplyEnvOverrides(&cfg)

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["rate.perSecond"] {
		cfg.PerSecondLimit = perSecond
	}
	if set["rate.perMonth"] {
		cfg.PerMonthLimit = perMonth
	}
	if set["rate.monthlyReset"] {
		cfg.MonthlyReset = monthlyReset
	}
	if set["ddg.url"] {
		cfg.DDGBaseURL = ddgURL
	}
	if set["ddg.ua"] {
		cfg.DDGUserAgent = ddgUA
	}
	if set["ddg.region"] {
		cfg.DDGRegion = ddgRegion
	}
	if set["ddg.timeout"] {
		cfg.DDGTimeout = ddgTimeout
	}
	if set["ddg.rps"] {
		cfg.DDGRequestsPerSecond = ddgRPS
	}
	if set["search.file"] {
		cfg.SearchFile = searchFile
	}
	if set["v"] {
		cfg.Verbose = verbose
	}

	if err := app.ValidateConfig(cfg); err != nil {
		return app.Config{}, opts, err
	}
	return cfg, opts, nil
}

func printTools(cfg app.Config, w io.Writer) error {
	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(llmtools.EncodeTools(a.Registry().Specs()))
}

func run(ctx context.Context, cfg app.Config, in io.Reader, out io.Writer) error {
	a, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	return a.Run(ctx, in, out)
}
