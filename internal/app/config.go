package app

import "time"

// Defaults shared by flags, file config and validation.
const (
	DefaultPerSecondLimit = 1
	DefaultPerMonthLimit  = 15000
	DefaultRegion         = "wt-wt"
	DefaultTimeout        = 15 * time.Second
	DefaultUserAgent      = "Mozilla/5.0 (compatible; ddgsearch/1.0; +https://github.com/hyperifyio/ddgsearch)"
	DefaultServerName     = "duckduckgo-search"
)

// Config holds runtime configuration for the server.
type Config struct {
	// Rate limiting
	PerSecondLimit int
	PerMonthLimit  int
	// MonthlyReset is a cron expression ("@monthly", "0 0 1 * *"). Empty keeps
	// the month counter for the lifetime of the process.
	MonthlyReset string

	// DuckDuckGo
	DDGBaseURL   string
	DDGUserAgent string
	DDGRegion    string
	DDGTimeout   time.Duration
	// DDGRequestsPerSecond paces outbound requests; zero disables pacing.
	DDGRequestsPerSecond float64

	// SearchFile switches to the offline JSON provider when set.
	SearchFile string

	Verbose bool
}

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() Config {
	var cfg Config
	FillDefaults(&cfg)
	return cfg
}

// FillDefaults sets every zero-valued field of cfg that has a default.
func FillDefaults(cfg *Config) {
	if cfg == nil {
		return
	}
	if cfg.PerSecondLimit == 0 {
		cfg.PerSecondLimit = DefaultPerSecondLimit
	}
	if cfg.PerMonthLimit == 0 {
		cfg.PerMonthLimit = DefaultPerMonthLimit
	}
	if cfg.DDGUserAgent == "" {
		cfg.DDGUserAgent = DefaultUserAgent
	}
	if cfg.DDGRegion == "" {
		cfg.DDGRegion = DefaultRegion
	}
	if cfg.DDGTimeout == 0 {
		cfg.DDGTimeout = DefaultTimeout
	}
}
