package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvToConfig populates unset fields of cfg from environment variables.
// Explicit cfg values take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
	if cfg == nil {
		return
	}
	if cfg.PerSecondLimit == 0 {
		cfg.PerSecondLimit = envInt("DDG_PER_SECOND_LIMIT")
	}
	if cfg.PerMonthLimit == 0 {
		cfg.PerMonthLimit = envInt("DDG_PER_MONTH_LIMIT")
	}
	if cfg.MonthlyReset == "" {
		cfg.MonthlyReset = strings.TrimSpace(os.Getenv("DDG_MONTHLY_RESET"))
	}
	if cfg.DDGBaseURL == "" {
		cfg.DDGBaseURL = os.Getenv("DDG_BASE_URL")
	}
	if cfg.DDGUserAgent == "" {
		cfg.DDGUserAgent = os.Getenv("DDG_USER_AGENT")
	}
	if cfg.DDGRegion == "" {
		cfg.DDGRegion = os.Getenv("DDG_REGION")
	}
	if cfg.DDGTimeout == 0 {
		if d, ok := envDuration("DDG_TIMEOUT"); ok {
			cfg.DDGTimeout = d
		}
	}
	if cfg.DDGRequestsPerSecond == 0 {
		if f, ok := envFloat("DDG_RPS"); ok {
			cfg.DDGRequestsPerSecond = f
		}
	}
	if cfg.SearchFile == "" {
		cfg.SearchFile = os.Getenv("SEARCH_FILE")
	}
	if !cfg.Verbose {
		if v, ok := envBool("VERBOSE"); ok {
			cfg.Verbose = v
		}
	}
}

// ApplyEnvOverrides forcefully overrides cfg fields with environment variables
// when the corresponding env vars are set. This lets env take precedence over
// values coming from a config file while flags remain highest precedence.
func ApplyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}
	if n := envInt("DDG_PER_SECOND_LIMIT"); n > 0 {
		cfg.PerSecondLimit = n
	}
	if n := envInt("DDG_PER_MONTH_LIMIT"); n > 0 {
		cfg.PerMonthLimit = n
	}
	if v := strings.TrimSpace(os.Getenv("DDG_MONTHLY_RESET")); v != "" {
		cfg.MonthlyReset = v
	}
	if v := os.Getenv("DDG_BASE_URL"); v != "" {
		cfg.DDGBaseURL = v
	}
	if v := os.Getenv("DDG_USER_AGENT"); v != "" {
		cfg.DDGUserAgent = v
	}
	if v := os.Getenv("DDG_REGION"); v != "" {
		cfg.DDGRegion = v
	}
	if d, ok := envDuration("DDG_TIMEOUT"); ok {
		cfg.DDGTimeout = d
	}
	if f, ok := envFloat("DDG_RPS"); ok {
		cfg.DDGRequestsPerSecond = f
	}
	if v := os.Getenv("SEARCH_FILE"); v != "" {
		cfg.SearchFile = v
	}
	// Booleans override when env present and truthy/falsey
	if v, ok := envBool("VERBOSE"); ok {
		cfg.Verbose = v
	}
}

func envInt(key string) int {
	n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

func envFloat(key string) (float64, bool) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0, false
	}
	return f, true
}

func envDuration(key string) (time.Duration, bool) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return 0, false
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, false
	}
	return d, true
}

func envBool(key string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	}
	return false, false
}
