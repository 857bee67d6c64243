package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/hyperifyio/ddgsearch/internal/quota"
)

// FileConfig represents the single-file configuration schema.
type FileConfig struct {
	RateLimit struct {
		PerSecondLimit int    `yaml:"per_second_limit" json:"per_second_limit"`
		PerMonthLimit  int    `yaml:"per_month_limit" json:"per_month_limit"`
		MonthlyReset   string `yaml:"monthly_reset" json:"monthly_reset"`
	} `yaml:"rate_limit" json:"rate_limit"`

	DuckDuckGo struct {
		BaseURL           string   `yaml:"base_url" json:"base_url"`
		UserAgent         string   `yaml:"user_agent" json:"user_agent"`
		Region            string   `yaml:"region" json:"region"`
		Timeout           Duration `yaml:"timeout" json:"timeout"`
		RequestsPerSecond float64  `yaml:"requests_per_second" json:"requests_per_second"`
	} `yaml:"duckduckgo" json:"duckduckgo"`

	Search struct {
		File string `yaml:"file" json:"file"`
	} `yaml:"search" json:"search"`

	Verbose bool `yaml:"verbose" json:"verbose"`
}

// Duration accepts "15s" style strings in YAML and JSON.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	return d.parse(s)
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	return d.parse(s)
}

func (d *Duration) parse(s string) error {
	if strings.TrimSpace(s) == "" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		// Try YAML then JSON
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays values from fc into cfg for fields still at their
// zero value or default. Flags and environment are applied afterwards, so
// they win.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	if (cfg.PerSecondLimit == 0 || cfg.PerSecondLimit == DefaultPerSecondLimit) && fc.RateLimit.PerSecondLimit > 0 {
		cfg.PerSecondLimit = fc.RateLimit.PerSecondLimit
	}
	if (cfg.PerMonthLimit == 0 || cfg.PerMonthLimit == DefaultPerMonthLimit) && fc.RateLimit.PerMonthLimit > 0 {
		cfg.PerMonthLimit = fc.RateLimit.PerMonthLimit
	}
	if cfg.MonthlyReset == "" && fc.RateLimit.MonthlyReset != "" {
		cfg.MonthlyReset = fc.RateLimit.MonthlyReset
	}

	if cfg.DDGBaseURL == "" && fc.DuckDuckGo.BaseURL != "" {
		cfg.DDGBaseURL = fc.DuckDuckGo.BaseURL
	}
	if (cfg.DDGUserAgent == "" || cfg.DDGUserAgent == DefaultUserAgent) && fc.DuckDuckGo.UserAgent != "" {
		cfg.DDGUserAgent = fc.DuckDuckGo.UserAgent
	}
	if (cfg.DDGRegion == "" || cfg.DDGRegion == DefaultRegion) && fc.DuckDuckGo.Region != "" {
		cfg.DDGRegion = fc.DuckDuckGo.Region
	}
	if (cfg.DDGTimeout == 0 || cfg.DDGTimeout == DefaultTimeout) && fc.DuckDuckGo.Timeout > 0 {
		cfg.DDGTimeout = time.Duration(fc.DuckDuckGo.Timeout)
	}
	if cfg.DDGRequestsPerSecond == 0 && fc.DuckDuckGo.RequestsPerSecond > 0 {
		cfg.DDGRequestsPerSecond = fc.DuckDuckGo.RequestsPerSecond
	}

	if cfg.SearchFile == "" && fc.Search.File != "" {
		cfg.SearchFile = fc.Search.File
	}
	if !cfg.Verbose && fc.Verbose {
		cfg.Verbose = true
	}
}

// ValidateConfig rejects settings the server cannot run with.
func ValidateConfig(cfg Config) error {
	if cfg.PerSecondLimit <= 0 {
		return errors.New("config: per_second_limit must be positive")
	}
	if cfg.PerMonthLimit <= 0 {
		return errors.New("config: per_month_limit must be positive")
	}
	if cfg.DDGTimeout < 0 {
		return errors.New("config: duckduckgo timeout must not be negative")
	}
	if cfg.DDGRequestsPerSecond < 0 {
		return errors.New("config: duckduckgo requests_per_second must not be negative")
	}
	if _, err := quota.ParseResetSchedule(cfg.MonthlyReset); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
