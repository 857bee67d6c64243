package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoadConfigFile_YAML(t *testing.T) {
	p := writeFile(t, "ddgsearch.yaml", `
rate_limit:
  per_second_limit: 2
  per_month_limit: 500
  monthly_reset: "@monthly"
duckduckgo:
  base_url: http://127.0.0.1:9999/html/
  region: fi-fi
  timeout: 3s
  requests_per_second: 0.5
search:
  file: results.json
verbose: true
`)
	fc, err := LoadConfigFile(p)
	require.NoError(t, err)
	assert.Equal(t, 2, fc.RateLimit.PerSecondLimit)
	assert.Equal(t, 500, fc.RateLimit.PerMonthLimit)
	assert.Equal(t, "@monthly", fc.RateLimit.MonthlyReset)
	assert.Equal(t, "fi-fi", fc.DuckDuckGo.Region)
	assert.Equal(t, Duration(3*time.Second), fc.DuckDuckGo.Timeout)
	assert.InDelta(t, 0.5, fc.DuckDuckGo.RequestsPerSecond, 1e-9)
	assert.Equal(t, "results.json", fc.Search.File)
	assert.True(t, fc.Verbose)
}

func TestLoadConfigFile_JSON(t *testing.T) {
	p := writeFile(t, "ddgsearch.json", `{"rate_limit":{"per_month_limit":10},"duckduckgo":{"timeout":"750ms"}}`)
	fc, err := LoadConfigFile(p)
	require.NoError(t, err)
	assert.Equal(t, 10, fc.RateLimit.PerMonthLimit)
	assert.Equal(t, Duration(750*time.Millisecond), fc.DuckDuckGo.Timeout)
}

func TestLoadConfigFile_BadDuration(t *testing.T) {
	p := writeFile(t, "bad.yaml", "duckduckgo:\n  timeout: soon\n")
	_, err := LoadConfigFile(p)
	require.Error(t, err)
}

func TestApplyFileConfig_DefaultsYieldToFile(t *testing.T) {
	cfg := DefaultConfig()
	var fc FileConfig
	fc.RateLimit.PerSecondLimit = 3
	fc.RateLimit.PerMonthLimit = 100
	fc.DuckDuckGo.Region = "de-de"
	fc.DuckDuckGo.Timeout = Duration(time.Second)
	ApplyFileConfig(&cfg, fc)
	assert.Equal(t, 3, cfg.PerSecondLimit)
	assert.Equal(t, 100, cfg.PerMonthLimit)
	assert.Equal(t, "de-de", cfg.DDGRegion)
	assert.Equal(t, time.Second, cfg.DDGTimeout)
}

func TestApplyFileConfig_ExplicitValuesWin(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PerMonthLimit = 42
	cfg.SearchFile = "flag.json"
	var fc FileConfig
	fc.RateLimit.PerMonthLimit = 100
	fc.Search.File = "file.json"
	ApplyFileConfig(&cfg, fc)
	assert.Equal(t, 42, cfg.PerMonthLimit)
	assert.Equal(t, "flag.json", cfg.SearchFile)
}

func TestValidateConfig(t *testing.T) {
	require.NoError(t, ValidateConfig(DefaultConfig()))

	cases := map[string]func(*Config){
		"zero per second":   func(c *Config) { c.PerSecondLimit = 0 },
		"negative month":    func(c *Config) { c.PerMonthLimit = -1 },
		"negative timeout":  func(c *Config) { c.DDGTimeout = -time.Second },
		"negative rps":      func(c *Config) { c.DDGRequestsPerSecond = -1 },
		"bad monthly reset": func(c *Config) { c.MonthlyReset = "every now and then" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(&cfg)
			assert.Error(t, ValidateConfig(cfg))
		})
	}
}

func TestFillDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := Config{PerMonthLimit: 9, DDGRegion: "fi-fi"}
	FillDefaults(&cfg)
	assert.Equal(t, DefaultPerSecondLimit, cfg.PerSecondLimit)
	assert.Equal(t, 9, cfg.PerMonthLimit)
	assert.Equal(t, "fi-fi", cfg.DDGRegion)
	assert.Equal(t, DefaultTimeout, cfg.DDGTimeout)
	assert.Equal(t, DefaultUserAgent, cfg.DDGUserAgent)
	require.NoError(t, ValidateConfig(cfg))
}
