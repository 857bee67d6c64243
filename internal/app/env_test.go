package app

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvFiles_DoesNotOverrideExisting(t *testing.T) {
	p := writeFile(t, ".env", "DDG_REGION=fi-fi\n# comment\nDDG_USER_AGENT=\"from file\"\n")
	t.Setenv("DDG_REGION", "us-en")
	t.Setenv("DDG_USER_AGENT", "")
	require.NoError(t, os.Unsetenv("DDG_USER_AGENT"))

	require.NoError(t, LoadEnvFiles("", p, p+".missing"))
	assert.Equal(t, "us-en", os.Getenv("DDG_REGION"))
	assert.Equal(t, "from file", os.Getenv("DDG_USER_AGENT"))
}

func TestApplyEnvToConfig_FillsUnsetOnly(t *testing.T) {
	t.Setenv("DDG_PER_SECOND_LIMIT", "4")
	t.Setenv("DDG_PER_MONTH_LIMIT", "99")
	t.Setenv("DDG_TIMEOUT", "2s")
	t.Setenv("DDG_RPS", "0.25")
	t.Setenv("VERBOSE", "yes")

	cfg := Config{PerMonthLimit: 7}
	ApplyEnvToConfig(&cfg)
	assert.Equal(t, 4, cfg.PerSecondLimit)
	assert.Equal(t, 7, cfg.PerMonthLimit)
	assert.Equal(t, 2*time.Second, cfg.DDGTimeout)
	assert.InDelta(t, 0.25, cfg.DDGRequestsPerSecond, 1e-9)
	assert.True(t, cfg.Verbose)
}

func TestApplyEnvOverrides_BeatsFileValues(t *testing.T) {
	t.Setenv("DDG_PER_MONTH_LIMIT", "20")
	t.Setenv("DDG_MONTHLY_RESET", "@monthly")
	t.Setenv("SEARCH_FILE", "env.json")
	t.Setenv("VERBOSE", "off")
	t.Setenv("DDG_PER_SECOND_LIMIT", "nope")

	cfg := DefaultConfig()
	cfg.PerMonthLimit = 100
	cfg.SearchFile = "file.json"
	cfg.Verbose = true
	ApplyEnvOverrides(&cfg)
	assert.Equal(t, 20, cfg.PerMonthLimit)
	assert.Equal(t, "@monthly", cfg.MonthlyReset)
	assert.Equal(t, "env.json", cfg.SearchFile)
	assert.False(t, cfg.Verbose)
	assert.Equal(t, DefaultPerSecondLimit, cfg.PerSecondLimit)
}

func TestApplyEnvToConfig_ThenDefaults(t *testing.T) {
	t.Setenv("DDG_REGION", "se-sv")
	t.Setenv("SEARCH_FILE", "env.json")
	t.Setenv("DDG_PER_SECOND_LIMIT", "")

	cfg := Config{SearchFile: "flag.json"}
	ApplyEnvToConfig(&cfg)
	FillDefaults(&cfg)
	assert.Equal(t, "flag.json", cfg.SearchFile)
	assert.Equal(t, "se-sv", cfg.DDGRegion)
	assert.Equal(t, DefaultPerSecondLimit, cfg.PerSecondLimit)
	assert.Equal(t, DefaultTimeout, cfg.DDGTimeout)
}
