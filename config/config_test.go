package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/candleworks/generic"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Success(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `server:
  listen_addr: ":9090"
  read_timeout: "5s"

database:
  driver: memory

leave:
  policy_year: fiscal_year
  fiscal_year_start_month: 4
  timezone: Europe/Athens
  reset_cron: "0 1 * * *"
  reject_self_overlap: false

log:
  level: DEBUG
  format: json

metrics:
  enabled: false

cors:
  allowed_origins: ["http://localhost:3000"]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.ListenAddr)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, "Europe/Athens", cfg.Leave.Location.String())
	assert.False(t, cfg.Leave.RejectSelfOverlap, "explicit false opts out")
	assert.Equal(t, generic.PolicyYear{Type: generic.PolicyFiscalYear, FiscalYearStartMonth: time.April}, cfg.Leave.Policy())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, ":8080", cfg.Server.ListenAddr)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "candleworks.db", cfg.Database.Path)
	assert.Equal(t, string(generic.PolicyCalendarYear), cfg.Leave.PolicyYear)
	assert.Equal(t, "5 0 * * *", cfg.Leave.ResetCron)
	assert.True(t, cfg.Leave.RejectSelfOverlap)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_Invalid(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"driver":       "database:\n  driver: postgres\n",
		"policy year":  "leave:\n  policy_year: lunar\n",
		"fiscal month": "leave:\n  policy_year: fiscal_year\n  fiscal_year_start_month: 13\n",
		"timezone":     "leave:\n  timezone: Mars/Olympus\n",
		"cron":         "leave:\n  reset_cron: \"every day\"\n",
		"log level":    "log:\n  level: loud\n",
		"timeout":      "server:\n  idle_timeout: soon\n",
		"yaml":         "server: [",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			assert.Error(t, err)
		})
	}
}
