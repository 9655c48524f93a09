// Package config loads the server configuration from a YAML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/warp/candleworks/generic"
)

// Config is the whole server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Leave    LeaveConfig    `yaml:"leave"`
	Log      LogConfig      `yaml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	CORS     CORSConfig     `yaml:"cors"`
}

type ServerConfig struct {
	ListenAddr      string        `yaml:"listen_addr"`
	ReadTimeout     time.Duration `yaml:"-"`
	WriteTimeout    time.Duration `yaml:"-"`
	IdleTimeout     time.Duration `yaml:"-"`
	ReadTimeoutRaw  string        `yaml:"read_timeout"`
	WriteTimeoutRaw string        `yaml:"write_timeout"`
	IdleTimeoutRaw  string        `yaml:"idle_timeout"`
}

// DatabaseConfig selects the store. Driver is "sqlite" or "memory".
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

// LeaveConfig drives the leave scheduler and the yearly counter reset.
type LeaveConfig struct {
	PolicyYear           string         `yaml:"policy_year"`
	FiscalYearStartMonth int            `yaml:"fiscal_year_start_month"`
	Timezone             string         `yaml:"timezone"`
	ResetCron            string         `yaml:"reset_cron"`
	RejectSelfOverlap    bool           `yaml:"reject_self_overlap"`
	Location             *time.Location `yaml:"-"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// preset holds the defaults that are not zero values. YAML only
// overwrites the keys a file actually sets.
func preset() *Config {
	return &Config{
		Leave:   LeaveConfig{RejectSelfOverlap: true},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := preset()
	if err := cfg.validateAndNormalize(); err != nil {
		panic(err)
	}
	return cfg
}

// Load reads the YAML file at path. An empty path or a missing file yields
// the defaults.
func Load(path string) (*Config, error) {
	cfg := preset()

	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("config: read file %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(b, cfg); err != nil {
				return nil, fmt.Errorf("config: parse yaml: %w", err)
			}
		}
	}

	if err := cfg.validateAndNormalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Policy converts the leave settings to the scheduler's policy year.
func (l LeaveConfig) Policy() generic.PolicyYear {
	return generic.PolicyYear{
		Type:                 generic.PolicyYearType(l.PolicyYear),
		FiscalYearStartMonth: time.Month(l.FiscalYearStartMonth),
	}
}

func (c *Config) validateAndNormalize() error {
	if err := c.Server.validateAndNormalize(); err != nil {
		return err
	}
	if err := c.Database.validateAndNormalize(); err != nil {
		return err
	}
	if err := c.Leave.validateAndNormalize(); err != nil {
		return err
	}
	return c.Log.validateAndNormalize()
}

func (s *ServerConfig) validateAndNormalize() error {
	if s.ListenAddr == "" {
		s.ListenAddr = ":8080"
	}

	var err error
	if s.ReadTimeout, err = parseDurationOr(s.ReadTimeoutRaw, 15*time.Second); err != nil {
		return fmt.Errorf("config: server.read_timeout: %w", err)
	}
	if s.WriteTimeout, err = parseDurationOr(s.WriteTimeoutRaw, 15*time.Second); err != nil {
		return fmt.Errorf("config: server.write_timeout: %w", err)
	}
	if s.IdleTimeout, err = parseDurationOr(s.IdleTimeoutRaw, 60*time.Second); err != nil {
		return fmt.Errorf("config: server.idle_timeout: %w", err)
	}
	return nil
}

func (d *DatabaseConfig) validateAndNormalize() error {
	d.Driver = strings.ToLower(strings.TrimSpace(d.Driver))
	switch d.Driver {
	case "":
		d.Driver = "sqlite"
	case "sqlite", "memory":
	default:
		return fmt.Errorf("config: database.driver must be sqlite or memory, got %q", d.Driver)
	}
	if d.Path == "" {
		d.Path = "candleworks.db"
	}
	return nil
}

func (l *LeaveConfig) validateAndNormalize() error {
	switch generic.PolicyYearType(l.PolicyYear) {
	case "":
		l.PolicyYear = string(generic.PolicyCalendarYear)
	case generic.PolicyCalendarYear:
	case generic.PolicyFiscalYear:
		if l.FiscalYearStartMonth < 1 || l.FiscalYearStartMonth > 12 {
			return fmt.Errorf("config: leave.fiscal_year_start_month must be 1-12, got %d", l.FiscalYearStartMonth)
		}
	default:
		return fmt.Errorf("config: leave.policy_year must be calendar_year or fiscal_year, got %q", l.PolicyYear)
	}

	if l.Timezone == "" {
		l.Timezone = "UTC"
	}
	loc, err := time.LoadLocation(l.Timezone)
	if err != nil {
		return fmt.Errorf("config: leave.timezone: %w", err)
	}
	l.Location = loc

	if l.ResetCron == "" {
		l.ResetCron = "5 0 * * *"
	}
	if _, err := cron.ParseStandard(l.ResetCron); err != nil {
		return fmt.Errorf("config: leave.reset_cron: %w", err)
	}
	return nil
}

func (l *LogConfig) validateAndNormalize() error {
	l.Level = strings.ToLower(l.Level)
	switch l.Level {
	case "":
		l.Level = "info"
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level must be debug, info, warn or error, got %q", l.Level)
	}

	l.Format = strings.ToLower(l.Format)
	switch l.Format {
	case "":
		l.Format = "text"
	case "text", "json":
	default:
		return fmt.Errorf("config: log.format must be text or json, got %q", l.Format)
	}
	return nil
}

func parseDurationOr(raw string, def time.Duration) (time.Duration, error) {
	if raw == "" {
		return def, nil
	}
	return time.ParseDuration(raw)
}
