package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"

	"github.com/kalletarpila/swingmaster/internal/alert"
	"github.com/kalletarpila/swingmaster/internal/core"
	"github.com/kalletarpila/swingmaster/internal/dow"
	"github.com/kalletarpila/swingmaster/internal/policy"
	"github.com/kalletarpila/swingmaster/internal/provider"
	"github.com/kalletarpila/swingmaster/internal/storage/archive"
)

type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Policy   PolicyConfig   `mapstructure:"policy"`
	Provider ProviderConfig `mapstructure:"provider"`
	Dow      DowConfig      `mapstructure:"dow"`
	Universe UniverseConfig `mapstructure:"universe"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Alerts   AlertsConfig   `mapstructure:"alerts"`
	API      APIConfig      `mapstructure:"api"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Log      LogConfig      `mapstructure:"log"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type PolicyConfig struct {
	Version string `mapstructure:"version"`
}

type ProviderConfig struct {
	Lookback int `mapstructure:"lookback"`
	MinBars  int `mapstructure:"min_bars"`
}

type DowConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	Window           int     `mapstructure:"window"`
	NearDuplicatePct float64 `mapstructure:"near_duplicate_pct"`
	CrossEpsilon     float64 `mapstructure:"cross_epsilon"`
	BreakBars        int     `mapstructure:"break_bars"`
	FactsEpsilon     float64 `mapstructure:"facts_epsilon"`
}

// UniverseConfig lists the tickers evaluated by default. Empty means every
// ticker with a bar on the run date.
type UniverseConfig struct {
	Tickers []string `mapstructure:"tickers"`
}

type ArchiveConfig struct {
	Type string   `mapstructure:"type"` // "", "localfs" or "s3"
	Path string   `mapstructure:"path"` // For localfs
	S3   S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`     // scrape endpoint in schedule mode
	Textfile string `mapstructure:"textfile"` // written after every run when set
}

// ScheduleConfig drives the cron scheduler.
type ScheduleConfig struct {
	Cron     string `mapstructure:"cron"`
	Timezone string `mapstructure:"timezone"`
}

// NotifyConfig selects the channels that receive transition alerts.
// States limits alerts to transitions into those states; empty means all.
type NotifyConfig struct {
	States   []string       `mapstructure:"states"`
	Webhook  WebhookConfig  `mapstructure:"webhook"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Email    EmailConfig    `mapstructure:"email"`
}

type WebhookConfig struct {
	Enabled bool              `mapstructure:"enabled"`
	URL     string            `mapstructure:"url"`
	Headers map[string]string `mapstructure:"headers"`
}

type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

type EmailConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	Host     string   `mapstructure:"host"`
	Port     int      `mapstructure:"port"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	From     string   `mapstructure:"from"`
	To       []string `mapstructure:"to"`
}

// AlertsConfig holds run health rules. Firings go to the notify channels.
type AlertsConfig struct {
	Cooldown time.Duration `mapstructure:"cooldown"`
	Rules    []alert.Rule  `mapstructure:"rules"`
}

// APIConfig controls the read-only query API.
type APIConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
	APIKey  string `mapstructure:"api_key"` // empty disables auth
}

// FetchConfig controls bar downloads from a remote source.
type FetchConfig struct {
	Source    string `mapstructure:"source"`
	Days      int    `mapstructure:"days"`       // calendar days fetched per ticker
	BeforeRun bool   `mapstructure:"before_run"` // refresh bars before each scheduled run
}

type LogConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// Load reads configuration from file. A .env file next to the working
// directory is loaded first so ${VAR} references can resolve from it.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.SetEnvPrefix("SWINGMASTER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("policy.version", d.Policy.Version)
	v.SetDefault("provider.lookback", d.Provider.Lookback)
	v.SetDefault("provider.min_bars", d.Provider.MinBars)
	v.SetDefault("dow.enabled", d.Dow.Enabled)
	v.SetDefault("dow.window", d.Dow.Window)
	v.SetDefault("dow.near_duplicate_pct", d.Dow.NearDuplicatePct)
	v.SetDefault("dow.cross_epsilon", d.Dow.CrossEpsilon)
	v.SetDefault("dow.break_bars", d.Dow.BreakBars)
	v.SetDefault("dow.facts_epsilon", d.Dow.FactsEpsilon)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.addr", d.Metrics.Addr)
	v.SetDefault("schedule.cron", d.Schedule.Cron)
	v.SetDefault("schedule.timezone", d.Schedule.Timezone)
	v.SetDefault("notify.states", d.Notify.States)
	v.SetDefault("api.addr", d.API.Addr)
	v.SetDefault("fetch.source", d.Fetch.Source)
	v.SetDefault("fetch.days", d.Fetch.Days)
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	pc := provider.DefaultConfig()
	return &Config{
		Database: DatabaseConfig{
			Path: "data/swingmaster.db",
		},
		Policy: PolicyConfig{
			Version: policy.VersionV3,
		},
		Provider: ProviderConfig{
			Lookback: pc.Lookback,
			MinBars:  pc.MinBars,
		},
		Dow: DowConfig{
			Enabled:          pc.DowEnabled,
			Window:           pc.Dow.Window,
			NearDuplicatePct: pc.Dow.NearDuplicatePct,
			CrossEpsilon:     pc.Dow.CrossEpsilon,
			BreakBars:        pc.Dow.BreakBars,
			FactsEpsilon:     pc.FactsEpsilon,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    ":9108",
		},
		Schedule: ScheduleConfig{
			Cron:     "30 18 * * 1-5",
			Timezone: "Europe/Helsinki",
		},
		Notify: NotifyConfig{
			States: []string{string(core.StateEntryWindow), string(core.StatePass)},
		},
		API: APIConfig{
			Addr: ":8080",
		},
		Fetch: FetchConfig{
			Source: "yahoo",
			Days:   400,
		},
	}
}

// ProviderSettings maps the provider and dow sections onto provider.Config.
func (c *Config) ProviderSettings() provider.Config {
	return provider.Config{
		Lookback:   c.Provider.Lookback,
		MinBars:    c.Provider.MinBars,
		DowEnabled: c.Dow.Enabled,
		Dow: dow.Config{
			Window:           c.Dow.Window,
			NearDuplicatePct: c.Dow.NearDuplicatePct,
			CrossEpsilon:     c.Dow.CrossEpsilon,
			BreakBars:        c.Dow.BreakBars,
		},
		FactsEpsilon: c.Dow.FactsEpsilon,
	}
}

// ArchiveSettings maps the archive section onto archive.Config.
func (c *Config) ArchiveSettings() archive.Config {
	return archive.Config{
		Backend: c.Archive.Type,
		Path:    c.Archive.Path,
		S3: archive.S3Config{
			Bucket:    c.Archive.S3.Bucket,
			Endpoint:  c.Archive.S3.Endpoint,
			Region:    c.Archive.S3.Region,
			AccessKey: c.Archive.S3.AccessKey,
			SecretKey: c.Archive.S3.SecretKey,
			Prefix:    c.Archive.S3.Prefix,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return core.WrapError(core.ErrConfigMissing, fmt.Errorf("database.path is required"))
	}

	if !knownVersion(c.Policy.Version) {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("policy.version must be one of %v, got %q", policy.Versions(), c.Policy.Version))
	}

	if err := c.ProviderSettings().Validate(); err != nil {
		return err
	}

	switch c.Archive.Type {
	case archive.BackendNone:
	case archive.BackendLocalFS:
		if c.Archive.Path == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("archive.path required when archive type is localfs"))
		}
	case archive.BackendS3:
		if c.Archive.S3.Bucket == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("archive.s3.bucket required when archive type is s3"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("archive.type must be localfs or s3, got %q", c.Archive.Type))
	}

	if _, err := c.NotifyStates(); err != nil {
		return err
	}
	if c.Notify.Webhook.Enabled && c.Notify.Webhook.URL == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("notify.webhook.url required when webhook is enabled"))
	}
	if c.Notify.Telegram.Enabled && (c.Notify.Telegram.BotToken == "" || c.Notify.Telegram.ChatID == "") {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("notify.telegram bot_token and chat_id required when telegram is enabled"))
	}
	if c.Notify.Email.Enabled && (c.Notify.Email.Host == "" || c.Notify.Email.From == "" || len(c.Notify.Email.To) == 0) {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("notify.email host, from and to required when email is enabled"))
	}

	if c.Alerts.Cooldown < 0 {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("alerts.cooldown must not be negative"))
	}
	seen := make(map[string]bool, len(c.Alerts.Rules))
	for _, rule := range c.Alerts.Rules {
		if err := rule.Validate(); err != nil {
			return core.WrapError(core.ErrConfigInvalid, err)
		}
		if seen[rule.Name] {
			return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("alert rule %s defined twice", rule.Name))
		}
		seen[rule.Name] = true
	}

	if c.API.Enabled && c.API.Addr == "" {
		return core.WrapError(core.ErrConfigMissing, fmt.Errorf("api.addr required when api is enabled"))
	}
	if c.Fetch.Source != "" && c.Fetch.Source != "yahoo" {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("fetch.source must be yahoo, got %q", c.Fetch.Source))
	}
	if c.Fetch.Days <= 0 {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("fetch.days must be positive"))
	}
	if c.Fetch.BeforeRun && c.Fetch.Source == "" {
		return core.WrapError(core.ErrConfigMissing, fmt.Errorf("fetch.source required when fetch.before_run is set"))
	}

	if c.Schedule.Cron != "" {
		if _, err := cron.ParseStandard(c.Schedule.Cron); err != nil {
			return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("schedule.cron: %w", err))
		}
	}
	if c.Schedule.Timezone != "" {
		if _, err := c.Schedule.Location(); err != nil {
			return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("schedule.timezone: %w", err))
		}
	}

	return nil
}

// NotifyStates parses notify.states
func (c *Config) NotifyStates() ([]core.State, error) {
	out := make([]core.State, 0, len(c.Notify.States))
	for _, name := range c.Notify.States {
		st, err := core.ParseState(strings.ToUpper(strings.TrimSpace(name)))
		if err != nil {
			return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("notify.states: %w", err))
		}
		out = append(out, st)
	}
	return out, nil
}

// HealthRules builds the run health evaluator, nil when no rules are set.
func (c *Config) HealthRules() *alert.Evaluator {
	if len(c.Alerts.Rules) == 0 {
		return nil
	}
	e := alert.NewEvaluator(c.Alerts.Rules)
	e.SetCooldown(c.Alerts.Cooldown)
	return e
}

// Location resolves the schedule timezone, UTC when unset.
func (s ScheduleConfig) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(s.Timezone)
}

func knownVersion(v string) bool {
	for _, known := range policy.Versions() {
		if v == known {
			return true
		}
	}
	return false
}
