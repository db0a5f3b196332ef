// Package config loads process settings from an optional YAML file and
// ANNEAL_BENCH_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/anneal-bench/anneal-bench/internal/sapi"
	"github.com/anneal-bench/anneal-bench/spinglass"
	"github.com/anneal-bench/anneal-bench/spinglass/compare"
)

// Name is the config file base name and the user config directory name.
const Name = "anneal-bench"

// EnvPrefix prefixes every environment override, e.g. ANNEAL_BENCH_SERVER_ADDR.
const EnvPrefix = "ANNEAL_BENCH"

// Service modes.
const (
	ModeRemote = "remote"
	ModeMock   = "mock"
)

// Config is the full process configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Service  ServiceConfig  `mapstructure:"service" yaml:"service"`
	Topology TopologyConfig `mapstructure:"topology" yaml:"topology"`
	Defaults DefaultsConfig `mapstructure:"defaults" yaml:"defaults"`
	Web      WebConfig      `mapstructure:"web" yaml:"web"`
	Secrets  SecretsConfig  `mapstructure:"secrets" yaml:"secrets"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

type ServiceConfig struct {
	Mode         string        `mapstructure:"mode" yaml:"mode"`
	Endpoint     string        `mapstructure:"endpoint" yaml:"endpoint"`
	Token        string        `mapstructure:"token" yaml:"-"`
	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout"`
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	MockFixture  string        `mapstructure:"mock_fixture" yaml:"mock_fixture"` // empty for the built-in fixture
	// CatalogTTL bounds how long the solver list and prepared intersections
	// are reused before the service is asked again. Zero disables reuse.
	CatalogTTL time.Duration `mapstructure:"catalog_ttl" yaml:"catalog_ttl"`
}

// TopologyConfig controls the on-disk topology cache. An empty path disables
// it.
type TopologyConfig struct {
	CachePath string        `mapstructure:"cache_path" yaml:"cache_path"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`
}

// DefaultsConfig seeds the settings form of a new session.
type DefaultsConfig struct {
	Advantage    string  `mapstructure:"advantage" yaml:"advantage"`
	Advantage2   string  `mapstructure:"advantage2" yaml:"advantage2"`
	Precision    float64 `mapstructure:"precision" yaml:"precision"`
	Distribution string  `mapstructure:"distribution" yaml:"distribution"`
	AnnealType   string  `mapstructure:"anneal_type" yaml:"anneal_type"`
	AnnealTime   float64 `mapstructure:"anneal_time" yaml:"anneal_time"`
}

type WebConfig struct {
	TemplateDir string `mapstructure:"template_dir" yaml:"template_dir"` // empty for embedded templates
}

type SecretsConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// SetDefaults registers every key with its default value. Keys must be
// registered for AutomaticEnv to reach them during Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", "127.0.0.1:8050")
	v.SetDefault("service.mode", ModeRemote)
	v.SetDefault("service.endpoint", sapi.DefaultEndpoint)
	v.SetDefault("service.token", "")
	v.SetDefault("service.timeout", 60*time.Second)
	v.SetDefault("service.poll_interval", time.Second)
	v.SetDefault("service.mock_fixture", "")
	v.SetDefault("service.catalog_ttl", compare.DefaultCacheTTL)
	v.SetDefault("topology.cache_path", "")
	v.SetDefault("topology.cache_ttl", 24*time.Hour)
	v.SetDefault("defaults.advantage", "Advantage_system4.1")
	v.SetDefault("defaults.advantage2", "Advantage2_system1.2")
	v.SetDefault("defaults.precision", spinglass.DefaultPrecision)
	v.SetDefault("defaults.distribution", string(spinglass.DistributionPowerLaw))
	v.SetDefault("defaults.anneal_type", string(spinglass.AnnealStandard))
	v.SetDefault("defaults.anneal_time", spinglass.DefaultAnnealTime)
	v.SetDefault("web.template_dir", "")
	v.SetDefault("secrets.dir", ".secrets")
}

// New returns a viper instance with defaults, environment overrides and, when
// one is found, the config file applied. An explicit cfgFile must exist.
func New(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(Name)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", Name))
		}
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	} else {
		logrus.Infof("Using config file: %s", v.ConfigFileUsed())
	}
	return v, nil
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerations and durations. Default solver names are not
// checked against the catalog here; the UI falls back to the first reachable
// solver.
func (c *Config) Validate() error {
	switch c.Service.Mode {
	case ModeRemote, ModeMock:
	default:
		return fmt.Errorf("config: service.mode must be %q or %q, got %q", ModeRemote, ModeMock, c.Service.Mode)
	}
	if c.Service.PollInterval <= 0 {
		return fmt.Errorf("config: service.poll_interval must be positive, got %s", c.Service.PollInterval)
	}
	if c.Service.Timeout <= 0 {
		return fmt.Errorf("config: service.timeout must be positive, got %s", c.Service.Timeout)
	}
	if c.Service.CatalogTTL < 0 {
		return fmt.Errorf("config: service.catalog_ttl must not be negative, got %s", c.Service.CatalogTTL)
	}
	if c.Topology.CachePath != "" && c.Topology.CacheTTL <= 0 {
		return fmt.Errorf("config: topology.cache_ttl must be positive, got %s", c.Topology.CacheTTL)
	}
	if !spinglass.IsValidAnnealType(c.Defaults.AnnealType) {
		return fmt.Errorf("config: unknown defaults.anneal_type %q; valid: standard, fast", c.Defaults.AnnealType)
	}
	if err := c.Defaults.Weights().Validate(); err != nil {
		return fmt.Errorf("config: defaults: %w", err)
	}
	return nil
}

// Weights returns the default weight settings.
func (d DefaultsConfig) Weights() spinglass.WeightSpec {
	return spinglass.WeightSpec{
		Distribution: spinglass.Distribution(d.Distribution),
		Precision:    d.Precision,
	}
}

// RunConfig returns the initial settings of a new session.
func (d DefaultsConfig) RunConfig() compare.RunConfig {
	return compare.RunConfig{
		Advantage:  d.Advantage,
		Advantage2: d.Advantage2,
		Weights:    d.Weights(),
		Anneal:     spinglass.AnnealSpec{Type: spinglass.AnnealType(d.AnnealType), Time: d.AnnealTime},
	}
}

// Watch reloads the configuration whenever the config file changes. Invalid
// edits are logged and ignored.
func Watch(v *viper.Viper, onChange func(*Config)) {
	if v.ConfigFileUsed() == "" {
		return
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := Load(v)
		if err != nil {
			logrus.WithError(err).WithField("file", e.Name).Warn("ignoring invalid config change")
			return
		}
		logrus.WithField("file", e.Name).Info("config reloaded")
		onChange(cfg)
	})
	v.WatchConfig()
}
