package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const (
	configFile = "config.toml"
	envPrefix  = "GIFTWELL"

	defaultAPIURL      = "http://localhost:8000/api"
	defaultRealtimeURL = "ws://localhost:8000/ws"
)

var configTemplate = `# config.toml

[api]
  # Base URL of the gift API.
  # Default: "{{ .apiURL }}"
  url = "{{ .apiURL }}"

  # API token. Prefer GIFTWELL_API_TOKEN over storing it here.
  #token = ""

  # Request timeout.
  # Default: "30s"
  timeout = "30s"

[realtime]
  # WebSocket endpoint for live updates.
  # Default: "{{ .realtimeURL }}"
  url = "{{ .realtimeURL }}"

  # Disable to rely on polling only.
  # Default: true
  enabled = true

  # Coalesce bursts of events into one refetch.
  # Default: "250ms"
  debounce = "250ms"

[cache]
  # Default time before cached data is considered stale.
  # Default: "5m"
  stale_time = "5m"

  # Time an unobserved entry stays cached.
  # Default: "5m"
  gc_time = "5m"

  # Keep a snapshot of the cache on disk so the dashboard starts warm.
  # Default: true
  persist = true

  # How often the snapshot is written.
  # Default: "1m"
  persist_interval = "1m"

[polling]
  # Refetch interval used while the realtime connection is down.
  # Default: "10s"
  interval = "10s"

[logging]
  # Log file directory. Empty logs to stderr only.
  # Default: ""
  #path = "log/"

  # Options: "ERROR", "WARN", "INFO", "DEBUG", "TRACE"
  # Default: "INFO"
  level = "INFO"

  # Maximum size of a log file in MB before it is rotated.
  # Default: 50
  max_file_size = 50

  # Maximum number of old log files to keep.
  # Default: 3
  max_backup_count = 3
`

// API holds REST client settings
type API struct {
	URL     string        `mapstructure:"url"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Realtime holds WebSocket settings
type Realtime struct {
	URL      string        `mapstructure:"url"`
	Enabled  bool          `mapstructure:"enabled"`
	Debounce time.Duration `mapstructure:"debounce"`
}

// Cache holds query cache settings
type Cache struct {
	StaleTime       time.Duration `mapstructure:"stale_time"`
	GCTime          time.Duration `mapstructure:"gc_time"`
	Persist         bool          `mapstructure:"persist"`
	PersistInterval time.Duration `mapstructure:"persist_interval"`
}

// Polling holds the fallback polling settings
type Polling struct {
	Interval time.Duration `mapstructure:"interval"`
}

// Logging holds logging settings
type Logging struct {
	Path           string `mapstructure:"path"`
	Level          string `mapstructure:"level"`
	MaxFileSize    int    `mapstructure:"max_file_size"`
	MaxBackupCount int    `mapstructure:"max_backup_count"`
}

// Config is the application configuration, mapped from config.toml
type Config struct {
	Version    string // not from config file
	ConfigPath string // not from config file

	API      API      `mapstructure:"api"`
	Realtime Realtime `mapstructure:"realtime"`
	Cache    Cache    `mapstructure:"cache"`
	Polling  Polling  `mapstructure:"polling"`
	Logging  Logging  `mapstructure:"logging"`
}

// AppConfig owns the loaded config and the viper instance backing it.
type AppConfig struct {
	m      sync.RWMutex
	config *Config
	v      *viper.Viper
}

// reloadLogger is the subset of logger.Logger used on reload.
type reloadLogger interface {
	Info() *zerolog.Event
	Error() *zerolog.Event
	Debug() *zerolog.Event
	SetLogLevel(level string)
}

// New loads the config from configPath (a directory). An empty path searches
// ./, $HOME/.config/giftwell and $HOME/.giftwell.
func New(configPath string, version string) (*AppConfig, error) {
	c := &AppConfig{v: viper.New()}
	c.defaults()

	if err := c.load(configPath); err != nil {
		return nil, err
	}

	c.config.Version = version
	c.config.ConfigPath = configPath
	return c, nil
}

// Get returns the current config. The returned value must not be mutated.
func (c *AppConfig) Get() *Config {
	c.m.RLock()
	defer c.m.RUnlock()
	return c.config
}

// Viper exposes the underlying viper instance.
func (c *AppConfig) Viper() *viper.Viper {
	return c.v
}

func (c *AppConfig) defaults() {
	v := c.v
	v.SetDefault("api.url", defaultAPIURL)
	v.SetDefault("api.token", "")
	v.SetDefault("api.timeout", "30s")
	v.SetDefault("realtime.url", defaultRealtimeURL)
	v.SetDefault("realtime.enabled", true)
	v.SetDefault("realtime.debounce", "250ms")
	v.SetDefault("cache.stale_time", "5m")
	v.SetDefault("cache.gc_time", "5m")
	v.SetDefault("cache.persist", true)
	v.SetDefault("cache.persist_interval", "1m")
	v.SetDefault("polling.interval", "10s")
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.level", "INFO")
	v.SetDefault("logging.max_file_size", 50)
	v.SetDefault("logging.max_backup_count", 3)
}

func (c *AppConfig) load(configPath string) error {
	v := c.v
	v.SetConfigType("toml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		configPath = filepath.Clean(configPath)
		if err := writeConfig(configPath, configFile); err != nil {
			return fmt.Errorf("write default config: %w", err)
		}
		v.SetConfigFile(filepath.Join(configPath, configFile))
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/giftwell")
		v.AddConfigPath("$HOME/.giftwell")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("unmarshal config %s: %w", v.ConfigFileUsed(), err)
	}
	c.config = &cfg
	return nil
}

// DynamicReload watches the config file and swaps the config on change.
// Only the log level takes effect immediately; other settings apply to new
// components.
func (c *AppConfig) DynamicReload(log reloadLogger) {
	if c.v.ConfigFileUsed() == "" {
		return
	}

	c.v.OnConfigChange(func(e fsnotify.Event) {
		log.Info().Msgf("Config file changed: %s. Reloading configuration.", e.Name)

		var next Config
		if err := c.v.Unmarshal(&next); err != nil {
			log.Error().Err(err).Msg("Error unmarshalling config during dynamic reload")
			return
		}

		c.m.Lock()
		next.Version = c.config.Version
		next.ConfigPath = c.config.ConfigPath
		c.config = &next
		c.m.Unlock()

		log.SetLogLevel(next.Logging.Level)
		log.Debug().Msg("Configuration reloaded")
	})
	c.v.WatchConfig()
}

// ConfigDir returns ~/.config/giftwell, creating it if necessary.
// GIFTWELL_HOME overrides the location.
func ConfigDir() (string, error) {
	if dir := os.Getenv(envPrefix + "_HOME"); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("create config dir: %w", err)
		}
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	dir := filepath.Join(home, ".config", "giftwell")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	return dir, nil
}

func writeConfig(configPath string, name string) error {
	if err := os.MkdirAll(configPath, 0755); err != nil {
		return err
	}

	cfgPath := filepath.Join(configPath, name)
	if _, err := os.Stat(cfgPath); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	tmpl, err := template.New("config").Parse(configTemplate)
	if err != nil {
		return fmt.Errorf("parse config template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, map[string]string{
		"apiURL":      defaultAPIURL,
		"realtimeURL": defaultRealtimeURL,
	}); err != nil {
		return fmt.Errorf("render config template: %w", err)
	}

	return os.WriteFile(cfgPath, buf.Bytes(), 0644)
}
