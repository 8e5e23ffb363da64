// Package config loads settings from ~/.ofocus/config.yaml, an optional .env
// file and OFOCUS_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/kutbudev/ofocus-cli/internal/executor"
)

const (
	configDirName  = ".ofocus"
	configFileName = "config.yaml"
	envPrefix      = "OFOCUS"
)

// Config is the resolved configuration.
type Config struct {
	AppName         string        `mapstructure:"app_name"`
	Interpreter     string        `mapstructure:"interpreter"`
	InterpreterArgs []string      `mapstructure:"interpreter_args"`
	Timeout         time.Duration `mapstructure:"timeout"`
	LongTimeout     time.Duration `mapstructure:"long_timeout"`
	KillGrace       time.Duration `mapstructure:"kill_grace"`
	MaxDirectSize   int           `mapstructure:"max_direct_size"`
	MaxBridgeSize   int           `mapstructure:"max_bridge_size"`
	LogLevel        string        `mapstructure:"log_level"`
	Cache           CacheConfig   `mapstructure:"cache"`
	Output          OutputConfig  `mapstructure:"output"`
}

// CacheConfig controls the on-disk list cache.
type CacheConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Dir         string        `mapstructure:"dir"`
	ProjectsTTL time.Duration `mapstructure:"projects_ttl"`
	TagsTTL     time.Duration `mapstructure:"tags_ttl"`
	FoldersTTL  time.Duration `mapstructure:"folders_ttl"`
}

// OutputConfig controls CLI rendering.
type OutputConfig struct {
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}

// GetConfigDir returns ~/.ofocus.
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configDirName), nil
}

// GetConfigPath returns the default config file path (~/.ofocus/config.yaml).
func GetConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

func setDefaults(v *viper.Viper, dir string) {
	v.SetDefault("app_name", "OmniFocus")
	v.SetDefault("interpreter", executor.DefaultInterpreter)
	v.SetDefault("interpreter_args", []string{"-l", "JavaScript"})
	v.SetDefault("timeout", executor.DefaultTimeout)
	v.SetDefault("long_timeout", executor.DefaultLongTimeout)
	v.SetDefault("kill_grace", executor.DefaultKillGrace)
	v.SetDefault("max_direct_size", executor.DefaultMaxDirectSize)
	v.SetDefault("max_bridge_size", executor.DefaultMaxBridgeSize)
	v.SetDefault("log_level", "warn")
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.dir", filepath.Join(dir, "cache"))
	v.SetDefault("cache.projects_ttl", 5*time.Minute)
	v.SetDefault("cache.tags_ttl", 10*time.Minute)
	v.SetDefault("cache.folders_ttl", 10*time.Minute)
	v.SetDefault("output.format", "text")
	v.SetDefault("output.color", true)
}

// Loader owns the viper instance behind a Config.
type Loader struct {
	mu   sync.RWMutex
	v    *viper.Viper
	path string
	cfg  *Config
}

// Load reads configuration. An empty path means the default location; a
// missing file is not an error.
func Load(path string) (*Loader, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return nil, err
	}
	if path == "" {
		path = filepath.Join(dir, configFileName)
	}

	// .env in the working directory wins over the one next to the config file.
	for _, p := range []string{".env", filepath.Join(filepath.Dir(path), ".env")} {
		_ = godotenv.Load(p)
	}

	v := viper.New()
	setDefaults(v, filepath.Dir(path))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	l := &Loader{v: v, path: path}
	if err := l.reload(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Loader) reload() error {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	l.mu.Lock()
	l.cfg = &cfg
	l.mu.Unlock()
	return nil
}

// Config returns the current configuration.
func (l *Loader) Config() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cfg
}

// Path returns the config file path.
func (l *Loader) Path() string { return l.path }

// Keys lists every known setting.
func (l *Loader) Keys() []string {
	keys := l.v.AllKeys()
	sort.Strings(keys)
	return keys
}

// Set validates and persists one setting.
func (l *Loader) Set(key, value string) error {
	key = strings.ToLower(strings.TrimSpace(key))
	if !l.v.IsSet(key) {
		return fmt.Errorf("unknown config key %q", key)
	}
	prev := l.v.Get(key)
	l.v.Set(key, value)
	if err := l.reload(); err != nil {
		l.v.Set(key, prev)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return err
	}
	return l.v.WriteConfigAs(l.path)
}

// YAML renders the effective settings.
func (l *Loader) YAML() ([]byte, error) {
	return yaml.Marshal(l.v.AllSettings())
}

// Watch calls fn with the new configuration whenever the file changes.
// Invalid edits are logged and ignored.
func (l *Loader) Watch(logger *slog.Logger, fn func(*Config)) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		if err := l.reload(); err != nil {
			logger.Warn("config reload failed", "path", e.Name, "error", err)
			return
		}
		logger.Info("config reloaded", "path", e.Name)
		fn(l.Config())
	})
	l.v.WatchConfig()
}

// Validate rejects settings the executor cannot work with.
func (c *Config) Validate() error {
	if c.Timeout <= 0 || c.LongTimeout <= 0 {
		return errors.New("timeouts must be positive")
	}
	if c.LongTimeout < c.Timeout {
		return fmt.Errorf("long_timeout (%s) is shorter than timeout (%s)", c.LongTimeout, c.Timeout)
	}
	if c.MaxDirectSize <= 0 || c.MaxBridgeSize <= 0 {
		return errors.New("script size limits must be positive")
	}
	switch c.Output.Format {
	case "text", "json", "csv", "markdown":
	default:
		return fmt.Errorf("unknown output format %q", c.Output.Format)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Executor converts the settings into an executor configuration.
func (c *Config) Executor() executor.Config {
	return executor.Config{
		Interpreter:    c.Interpreter,
		Args:           c.InterpreterArgs,
		MaxDirectSize:  c.MaxDirectSize,
		MaxBridgeSize:  c.MaxBridgeSize,
		DefaultTimeout: c.Timeout,
		LongTimeout:    c.LongTimeout,
		KillGrace:      c.KillGrace,
	}
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return lvl, nil
}
