package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Paint   PaintConfig   `mapstructure:"paint"`
	Automap AutomapConfig `mapstructure:"automap"`
	Session SessionConfig `mapstructure:"session"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	// File enables a rotating log file next to console output
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// PaintConfig holds terrain painting settings
type PaintConfig struct {
	CorrectionsEnabled bool `mapstructure:"corrections_enabled"`
	// Seed for tie-breaking; 0 seeds from the clock
	Seed           int64 `mapstructure:"seed"`
	MaxTargetCells int   `mapstructure:"max_target_cells"`
}

// AutomapConfig holds automap settings
type AutomapConfig struct {
	MaxIterations int `mapstructure:"max_iterations"`
	// Mode overrides the rule file's mode when set
	Mode string `mapstructure:"mode"`
}

// SessionConfig holds editing session settings
type SessionConfig struct {
	UndoDepth int `mapstructure:"undo_depth"`
}

var (
	// Global config instance
	cfg *Config
	v   *viper.Viper
)

// setViperDefaults sets all default values using Viper's SetDefault
func setViperDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)

	v.SetDefault("paint.corrections_enabled", true)
	v.SetDefault("paint.seed", 0)
	v.SetDefault("paint.max_target_cells", 65536)

	v.SetDefault("automap.max_iterations", 100)
	v.SetDefault("automap.mode", "")

	v.SetDefault("session.undo_depth", 64)
}

// Init initializes the configuration
func Init(configPath string) error {
	v = viper.New()

	setViperDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/terrainfill")
	}

	v.SetEnvPrefix("TERRAINFILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// Only a missing file falls back to defaults
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg = &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	return nil
}

// Get returns the global config instance
func Get() *Config {
	if cfg == nil {
		if err := Init(""); err != nil {
			panic("failed to initialize config with defaults: " + err.Error())
		}
	}
	return cfg
}

// LoadEnvironmentConfig merges config.<env>.yaml, looked up next to the
// loaded config file, over the active config. A missing file is ignored.
func LoadEnvironmentConfig(env string) error {
	if env == "" {
		return nil
	}

	dir := "."
	if used := v.ConfigFileUsed(); used != "" {
		dir = filepath.Dir(used)
	}
	envFile := filepath.Join(dir, fmt.Sprintf("config.%s.yaml", env))

	ev := viper.New()
	ev.SetConfigFile(envFile)
	if err := ev.ReadInConfig(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("error reading environment config %s: %w", envFile, err)
	}

	// Validate the merged result before touching the active instance
	candidate := viper.New()
	setViperDefaults(candidate)
	if err := candidate.MergeConfigMap(v.AllSettings()); err != nil {
		return fmt.Errorf("error merging environment config %s: %w", envFile, err)
	}
	if err := candidate.MergeConfigMap(ev.AllSettings()); err != nil {
		return fmt.Errorf("error merging environment config %s: %w", envFile, err)
	}
	next := &Config{}
	if err := candidate.Unmarshal(next); err != nil {
		return fmt.Errorf("unable to decode merged config into struct: %w", err)
	}
	if err := Validate(next); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if err := v.MergeConfigMap(ev.AllSettings()); err != nil {
		return fmt.Errorf("error merging environment config %s: %w", envFile, err)
	}
	*cfg = *next
	return nil
}

// Set allows runtime config updates
func Set(key string, value interface{}) {
	v.Set(key, value)
	_ = v.Unmarshal(cfg)
}

// ConfigFilePath returns the path of the loaded config file
func ConfigFilePath() string {
	return v.ConfigFileUsed()
}

// WatchConfig enables hot-reloading of config file. Changes that fail
// validation are kept out of the active config.
func WatchConfig(onChange func(*Config)) {
	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		next := &Config{}
		if err := v.Unmarshal(next); err != nil {
			return
		}
		if err := Validate(next); err != nil {
			return
		}
		*cfg = *next
		if onChange != nil {
			onChange(cfg)
		}
	})
}

// Validate validates the configuration values
func Validate(c *Config) error {
	if _, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level)); err != nil {
		return fmt.Errorf("log.level %q is not a valid level", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json")
	}
	if c.Log.MaxSizeMB <= 0 {
		return fmt.Errorf("log.max_size_mb must be positive")
	}
	if c.Log.MaxBackups < 0 || c.Log.MaxAgeDays < 0 {
		return fmt.Errorf("log.max_backups and log.max_age_days must be non-negative")
	}

	if c.Paint.MaxTargetCells < 0 {
		return fmt.Errorf("paint.max_target_cells must be non-negative")
	}

	if c.Automap.MaxIterations < 1 || c.Automap.MaxIterations > 100 {
		return fmt.Errorf("automap.max_iterations must be between 1 and 100")
	}
	switch strings.ToLower(c.Automap.Mode) {
	case "", "once", "until_stable":
	default:
		return fmt.Errorf("automap.mode must be once or until_stable")
	}

	if c.Session.UndoDepth < 0 {
		return fmt.Errorf("session.undo_depth must be non-negative")
	}

	return nil
}
