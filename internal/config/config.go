package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// AppName is used for window titles, log files and config directories.
	AppName = "nfo-viewer"

	envPrefix      = "NFO_VIEWER"
	configFileName = "config"
	configFileType = "yaml"
)

// Version is overridden at build time with -ldflags "-X ...config.Version=...".
var Version = "dev"

// Config defines window geometry, logging location and viewer limits.
type Config struct {
	WindowWidth  int      `mapstructure:"window_width"`
	WindowHeight int      `mapstructure:"window_height"`
	LogDir       string   `mapstructure:"log_dir"`
	MaxFileSize  int64    `mapstructure:"max_file_size"`
	Watch        bool     `mapstructure:"watch"`
	Extensions   []string `mapstructure:"extensions"`
}

// DefaultConfig returns a configuration with sensible defaults: a 900x700 window,
// logs under the user cache directory, a 16 MiB read cap and file watching enabled.
func DefaultConfig() *Config {
	return &Config{
		WindowWidth:  900,
		WindowHeight: 700,
		LogDir:       DefaultLogDir(),
		MaxFileSize:  16 << 20, // NFOs are tiny; anything bigger is almost certainly not one
		Watch:        true,
		Extensions:   []string{".nfo", ".txt", ".diz", ".asc"},
	}
}

// DefaultLogDir returns <user cache dir>/nfo-viewer/logs, or ./logs if the
// cache directory cannot be determined.
func DefaultLogDir() string {
	base, err := os.UserCacheDir()
	if err != nil || base == "" {
		return "logs"
	}
	return filepath.Join(base, AppName, "logs")
}

// DefaultConfigDir returns <user config dir>/nfo-viewer.
func DefaultConfigDir() string {
	base, err := os.UserConfigDir()
	if err != nil || base == "" {
		return "."
	}
	return filepath.Join(base, AppName)
}

// Load reads configuration from path, or from config.yaml in the default config
// directory when path is empty. A missing default file is not an error; a missing
// explicit file is. Environment variables prefixed NFO_VIEWER_ override both.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType(configFileType)
		v.AddConfigPath(DefaultConfigDir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can see it during Unmarshal.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("window_width", d.WindowWidth)
	v.SetDefault("window_height", d.WindowHeight)
	v.SetDefault("log_dir", d.LogDir)
	v.SetDefault("max_file_size", d.MaxFileSize)
	v.SetDefault("watch", d.Watch)
	v.SetDefault("extensions", d.Extensions)
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	if c.WindowWidth <= 0 || c.WindowHeight <= 0 {
		return fmt.Errorf("invalid window size %dx%d", c.WindowWidth, c.WindowHeight)
	}
	if c.MaxFileSize <= 0 {
		return fmt.Errorf("max_file_size must be positive, got %d", c.MaxFileSize)
	}
	if c.LogDir == "" {
		return fmt.Errorf("log_dir cannot be empty")
	}
	return nil
}

// normalize lowercases extensions and gives them a leading dot.
func (c *Config) normalize() {
	for i, ext := range c.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.Extensions[i] = ext
	}
}
