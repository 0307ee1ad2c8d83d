package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"
)

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level" yaml:"level"`
	Path       string            `mapstructure:"path" yaml:"path"`
	MaxSize    string            `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups int               `mapstructure:"max_backups" yaml:"max_backups"`
	Components map[string]string `mapstructure:"components" yaml:"components"`
}

// StateConfig configures persistence of navigation state.
type StateConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// NavigatorConfig configures the filesystem navigator.
type NavigatorConfig struct {
	StartDir string `mapstructure:"start_dir" yaml:"start_dir"`
	Watch    bool   `mapstructure:"watch" yaml:"watch"`
}

// TorrentConfig configures .torrent parsing.
type TorrentConfig struct {
	MaxSize string `mapstructure:"max_size" yaml:"max_size"`
}

// OutputConfig configures printed output.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format"`
}

// Config represents the application configuration.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	State     StateConfig     `mapstructure:"state" yaml:"state"`
	Navigator NavigatorConfig `mapstructure:"navigator" yaml:"navigator"`
	Torrent   TorrentConfig   `mapstructure:"torrent" yaml:"torrent"`
	Output    OutputConfig    `mapstructure:"output" yaml:"output"`
}

// MaxTorrentBytes returns Torrent.MaxSize in bytes.
func (c *Config) MaxTorrentBytes() (int64, error) {
	return parseSize(c.Torrent.MaxSize)
}

// LogMaxBytes returns Logging.MaxSize in bytes.
func (c *Config) LogMaxBytes() (int64, error) {
	return parseSize(c.Logging.MaxSize)
}

func parseSize(s string) (int64, error) {
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	return int64(n), nil
}

// New returns a viper instance with the config search paths, environment
// binding and defaults set, but nothing read yet. Callers may bind flags
// to it before calling Unmarshal.
func New() (*viper.Viper, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	v.AddConfigPath(dir)

	v.SetEnvPrefix(strings.ToUpper(AppName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	return v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "") // Empty means use DefaultLogPath
	v.SetDefault("logging.max_size", DefaultLogMaxSize)
	v.SetDefault("logging.max_backups", DefaultLogMaxBackups)
	v.SetDefault("logging.components", map[string]string{})

	v.SetDefault("state.enabled", true)
	v.SetDefault("state.path", StatePath())

	v.SetDefault("navigator.start_dir", "")
	v.SetDefault("navigator.watch", false)

	v.SetDefault("torrent.max_size", DefaultMaxTorrentSize)
	v.SetDefault("output.format", DefaultFormat)
}

// Read reads the config file into v, if one exists, and unmarshals the
// result.
func Read(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	var err error
	if cfg.State.Path, err = ExpandPath(cfg.State.Path); err != nil {
		return nil, err
	}
	if cfg.Navigator.StartDir, err = ExpandPath(cfg.Navigator.StartDir); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load loads configuration from file and environment variables.
// Config file locations:
//   - $XDG_CONFIG_HOME/tfiles/config.yaml
//   - $HOME/.config/tfiles/config.yaml
//
// Environment variables are prefixed with TFILES_ (e.g. TFILES_OUTPUT_FORMAT).
func Load() (*Config, error) {
	v, err := New()
	if err != nil {
		return nil, err
	}
	return Read(v)
}

// ConfigDir returns the configuration directory path.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, AppName), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", AppName), nil
}

// ConfigPath returns the path of the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// StatePath returns $XDG_DATA_HOME/tfiles/state, the saved-state database.
func StatePath() string {
	return filepath.Join(xdg.DataHome, AppName, "state")
}

// WriteDefault writes a default config file if none exists and returns its
// path.
func WriteDefault() (string, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(configPath); err == nil {
		return configPath, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to check config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	defaultConfig := fmt.Sprintf(`# tfiles configuration

# Logging configuration
logging:
  # Log level: debug, info, warn, error
  level: info
  # Log file path (empty means use default: $XDG_STATE_HOME/tfiles/tfiles.log)
  path: ""
  max_size: %s
  max_backups: %d
  # Per-component log levels (tree, navigator, torrentfile, savedstate, tui, cli)
  components: {}

# Remember the browsed directory of each torrent
state:
  enabled: true
  path: %s

# Filesystem navigator
navigator:
  # Directory listed by "tfiles ls" (empty means home) and searched by
  # "tfiles find" (empty means the current directory)
  start_dir: ""
  # Keep "tfiles ls" running and print the listing again on changes
  watch: false

# Largest .torrent file that is parsed
torrent:
  max_size: %s

# Output format of "tfiles show": tree, plain, json, yaml
output:
  format: %s
`, DefaultLogMaxSize, DefaultLogMaxBackups, StatePath(), DefaultMaxTorrentSize, DefaultFormat)

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return "", fmt.Errorf("failed to write default config: %w", err)
	}
	return configPath, nil
}

// ExpandPath expands ~ in a path to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, path[1:]), nil
}
