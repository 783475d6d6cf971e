package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration
type Config struct {
	Daemon      DaemonConfig     `toml:"daemon"`
	Retry       RetryConfig      `toml:"retry"`
	Loader      LoaderConfig     `toml:"loader"`
	Locale      LocaleConfig     `toml:"locale"`
	Keybindings KeybindingConfig `toml:"keybindings"`
}

// DaemonConfig says where the owning process listens and keeps its data
type DaemonConfig struct {
	Network          string   `toml:"network"` // "unix" or "tcp"
	Address          string   `toml:"address"`
	WebsocketAddress string   `toml:"websocket_address"` // empty disables the endpoint
	StorePath        string   `toml:"store_path"`
	BroadcastTimeout Duration `toml:"broadcast_timeout"` // per listener
}

// RetryConfig bounds client retries against an unavailable daemon
type RetryConfig struct {
	MaxAttempts int      `toml:"max_attempts"`
	Delay       Duration `toml:"delay"`
	CallTimeout Duration `toml:"call_timeout"` // per attempt
}

// LoaderConfig holds file loading options
type LoaderConfig struct {
	DefaultEncoding string `toml:"default_encoding"`
	Sniff           bool   `toml:"sniff"`
	SniffBytes      int    `toml:"sniff_bytes"`
}

// LocaleConfig lists the locales the reader can display
type LocaleConfig struct {
	Supported []string `toml:"supported"`
	Default   string   `toml:"default"`
}

// KeybindingConfig allows customizing keybindings
type KeybindingConfig struct {
	Next             []string `toml:"next"`
	Previous         []string `toml:"previous"`
	JumpForward      []string `toml:"jump_forward"`
	JumpBack         []string `toml:"jump_back"`
	ToggleVisibility []string `toml:"toggle_visibility"`
	MoveLeft         []string `toml:"move_left"`
	MoveRight        []string `toml:"move_right"`
	MoveUp           []string `toml:"move_up"`
	MoveDown         []string `toml:"move_down"`
	Quit             []string `toml:"quit"`
	JumpSize         int      `toml:"jump_size"`
}

// Duration is a time.Duration written as a string ("1s", "250ms")
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = parsed
	return nil
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Daemon: DaemonConfig{
			Network:          "unix",
			Address:          defaultSocketPath(),
			StorePath:        defaultStorePath(),
			BroadcastTimeout: Duration{2 * time.Second},
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			Delay:       Duration{time.Second},
			CallTimeout: Duration{5 * time.Second},
		},
		Loader: LoaderConfig{
			DefaultEncoding: "utf-8",
			Sniff:           true,
			SniffBytes:      1024,
		},
		Locale: LocaleConfig{
			Supported: []string{"en", "zh-CN"},
			Default:   "en",
		},
		Keybindings: KeybindingConfig{
			Next:             []string{"N"},
			Previous:         []string{"P"},
			JumpForward:      []string{"J"},
			JumpBack:         []string{"K"},
			ToggleVisibility: []string{"H"},
			MoveLeft:         []string{"shift+left"},
			MoveRight:        []string{"shift+right"},
			MoveUp:           []string{"shift+up"},
			MoveDown:         []string{"shift+down"},
			Quit:             []string{"q", "ctrl+c"},
			JumpSize:         5,
		},
	}
}

// Validate rejects values the rest of the program cannot work with
func (c *Config) Validate() error {
	switch c.Daemon.Network {
	case "unix", "tcp":
	default:
		return fmt.Errorf("daemon.network must be unix or tcp, got %q", c.Daemon.Network)
	}
	if c.Daemon.Address == "" {
		return fmt.Errorf("daemon.address is empty")
	}
	if c.Daemon.BroadcastTimeout.Duration <= 0 {
		return fmt.Errorf("daemon.broadcast_timeout must be positive")
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1")
	}
	if c.Retry.Delay.Duration < 0 || c.Retry.CallTimeout.Duration < 0 {
		return fmt.Errorf("retry durations must not be negative")
	}
	if c.Loader.SniffBytes < 0 {
		return fmt.Errorf("loader.sniff_bytes must not be negative")
	}
	if c.Keybindings.JumpSize < 1 {
		return fmt.Errorf("keybindings.jump_size must be at least 1")
	}
	return nil
}

// Load loads config from the default path, falling back to defaults
func Load() (*Config, error) {
	return LoadFrom(getConfigPath())
}

// LoadFrom loads config from path, falling back to defaults when the file
// does not exist
func LoadFrom(configPath string) (*Config, error) {
	cfg := DefaultConfig()
	if configPath == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", configPath, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", configPath, err)
	}

	return cfg, nil
}

// Save saves config to the default path
func Save(cfg *Config) error {
	return SaveTo(cfg, getConfigPath())
}

// SaveTo saves config to path
func SaveTo(cfg *Config, configPath string) error {
	if configPath == "" {
		return nil
	}

	// Ensure directory exists
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}

// getConfigPath returns the config file path
func getConfigPath() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "novelreader", "config.toml")
	}

	// Fall back to ~/.config
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".config", "novelreader", "config.toml")
}

// GetConfigPath exports the config path for user reference
func GetConfigPath() string {
	return getConfigPath()
}

func defaultSocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "novelreader.sock")
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("novelreader-%d.sock", os.Getuid()))
}

func defaultStorePath() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "novelreader", "store.db")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "novelreader", "store.db")
	}
	return filepath.Join(home, ".local", "share", "novelreader", "store.db")
}
