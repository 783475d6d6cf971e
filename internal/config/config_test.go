package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "unix", cfg.Daemon.Network)
	assert.NotEmpty(t, cfg.Daemon.Address)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Retry.Delay.Duration)
	assert.Equal(t, "utf-8", cfg.Loader.DefaultEncoding)
	assert.Equal(t, 5, cfg.Keybindings.JumpSize)
	assert.Equal(t, 2*time.Second, cfg.Daemon.BroadcastTimeout.Duration)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Retry, cfg.Retry)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[daemon]
network = "tcp"
address = "127.0.0.1:7411"
broadcast_timeout = "500ms"

[retry]
max_attempts = 5
delay = "250ms"

[locale]
supported = ["en", "fr"]
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "tcp", cfg.Daemon.Network)
	assert.Equal(t, "127.0.0.1:7411", cfg.Daemon.Address)
	assert.Equal(t, 500*time.Millisecond, cfg.Daemon.BroadcastTimeout.Duration)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Retry.Delay.Duration)
	assert.Equal(t, 5*time.Second, cfg.Retry.CallTimeout.Duration)
	assert.Equal(t, []string{"en", "fr"}, cfg.Locale.Supported)
	assert.Equal(t, "en", cfg.Locale.Default)
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"network":  "[daemon]\nnetwork = \"udp\"\n",
		"attempts": "[retry]\nmax_attempts = 0\n",
		"timeout":  "[daemon]\nbroadcast_timeout = \"0s\"\n",
		"duration": "[retry]\ndelay = \"soon\"\n",
		"syntax":   "[retry\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			require.NoError(t, os.WriteFile(path, []byte(data), 0644))
			_, err := LoadFrom(path)
			assert.Error(t, err)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	cfg := DefaultConfig()
	cfg.Retry.Delay = Duration{300 * time.Millisecond}
	cfg.Daemon.WebsocketAddress = "127.0.0.1:7412"

	require.NoError(t, SaveTo(cfg, path))

	loaded, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Retry, loaded.Retry)
	assert.Equal(t, cfg.Daemon, loaded.Daemon)
	assert.Equal(t, cfg.Keybindings, loaded.Keybindings)
}

func TestConfigPathHonoursXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	assert.Equal(t, filepath.Join("/tmp/xdg", "novelreader", "config.toml"), GetConfigPath())
}
