package main

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TimelordUK/novelreader/internal/config"
	"github.com/TimelordUK/novelreader/internal/locale"
	"github.com/TimelordUK/novelreader/internal/rpc"
	"github.com/TimelordUK/novelreader/internal/session"
	"github.com/TimelordUK/novelreader/internal/store"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		arg  string
		want string
	}{
		{`12`, `12`},
		{`true`, `true`},
		{`{"left":3,"top":4}`, `{"left":3,"top":4}`},
		{`"quoted"`, `"quoted"`},
		{`book.txt`, `"book.txt"`},
		{`zh-CN`, `"zh-CN"`},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			assert.Equal(t, tt.want, string(parseValue(tt.arg)))
		})
	}
}

func TestEveryCommandHasUsage(t *testing.T) {
	assert.Len(t, order, len(commands))
	for _, name := range order {
		assert.Contains(t, commands, name)
		assert.NotEmpty(t, commands[name].usage)
	}
}

func TestLoadConfigFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[keybindings]\njump_size = 9\n"), 0644))

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Keybindings.JumpSize)
}

func TestLoadConfigDefaultLocation(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig().Keybindings, cfg.Keybindings)
}

func TestConfigInitWritesEffectiveConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	cfg := config.DefaultConfig()
	cfg.Keybindings.JumpSize = 12

	e := &env{cfg: cfg, configPath: path}
	require.NoError(t, runConfig(context.Background(), e, []string{"-init"}))

	loaded, err := config.LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, 12, loaded.Keybindings.JumpSize)
}

func TestConfigInitDefaultLocation(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg := config.DefaultConfig()
	cfg.Retry.MaxAttempts = 7

	require.NoError(t, runConfig(context.Background(), &env{cfg: cfg}, []string{"-init"}))

	loaded, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 7, loaded.Retry.MaxAttempts)
}

func TestNewClientOverWebsocket(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	negotiator, err := locale.NewNegotiator([]string{"en"}, "en")
	require.NoError(t, err)
	hub := rpc.NewHub()
	srv := rpc.NewServer(rpc.NewDispatcher(store.NewMemory(), session.NewCache(hub), hub, negotiator), hub)
	defer srv.Close()

	ts := httptest.NewServer(srv.WebsocketHandler(ctx))
	defer ts.Close()

	cfg := config.DefaultConfig()
	cfg.Retry.Delay = config.Duration{Duration: 10 * time.Millisecond}
	// the unix socket is never dialled
	cfg.Daemon.Address = filepath.Join(t.TempDir(), "absent.sock")

	c := newClient(cfg, "ws"+strings.TrimPrefix(ts.URL, "http"))
	defer c.Close()

	require.NoError(t, c.SetStorage(ctx, "currentLine", 4))
	var line int
	found, err := c.GetStorage(ctx, "currentLine", &line)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 4, line)
}
