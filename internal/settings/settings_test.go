package settings_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Travis-Britz/duckdns"
	"github.com/Travis-Britz/duckdns/internal/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	s, err := settings.Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "info", s.LogLevel)
	assert.Equal(t, duckdns.DefaultBaseURL, s.BaseURL)
	assert.True(t, s.Notify.Desktop)
	assert.False(t, s.Notify.Telegram.Enabled())
	assert.False(t, s.Cloudflare.Enabled())
	assert.Empty(t, s.Resolver.URLs)
	assert.NotEmpty(t, s.Store)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `
log_level: debug
notify:
  desktop: false
  telegram:
    token: "123:abc"
    chat_id: -1001234
resolver:
  urls:
    - https://ipv4.icanhazip.com/
    - https://checkip.amazonaws.com/
cloudflare:
  token: cf-token
  record: home.example.com
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "settings.yaml"), []byte(yaml), 0600))

	s, err := settings.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", s.LogLevel)
	assert.False(t, s.Notify.Desktop)
	assert.True(t, s.Notify.Telegram.Enabled())
	assert.Equal(t, int64(-1001234), s.Notify.Telegram.ChatID)
	assert.Equal(t, []string{"https://ipv4.icanhazip.com/", "https://checkip.amazonaws.com/"}, s.Resolver.URLs)
	assert.True(t, s.Cloudflare.Enabled())
	assert.Equal(t, "home.example.com", s.Cloudflare.Record)
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "settings.yaml"), []byte("log_level: debug\n"), 0600))
	t.Setenv("DUCKDNS_LOG_LEVEL", "error")
	t.Setenv("DUCKDNS_NOTIFY_TELEGRAM_CHAT_ID", "42")
	t.Setenv("DUCKDNS_STORE", "/tmp/duck.yaml")

	s, err := settings.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "error", s.LogLevel)
	assert.Equal(t, int64(42), s.Notify.Telegram.ChatID)
	assert.Equal(t, "/tmp/duck.yaml", s.Store)
}

func TestLoadBrokenFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "settings.yaml"), []byte("log_level: [\n"), 0600))

	_, err := settings.Load(dir)
	assert.Error(t, err)
}
