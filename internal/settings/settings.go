// Package settings loads the updater's process settings.
//
// Settings come from an optional settings.yaml, overridden by DUCKDNS_* environment variables
// (DUCKDNS_NOTIFY_TELEGRAM_TOKEN for notify.telegram.token and so on).
// The Duck DNS domains, token and interval are not settings; they live in the configuration store.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Travis-Britz/duckdns"
	"github.com/spf13/viper"
)

const EnvPrefix = "DUCKDNS"

type Settings struct {
	LogLevel   string     `mapstructure:"log_level"`
	LogFile    string     `mapstructure:"log_file"`
	BaseURL    string     `mapstructure:"base_url"`
	Store      string     `mapstructure:"store"`
	Notify     Notify     `mapstructure:"notify"`
	Resolver   Resolver   `mapstructure:"resolver"`
	Cloudflare Cloudflare `mapstructure:"cloudflare"`
}

type Notify struct {
	Desktop  bool     `mapstructure:"desktop"`
	Telegram Telegram `mapstructure:"telegram"`
}

type Telegram struct {
	Token  string `mapstructure:"token"`
	ChatID int64  `mapstructure:"chat_id"`
}

// Enabled reports whether both a bot token and a chat are set.
func (t Telegram) Enabled() bool { return t.Token != "" && t.ChatID != 0 }

// Resolver selects an explicit address source. With neither set, Duck DNS uses the request's source address.
type Resolver struct {
	URLs       []string `mapstructure:"urls"`
	Interfaces []string `mapstructure:"interfaces"`
}

// Cloudflare mirrors the reported addresses into Record when both fields are set.
type Cloudflare struct {
	Token  string `mapstructure:"token"`
	Record string `mapstructure:"record"`
}

func (c Cloudflare) Enabled() bool { return c.Token != "" && c.Record != "" }

// Dir returns the directory settings.yaml is read from by default.
func Dir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("error locating user config dir: %w", err)
	}
	return filepath.Join(dir, "duckdns"), nil
}

// Load reads settings.yaml from dir, if present, and applies environment overrides and defaults.
func Load(dir string) (*Settings, error) {
	v := viper.New()
	v.SetConfigName("settings")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	store, err := duckdns.DefaultStorePath()
	if err != nil {
		store = filepath.Join(dir, "config.yaml")
	}

	// every key needs a default for AutomaticEnv to reach it during Unmarshal
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.SetDefault("base_url", duckdns.DefaultBaseURL)
	v.SetDefault("store", store)
	v.SetDefault("notify.desktop", true)
	v.SetDefault("notify.telegram.token", "")
	v.SetDefault("notify.telegram.chat_id", 0)
	v.SetDefault("resolver.urls", []string{})
	v.SetDefault("resolver.interfaces", []string{})
	v.SetDefault("cloudflare.token", "")
	v.SetDefault("cloudflare.record", "")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read settings: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	return &s, nil
}
