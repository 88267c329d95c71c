package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kalambet/prefs/internal/setting"
	"github.com/kalambet/prefs/internal/store"
)

type Config struct {
	Store  StoreConfig
	Server ServerConfig
	Log    LogConfig
}

// StoreConfig selects where `prefs get/set` keep user settings.
type StoreConfig struct {
	Backend string
	Path    string
	Domain  string
	Codec   string
}

type ServerConfig struct {
	Port  int
	Token string
}

type LogConfig struct {
	Level string
	File  string
}

var logLevels = []string{"debug", "info", "warn", "error"}

func defaults() Config {
	return Config{
		Store: StoreConfig{
			Backend: store.BackendPlatform,
			Domain:  store.DefaultDomain,
			Codec:   "json",
		},
		Server: ServerConfig{
			Port: 4100,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the platform config store, environment
// variables, and platform secret store. The config store is separate from
// the store holding user settings.
//
// On macOS the config store is UserDefaults (domain:
// com.kalambet.prefs.config) and the server token lives in the Keychain.
// On Linux the store is a JSON file at $XDG_CONFIG_HOME/prefs/config.json
// and the token is kept in $XDG_DATA_HOME/prefs/secrets.json.
//
// Environment variables (PREFS_*) override stored values on all platforms.
func Load() (Config, error) {
	b, err := store.StandardConfig()
	if err != nil {
		return Config{}, fmt.Errorf("opening platform config store: %w", err)
	}
	return loadWith(b, keychainStore{})
}

// keychain abstracts secret storage for testing.
type keychain interface {
	Get(service, account string) (string, error)
	Set(service, account, value string) error
}

func loadWith(b setting.Store, kc keychain) (Config, error) {
	cfg := defaults()

	applyBackend(&cfg, b)
	applyEnvOverrides(&cfg)

	// Try platform keychain for the server token if still empty.
	if cfg.Server.Token == "" {
		if tok, err := kc.Get(keychainService, tokenAccount); err == nil && tok != "" {
			cfg.Server.Token = tok
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if !slices.Contains(store.Backends(), strings.ToLower(c.Store.Backend)) {
		return fmt.Errorf("invalid store.backend %q (want one of %s)", c.Store.Backend, strings.Join(store.Backends(), ", "))
	}
	if _, err := setting.CodecByName(c.Store.Codec); err != nil {
		return fmt.Errorf("invalid store.codec: %w", err)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	if !slices.Contains(logLevels, strings.ToLower(c.Log.Level)) {
		return fmt.Errorf("invalid log.level %q (want one of %s)", c.Log.Level, strings.Join(logLevels, ", "))
	}
	return nil
}

// StoreOptions converts the store section for store.Open.
func (c Config) StoreOptions() store.Options {
	return store.Options{
		Backend: c.Store.Backend,
		Path:    c.Store.Path,
		Domain:  c.Store.Domain,
	}
}
