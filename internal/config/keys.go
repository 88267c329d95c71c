package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/kalambet/prefs/internal/setting"
)

type keyType int

const (
	kString keyType = iota
	kInt
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "store.backend", typ: kString, env: "PREFS_STORE_BACKEND",
		apply:   func(cfg *Config, v any) { cfg.Store.Backend = v.(string) },
		extract: func(cfg Config) any { return cfg.Store.Backend },
	},
	{
		key: "store.path", typ: kString, env: "PREFS_STORE_PATH",
		apply:   func(cfg *Config, v any) { cfg.Store.Path = v.(string) },
		extract: func(cfg Config) any { return cfg.Store.Path },
	},
	{
		key: "store.domain", typ: kString, env: "PREFS_STORE_DOMAIN",
		apply:   func(cfg *Config, v any) { cfg.Store.Domain = v.(string) },
		extract: func(cfg Config) any { return cfg.Store.Domain },
	},
	{
		key: "store.codec", typ: kString, env: "PREFS_STORE_CODEC",
		apply:   func(cfg *Config, v any) { cfg.Store.Codec = v.(string) },
		extract: func(cfg Config) any { return cfg.Store.Codec },
	},
	{
		key: "server.port", typ: kInt, env: "PREFS_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "server.token", typ: kString, env: "PREFS_SERVER_TOKEN",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Server.Token = v.(string) },
		extract: func(cfg Config) any { return cfg.Server.Token },
	},
	{
		key: "log.level", typ: kString, env: "PREFS_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
	{
		key: "log.file", typ: kString, env: "PREFS_LOG_FILE",
		apply:   func(cfg *Config, v any) { cfg.Log.File = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.File },
	},
}

func lookupSpec(key string) (keySpec, bool) {
	for _, s := range specs {
		if s.key == key {
			return s, true
		}
	}
	return keySpec{}, false
}

// bind returns the typed setting backing a config key. The current value in
// cfg is the default, so absent or unreadable keys leave cfg unchanged.
func bind[V any](key string, def V, b setting.Store) *setting.Setting[V] {
	return setting.MustNew(key, def, b, setting.WithLogger(slog.Default()))
}

func applyBackend(cfg *Config, b setting.Store) {
	for _, s := range specs {
		if s.secret {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, bind(s.key, s.extract(*cfg).(string), b).Get())
		case kInt:
			s.apply(cfg, bind(s.key, s.extract(*cfg).(int), b).Get())
		}
	}
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
