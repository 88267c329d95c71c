package config

import (
	"fmt"
	"strconv"

	"github.com/kalambet/prefs/internal/setting"
)

// KeyInfo describes a config key for display purposes.
type KeyInfo struct {
	Key    string
	EnvVar string
	Value  string
}

// ShowAll returns all config key/value pairs from the current config.
func ShowAll(cfg Config) []KeyInfo {
	var result []KeyInfo
	for _, s := range specs {
		if s.secret {
			continue
		}
		result = append(result, KeyInfo{
			Key:    s.key,
			EnvVar: s.env,
			Value:  fmt.Sprintf("%v", s.extract(cfg)),
		})
	}
	return result
}

// SetKey validates value and writes it to b under key.
func SetKey(b setting.Store, key, value string) error {
	s, ok := lookupSpec(key)
	if !ok {
		return fmt.Errorf("unknown config key: %q", key)
	}
	if s.secret {
		return fmt.Errorf("cannot set secret %q via config; use environment variable %s", key, s.env)
	}

	// Validate against the full config so bad values never reach the store.
	cfg := defaults()
	switch s.typ {
	case kString:
		s.apply(&cfg, value)
		if err := cfg.Validate(); err != nil {
			return err
		}
		return bind(key, "", b).Save(value)
	case kInt:
		i, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %w", key, err)
		}
		s.apply(&cfg, i)
		if err := cfg.Validate(); err != nil {
			return err
		}
		return bind(key, 0, b).Save(i)
	}
	return fmt.Errorf("unsupported type for config key %q", key)
}

// UnsetKey removes key from b so its default applies again.
func UnsetKey(b setting.Store, key string) error {
	s, ok := lookupSpec(key)
	if !ok {
		return fmt.Errorf("unknown config key: %q", key)
	}
	if s.secret {
		return fmt.Errorf("cannot unset secret %q via config", key)
	}
	return b.Remove(key)
}

// ValidKeys returns the list of valid non-secret config key names.
func ValidKeys() []string {
	var keys []string
	for _, s := range specs {
		if !s.secret {
			keys = append(keys, s.key)
		}
	}
	return keys
}
