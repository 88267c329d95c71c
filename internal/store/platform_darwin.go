//go:build darwin

package store

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// DefaultDataDir is where file-backed databases live when no path is given.
func DefaultDataDir() string {
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, "Library", "Application Support", "prefs")
	}
	return "prefs-data"
}

// DefaultFilePath is the location of the `file` backend when no path is given.
func DefaultFilePath() string {
	return filepath.Join(DefaultDataDir(), "settings.json")
}

// Configuration lives in ConfigDomain on macOS, so no file path is reserved.
func isConfigPath(string) bool { return false }

func openConfig() (Store, error) {
	return openDefaults(ConfigDomain)
}

func openPlatform(domain string) (Store, error) {
	return openDefaults(domain)
}

func openDefaults(domain string) (Store, error) {
	if domain == "" {
		domain = DefaultDomain
	}
	return &Defaults{domain: domain}, nil
}

// Defaults stores entries in macOS UserDefaults through the `defaults` CLI.
// Values are written as base64 strings; output that does not decode as
// base64 is returned as printed.
type Defaults struct {
	domain string
}

func (d *Defaults) Domain() string { return d.domain }

func (d *Defaults) Read(key string) ([]byte, bool, error) {
	cmd := exec.Command("defaults", "read", d.domain, key)
	out, err := cmd.CombinedOutput()
	s := strings.TrimSpace(string(out))
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading default for key '%s': %w, output: %s", key, err, s)
	}
	if raw, err := base64.StdEncoding.DecodeString(s); err == nil {
		return raw, true, nil
	}
	return []byte(s), true, nil
}

func (d *Defaults) Write(key string, value []byte) error {
	enc := base64.StdEncoding.EncodeToString(value)
	out, err := exec.Command("defaults", "write", d.domain, key, "-string", enc).CombinedOutput()
	if err != nil {
		return fmt.Errorf("writing default for key '%s': %w, output: %s", key, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (d *Defaults) Remove(key string) error {
	out, err := exec.Command("defaults", "delete", d.domain, key).CombinedOutput()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return nil
		}
		return fmt.Errorf("deleting default for key '%s': %w, output: %s", key, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (d *Defaults) Keys() ([]string, error) {
	cmd := exec.Command("defaults", "export", d.domain, "-")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("exporting defaults domain %s: %w", d.domain, err)
	}
	return plistKeys(out)
}

func (d *Defaults) Close() error { return nil }
