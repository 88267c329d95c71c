// Package store provides the key-value byte stores a setting.Setting reads
// and writes: process memory, a JSON file, macOS UserDefaults, SQLite and
// Bolt. Every store is safe for concurrent use.
package store

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/kalambet/prefs/internal/setting"
)

// Store is a setting.Store that can list its keys and release resources.
type Store interface {
	setting.Store
	// Keys returns all stored keys in ascending order.
	Keys() ([]string, error)
	Close() error
}

var (
	ErrUnknownBackend = errors.New("unknown store backend")
	ErrUnsupported    = errors.New("store backend not supported on this platform")
	ErrReserved       = errors.New("store location is reserved for prefs configuration")
)

// Backend names accepted by Open.
const (
	BackendPlatform = "platform"
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendDefaults = "defaults"
	BackendSQLite   = "sqlite"
	BackendBolt     = "bolt"
)

// DefaultDomain is the UserDefaults domain used on macOS.
const DefaultDomain = "com.kalambet.prefs"

// ConfigDomain holds prefs' own configuration on macOS, apart from user
// settings in DefaultDomain.
const ConfigDomain = "com.kalambet.prefs.config"

// Options selects and locates a backend. Empty Path and Domain fall back to
// the platform defaults for the backend.
type Options struct {
	Backend string
	Path    string
	Domain  string
}

// Open opens the backend named in opts. The configuration store cannot be
// opened this way; see Config.
func Open(opts Options) (Store, error) {
	if opts.Domain == ConfigDomain || (opts.Path != "" && isConfigPath(opts.Path)) {
		return nil, fmt.Errorf("%w: domain %q path %q", ErrReserved, opts.Domain, opts.Path)
	}
	switch strings.ToLower(opts.Backend) {
	case "", BackendPlatform:
		return openPlatform(opts.Domain)
	case BackendMemory:
		return NewMemory(), nil
	case BackendFile:
		path := opts.Path
		if path == "" {
			path = DefaultFilePath()
		}
		return OpenFile(path)
	case BackendDefaults:
		return openDefaults(opts.Domain)
	case BackendSQLite:
		path := opts.Path
		if path == "" {
			path = filepath.Join(DefaultDataDir(), "prefs.db")
		}
		return OpenSQLite(path)
	case BackendBolt:
		path := opts.Path
		if path == "" {
			path = filepath.Join(DefaultDataDir(), "prefs.bolt")
		}
		return OpenBolt(path, "")
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}

// Platform opens the platform-native settings store: UserDefaults on macOS,
// a JSON file under $XDG_CONFIG_HOME elsewhere.
func Platform() (Store, error) {
	return openPlatform("")
}

// Standard returns a process-wide platform store shared by all callers.
// It is opened on first use and never closed.
var Standard = sync.OnceValues(Platform)

// Config opens the platform store for prefs' own configuration: the
// ConfigDomain defaults domain on macOS, DefaultConfigPath elsewhere. User
// settings never live in it.
func Config() (Store, error) {
	return openConfig()
}

// StandardConfig is the process-wide Config store.
var StandardConfig = sync.OnceValues(Config)

// Backends lists the names Open accepts.
func Backends() []string {
	return []string{BackendPlatform, BackendMemory, BackendFile, BackendDefaults, BackendSQLite, BackendBolt}
}
