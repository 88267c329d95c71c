// Package setting provides typed access to single entries of a key-value
// byte store. A Setting encodes values with a Codec on write and decodes
// them on read, falling back to a default when nothing usable is stored.
package setting

import (
	"errors"
	"fmt"
	"log/slog"
)

// Store is the capability set a Setting needs from a key-value byte store.
// Read reports ok=false when the key is absent. Removing an absent key is
// not an error.
type Store interface {
	Read(key string) (value []byte, ok bool, err error)
	Write(key string, value []byte) error
	Remove(key string) error
}

var (
	ErrEmptyKey = errors.New("setting key must not be empty")
	ErrNilStore = errors.New("setting store must not be nil")
)

// Setting binds a key and a default value to a store. It keeps no copy of
// the stored value: every Get and Set goes to the store.
type Setting[V any] struct {
	key          string
	defaultValue V
	store        Store
	codec        Codec
	logger       *slog.Logger
}

type options struct {
	codec  Codec
	logger *slog.Logger
}

// Option configures a Setting.
type Option func(*options)

// WithCodec selects the serialization format. JSON is used otherwise.
func WithCodec(c Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithLogger reports absorbed read, write and codec failures to l.
// Without it those failures are silent.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// New returns a Setting for key in store.
func New[V any](key string, defaultValue V, store Store, opts ...Option) (*Setting[V], error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	if store == nil {
		return nil, ErrNilStore
	}

	o := options{
		codec:  JSON,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Setting[V]{
		key:          key,
		defaultValue: defaultValue,
		store:        store,
		codec:        o.codec,
		logger:       o.logger,
	}, nil
}

// MustNew is like New but panics on error. Intended for package-level
// declarations with a constant key.
func MustNew[V any](key string, defaultValue V, store Store, opts ...Option) *Setting[V] {
	s, err := New(key, defaultValue, store, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Setting[V]) Key() string { return s.key }

func (s *Setting[V]) Default() V { return s.defaultValue }

// Get returns the stored value, or the default when the key is absent,
// the store fails, or the stored bytes do not decode into V.
func (s *Setting[V]) Get() V {
	data, ok, err := s.store.Read(s.key)
	if err != nil {
		s.logger.Warn("setting: read failed, using default", "key", s.key, "error", err)
		return s.defaultValue
	}
	if !ok {
		return s.defaultValue
	}

	var v V
	if err := s.codec.Unmarshal(data, &v); err != nil {
		s.logger.Warn("setting: stored value does not decode, using default",
			"key", s.key, "codec", s.codec.Name(), "error", err)
		return s.defaultValue
	}
	return v
}

// Set stores value under the setting's key. An empty Optional removes the
// key instead. If value cannot be encoded the store is left untouched.
// Failures are not reported; see Save.
func (s *Setting[V]) Set(value V) {
	if err := s.Save(value); err != nil {
		s.logger.Warn("setting: set failed", "key", s.key, "codec", s.codec.Name(), "error", err)
	}
}

// Save is Set for callers that need to know whether the store changed.
func (s *Setting[V]) Save(value V) error {
	if n, ok := any(value).(noner); ok && n.IsNone() {
		return s.store.Remove(s.key)
	}

	data, err := s.codec.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding %s as %s: %w", s.key, s.codec.Name(), err)
	}
	return s.store.Write(s.key, data)
}

// Reset removes the key so that Get returns the default.
func (s *Setting[V]) Reset() {
	if err := s.store.Remove(s.key); err != nil {
		s.logger.Warn("setting: remove failed", "key", s.key, "error", err)
	}
}

// IsSet reports whether the store holds an entry for the key, decodable
// or not. A failing store reports false.
func (s *Setting[V]) IsSet() bool {
	_, ok, err := s.store.Read(s.key)
	if err != nil {
		s.logger.Warn("setting: read failed", "key", s.key, "error", err)
		return false
	}
	return ok
}
