package config

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Store holds the live configuration. Readers take a Snapshot per session;
// Reload and file watching swap the whole value atomically.
type Store struct {
	v   *viper.Viper
	cur atomic.Pointer[Config]

	mu        sync.Mutex
	listeners []func(Config, error)
}

func NewStore(path string) (*Store, error) {
	v := newViper(path)
	if err := read(v); err != nil {
		return nil, err
	}
	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	s := &Store{v: v}
	s.cur.Store(&cfg)
	return s, nil
}

// NewStatic wraps a fixed config, for tests and test mode.
func NewStatic(cfg Config) *Store {
	s := &Store{}
	s.cur.Store(&cfg)
	return s
}

func (s *Store) Snapshot() Config {
	return *s.cur.Load()
}

// Path returns the file the config was read from, or "" when running on
// defaults and environment only.
func (s *Store) Path() string {
	if s.v == nil {
		return ""
	}
	return s.v.ConfigFileUsed()
}

// Reload re-reads the config file. On a validation error the previous
// snapshot stays in place.
func (s *Store) Reload() error {
	if s.v == nil {
		return nil
	}
	if err := read(s.v); err != nil {
		return err
	}
	cfg, err := decode(s.v)
	if err != nil {
		return err
	}
	s.cur.Store(&cfg)
	return nil
}

// OnChange registers fn to run after every reload attempt triggered by Watch.
func (s *Store) OnChange(fn func(Config, error)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Watch reloads the config whenever the underlying file changes.
func (s *Store) Watch() {
	if s.v == nil || s.v.ConfigFileUsed() == "" {
		return
	}
	s.v.OnConfigChange(func(fsnotify.Event) {
		err := s.Reload()
		cfg := s.Snapshot()
		s.mu.Lock()
		listeners := slices.Clone(s.listeners)
		s.mu.Unlock()
		for _, fn := range listeners {
			fn(cfg, err)
		}
	})
	s.v.WatchConfig()
}
