// Package settings is the durable key/value store behind patterns history,
// recent files and the session.
package settings

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/kobzarvs/qscribe/internal/errs"
	"github.com/kobzarvs/qscribe/internal/logger"
)

// Store wraps a viper instance bound to one TOML file. Keys are
// case-insensitive. A store opened with an empty path lives only in memory.
type Store struct {
	mu   sync.Mutex
	fs   afero.Fs
	v    *viper.Viper
	path string
}

// Open loads path if it exists. A missing file yields an empty store that
// will be created on Save.
func Open(fs afero.Fs, path string) (*Store, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	v := viper.New()
	v.SetFs(fs)
	v.SetConfigType("toml")
	s := &Store{fs: fs, v: v, path: path}
	if path == "" {
		return s, nil
	}
	v.SetConfigFile(path)
	if _, err := fs.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, errs.Wrap(errs.ReadFailed, path, err)
	}
	if err := v.ReadInConfig(); err != nil {
		return nil, errs.Wrap(errs.ReadFailed, path, err)
	}
	logger.Debug("settings loaded", "path", path, "keys", len(v.AllKeys()))
	return s, nil
}

// NewMemory returns a store that is never written to disk.
func NewMemory() *Store {
	s, _ := Open(afero.NewMemMapFs(), "")
	return s
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Strings(key string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.v.GetStringSlice(key)
}

func (s *Store) SetStrings(key string, values []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.v.Set(key, append([]string{}, values...))
}

func (s *Store) String(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.v.GetString(key)
}

func (s *Store) SetString(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.v.Set(key, value)
}

func (s *Store) IsSet(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.v.IsSet(key)
}

// Save writes every key to the bound file.
func (s *Store) Save() error {
	if s.path == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errs.Wrap(errs.WriteFailed, s.path, err)
	}
	if err := s.v.WriteConfigAs(s.path); err != nil {
		return errs.Wrap(errs.WriteFailed, s.path, err)
	}
	logger.Debug("settings saved", "path", s.path)
	return nil
}
