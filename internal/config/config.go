package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

type EditorOptions struct {
	IndentWidth          int    `toml:"indent-width"`
	DefaultFileName      string `toml:"default-file-name"`
	DefaultFileExtension string `toml:"default-file-extension"`
	RecentFilesMax       int    `toml:"recent-files-max"`
	HistoryCapacity      int    `toml:"history-capacity"`
}

type SearchOptions struct {
	IgnoreHidden  *bool  `toml:"ignore-hidden"`
	DefaultTarget string `toml:"default-target"`
	MaxDepth      int    `toml:"max-depth"`
}

type SessionOptions struct {
	Enabled   *bool  `toml:"enabled"`
	Directory string `toml:"directory"`
}

type Config struct {
	Editor  EditorOptions  `toml:"editor"`
	Search  SearchOptions  `toml:"search"`
	Session SessionOptions `toml:"session"`
}

func Default() Config {
	return Config{
		Editor: EditorOptions{
			IndentWidth:          4,
			DefaultFileName:      "Untitled",
			DefaultFileExtension: "py",
			RecentFilesMax:       10,
			HistoryCapacity:      15,
		},
		Search: SearchOptions{
			IgnoreHidden:  boolPtr(true),
			DefaultTarget: "Opened Files",
			MaxDepth:      1,
		},
		Session: SessionOptions{
			Enabled: boolPtr(true),
		},
	}
}

func boolPtr(v bool) *bool {
	return &v
}

// IgnoreHidden reports whether directory walks skip dot-prefixed paths.
func (c Config) IgnoreHidden() bool {
	return c.Search.IgnoreHidden == nil || *c.Search.IgnoreHidden
}

func (c Config) SessionEnabled() bool {
	return c.Session.Enabled == nil || *c.Session.Enabled
}

// SessionDir returns the scratch directory for untitled buffers.
func (c Config) SessionDir() (string, error) {
	if c.Session.Directory != "" {
		return c.Session.Directory, nil
	}
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "session"), nil
}

func Load() (Config, error) {
	cfg := Default()
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	var userCfg Config
	if _, err := toml.Decode(string(data), &userCfg); err != nil {
		return cfg, err
	}
	merge(&cfg, userCfg)
	return cfg, nil
}

func merge(cfg *Config, userCfg Config) {
	if userCfg.Editor.IndentWidth > 0 {
		cfg.Editor.IndentWidth = userCfg.Editor.IndentWidth
	}
	if userCfg.Editor.DefaultFileName != "" {
		cfg.Editor.DefaultFileName = userCfg.Editor.DefaultFileName
	}
	if userCfg.Editor.DefaultFileExtension != "" {
		cfg.Editor.DefaultFileExtension = userCfg.Editor.DefaultFileExtension
	}
	if userCfg.Editor.RecentFilesMax > 0 {
		cfg.Editor.RecentFilesMax = userCfg.Editor.RecentFilesMax
	}
	if userCfg.Editor.HistoryCapacity > 0 {
		cfg.Editor.HistoryCapacity = userCfg.Editor.HistoryCapacity
	}
	if userCfg.Search.IgnoreHidden != nil {
		cfg.Search.IgnoreHidden = userCfg.Search.IgnoreHidden
	}
	if userCfg.Search.DefaultTarget != "" {
		cfg.Search.DefaultTarget = userCfg.Search.DefaultTarget
	}
	if userCfg.Search.MaxDepth > 0 {
		cfg.Search.MaxDepth = userCfg.Search.MaxDepth
	}
	if userCfg.Session.Enabled != nil {
		cfg.Session.Enabled = userCfg.Session.Enabled
	}
	if userCfg.Session.Directory != "" {
		cfg.Session.Directory = userCfg.Session.Directory
	}
}

func ConfigDir() (string, error) {
	if v := os.Getenv("QSCRIBE_CONFIG_HOME"); v != "" {
		return filepath.Join(v), nil
	}
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "qscribe"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "qscribe"), nil
}

// DataDir is the user data area holding settings and the session scratch directory.
func DataDir() (string, error) {
	if v := os.Getenv("QSCRIBE_DATA_HOME"); v != "" {
		return filepath.Join(v), nil
	}
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return filepath.Join(v, "qscribe"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "qscribe"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

func SettingsPath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "settings.toml"), nil
}
