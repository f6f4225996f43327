package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestConfigDirEnv(t *testing.T) {
	t.Setenv("QSCRIBE_CONFIG_HOME", "/tmp/qscribe-config")
	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir error: %v", err)
	}
	if dir != "/tmp/qscribe-config" {
		t.Fatalf("ConfigDir = %q, want %q", dir, "/tmp/qscribe-config")
	}

	t.Setenv("QSCRIBE_CONFIG_HOME", "")
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	dir, err = ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir error: %v", err)
	}
	if dir != "/tmp/xdg/qscribe" {
		t.Fatalf("ConfigDir = %q, want %q", dir, "/tmp/xdg/qscribe")
	}
}

func TestDataDirAndSessionDir(t *testing.T) {
	t.Setenv("QSCRIBE_DATA_HOME", "")
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")
	dir, err := DataDir()
	if err != nil {
		t.Fatalf("DataDir error: %v", err)
	}
	if dir != "/tmp/xdg-data/qscribe" {
		t.Fatalf("DataDir = %q, want %q", dir, "/tmp/xdg-data/qscribe")
	}

	session, err := Default().SessionDir()
	if err != nil {
		t.Fatalf("SessionDir error: %v", err)
	}
	if session != "/tmp/xdg-data/qscribe/session" {
		t.Fatalf("SessionDir = %q, want %q", session, "/tmp/xdg-data/qscribe/session")
	}
}

func TestLoadDefaultsWhenMissing(t *testing.T) {
	t.Setenv("QSCRIBE_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Editor.HistoryCapacity != 15 {
		t.Fatalf("HistoryCapacity = %d, want 15", cfg.Editor.HistoryCapacity)
	}
	if !cfg.IgnoreHidden() {
		t.Fatalf("IgnoreHidden = false, want true")
	}
	if !cfg.SessionEnabled() {
		t.Fatalf("SessionEnabled = false, want true")
	}
}

func TestLoadWithOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("QSCRIBE_CONFIG_HOME", dir)

	writeFile(t, filepath.Join(dir, "config.toml"), `
[editor]
indent-width = 2
default-file-name = "Scratch"
default-file-extension = "txt"

[search]
ignore-hidden = false
max-depth = 3

[session]
enabled = false
directory = "/tmp/scratch"
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Editor.IndentWidth != 2 {
		t.Fatalf("IndentWidth = %d, want 2", cfg.Editor.IndentWidth)
	}
	if cfg.Editor.DefaultFileName != "Scratch" {
		t.Fatalf("DefaultFileName = %q, want %q", cfg.Editor.DefaultFileName, "Scratch")
	}
	if cfg.Editor.DefaultFileExtension != "txt" {
		t.Fatalf("DefaultFileExtension = %q, want %q", cfg.Editor.DefaultFileExtension, "txt")
	}
	if cfg.Editor.RecentFilesMax != 10 {
		t.Fatalf("RecentFilesMax = %d, want default 10", cfg.Editor.RecentFilesMax)
	}
	if cfg.IgnoreHidden() {
		t.Fatalf("IgnoreHidden = true, want false")
	}
	if cfg.Search.MaxDepth != 3 {
		t.Fatalf("MaxDepth = %d, want 3", cfg.Search.MaxDepth)
	}
	if cfg.SessionEnabled() {
		t.Fatalf("SessionEnabled = true, want false")
	}
	if dir, _ := cfg.SessionDir(); dir != "/tmp/scratch" {
		t.Fatalf("SessionDir = %q, want %q", dir, "/tmp/scratch")
	}
}

func TestLoadInvalidToml(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("QSCRIBE_CONFIG_HOME", dir)
	writeFile(t, filepath.Join(dir, "config.toml"), "[editor\nindent-width = ")

	cfg, err := Load()
	if err == nil {
		t.Fatalf("Load error = nil, want decode error")
	}
	if cfg.Editor.IndentWidth != 4 {
		t.Fatalf("IndentWidth = %d, want default 4", cfg.Editor.IndentWidth)
	}
}
