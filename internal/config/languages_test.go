package config

import (
	"path/filepath"
	"testing"
)

func TestLoadLanguages(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("QSCRIBE_CONFIG_HOME", dir)

	writeFile(t, filepath.Join(dir, "languages.toml"), `
[[language]]
name = "Go"
extensions = '\.go$'
comment-marker = "//"
indent-marker = "\t"
indent-width = 8
`)

	cfg, err := LoadLanguages()
	if err != nil {
		t.Fatalf("LoadLanguages error: %v", err)
	}
	if len(cfg.Languages) != 1 {
		t.Fatalf("Languages len = %d, want 1", len(cfg.Languages))
	}
	lang := cfg.Languages[0]
	if lang.Extensions != `\.go$` {
		t.Fatalf("extensions = %q, want %q", lang.Extensions, `\.go$`)
	}
	if lang.CommentMarker != "//" {
		t.Fatalf("comment marker = %q, want %q", lang.CommentMarker, "//")
	}
	if lang.IndentMarker != "\t" || lang.IndentWidth != 8 {
		t.Fatalf("indent = %q/%d, want tab/8", lang.IndentMarker, lang.IndentWidth)
	}
}

func TestLoadLanguagesMissing(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("QSCRIBE_CONFIG_HOME", dir)

	cfg, err := LoadLanguages()
	if err != nil {
		t.Fatalf("LoadLanguages error: %v", err)
	}
	if len(cfg.Languages) != 0 {
		t.Fatalf("Languages len = %d, want 0", len(cfg.Languages))
	}
}
