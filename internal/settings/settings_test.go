package settings

import (
	"errors"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/kobzarvs/qscribe/internal/errs"
)

func TestSaveAndReopen(t *testing.T) {
	fs := afero.NewMemMapFs()
	s, err := Open(fs, "/data/qscribe/settings.toml")
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if got := s.Strings("recentFiles"); len(got) != 0 {
		t.Fatalf("Strings on empty store = %v", got)
	}
	s.SetStrings("recentFiles", []string{"/a.txt", "/b.txt"})
	s.SetString("lastDirectory", "/work")
	if err := s.Save(); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	reopened, err := Open(fs, "/data/qscribe/settings.toml")
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	if got := strings.Join(reopened.Strings("recentFiles"), ","); got != "/a.txt,/b.txt" {
		t.Fatalf("recentFiles = %s", got)
	}
	if got := reopened.String("lastDirectory"); got != "/work" {
		t.Fatalf("lastDirectory = %q, want /work", got)
	}
	if !reopened.IsSet("RECENTFILES") {
		t.Fatalf("keys are expected to be case-insensitive")
	}
}

func TestSetStringsCopies(t *testing.T) {
	s := NewMemory()
	values := []string{"x"}
	s.SetStrings("k", values)
	values[0] = "y"
	if got := s.Strings("k"); got[0] != "x" {
		t.Fatalf("stored slice aliased caller slice: %v", got)
	}
	if err := s.Save(); err != nil {
		t.Fatalf("Save on memory store error: %v", err)
	}
}

func TestOpenMalformed(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/s.toml", []byte("not = [valid"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Open(fs, "/s.toml"); !errors.Is(err, errs.ErrReadFailed) {
		t.Fatalf("Open error = %v, want ReadFailed", err)
	}
}

func TestSaveReadOnly(t *testing.T) {
	s, _ := Open(afero.NewReadOnlyFs(afero.NewMemMapFs()), "/s.toml")
	s.SetString("k", "v")
	if err := s.Save(); !errors.Is(err, errs.ErrWriteFailed) {
		t.Fatalf("Save error = %v, want WriteFailed", err)
	}
}
