package fsutil

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func writeFile(t *testing.T, fs afero.Fs, path, contents string) {
	t.Helper()
	if err := afero.WriteFile(fs, path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestIsBinary(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/text.txt", "hello")
	writeFile(t, fs, "/blob.bin", "ab\x00cd")
	writeFile(t, fs, "/late.bin", strings.Repeat("a", 600)+"\x00")
	writeFile(t, fs, "/page.html", "<!DOCTYPE html><html><body>x</body></html>")
	writeFile(t, fs, "/data.json", `{"a": [1, 2]}`)
	writeFile(t, fs, "/image.png", "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	writeFile(t, fs, "/empty.txt", "")

	cases := map[string]bool{
		"/text.txt":  false,
		"/blob.bin":  true,
		"/late.bin":  false,
		"/page.html": false,
		"/data.json": false,
		"/image.png": true,
		"/empty.txt": false,
	}
	for path, want := range cases {
		got, err := IsBinary(fs, path)
		if err != nil {
			t.Fatalf("IsBinary(%s) error: %v", path, err)
		}
		if got != want {
			t.Fatalf("IsBinary(%s) = %v, want %v", path, got, want)
		}
	}
	if _, err := IsBinary(fs, "/missing"); err == nil {
		t.Fatalf("IsBinary(/missing) error = nil")
	}
}

func TestMatchPattern(t *testing.T) {
	cases := []struct {
		pattern, path string
		want          bool
	}{
		{"*.py", "/src/main.py", true},
		{"*.PY", "/src/main.py", true},
		{"*.py", "/src/main.pyc", false},
		{"test_*.py", "/src/test_main.py", true},
		{"test_*.py", "/src/main_test.py", false},
		{"build/**", "/src/build/out.txt", true},
		{"build/**", "/src/builder/out.txt", false},
		{"/src/a.txt", "/src/a.txt", true},
		{"/a.txt", "/src/a.txt", false},
		{"src/**/*.go", "/home/me/src/pkg/x/main.go", true},
		{"src/**/*.go", "/home/me/src/main.py", false},
		{"*.{md,txt}", "/docs/README.MD", true},
	}
	for _, c := range cases {
		if got := MatchPattern(c.pattern, c.path); got != c.want {
			t.Fatalf("MatchPattern(%q, %q) = %v, want %v", c.pattern, c.path, got, c.want)
		}
	}
}

func TestWalkFilters(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/p/b.py", "")
	writeFile(t, fs, "/p/a.py", "")
	writeFile(t, fs, "/p/notes.txt", "")
	writeFile(t, fs, "/p/sub/c.py", "")
	writeFile(t, fs, "/p/sub/skip_me.py", "")
	writeFile(t, fs, "/p/.git/d.py", "")

	got, err := Walk(fs, "/p", WalkOptions{
		Include:      []string{"*.py"},
		Exclude:      []string{"skip_*"},
		IgnoreHidden: true,
	})
	if err != nil {
		t.Fatalf("Walk error: %v", err)
	}
	want := []string{"/p/a.py", "/p/b.py", "/p/sub/c.py"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("Walk = %v, want %v", got, want)
	}

	all, _ := Walk(fs, "/p", WalkOptions{})
	if len(all) != 6 {
		t.Fatalf("Walk without filters = %v, want 6 files", all)
	}
}

func TestWalkMissingRoot(t *testing.T) {
	if _, err := Walk(afero.NewMemMapFs(), "/nope", WalkOptions{}); err == nil {
		t.Fatalf("Walk(/nope) error = nil")
	}
}
