// Package fsutil has the file helpers shared by the project model and the
// search worker: binary sniffing, glob filters and directory walks.
package fsutil

import (
	"io"
	"os"
	pathpkg "path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"
)

const sniffLen = 512

// IsBinaryContent reports whether content is not some kind of text, judged
// by its detected MIME type. Empty content is text.
func IsBinaryContent(content []byte) bool {
	if len(content) == 0 {
		return false
	}
	for m := mimetype.Detect(content); m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return false
		}
	}
	return true
}

// IsBinary sniffs the head of the file at path.
func IsBinary(fs afero.Fs, path string) (bool, error) {
	f, err := fs.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()
	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return false, err
	}
	return IsBinaryContent(buf[:n]), nil
}

// IsHidden reports whether any element of path, relative to root, starts with a dot.
func IsHidden(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if len(part) > 1 && strings.HasPrefix(part, ".") && part != ".." {
			return true
		}
	}
	return false
}

// MatchPattern matches path against a doublestar glob. A pattern without a
// slash matches the base name, case-insensitively. A pattern with a slash
// matches the full path when it starts with "/", and any trailing part of
// the path otherwise, so "build/**" matches every file under a build
// directory.
func MatchPattern(pattern, path string) bool {
	path = strings.TrimPrefix(filepath.ToSlash(path), "/")
	if !strings.Contains(pattern, "/") {
		matched, _ := doublestar.Match(strings.ToLower(pattern), strings.ToLower(pathpkg.Base(path)))
		return matched
	}
	switch {
	case strings.HasPrefix(pattern, "/"):
		pattern = pattern[1:]
	case !strings.HasPrefix(pattern, "**/"):
		pattern = "**/" + pattern
	}
	matched, _ := doublestar.Match(pattern, path)
	return matched
}

// MatchAny reports whether path matches one of patterns.
func MatchAny(patterns []string, path string) bool {
	for _, p := range patterns {
		if MatchPattern(p, path) {
			return true
		}
	}
	return false
}

type WalkOptions struct {
	Include      []string
	Exclude      []string
	IgnoreHidden bool
}

// Walk lists the regular files under root in lexical order. A file is kept
// when it matches an include pattern (or there are none) and no exclude
// pattern. Unreadable subdirectories are skipped.
func Walk(fs afero.Fs, root string, opts WalkOptions) ([]string, error) {
	var files []string
	err := afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if opts.IgnoreHidden && path != root && IsHidden(root, path) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		if len(opts.Include) > 0 && !MatchAny(opts.Include, path) {
			return nil
		}
		if MatchAny(opts.Exclude, path) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	return files, err
}
