// Package languages keeps the set of known languages and resolves a language
// for a file name.
package languages

import (
	"errors"
	"path/filepath"
	"regexp"
	"sort"
	"sync"

	"github.com/kobzarvs/qscribe/internal/config"
	"github.com/kobzarvs/qscribe/internal/errs"
	"github.com/kobzarvs/qscribe/internal/logger"
)

const (
	PythonName  = "Python"
	TextName    = "Text"
	LoggingName = "Logging"
)

type Language struct {
	Name          string
	Extensions    *regexp.Regexp
	CommentMarker string
	IndentMarker  string
	IndentWidth   int
	// ReadOnly languages are bound to output panes, never to user files.
	ReadOnly bool
}

// Matches reports whether the language extension pattern matches path's base name.
func (l *Language) Matches(path string) bool {
	if l == nil || l.Extensions == nil {
		return false
	}
	return l.Extensions.MatchString(filepath.Base(path))
}

func Python() *Language {
	return &Language{
		Name:          PythonName,
		Extensions:    regexp.MustCompile(`\.pyw?$`),
		CommentMarker: "#",
		IndentMarker:  "\t",
		IndentWidth:   4,
	}
}

func Text() *Language {
	return &Language{
		Name:         TextName,
		Extensions:   regexp.MustCompile(`\.txt$`),
		IndentMarker: "\t",
		IndentWidth:  4,
	}
}

func Logging() *Language {
	return &Language{
		Name:         LoggingName,
		Extensions:   regexp.MustCompile(`\.log$`),
		IndentMarker: "\t",
		IndentWidth:  4,
		ReadOnly:     true,
	}
}

// Registry is a name-ordered set of languages.
type Registry struct {
	mu       sync.RWMutex
	langs    []*Language
	fallback *Language
}

// NewRegistry returns a registry holding the built-in languages.
func NewRegistry() *Registry {
	text := Text()
	r := &Registry{fallback: text}
	r.langs = []*Language{Logging(), Python(), text}
	r.sortLocked()
	return r
}

// FromConfig builds a registry with the built-ins plus the user declarations.
// Invalid or colliding declarations are logged and skipped.
func FromConfig(cfg config.Languages) *Registry {
	r := NewRegistry()
	for _, decl := range cfg.Languages {
		lang, err := FromDeclaration(decl)
		if err != nil {
			logger.Warn("language skipped", "name", decl.Name, "error", err)
			continue
		}
		if err := r.Register(lang); err != nil {
			logger.Warn("language skipped", "name", decl.Name, "error", err)
		}
	}
	return r
}

// FromDeclaration builds a language from a languages.toml entry. A missing
// name is a malformed file; a bad extension regex is an invalid pattern.
func FromDeclaration(decl config.Language) (*Language, error) {
	if decl.Name == "" {
		return nil, errs.Wrap(errs.ReadFailed, "languages.toml", errors.New("language without name"))
	}
	re, err := regexp.Compile(decl.Extensions)
	if err != nil {
		return nil, errs.Wrap(errs.InvalidPattern, decl.Extensions, err)
	}
	lang := &Language{
		Name:          decl.Name,
		Extensions:    re,
		CommentMarker: decl.CommentMarker,
		IndentMarker:  decl.IndentMarker,
		IndentWidth:   decl.IndentWidth,
	}
	if lang.IndentMarker == "" {
		lang.IndentMarker = "\t"
	}
	if lang.IndentWidth <= 0 {
		lang.IndentWidth = 4
	}
	return lang, nil
}

func (r *Registry) Register(l *Language) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.langs {
		if existing.Name == l.Name {
			return errs.New(errs.AlreadyRegistered, l.Name)
		}
	}
	r.langs = append(r.langs, l)
	r.sortLocked()
	return nil
}

func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.langs {
		if existing.Name == name {
			r.langs = append(r.langs[:i], r.langs[i+1:]...)
			return nil
		}
	}
	return errs.New(errs.NotRegistered, name)
}

func (r *Registry) Get(name string) (*Language, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, l := range r.langs {
		if l.Name == name {
			return l, true
		}
	}
	return nil, false
}

// List returns the languages ordered by name.
func (r *Registry) List() []*Language {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Language, len(r.langs))
	copy(out, r.langs)
	return out
}

// Fallback is the plain-text language.
func (r *Registry) Fallback() *Language {
	return r.fallback
}

// LanguageForFile returns the first language, in name order, whose extension
// pattern matches path. Read-only languages never match user files.
func (r *Registry) LanguageForFile(path string) *Language {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, l := range r.langs {
		if l.ReadOnly {
			continue
		}
		if l.Matches(path) {
			return l
		}
	}
	return r.fallback
}

func (r *Registry) sortLocked() {
	sort.SliceStable(r.langs, func(i, j int) bool {
		return r.langs[i].Name < r.langs[j].Name
	})
}
