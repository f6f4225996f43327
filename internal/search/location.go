package search

import (
	"strings"

	"github.com/spf13/afero"

	"github.com/kobzarvs/qscribe/internal/logger"
)

// DefaultTarget is the editor marker written as "<Opened Files>".
const DefaultTarget = "Opened Files"

// Location is where a search looks: open editors, files, and directory walks
// narrowed by include and exclude filters.
type Location struct {
	Directories []string
	Files       []string
	Targets     []string
	FiltersIn   []string
	FiltersOut  []string
}

// ParseLocation splits a comma-separated location string. Tokens are
// "<Target>", "!exclude", an existing directory or file, or an include glob.
// Anything else is dropped with a warning.
func ParseLocation(fs afero.Fs, s string) Location {
	var l Location
	for _, token := range strings.Split(s, ",") {
		token = strings.TrimSpace(token)
		switch {
		case token == "":
			continue
		case strings.HasPrefix(token, "<") && strings.HasSuffix(token, ">") && len(token) > 2:
			l.Targets = appendUnique(l.Targets, token[1:len(token)-1])
		case strings.HasPrefix(token, "!") && len(token) > 1:
			l.FiltersOut = appendUnique(l.FiltersOut, token[1:])
		default:
			if info, err := fs.Stat(token); err == nil {
				if info.IsDir() {
					l.Directories = appendUnique(l.Directories, token)
				} else {
					l.Files = appendUnique(l.Files, token)
				}
				continue
			}
			if strings.ContainsAny(token, "*?[") {
				l.FiltersIn = appendUnique(l.FiltersIn, token)
				continue
			}
			logger.Warn("ignoring unknown location token", "token", token)
		}
	}
	return l
}

// DefaultLocation targets the open editors only.
func DefaultLocation() Location {
	return Location{Targets: []string{DefaultTarget}}
}

func (l Location) HasTarget(name string) bool {
	for _, t := range l.Targets {
		if t == name {
			return true
		}
	}
	return false
}

// Editors reports whether open editors are part of the location.
func (l Location) Editors() bool {
	return l.HasTarget(DefaultTarget)
}

func (l Location) IsEmpty() bool {
	return len(l.Directories) == 0 && len(l.Files) == 0 && len(l.Targets) == 0
}

// String renders the location back into its parseable form.
func (l Location) String() string {
	var tokens []string
	for _, t := range l.Targets {
		tokens = append(tokens, "<"+t+">")
	}
	tokens = append(tokens, l.Directories...)
	tokens = append(tokens, l.Files...)
	tokens = append(tokens, l.FiltersIn...)
	for _, f := range l.FiltersOut {
		tokens = append(tokens, "!"+f)
	}
	return strings.Join(tokens, ", ")
}

func appendUnique(list []string, v string) []string {
	for _, s := range list {
		if s == v {
			return list
		}
	}
	return append(list, v)
}
