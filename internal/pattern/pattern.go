// Package pattern implements search and replace over a single document.
package pattern

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/kobzarvs/qscribe/internal/document"
	"github.com/kobzarvs/qscribe/internal/errs"
	"github.com/kobzarvs/qscribe/internal/logger"
)

type Settings struct {
	CaseSensitive      bool
	WholeWord          bool
	RegularExpressions bool
	BackwardSearch     bool
	WrapAround         bool
}

// Occurrence is one match inside a document snapshot. Offsets are code points.
type Occurrence struct {
	Line     int
	Column   int
	Length   int
	Position int
	Text     string
}

// Target is a document with a selection, typically an editor.
type Target interface {
	Document() *document.Document
	Selection() (anchor, position int)
	SetSelection(anchor, position int)
}

// Compile turns a user pattern into a regexp honouring the settings.
func Compile(pattern string, s Settings) (*regexp.Regexp, error) {
	expr := pattern
	if !s.RegularExpressions {
		expr = regexp.QuoteMeta(pattern)
	}
	if s.WholeWord {
		expr = `\b(?:` + expr + `)\b`
	}
	flags := "(?m)"
	if !s.CaseSensitive {
		flags = "(?mi)"
	}
	re, err := regexp.Compile(flags + expr)
	if err != nil {
		return nil, errs.Wrap(errs.InvalidPattern, pattern, err)
	}
	return re, nil
}

// match is a regexp match translated to code-point offsets.
type match struct {
	start, end int
	submatches []int
}

func findMatches(ctx context.Context, re *regexp.Regexp, text string) ([]match, error) {
	idx := re.FindAllStringSubmatchIndex(text, -1)
	out := make([]match, 0, len(idx))
	lastByte, lastRune := 0, 0
	for _, m := range idx {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if m[0] == m[1] {
			return nil, errs.New(errs.InvalidPattern, re.String())
		}
		lastRune += utf8.RuneCountInString(text[lastByte:m[0]])
		lastByte = m[0]
		start := lastRune
		end := start + utf8.RuneCountInString(text[m[0]:m[1]])
		out = append(out, match{start: start, end: end, submatches: m})
	}
	return out, nil
}

// FindAll returns every non-overlapping occurrence of re in text in ascending
// position. ctx is checked between matches.
func FindAll(ctx context.Context, re *regexp.Regexp, text string) ([]Occurrence, error) {
	idx := re.FindAllStringIndex(text, -1)
	out := make([]Occurrence, 0, len(idx))
	line, lineStartByte, lineStartRune := 0, 0, 0
	scanByte, scanRune := 0, 0
	for _, m := range idx {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if m[0] == m[1] {
			return nil, errs.New(errs.InvalidPattern, re.String())
		}
		for scanByte < m[0] {
			r, size := utf8.DecodeRuneInString(text[scanByte:])
			scanByte += size
			scanRune++
			if r == '\n' {
				line++
				lineStartByte, lineStartRune = scanByte, scanRune
			}
		}
		lineEnd := strings.IndexByte(text[lineStartByte:], '\n')
		lineText := text[lineStartByte:]
		if lineEnd >= 0 {
			lineText = lineText[:lineEnd]
		}
		out = append(out, Occurrence{
			Line:     line,
			Column:   scanRune - lineStartRune,
			Length:   utf8.RuneCountInString(text[m[0]:m[1]]),
			Position: scanRune,
			Text:     lineText,
		})
	}
	return out, nil
}

// Matches compiles pattern and returns its occurrences in text.
func Matches(text, pattern string, s Settings) ([]Occurrence, error) {
	re, err := Compile(pattern, s)
	if err != nil {
		return nil, err
	}
	return FindAll(context.Background(), re, text)
}

// Search selects the next match from the cursor. Forward searches start at
// the end of the selection, backward searches at its start. When nothing is
// found the selection is left unchanged and Search returns false.
func Search(t Target, pattern string, s Settings) (bool, error) {
	re, err := Compile(pattern, s)
	if err != nil {
		return false, err
	}
	matches, err := findMatches(context.Background(), re, t.Document().Text())
	if err != nil {
		return false, err
	}
	if len(matches) == 0 {
		return false, nil
	}

	anchor, position := t.Selection()
	start, end := anchor, position
	if start > end {
		start, end = end, start
	}

	found := -1
	if s.BackwardSearch {
		for i := len(matches) - 1; i >= 0; i-- {
			if matches[i].start < start {
				found = i
				break
			}
		}
		if found < 0 && s.WrapAround {
			found = len(matches) - 1
		}
	} else {
		for i, m := range matches {
			if m.start >= end {
				found = i
				break
			}
		}
		if found < 0 && s.WrapAround {
			found = 0
		}
	}
	if found < 0 {
		return false, nil
	}
	t.SetSelection(matches[found].start, matches[found].end)
	return true, nil
}

func SearchNext(t Target, pattern string, s Settings) (bool, error) {
	s.BackwardSearch = false
	return Search(t, pattern, s)
}

func SearchPrevious(t Target, pattern string, s Settings) (bool, error) {
	s.BackwardSearch = true
	return Search(t, pattern, s)
}

// Replace replaces the selection when it is exactly a match and then moves
// to the next match. Without a matching selection it only searches, so the
// first call selects and the second one commits.
func Replace(t Target, pattern, replacement string, s Settings) (bool, error) {
	anchor, position := t.Selection()
	if anchor != position {
		start, end := anchor, position
		if start > end {
			start, end = end, start
		}
		re, err := Compile(pattern, s)
		if err != nil {
			return false, err
		}
		// The selection is matched in place so anchors and word boundaries
		// see the surrounding text.
		doc := t.Document()
		text := doc.Text()
		matches, err := findMatches(context.Background(), re, text)
		if err != nil {
			return false, err
		}
		for _, m := range matches {
			if m.start != start || m.end != end {
				continue
			}
			pos := doc.Replace(start, end, expand(re, replacement, text, m.submatches, s))
			t.SetSelection(pos, pos)
			if _, err := Search(t, pattern, s); err != nil {
				return true, err
			}
			return true, nil
		}
	}
	return Search(t, pattern, s)
}

// ReplaceAll replaces every match from the document start as a single undo
// step and returns the count. Wrap-around and backward search do not apply.
func ReplaceAll(t Target, pattern, replacement string, s Settings) (int, error) {
	s.WrapAround = false
	s.BackwardSearch = false
	re, err := Compile(pattern, s)
	if err != nil {
		return 0, err
	}
	doc := t.Document()
	text := doc.Text()
	matches, err := findMatches(context.Background(), re, text)
	if err != nil {
		return 0, err
	}
	if len(matches) == 0 {
		return 0, nil
	}

	replacements := make([]string, len(matches))
	shift := 0
	for i, m := range matches {
		replacements[i] = expand(re, replacement, text, m.submatches, s)
		if i < len(matches)-1 {
			shift += utf8.RuneCountInString(replacements[i]) - (m.end - m.start)
		}
	}

	doc.BeginGroup()
	for i := len(matches) - 1; i >= 0; i-- {
		doc.Replace(matches[i].start, matches[i].end, replacements[i])
	}
	doc.EndGroup()

	last := matches[len(matches)-1]
	pos := last.start + shift + utf8.RuneCountInString(replacements[len(replacements)-1])
	t.SetSelection(pos, pos)
	logger.Debug("replaced all", "pattern", pattern, "count", len(matches))
	return len(matches), nil
}

func expand(re *regexp.Regexp, replacement, src string, m []int, s Settings) string {
	if !s.RegularExpressions {
		return replacement
	}
	return string(re.ExpandString(nil, braceGroups(replacement), src, m))
}

// braceGroups rewrites "$1" as "${1}" so a group number followed by a
// letter is not read as a group name. "$$" stays a literal dollar.
func braceGroups(replacement string) string {
	var b strings.Builder
	for i := 0; i < len(replacement); i++ {
		c := replacement[i]
		if c != '$' || i+1 == len(replacement) {
			b.WriteByte(c)
			continue
		}
		next := replacement[i+1]
		switch {
		case next == '$':
			b.WriteString("$$")
			i++
		case next >= '0' && next <= '9':
			j := i + 1
			for j < len(replacement) && replacement[j] >= '0' && replacement[j] <= '9' {
				j++
			}
			b.WriteString("${" + replacement[i+1:j] + "}")
			i = j - 1
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
