package editor

import (
	"strings"

	"github.com/kobzarvs/qscribe/internal/document"
)

// selectedRows returns the rows touched by the selection, or the cursor row.
// A selection ending at column 0 of a later row does not include that row.
func (e *Editor) selectedRows() (int, int) {
	start, end := e.SelectionRange()
	s := e.doc.OffsetToPos(start)
	en := e.doc.OffsetToPos(end)
	if en.Col == 0 && en.Row > s.Row {
		return s.Row, en.Row - 1
	}
	return s.Row, en.Row
}

// rewriteRows replaces rows [start, end] with fn's output as one undo step.
// The selection is kept on the same rows, columns shifted by the change in
// length of the line they sit on.
func (e *Editor) rewriteRows(start, end int, fn func(lines []string) []string) bool {
	lines := e.doc.Lines()
	old := lines[start : end+1]
	updated := fn(append([]string(nil), old...))
	if strings.Join(updated, "\n") == strings.Join(old, "\n") {
		return false
	}

	anchor := e.doc.OffsetToPos(e.anchor)
	position := e.doc.OffsetToPos(e.position)

	from := e.doc.PosToOffset(document.Pos{Row: start})
	to := e.doc.PosToOffset(document.Pos{Row: end, Col: len([]rune(old[len(old)-1]))})
	e.doc.Replace(from, to, strings.Join(updated, "\n"))

	shift := func(p document.Pos) int {
		if p.Row >= start && p.Row <= end && p.Row-start < len(updated) {
			i := p.Row - start
			delta := len([]rune(updated[i])) - len([]rune(old[i]))
			if p.Col > 0 || delta < 0 {
				p.Col += delta
			}
			if p.Col < 0 {
				p.Col = 0
			}
		}
		return e.doc.PosToOffset(p)
	}
	e.anchor, e.position = shift(anchor), shift(position)
	return true
}

// Indent prefixes every selected line with the language indent marker.
func (e *Editor) Indent() bool {
	marker := e.indentMarker()
	start, end := e.selectedRows()
	return e.rewriteRows(start, end, func(lines []string) []string {
		for i, line := range lines {
			lines[i] = marker + line
		}
		return lines
	})
}

// Unindent removes one indent level from every selected line: the indent
// marker, a tab, or up to indent-width spaces.
func (e *Editor) Unindent() bool {
	marker := e.indentMarker()
	width := e.indentWidth()
	start, end := e.selectedRows()
	return e.rewriteRows(start, end, func(lines []string) []string {
		for i, line := range lines {
			switch {
			case strings.HasPrefix(line, marker):
				lines[i] = line[len(marker):]
			case strings.HasPrefix(line, "\t"):
				lines[i] = line[1:]
			default:
				n := 0
				for n < width && n < len(line) && line[n] == ' ' {
					n++
				}
				lines[i] = line[n:]
			}
		}
		return lines
	})
}

// ToggleComments comments or uncomments the selected lines with the language
// comment marker. When every non-blank line is already commented the marker
// is stripped, otherwise every non-blank line gets it at the block's minimum
// indentation. Languages without a marker leave the text untouched.
func (e *Editor) ToggleComments() bool {
	if e.language == nil || e.language.CommentMarker == "" {
		return false
	}
	prefix := e.language.CommentMarker
	start, end := e.selectedRows()
	return e.rewriteRows(start, end, func(lines []string) []string {
		minIndent := -1
		allCommented := true
		for _, line := range lines {
			if strings.TrimSpace(line) == "" {
				continue
			}
			indent := len(line) - len(strings.TrimLeft(line, " \t"))
			if minIndent < 0 || indent < minIndent {
				minIndent = indent
			}
			if !strings.HasPrefix(strings.TrimLeft(line, " \t"), prefix) {
				allCommented = false
			}
		}
		if minIndent < 0 {
			return lines
		}

		for i, line := range lines {
			if strings.TrimSpace(line) == "" {
				continue
			}
			if allCommented {
				idx := strings.Index(line, prefix)
				removeLen := len(prefix)
				if idx+removeLen < len(line) && line[idx+removeLen] == ' ' {
					removeLen++
				}
				lines[i] = line[:idx] + line[idx+removeLen:]
			} else {
				lines[i] = line[:minIndent] + prefix + " " + line[minIndent:]
			}
		}
		return lines
	})
}

// RemoveTrailingWhitespace strips trailing blanks from every line and makes
// sure the document ends with a line feed.
func (e *Editor) RemoveTrailingWhitespace() bool {
	last := e.doc.LineCount() - 1
	return e.rewriteRows(0, last, func(lines []string) []string {
		for i, line := range lines {
			lines[i] = strings.TrimRight(line, " \t")
		}
		if lines[len(lines)-1] != "" {
			lines = append(lines, "")
		}
		return lines
	})
}

// ConvertIndentationToTabs turns each run of indent-width leading spaces into a tab.
func (e *Editor) ConvertIndentationToTabs() bool {
	width := e.indentWidth()
	spaces := strings.Repeat(" ", width)
	last := e.doc.LineCount() - 1
	return e.rewriteRows(0, last, func(lines []string) []string {
		for i, line := range lines {
			body := strings.TrimLeft(line, " \t")
			lead := line[:len(line)-len(body)]
			lead = strings.ReplaceAll(lead, spaces, "\t")
			lines[i] = lead + body
		}
		return lines
	})
}

// ConvertIndentationToSpaces expands leading tabs to indent-width spaces.
func (e *Editor) ConvertIndentationToSpaces() bool {
	spaces := strings.Repeat(" ", e.indentWidth())
	last := e.doc.LineCount() - 1
	return e.rewriteRows(0, last, func(lines []string) []string {
		for i, line := range lines {
			body := strings.TrimLeft(line, " \t")
			lead := line[:len(line)-len(body)]
			lines[i] = strings.ReplaceAll(lead, "\t", spaces) + body
		}
		return lines
	})
}

// DuplicateLines copies the selected lines below themselves and moves the
// cursor onto the copy.
func (e *Editor) DuplicateLines() bool {
	start, end := e.selectedRows()
	lines := e.doc.Lines()
	block := strings.Join(lines[start:end+1], "\n")

	anchor := e.doc.OffsetToPos(e.anchor)
	position := e.doc.OffsetToPos(e.position)
	at := e.doc.PosToOffset(document.Pos{Row: end, Col: len([]rune(lines[end]))})
	e.doc.Insert(at, "\n"+block)

	size := end - start + 1
	anchor.Row += size
	position.Row += size
	e.anchor = e.doc.PosToOffset(anchor)
	e.position = e.doc.PosToOffset(position)
	return true
}

// DeleteLines removes the selected lines.
func (e *Editor) DeleteLines() bool {
	start, end := e.selectedRows()
	count := e.doc.LineCount()
	var from, to int
	switch {
	case end < count-1:
		from = e.doc.PosToOffset(document.Pos{Row: start})
		to = e.doc.PosToOffset(document.Pos{Row: end + 1})
	case start > 0:
		from = e.doc.PosToOffset(document.Pos{Row: start - 1, Col: len([]rune(e.doc.Line(start - 1)))})
		to = e.doc.Len()
	default:
		from, to = 0, e.doc.Len()
	}
	if from == to {
		return false
	}
	e.doc.Delete(from, to)
	row := start
	if row >= e.doc.LineCount() {
		row = e.doc.LineCount() - 1
	}
	e.SetCursor(row, 0)
	return true
}

// MoveLinesUp swaps the selected lines with the line above.
func (e *Editor) MoveLinesUp() bool {
	start, end := e.selectedRows()
	if start == 0 {
		return false
	}
	return e.moveRows(start-1, end, func(lines []string) []string {
		return append(lines[1:], lines[0])
	}, -1)
}

// MoveLinesDown swaps the selected lines with the line below.
func (e *Editor) MoveLinesDown() bool {
	start, end := e.selectedRows()
	if end >= e.doc.LineCount()-1 {
		return false
	}
	return e.moveRows(start, end+1, func(lines []string) []string {
		last := len(lines) - 1
		return append([]string{lines[last]}, lines[:last]...)
	}, 1)
}

func (e *Editor) moveRows(start, end int, fn func([]string) []string, step int) bool {
	anchor := e.doc.OffsetToPos(e.anchor)
	position := e.doc.OffsetToPos(e.position)
	lines := e.doc.Lines()
	block := fn(append([]string(nil), lines[start:end+1]...))

	from := e.doc.PosToOffset(document.Pos{Row: start})
	to := e.doc.PosToOffset(document.Pos{Row: end, Col: len([]rune(lines[end]))})
	e.doc.Replace(from, to, strings.Join(block, "\n"))

	anchor.Row += step
	position.Row += step
	e.anchor = e.doc.PosToOffset(anchor)
	e.position = e.doc.PosToOffset(position)
	return true
}

func (e *Editor) indentMarker() string {
	if e.language != nil && e.language.IndentMarker != "" {
		return e.language.IndentMarker
	}
	return "\t"
}

func (e *Editor) indentWidth() int {
	if e.language != nil && e.language.IndentWidth > 0 {
		return e.language.IndentWidth
	}
	return 4
}
