// Package document holds the text storage behind an editor: code-point lines,
// grouped undo/redo and modification tracking.
package document

import (
	"strings"
	"sync"
)

// Pos is a line/column position, both 0-based, columns in code points.
type Pos struct {
	Row int
	Col int
}

func (p Pos) Less(o Pos) bool {
	if p.Row != o.Row {
		return p.Row < o.Row
	}
	return p.Col < o.Col
}

type actionKind int

const (
	actionInsertText actionKind = iota
	actionDeleteText
)

// action is stored on the undo stack as the operation that reverts an edit.
type action struct {
	kind   actionKind
	pos    Pos
	endPos Pos
	text   [][]rune
	group  int
}

// Document is a mutable text buffer. All methods are safe for concurrent use;
// Read holds the lock for the duration of the callback so background readers
// see a stable snapshot while the foreground is blocked from mutating.
type Document struct {
	mu         sync.RWMutex
	lines      [][]rune
	undo       []action
	redo       []action
	undoGroup  int
	groupDepth int
	savePoint  int
	modified   bool
	observers  []func(modified bool)
}

func New(text string) *Document {
	return &Document{lines: splitLines(text)}
}

// OnModificationChanged registers fn to be called whenever the modified flag
// flips. Callbacks run outside the document lock.
func (d *Document) OnModificationChanged(fn func(modified bool)) {
	d.mu.Lock()
	d.observers = append(d.observers, fn)
	d.mu.Unlock()
}

func (d *Document) Text() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return joinLines(d.lines)
}

// Read calls fn with the current text while holding the read lock.
func (d *Document) Read(fn func(text string)) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	fn(joinLines(d.lines))
}

// Len returns the number of code points, counting line feeds.
func (d *Document) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lenLocked()
}

func (d *Document) lenLocked() int {
	n := 0
	for _, line := range d.lines {
		n += len(line)
	}
	return n + len(d.lines) - 1
}

func (d *Document) LineCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.lines)
}

func (d *Document) Line(row int) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if row < 0 || row >= len(d.lines) {
		return ""
	}
	return string(d.lines[row])
}

// Lines returns a copy of every line.
func (d *Document) Lines() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, len(d.lines))
	for i, line := range d.lines {
		out[i] = string(line)
	}
	return out
}

func (d *Document) IsEmpty() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.lines) == 1 && len(d.lines[0]) == 0
}

// OffsetToPos converts an absolute code-point offset, clamped to the document.
func (d *Document) OffsetToPos(offset int) Pos {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.offsetToPosLocked(offset)
}

func (d *Document) offsetToPosLocked(offset int) Pos {
	if offset <= 0 {
		return Pos{}
	}
	for row, line := range d.lines {
		if offset <= len(line) {
			return Pos{Row: row, Col: offset}
		}
		offset -= len(line) + 1
	}
	last := len(d.lines) - 1
	return Pos{Row: last, Col: len(d.lines[last])}
}

// PosToOffset converts a position, clamped to the document, to an offset.
func (d *Document) PosToOffset(p Pos) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.posToOffsetLocked(p)
}

func (d *Document) posToOffsetLocked(p Pos) int {
	p = d.clampLocked(p)
	offset := 0
	for row := 0; row < p.Row; row++ {
		offset += len(d.lines[row]) + 1
	}
	return offset + p.Col
}

func (d *Document) clampLocked(p Pos) Pos {
	if p.Row < 0 {
		return Pos{}
	}
	if p.Row >= len(d.lines) {
		last := len(d.lines) - 1
		return Pos{Row: last, Col: len(d.lines[last])}
	}
	if p.Col < 0 {
		p.Col = 0
	}
	if p.Col > len(d.lines[p.Row]) {
		p.Col = len(d.lines[p.Row])
	}
	return p
}

// Slice returns the text between two offsets.
func (d *Document) Slice(start, end int) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if end < start {
		start, end = end, start
	}
	from := d.offsetToPosLocked(start)
	to := d.offsetToPosLocked(end)
	return joinLines(d.collectLocked(from, to))
}

// Insert inserts text at offset and returns the offset just past it.
func (d *Document) Insert(offset int, text string) int {
	return d.Replace(offset, offset, text)
}

// Delete removes the text between two offsets and returns it.
func (d *Document) Delete(start, end int) string {
	removed := d.Slice(start, end)
	d.Replace(start, end, "")
	return removed
}

// Replace substitutes the text between start and end and returns the offset
// just past the inserted text. A non-trivial replace counts as one undo step.
func (d *Document) Replace(start, end int, text string) int {
	d.mu.Lock()
	if end < start {
		start, end = end, start
	}
	from := d.offsetToPosLocked(start)
	to := d.offsetToPosLocked(end)
	start = d.posToOffsetLocked(from)
	if from == to && text == "" {
		d.mu.Unlock()
		return start
	}

	if d.groupDepth == 0 {
		d.undoGroup++
	}
	if from != to {
		deleted := d.deleteTextRange(from, to)
		d.record(action{kind: actionInsertText, pos: from, text: deleted})
	}
	newEnd := start
	if text != "" {
		inserted := splitLines(text)
		endPos := d.insertTextAt(from, inserted)
		d.record(action{kind: actionDeleteText, pos: from, endPos: endPos, text: inserted})
		newEnd = d.posToOffsetLocked(endPos)
	}
	d.redo = d.redo[:0]
	fire := d.updateModifiedLocked()
	d.mu.Unlock()
	fire()
	return newEnd
}

// SetText replaces the whole buffer and clears the undo history.
func (d *Document) SetText(text string, modified bool) {
	d.mu.Lock()
	d.lines = splitLines(text)
	d.undo = nil
	d.redo = nil
	if modified {
		d.savePoint = -1
	} else {
		d.savePoint = 0
	}
	fire := d.updateModifiedLocked()
	d.mu.Unlock()
	fire()
}

// BeginGroup starts an edit group: every edit until the matching EndGroup is
// undone and redone as one step. Groups nest.
func (d *Document) BeginGroup() {
	d.mu.Lock()
	if d.groupDepth == 0 {
		d.undoGroup++
	}
	d.groupDepth++
	d.mu.Unlock()
}

func (d *Document) EndGroup() {
	d.mu.Lock()
	if d.groupDepth > 0 {
		d.groupDepth--
	}
	d.mu.Unlock()
}

func (d *Document) CanUndo() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.undo) > 0
}

func (d *Document) CanRedo() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.redo) > 0
}

// Undo reverts the last edit group. It returns false when there is nothing to undo.
func (d *Document) Undo() bool {
	d.mu.Lock()
	if len(d.undo) == 0 {
		d.mu.Unlock()
		return false
	}
	group := d.undo[len(d.undo)-1].group
	for len(d.undo) > 0 && d.undo[len(d.undo)-1].group == group {
		idx := len(d.undo) - 1
		act := d.undo[idx]
		d.undo = d.undo[:idx]
		inv := d.applyAction(act)
		inv.group = act.group
		d.redo = append(d.redo, inv)
	}
	fire := d.updateModifiedLocked()
	d.mu.Unlock()
	fire()
	return true
}

// Redo reapplies the last undone edit group.
func (d *Document) Redo() bool {
	d.mu.Lock()
	if len(d.redo) == 0 {
		d.mu.Unlock()
		return false
	}
	group := d.redo[len(d.redo)-1].group
	for len(d.redo) > 0 && d.redo[len(d.redo)-1].group == group {
		idx := len(d.redo) - 1
		act := d.redo[idx]
		d.redo = d.redo[:idx]
		inv := d.applyAction(act)
		inv.group = act.group
		d.undo = append(d.undo, inv)
	}
	fire := d.updateModifiedLocked()
	d.mu.Unlock()
	fire()
	return true
}

func (d *Document) IsModified() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.modified
}

// SetModified forces the modified flag. Clearing it marks the current state as saved.
func (d *Document) SetModified(modified bool) {
	d.mu.Lock()
	if modified {
		d.savePoint = -1
	} else {
		d.savePoint = len(d.undo)
	}
	fire := d.updateModifiedLocked()
	d.mu.Unlock()
	fire()
}

func (d *Document) record(act action) {
	// The saved state lies in the redo branch that is about to be dropped.
	if d.savePoint > len(d.undo) {
		d.savePoint = -1
	}
	act.group = d.undoGroup
	d.undo = append(d.undo, act)
}

func (d *Document) applyAction(act action) action {
	switch act.kind {
	case actionInsertText:
		endPos := d.insertTextAt(act.pos, act.text)
		return action{kind: actionDeleteText, pos: act.pos, endPos: endPos, text: act.text}
	default:
		deleted := d.deleteTextRange(act.pos, act.endPos)
		return action{kind: actionInsertText, pos: act.pos, text: deleted}
	}
}

// updateModifiedLocked recomputes the flag and returns the notifier to call
// once the lock is released.
func (d *Document) updateModifiedLocked() func() {
	modified := len(d.undo) != d.savePoint
	if modified == d.modified {
		return func() {}
	}
	d.modified = modified
	observers := make([]func(bool), len(d.observers))
	copy(observers, d.observers)
	return func() {
		for _, fn := range observers {
			fn(modified)
		}
	}
}

func (d *Document) insertTextAt(pos Pos, text [][]rune) Pos {
	if len(text) == 0 || pos.Row < 0 || pos.Row >= len(d.lines) {
		return pos
	}
	line := d.lines[pos.Row]
	if pos.Col < 0 {
		pos.Col = 0
	}
	if pos.Col > len(line) {
		pos.Col = len(line)
	}

	if len(text) == 1 {
		newLine := make([]rune, 0, len(line)+len(text[0]))
		newLine = append(newLine, line[:pos.Col]...)
		newLine = append(newLine, text[0]...)
		newLine = append(newLine, line[pos.Col:]...)
		d.lines[pos.Row] = newLine
		return Pos{Row: pos.Row, Col: pos.Col + len(text[0])}
	}

	firstLine := make([]rune, 0, pos.Col+len(text[0]))
	firstLine = append(firstLine, line[:pos.Col]...)
	firstLine = append(firstLine, text[0]...)

	suffix := line[pos.Col:]
	last := text[len(text)-1]
	lastLine := make([]rune, 0, len(last)+len(suffix))
	lastLine = append(lastLine, last...)
	lastLine = append(lastLine, suffix...)

	newLines := make([][]rune, 0, len(d.lines)+len(text)-1)
	newLines = append(newLines, d.lines[:pos.Row]...)
	newLines = append(newLines, firstLine)
	for i := 1; i < len(text)-1; i++ {
		middle := make([]rune, len(text[i]))
		copy(middle, text[i])
		newLines = append(newLines, middle)
	}
	newLines = append(newLines, lastLine)
	newLines = append(newLines, d.lines[pos.Row+1:]...)
	d.lines = newLines

	return Pos{Row: pos.Row + len(text) - 1, Col: len(last)}
}

func (d *Document) deleteTextRange(start, end Pos) [][]rune {
	if start.Row < 0 || end.Row >= len(d.lines) || start.Row > end.Row {
		return nil
	}
	if start.Row == end.Row && start.Col >= end.Col {
		return nil
	}
	deleted := d.collectLocked(start, end)

	firstLine := d.lines[start.Row]
	lastLine := d.lines[end.Row]
	merged := make([]rune, 0, start.Col+len(lastLine)-end.Col)
	merged = append(merged, firstLine[:start.Col]...)
	merged = append(merged, lastLine[end.Col:]...)

	newLines := make([][]rune, 0, len(d.lines)-(end.Row-start.Row))
	newLines = append(newLines, d.lines[:start.Row]...)
	newLines = append(newLines, merged)
	newLines = append(newLines, d.lines[end.Row+1:]...)
	d.lines = newLines
	return deleted
}

func (d *Document) collectLocked(start, end Pos) [][]rune {
	if start.Row == end.Row {
		line := d.lines[start.Row]
		out := make([]rune, end.Col-start.Col)
		copy(out, line[start.Col:end.Col])
		return [][]rune{out}
	}
	out := make([][]rune, 0, end.Row-start.Row+1)
	first := d.lines[start.Row][start.Col:]
	out = append(out, append([]rune(nil), first...))
	for row := start.Row + 1; row < end.Row; row++ {
		out = append(out, append([]rune(nil), d.lines[row]...))
	}
	out = append(out, append([]rune(nil), d.lines[end.Row][:end.Col]...))
	return out
}

// NormalizeLineEndings turns CRLF into LF, the only line ending a
// Document holds.
func NormalizeLineEndings(text string) string {
	return strings.ReplaceAll(text, "\r\n", "\n")
}

func splitLines(text string) [][]rune {
	text = NormalizeLineEndings(text)
	parts := strings.Split(text, "\n")
	lines := make([][]rune, len(parts))
	for i, p := range parts {
		lines[i] = []rune(p)
	}
	return lines
}

func joinLines(lines [][]rune) string {
	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(string(line))
	}
	return b.String()
}
