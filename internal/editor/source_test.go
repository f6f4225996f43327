package editor

import (
	"testing"

	"github.com/kobzarvs/qscribe/internal/languages"
)

func TestToggleCommentsAddsAndStrips(t *testing.T) {
	e := newTestEditor("def f():", "    return 1", "", "x = 2")
	e.SetSelection(0, e.Document().Len())

	if !e.ToggleComments() {
		t.Fatalf("ToggleComments = false")
	}
	want := "# def f():\n#     return 1\n\n# x = 2"
	if got := e.Text(); got != want {
		t.Fatalf("commented = %q, want %q", got, want)
	}

	e.SetSelection(0, e.Document().Len())
	e.ToggleComments()
	want = "def f():\n    return 1\n\nx = 2"
	if got := e.Text(); got != want {
		t.Fatalf("uncommented = %q, want %q", got, want)
	}
}

func TestToggleCommentsMixedBlockComments(t *testing.T) {
	e := newTestEditor("  # a", "  b")
	e.SetSelection(0, e.Document().Len())
	e.ToggleComments()
	want := "  # # a\n  # b"
	if got := e.Text(); got != want {
		t.Fatalf("Text = %q, want %q", got, want)
	}
}

func TestToggleCommentsWithoutMarkerIsNoop(t *testing.T) {
	e := newTestEditor("plain")
	e.SetLanguage(languages.Text())
	if e.ToggleComments() {
		t.Fatalf("ToggleComments = true for language without marker")
	}
	if got := e.Text(); got != "plain" {
		t.Fatalf("Text = %q, want %q", got, "plain")
	}
}

func TestToggleCommentsIsOneUndoStep(t *testing.T) {
	e := newTestEditor("a", "b")
	e.SetSelection(0, 3)
	e.ToggleComments()
	e.Undo()
	if got := e.Text(); got != "a\nb" {
		t.Fatalf("undo Text = %q, want %q", got, "a\nb")
	}
}

func TestIndentUnindentSelection(t *testing.T) {
	e := newTestEditor("one", "two", "three")
	// Selection ending at column 0 of the third line leaves it alone.
	e.SetSelection(0, 8)
	e.Indent()
	if got := e.Text(); got != "\tone\n\ttwo\nthree" {
		t.Fatalf("indent = %q", got)
	}
	e.Unindent()
	if got := e.Text(); got != "one\ntwo\nthree" {
		t.Fatalf("unindent = %q", got)
	}
}

func TestUnindentSpaces(t *testing.T) {
	e := newTestEditor("      x")
	e.Unindent()
	if got := e.Text(); got != "  x" {
		t.Fatalf("unindent = %q, want %q", got, "  x")
	}
}

func TestRemoveTrailingWhitespace(t *testing.T) {
	e := newTestEditor("a  ", "b\t", "c")
	e.RemoveTrailingWhitespace()
	if got := e.Text(); got != "a\nb\nc\n" {
		t.Fatalf("Text = %q, want %q", got, "a\nb\nc\n")
	}
	if e.RemoveTrailingWhitespace() {
		t.Fatalf("second pass reported a change")
	}
}

func TestConvertIndentation(t *testing.T) {
	e := newTestEditor("        x", "    y", "  z")
	e.ConvertIndentationToTabs()
	if got := e.Text(); got != "\t\tx\n\ty\n  z" {
		t.Fatalf("tabs = %q", got)
	}
	e.ConvertIndentationToSpaces()
	if got := e.Text(); got != "        x\n    y\n  z" {
		t.Fatalf("spaces = %q", got)
	}
}

func TestDuplicateLines(t *testing.T) {
	e := newTestEditor("a", "b")
	e.SetCursor(0, 1)
	e.DuplicateLines()
	if got := e.Text(); got != "a\na\nb" {
		t.Fatalf("Text = %q, want %q", got, "a\na\nb")
	}
	if c := e.Cursor(); c.Row != 1 || c.Col != 1 {
		t.Fatalf("cursor = %+v, want row 1 col 1", c)
	}
}

func TestDeleteLines(t *testing.T) {
	e := newTestEditor("a", "b", "c")
	e.SetCursor(1, 0)
	e.DeleteLines()
	if got := e.Text(); got != "a\nc" {
		t.Fatalf("Text = %q, want %q", got, "a\nc")
	}
	e.SetCursor(1, 0)
	e.DeleteLines()
	if got := e.Text(); got != "a" {
		t.Fatalf("Text = %q, want %q", got, "a")
	}
	e.DeleteLines()
	if got := e.Text(); got != "" {
		t.Fatalf("Text = %q, want empty", got)
	}
	if e.DeleteLines() {
		t.Fatalf("DeleteLines on empty document = true")
	}
}

func TestMoveLines(t *testing.T) {
	e := newTestEditor("one", "two", "three")
	e.SetCursor(1, 2)
	if !e.MoveLinesUp() {
		t.Fatalf("MoveLinesUp = false")
	}
	if got := e.Text(); got != "two\none\nthree" {
		t.Fatalf("up = %q", got)
	}
	if c := e.Cursor(); c.Row != 0 || c.Col != 2 {
		t.Fatalf("cursor = %+v, want {0 2}", c)
	}
	if e.MoveLinesUp() {
		t.Fatalf("MoveLinesUp at top = true")
	}
	e.MoveLinesDown()
	e.MoveLinesDown()
	if got := e.Text(); got != "one\nthree\ntwo" {
		t.Fatalf("down = %q", got)
	}
	if e.MoveLinesDown() {
		t.Fatalf("MoveLinesDown at bottom = true")
	}
	e.Undo()
	if got := e.Text(); got != "one\ntwo\nthree" {
		t.Fatalf("undo = %q", got)
	}
}
