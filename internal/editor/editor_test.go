package editor

import (
	"errors"
	"testing"

	"github.com/spf13/afero"

	"github.com/kobzarvs/qscribe/internal/errs"
	"github.com/kobzarvs/qscribe/internal/languages"
)

func newTestEditor(lines ...string) *Editor {
	e := New(afero.NewMemMapFs(), languages.NewRegistry())
	e.NewUntitled("Untitled 1.py")
	text := ""
	for i, line := range lines {
		if i > 0 {
			text += "\n"
		}
		text += line
	}
	e.Document().SetText(text, false)
	return e
}

func writeFile(t *testing.T, fs afero.Fs, path, contents string) {
	t.Helper()
	if err := afero.WriteFile(fs, path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestLoadFromPath(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/src/a.py", "print(1)\n")
	e := New(fs, languages.NewRegistry())
	e.NewUntitled("Untitled 1.py")
	e.InsertText("junk")

	if err := e.LoadFromPath("/src/a.py"); err != nil {
		t.Fatalf("LoadFromPath error: %v", err)
	}
	if got := e.Text(); got != "print(1)\n" {
		t.Fatalf("Text = %q, want %q", got, "print(1)\n")
	}
	if e.IsModified() || e.IsUntitled() {
		t.Fatalf("modified=%v untitled=%v, want false/false", e.IsModified(), e.IsUntitled())
	}
	if e.Language().Name != languages.PythonName {
		t.Fatalf("language = %q, want Python", e.Language().Name)
	}
	if c := e.Cursor(); c.Row != 0 || c.Col != 0 {
		t.Fatalf("cursor = %+v, want origin", c)
	}
}

func TestLoadFromPathMissing(t *testing.T) {
	e := New(afero.NewMemMapFs(), nil)
	err := e.LoadFromPath("/nope.txt")
	if !errors.Is(err, errs.ErrFileMissing) {
		t.Fatalf("LoadFromPath error = %v, want FileMissing", err)
	}
}

func TestSaveReloadIdentity(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/a.txt", "one")
	e := New(fs, nil)
	if err := e.LoadFromPath("/a.txt"); err != nil {
		t.Fatalf("LoadFromPath error: %v", err)
	}
	e.GotoPosition(3)
	e.InsertText("\ntwo")
	if !e.IsModified() {
		t.Fatalf("modified = false after edit")
	}
	if err := e.Save(); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if e.IsModified() {
		t.Fatalf("modified after save")
	}
	before := e.Text()
	if err := e.Reload(false); err != nil {
		t.Fatalf("Reload error: %v", err)
	}
	if e.Text() != before || e.IsModified() {
		t.Fatalf("reload = %q modified=%v, want %q clean", e.Text(), e.IsModified(), before)
	}
}

func TestReloadClampsCursor(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/a.txt", "a long line of text")
	e := New(fs, nil)
	_ = e.LoadFromPath("/a.txt")
	e.GotoPosition(15)
	writeFile(t, fs, "/a.txt", "short")
	if err := e.Reload(true); err != nil {
		t.Fatalf("Reload error: %v", err)
	}
	if _, pos := e.Selection(); pos != 5 {
		t.Fatalf("cursor = %d, want 5", pos)
	}
	if !e.IsModified() {
		t.Fatalf("Reload(true) left editor clean")
	}
}

func TestSaveUntitledFails(t *testing.T) {
	e := newTestEditor("x")
	if err := e.Save(); !errors.Is(err, errs.ErrWriteFailed) {
		t.Fatalf("Save error = %v, want WriteFailed", err)
	}
}

func TestSaveAsBindsPath(t *testing.T) {
	fs := afero.NewMemMapFs()
	e := New(fs, languages.NewRegistry())
	e.NewUntitled("Untitled 1.py")
	e.InsertText("hello")
	if err := e.SaveAs("/out/notes.txt"); err != nil {
		t.Fatalf("SaveAs error: %v", err)
	}
	if e.File() != "/out/notes.txt" || e.IsUntitled() || e.IsModified() {
		t.Fatalf("file=%q untitled=%v modified=%v", e.File(), e.IsUntitled(), e.IsModified())
	}
	if e.Language().Name != languages.TextName {
		t.Fatalf("language = %q, want Text", e.Language().Name)
	}
	data, _ := afero.ReadFile(fs, "/out/notes.txt")
	if string(data) != "hello" {
		t.Fatalf("disk = %q, want %q", string(data), "hello")
	}
}

func TestSaveFailureKeepsDirty(t *testing.T) {
	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())
	e := New(fs, nil)
	e.NewUntitled("Untitled 1.py")
	e.InsertText("x")
	if err := e.SaveAs("/a.txt"); !errors.Is(err, errs.ErrWriteFailed) {
		t.Fatalf("SaveAs error = %v, want WriteFailed", err)
	}
	if !e.IsModified() || !e.IsUntitled() {
		t.Fatalf("modified=%v untitled=%v, want dirty untitled", e.IsModified(), e.IsUntitled())
	}
}

func TestGotoLineClamps(t *testing.T) {
	e := newTestEditor("one", "two", "three")
	e.GotoLine(2)
	if c := e.Cursor(); c.Row != 1 || c.Col != 0 {
		t.Fatalf("GotoLine(2) = %+v, want row 1", c)
	}
	e.GotoLine(0)
	if c := e.Cursor(); c.Row != 0 {
		t.Fatalf("GotoLine(0) row = %d, want 0", c.Row)
	}
	e.GotoLine(99)
	if c := e.Cursor(); c.Row != 2 {
		t.Fatalf("GotoLine(99) row = %d, want 2", c.Row)
	}
	e.GotoColumn(3)
	if c := e.Cursor(); c.Col != 2 {
		t.Fatalf("GotoColumn(3) col = %d, want 2", c.Col)
	}
	e.GotoColumn(40)
	if c := e.Cursor(); c.Col != 5 {
		t.Fatalf("GotoColumn(40) col = %d, want 5", c.Col)
	}
}

func TestSelectedText(t *testing.T) {
	e := newTestEditor("alpha beta")
	e.SetSelection(10, 6)
	if got := e.SelectedText(); got != "beta" {
		t.Fatalf("SelectedText = %q, want %q", got, "beta")
	}
	start, end := e.SelectionRange()
	if start != 6 || end != 10 {
		t.Fatalf("SelectionRange = %d,%d, want 6,10", start, end)
	}
	e.InsertText("gamma")
	if got := e.Text(); got != "alpha gamma" {
		t.Fatalf("Text = %q, want %q", got, "alpha gamma")
	}
	if e.Undo(); e.Text() != "alpha beta" {
		t.Fatalf("undo Text = %q, want %q", e.Text(), "alpha beta")
	}
}
