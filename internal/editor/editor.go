package editor

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/kobzarvs/qscribe/internal/document"
	"github.com/kobzarvs/qscribe/internal/errs"
	"github.com/kobzarvs/qscribe/internal/languages"
	"github.com/kobzarvs/qscribe/internal/logger"
)

// Resolver picks the language for a file name.
type Resolver interface {
	LanguageForFile(path string) *languages.Language
}

// Editor binds a document to a file, a language and a cursor.
//
// The selection is kept as two absolute code-point offsets: the anchor, where
// the selection started, and the position, where the cursor is. They are equal
// when nothing is selected.
type Editor struct {
	fs       afero.Fs
	langs    Resolver
	doc      *document.Document
	file     string
	untitled bool
	language *languages.Language
	anchor   int
	position int
}

// New returns an untitled, empty editor without a name.
func New(fs afero.Fs, langs Resolver) *Editor {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if langs == nil {
		langs = languages.NewRegistry()
	}
	return &Editor{
		fs:       fs,
		langs:    langs,
		doc:      document.New(""),
		untitled: true,
		language: langs.LanguageForFile(""),
	}
}

// NewUntitled resets the editor to an empty untitled buffer named name.
func (e *Editor) NewUntitled(name string) {
	e.file = name
	e.untitled = true
	e.language = e.langs.LanguageForFile(name)
	e.doc.SetText("", false)
	e.anchor, e.position = 0, 0
	logger.Debug("untitled editor created", "name", name)
}

// LoadFromPath reads path into the editor.
func (e *Editor) LoadFromPath(path string) error {
	content, err := readFile(e.fs, path)
	if err != nil {
		return err
	}
	e.file = path
	e.untitled = false
	e.language = e.langs.LanguageForFile(path)
	e.doc.SetText(content, false)
	e.anchor, e.position = 0, 0
	logger.Debug("file loaded", "path", path, "language", e.language.Name)
	return nil
}

// LoadFromDocument adopts an existing document, typically one hydrated by the
// document cache with pending replacements.
func (e *Editor) LoadFromDocument(doc *document.Document, path string, lang *languages.Language) {
	e.doc = doc
	e.file = path
	e.untitled = false
	if lang == nil {
		lang = e.langs.LanguageForFile(path)
	}
	e.language = lang
	e.anchor, e.position = 0, 0
}

// Reload re-reads the bound file. The cursor is kept, clamped to the new content.
func (e *Editor) Reload(markModified bool) error {
	if e.untitled {
		return errs.New(errs.FileMissing, e.file)
	}
	content, err := readFile(e.fs, e.file)
	if err != nil {
		return err
	}
	e.doc.SetText(content, markModified)
	n := e.doc.Len()
	e.anchor = clampOffset(e.anchor, n)
	e.position = clampOffset(e.position, n)
	logger.Debug("file reloaded", "path", e.file, "modified", markModified)
	return nil
}

// Save writes the buffer to the bound file.
func (e *Editor) Save() error {
	if e.untitled {
		return errs.Wrap(errs.WriteFailed, e.file, errors.New("untitled editor needs a path"))
	}
	return e.SaveAs(e.file)
}

// SaveAs writes the buffer to path and binds the editor to it.
func (e *Editor) SaveAs(path string) error {
	if err := e.WriteFile(path); err != nil {
		return err
	}
	if path != e.file || e.untitled {
		e.language = e.langs.LanguageForFile(path)
	}
	e.file = path
	e.untitled = false
	e.doc.SetModified(false)
	logger.Debug("file saved", "path", path)
	return nil
}

// WriteFile writes the buffer to path without rebinding the editor.
func (e *Editor) WriteFile(path string) error {
	if err := e.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errs.Wrap(errs.WriteFailed, path, err)
	}
	if err := afero.WriteFile(e.fs, path, []byte(e.doc.Text()), 0o644); err != nil {
		return errs.Wrap(errs.WriteFailed, path, err)
	}
	return nil
}

func readFile(fs afero.Fs, path string) (string, error) {
	if _, err := fs.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", errs.New(errs.FileMissing, path)
		}
		return "", errs.Wrap(errs.ReadFailed, path, err)
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return "", errs.Wrap(errs.ReadFailed, path, err)
	}
	return string(data), nil
}

func (e *Editor) Document() *document.Document {
	return e.doc
}

func (e *Editor) File() string {
	return e.file
}

func (e *Editor) IsUntitled() bool {
	return e.untitled
}

func (e *Editor) IsModified() bool {
	return e.doc.IsModified()
}

func (e *Editor) SetModified(modified bool) {
	e.doc.SetModified(modified)
}

func (e *Editor) IsEmpty() bool {
	return e.doc.IsEmpty()
}

func (e *Editor) Text() string {
	return e.doc.Text()
}

func (e *Editor) Language() *languages.Language {
	return e.language
}

func (e *Editor) SetLanguage(l *languages.Language) {
	if l == nil {
		return
	}
	e.language = l
}

// Selection returns the anchor and cursor offsets.
func (e *Editor) Selection() (anchor, position int) {
	return e.anchor, e.position
}

// SetSelection selects from anchor to position, clamped to the document.
func (e *Editor) SetSelection(anchor, position int) {
	n := e.doc.Len()
	e.anchor = clampOffset(anchor, n)
	e.position = clampOffset(position, n)
}

// SelectionRange returns the ordered bounds of the selection.
func (e *Editor) SelectionRange() (start, end int) {
	if e.anchor <= e.position {
		return e.anchor, e.position
	}
	return e.position, e.anchor
}

func (e *Editor) HasSelection() bool {
	return e.anchor != e.position
}

func (e *Editor) SelectedText() string {
	if !e.HasSelection() {
		return ""
	}
	start, end := e.SelectionRange()
	return e.doc.Slice(start, end)
}

// Cursor returns the cursor as a line/column position.
func (e *Editor) Cursor() document.Pos {
	return e.doc.OffsetToPos(e.position)
}

// SetCursor moves the cursor to a 0-based line and column and drops the selection.
func (e *Editor) SetCursor(line, col int) {
	off := e.doc.PosToOffset(document.Pos{Row: line, Col: col})
	e.anchor, e.position = off, off
}

// GotoLine moves to the start of 1-based line n, clamped to the document.
func (e *Editor) GotoLine(n int) {
	count := e.doc.LineCount()
	if n < 1 {
		n = 1
	}
	if n > count {
		n = count
	}
	e.SetCursor(n-1, 0)
}

// GotoColumn moves to 1-based column n on the current line, clamped to the line.
func (e *Editor) GotoColumn(n int) {
	if n < 1 {
		n = 1
	}
	e.SetCursor(e.Cursor().Row, n-1)
}

// GotoPosition moves to an absolute offset.
func (e *Editor) GotoPosition(offset int) {
	offset = clampOffset(offset, e.doc.Len())
	e.anchor, e.position = offset, offset
}

// InsertAt inserts text at offset without moving the cursor.
func (e *Editor) InsertAt(offset int, text string) int {
	return e.doc.Insert(offset, text)
}

// ReplaceAt replaces the text between start and end without moving the cursor.
func (e *Editor) ReplaceAt(start, end int, text string) int {
	return e.doc.Replace(start, end, text)
}

// InsertText replaces the selection with text and places the cursor after it.
func (e *Editor) InsertText(text string) {
	start, end := e.SelectionRange()
	pos := e.doc.Replace(start, end, text)
	e.anchor, e.position = pos, pos
}

func (e *Editor) Undo() bool {
	ok := e.doc.Undo()
	e.clampSelection()
	return ok
}

func (e *Editor) Redo() bool {
	ok := e.doc.Redo()
	e.clampSelection()
	return ok
}

func (e *Editor) clampSelection() {
	n := e.doc.Len()
	e.anchor = clampOffset(e.anchor, n)
	e.position = clampOffset(e.position, n)
}

func clampOffset(v, n int) int {
	if v < 0 {
		return 0
	}
	if v > n {
		return n
	}
	return v
}
