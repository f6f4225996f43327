// Package prompt asks the user what to do with unsaved changes.
package prompt

import (
	"unicode"

	"github.com/gdamore/tcell/v2"
)

type Answer int

const (
	Cancel Answer = iota
	Save
	Discard
)

func (a Answer) String() string {
	switch a {
	case Save:
		return "save"
	case Discard:
		return "discard"
	default:
		return "cancel"
	}
}

type Dialog interface {
	Ask(title, message string) (Answer, error)
}

// Fixed answers every question the same way.
type Fixed struct {
	Answer Answer
}

func (f Fixed) Ask(title, message string) (Answer, error) {
	return f.Answer, nil
}

const hint = "[s]ave  [d]iscard  [c]ancel"

// Terminal draws the question on the last lines of Screen and waits for a key.
type Terminal struct {
	Screen tcell.Screen
	Style  tcell.Style
}

func (t Terminal) Ask(title, message string) (Answer, error) {
	t.draw(title, message)
	for {
		ev := t.Screen.PollEvent()
		if ev == nil {
			return Cancel, nil
		}
		key, ok := ev.(*tcell.EventKey)
		if !ok {
			if _, resized := ev.(*tcell.EventResize); resized {
				t.Screen.Sync()
				t.draw(title, message)
			}
			continue
		}
		switch {
		case key.Key() == tcell.KeyEscape:
			return Cancel, nil
		case key.Key() == tcell.KeyRune:
			switch unicode.ToLower(key.Rune()) {
			case 's':
				return Save, nil
			case 'd':
				return Discard, nil
			case 'c':
				return Cancel, nil
			}
		}
	}
}

func (t Terminal) draw(title, message string) {
	w, h := t.Screen.Size()
	lines := []string{title, message, hint}
	top := max(h-len(lines), 0)
	for i, line := range lines {
		row := top + i
		if row >= h {
			break
		}
		col := 0
		for _, r := range line {
			if col >= w {
				break
			}
			t.Screen.SetContent(col, row, r, nil, t.Style)
			col++
		}
		for ; col < w; col++ {
			t.Screen.SetContent(col, row, ' ', nil, t.Style)
		}
	}
	t.Screen.Show()
}
