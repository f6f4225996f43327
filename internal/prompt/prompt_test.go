package prompt

import (
	"testing"

	"github.com/gdamore/tcell/v2"
)

func newScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	s := tcell.NewSimulationScreen("UTF-8")
	if err := s.Init(); err != nil {
		t.Fatalf("init screen: %v", err)
	}
	t.Cleanup(s.Fini)
	s.SetSize(40, 6)
	return s
}

func TestTerminalKeys(t *testing.T) {
	cases := []struct {
		key  tcell.Key
		r    rune
		want Answer
	}{
		{tcell.KeyRune, 's', Save},
		{tcell.KeyRune, 'D', Discard},
		{tcell.KeyRune, 'c', Cancel},
		{tcell.KeyEscape, 0, Cancel},
	}
	for _, tc := range cases {
		s := newScreen(t)
		s.InjectKey(tcell.KeyRune, 'x', tcell.ModNone)
		s.InjectKey(tc.key, tc.r, tcell.ModNone)
		got, err := Terminal{Screen: s}.Ask("Close", "a.py has unsaved changes")
		if err != nil {
			t.Fatalf("Ask error: %v", err)
		}
		if got != tc.want {
			t.Fatalf("Ask(%q) = %s, want %s", tc.r, got, tc.want)
		}
	}
}

func TestTerminalDrawsQuestion(t *testing.T) {
	s := newScreen(t)
	s.InjectKey(tcell.KeyEscape, 0, tcell.ModNone)
	if _, err := (Terminal{Screen: s}).Ask("Close", "unsaved"); err != nil {
		t.Fatalf("Ask error: %v", err)
	}
	cells, w, h := s.GetContents()
	title := cells[(h-3)*w]
	if len(title.Runes) == 0 || title.Runes[0] != 'C' {
		t.Fatalf("title first rune = %q, want 'C'", title.Runes)
	}
	hintCell := cells[(h-1)*w+1]
	if len(hintCell.Runes) == 0 || hintCell.Runes[0] != 's' {
		t.Fatalf("hint second rune = %q, want 's'", hintCell.Runes)
	}
}

func TestFixed(t *testing.T) {
	got, err := Fixed{Answer: Discard}.Ask("", "")
	if err != nil || got != Discard {
		t.Fatalf("Fixed.Ask = %s, %v", got, err)
	}
}
