package history

import (
	"fmt"
	"strings"
	"testing"
)

type memStore map[string][]string

func (m memStore) Strings(key string) []string           { return m[key] }
func (m memStore) SetStrings(key string, values []string) { m[key] = values }

func TestInsertMovesToHead(t *testing.T) {
	h := New(SearchPatternsKey, 3)
	for _, p := range []string{"a", "b", "c", "a"} {
		h.Insert(p)
	}
	if got := strings.Join(h.List(), ","); got != "a,c,b" {
		t.Fatalf("List = %s, want a,c,b", got)
	}
	h.Insert("d")
	if got := strings.Join(h.List(), ","); got != "d,a,c" {
		t.Fatalf("List = %s, want d,a,c", got)
	}
}

func TestInsertProperty(t *testing.T) {
	h := New(ReplacePatternsKey, DefaultCapacity)
	for i := range 40 {
		prev := h.Len()
		s := fmt.Sprintf("p%d", i%20)
		seen := false
		for _, v := range h.List() {
			if v == s {
				seen = true
			}
		}
		h.Insert(s)
		want := min(prev+1, DefaultCapacity)
		if seen {
			want = prev
		}
		if h.Len() != want {
			t.Fatalf("Len after Insert(%s) = %d, want %d", s, h.Len(), want)
		}
		if h.List()[0] != s {
			t.Fatalf("head = %s, want %s", h.List()[0], s)
		}
		uniq := map[string]bool{}
		for _, v := range h.List() {
			if uniq[v] {
				t.Fatalf("duplicate %s in %v", v, h.List())
			}
			uniq[v] = true
		}
	}
}

func TestInsertNormalizes(t *testing.T) {
	h := New(SearchPatternsKey, 5)
	if h.Insert("") {
		t.Fatalf("Insert(\"\") = true")
	}
	h.Insert("first\u2029second")
	h.Insert("one\ntwo")
	if got := strings.Join(h.List(), ","); got != "one,first" {
		t.Fatalf("List = %q, want one,first", got)
	}
	if h.Insert("\nrest") {
		t.Fatalf("pattern with empty first line was inserted")
	}
}

func TestPersistRestore(t *testing.T) {
	store := memStore{}
	h := New(SearchPatternsKey, 5)
	h.Insert("x")
	h.Insert("y")
	h.Persist(store)
	if got := strings.Join(store[SearchPatternsKey], ","); got != "y,x" {
		t.Fatalf("stored = %s, want y,x", got)
	}

	restored := New(SearchPatternsKey, 5)
	restored.Insert("stale")
	restored.Restore(store)
	if got := strings.Join(restored.List(), ","); got != "y,x" {
		t.Fatalf("restored = %s, want y,x", got)
	}
	if n := len(restored.Tree().Node(restored.Tree().Root()).Children); n != 2 {
		t.Fatalf("tree children = %d, want 2", n)
	}
}
