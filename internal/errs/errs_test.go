package errs

import (
	"errors"
	"fmt"
	"os"
	"testing"
)

func TestIsMatchesKind(t *testing.T) {
	err := New(FileMissing, "/a.txt")
	if !errors.Is(err, ErrFileMissing) {
		t.Fatalf("errors.Is(%v, ErrFileMissing) = false, want true", err)
	}
	if errors.Is(err, ErrReadFailed) {
		t.Fatalf("errors.Is(%v, ErrReadFailed) = true, want false", err)
	}
	wrapped := fmt.Errorf("load: %w", err)
	if got := KindOf(wrapped); got != FileMissing {
		t.Fatalf("KindOf = %v, want %v", got, FileMissing)
	}
}

func TestWrapKeepsCause(t *testing.T) {
	err := Wrap(WriteFailed, "/b.txt", os.ErrPermission)
	if !errors.Is(err, os.ErrPermission) {
		t.Fatalf("cause lost: %v", err)
	}
	if want := `write failed: "/b.txt": permission denied`; err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestKindOfForeignError(t *testing.T) {
	if got := KindOf(errors.New("boom")); got != Unknown {
		t.Fatalf("KindOf = %v, want %v", got, Unknown)
	}
}
