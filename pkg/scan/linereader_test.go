package scan

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestLineReader_BasicLines(t *testing.T) {
	lr := newLineReader(strings.NewReader("line1\nline2\nline3\n"))

	var got []string
	for {
		err := lr.readNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("readNext: %v", err)
		}
		got = append(got, lr.current().Text())
	}

	want := []string{"line1", "line2", "line3"}
	if len(got) != len(want) {
		t.Fatalf("got %d lines, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLineReader_TracksLineNumberAndPosition(t *testing.T) {
	lr := newLineReader(strings.NewReader("ab\ncd\ne"))

	type pos struct {
		number int
		offset int64
	}
	var got []pos

	for {
		err := lr.readNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("readNext: %v", err)
		}
		l := lr.current()
		got = append(got, pos{l.Number, l.Position})
	}

	want := []pos{{1, 0}, {2, 3}, {3, 6}}
	if len(got) != len(want) {
		t.Fatalf("got %d positions, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestLineReader_PreservesTrailingNewline(t *testing.T) {
	lr := newLineReader(strings.NewReader("with-newline\n"))
	if err := lr.readNext(); err != nil {
		t.Fatalf("readNext: %v", err)
	}
	if got := string(lr.current().Content); got != "with-newline\n" {
		t.Errorf("Content = %q, want trailing newline preserved", got)
	}
}

func TestLineReader_FinalLineWithoutNewline(t *testing.T) {
	lr := newLineReader(strings.NewReader("a\nb"))

	if err := lr.readNext(); err != nil {
		t.Fatalf("readNext (1): %v", err)
	}
	if err := lr.readNext(); err != nil {
		t.Fatalf("readNext (2): %v", err)
	}
	if got := string(lr.current().Content); got != "b" {
		t.Errorf("Content = %q, want %q", got, "b")
	}
	if err := lr.readNext(); !errors.Is(err, io.EOF) {
		t.Errorf("readNext (3) = %v, want io.EOF", err)
	}
}

func TestLineReader_EmptyInput(t *testing.T) {
	lr := newLineReader(strings.NewReader(""))
	if err := lr.readNext(); !errors.Is(err, io.EOF) {
		t.Errorf("readNext on empty input = %v, want io.EOF", err)
	}
}
