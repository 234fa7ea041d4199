package scan

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/toyinlola/patchscan/pkg/interfaces"
)

func collectEvents(t *testing.T, input string) []interfaces.Event {
	t.Helper()
	s := New(strings.NewReader(input))
	var events []interfaces.Event
	for {
		ev, err := s.Next(context.Background())
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		events = append(events, ev)
	}
	return events
}

func kinds(events []interfaces.Event) []interfaces.EventKind {
	out := make([]interfaces.EventKind, len(events))
	for i, e := range events {
		out[i] = e.Kind
	}
	return out
}

func TestScanner_LeadingProseThenUnifiedPatch(t *testing.T) {
	input := "Some commit message text.\n" +
		"--- a/file.txt\n" +
		"+++ b/file.txt\n" +
		"@@ -1,2 +1,2 @@\n" +
		" unchanged\n" +
		"-old line\n" +
		"+new line\n"

	events := collectEvents(t, input)
	got := kinds(events)
	want := []interfaces.EventKind{
		interfaces.EventProse,
		interfaces.EventHeaders,
		interfaces.EventHunkHeader,
		interfaces.EventHunkLine,
		interfaces.EventHunkLine,
		interfaces.EventHunkLine,
	}
	assertKinds(t, got, want)

	hb := events[1].Headers
	if hb.Dialect != interfaces.DialectUnified {
		t.Errorf("Dialect = %v", hb.Dialect)
	}
	if hb.OldName != "file.txt" || hb.NewName != "file.txt" {
		t.Errorf("names = %q/%q", hb.OldName, hb.NewName)
	}

	hl := events[3].HunkLn
	if hl.Kind != interfaces.HunkLineContext || string(hl.Content) != "unchanged" {
		t.Errorf("line 3 = %+v", hl)
	}
	if events[4].HunkLn.Kind != interfaces.HunkLineRemoved {
		t.Errorf("line 4 kind = %v, want removed", events[4].HunkLn.Kind)
	}
	if events[5].HunkLn.Kind != interfaces.HunkLineAdded {
		t.Errorf("line 5 kind = %v, want added", events[5].HunkLn.Kind)
	}
}

func TestScanner_GitExtendedNewFile(t *testing.T) {
	input := "diff --git a/new.go b/new.go\n" +
		"new file mode 100644\n" +
		"index 0000000..abc1234\n" +
		"--- /dev/null\n" +
		"+++ b/new.go\n" +
		"@@ -0,0 +1,2 @@\n" +
		"+line one\n" +
		"+line two\n"

	events := collectEvents(t, input)
	got := kinds(events)
	want := []interfaces.EventKind{
		interfaces.EventHeaders,
		interfaces.EventHunkHeader,
		interfaces.EventHunkLine,
		interfaces.EventHunkLine,
	}
	assertKinds(t, got, want)

	hb := events[0].Headers
	if hb.GitKind != interfaces.GitKindNewFile {
		t.Errorf("GitKind = %v, want new_file", hb.GitKind)
	}
	if hb.OldName != interfaces.DevNull {
		t.Errorf("OldName = %q", hb.OldName)
	}
}

func TestScanner_BackToBackGitHeaders(t *testing.T) {
	input := "diff --git a/one.go b/one.go\n" +
		"index 111..222 100644\n" +
		"--- a/one.go\n" +
		"+++ b/one.go\n" +
		"@@ -1 +1 @@\n" +
		"-a\n" +
		"+b\n" +
		"diff --git a/two.go b/two.go\n" +
		"index 333..444 100644\n" +
		"--- a/two.go\n" +
		"+++ b/two.go\n" +
		"@@ -1 +1 @@\n" +
		"-c\n" +
		"+d\n"

	events := collectEvents(t, input)
	got := kinds(events)
	want := []interfaces.EventKind{
		interfaces.EventHeaders, interfaces.EventHunkHeader, interfaces.EventHunkLine, interfaces.EventHunkLine,
		interfaces.EventHeaders, interfaces.EventHunkHeader, interfaces.EventHunkLine, interfaces.EventHunkLine,
	}
	assertKinds(t, got, want)
	if events[0].Headers.GitNewName != "two.go" && events[0].Headers.NewName == "two.go" {
		t.Errorf("first header leaked into second")
	}
	if events[4].Headers.NewName != "two.go" {
		t.Errorf("second header NewName = %q, want two.go", events[4].Headers.NewName)
	}
}

func TestScanner_GitBinaryPatch(t *testing.T) {
	input := "diff --git a/img.png b/img.png\n" +
		"index abc..def 100644\n" +
		"GIT binary patch\n" +
		"literal 10\nabcdefghij\n" +
		"\n"

	s := New(strings.NewReader(input))
	ev1, err := s.Next(context.Background())
	if err != nil {
		t.Fatalf("Next 1: %v", err)
	}
	if ev1.Kind != interfaces.EventHeaders {
		t.Fatalf("ev1.Kind = %v, want Headers", ev1.Kind)
	}
	if !ev1.Headers.IsBinary || ev1.Headers.GitKind != interfaces.GitKindBinary {
		t.Errorf("Headers = %+v", ev1.Headers)
	}
	ev2, err := s.Next(context.Background())
	if err != nil {
		t.Fatalf("Next 2: %v", err)
	}
	if ev2.Kind != interfaces.EventBinary || !ev2.IsGitBinaryPatch {
		t.Errorf("ev2 = %+v, want Binary/git", ev2)
	}
}

// TestScanner_ClassicDiffStandaloneBinary covers a directory-mode diff's
// per-file notice that carries no "--- "/"+++ " pair at all — just the
// classic "diff ..." invocation line followed directly by "Binary files
// ... differ". This must reach InPatch and produce a Binary event rather
// than degrading to two Prose lines.
func TestScanner_ClassicDiffStandaloneBinary(t *testing.T) {
	input := "diff -ruN dir1/image.png dir2/image.png\n" +
		"Binary files dir1/image.png and dir2/image.png differ\n"

	events := collectEvents(t, input)
	got := kinds(events)
	want := []interfaces.EventKind{
		interfaces.EventHeaders,
		interfaces.EventBinary,
	}
	assertKinds(t, got, want)

	hb := events[0].Headers
	if !hb.IsBinary {
		t.Errorf("Headers.IsBinary = false, want true")
	}
	if hb.OldName != "dir1/image.png" || hb.NewName != "dir2/image.png" {
		t.Errorf("names = %q/%q", hb.OldName, hb.NewName)
	}
	if events[1].IsGitBinaryPatch {
		t.Errorf("IsGitBinaryPatch = true, want false (not a git binary patch marker)")
	}
}

func TestScanner_ContextDiff(t *testing.T) {
	input := "*** a/file.txt\n" +
		"--- b/file.txt\n" +
		"***************\n" +
		"*** 1,3 ****\n" +
		"  unchanged\n" +
		"! old line\n" +
		"- removed line\n" +
		"--- 1,3 ----\n" +
		"  unchanged\n" +
		"! new line\n" +
		"+ added line\n"

	events := collectEvents(t, input)
	got := kinds(events)
	want := []interfaces.EventKind{
		interfaces.EventHeaders,
		interfaces.EventHunkHeader,
		interfaces.EventHunkLine, interfaces.EventHunkLine, interfaces.EventHunkLine,
		interfaces.EventHunkLine, interfaces.EventHunkLine, interfaces.EventHunkLine,
	}
	assertKinds(t, got, want)

	hb := events[0].Headers
	if hb.Dialect != interfaces.DialectContext {
		t.Errorf("Dialect = %v", hb.Dialect)
	}

	if events[2].HunkLn.Side != interfaces.SideBoth {
		t.Errorf("body-A context line side = %v, want both", events[2].HunkLn.Side)
	}
	if events[3].HunkLn.Kind != interfaces.HunkLineChanged || events[3].HunkLn.Side != interfaces.SideOldOnly {
		t.Errorf("body-A changed line = %+v", events[3].HunkLn)
	}
	if events[4].HunkLn.Kind != interfaces.HunkLineRemoved || events[4].HunkLn.Side != interfaces.SideOldOnly {
		t.Errorf("body-A removed line = %+v", events[4].HunkLn)
	}
	if events[7].HunkLn.Kind != interfaces.HunkLineAdded || events[7].HunkLn.Side != interfaces.SideNewOnly {
		t.Errorf("body-B added line = %+v", events[7].HunkLn)
	}
}

// TestScanner_ContextDiffTruncatedMarkerLine covers a hunk-body line that
// has been reduced to a single marker byte with no trailing separator — as
// happens when a diff passes through a tool that strips trailing
// whitespace from an originally-empty "- "/"! "/"  " line. This must
// degrade to an empty line, not panic.
func TestScanner_ContextDiffTruncatedMarkerLine(t *testing.T) {
	input := "*** a/file.txt\n" +
		"--- b/file.txt\n" +
		"***************\n" +
		"*** 1,2 ****\n" +
		"-\n" +
		"! old\n" +
		"--- 1,2 ----\n" +
		"!\n" +
		"+ new\n"

	events := collectEvents(t, input)
	got := kinds(events)
	want := []interfaces.EventKind{
		interfaces.EventHeaders,
		interfaces.EventHunkHeader,
		interfaces.EventHunkLine, interfaces.EventHunkLine,
		interfaces.EventHunkLine, interfaces.EventHunkLine,
	}
	assertKinds(t, got, want)

	if events[2].HunkLn.Kind != interfaces.HunkLineRemoved || string(events[2].HunkLn.Content) != "" {
		t.Errorf("truncated removed line = %+v", events[2].HunkLn)
	}
	if events[4].HunkLn.Kind != interfaces.HunkLineChanged || string(events[4].HunkLn.Content) != "" {
		t.Errorf("truncated changed line = %+v", events[4].HunkLn)
	}
}

func TestScanner_SkipCurrentPatch(t *testing.T) {
	input := "--- a/file.txt\n" +
		"+++ b/file.txt\n" +
		"@@ -1 +1 @@\n" +
		"-a\n" +
		"+b\n" +
		"trailing prose\n"

	s := New(strings.NewReader(input))
	ev, err := s.Next(context.Background())
	if err != nil || ev.Kind != interfaces.EventHeaders {
		t.Fatalf("Next: ev=%+v err=%v", ev, err)
	}
	if err := s.SkipCurrentPatch(context.Background()); err != nil {
		t.Fatalf("SkipCurrentPatch: %v", err)
	}
	ev, err = s.Next(context.Background())
	if err != nil {
		t.Fatalf("Next after skip: %v", err)
	}
	if ev.Kind != interfaces.EventProse || string(ev.ProseLine) != "trailing prose\n" {
		t.Errorf("ev = %+v, want trailing prose", ev)
	}
}

func TestScanner_NoNewlineAtEof(t *testing.T) {
	input := "--- a/file.txt\n" +
		"+++ b/file.txt\n" +
		"@@ -1 +1 @@\n" +
		"-old\n" +
		"+new\n" +
		"\\ No newline at end of file\n"

	events := collectEvents(t, input)
	got := kinds(events)
	want := []interfaces.EventKind{
		interfaces.EventHeaders,
		interfaces.EventHunkHeader,
		interfaces.EventHunkLine,
		interfaces.EventHunkLine,
		interfaces.EventNoNewlineAtEof,
	}
	assertKinds(t, got, want)

	last := events[len(events)-1]
	if string(last.ProseLine) != "\\ No newline at end of file\n" {
		t.Errorf("ProseLine = %q", last.ProseLine)
	}
}

func TestScanner_ContextDiffNoNewlineOldSide(t *testing.T) {
	input := "*** a/file.txt\n" +
		"--- b/file.txt\n" +
		"***************\n" +
		"*** 1,1 ****\n" +
		"! old\n" +
		"\\ No newline at end of file\n" +
		"--- 1,1 ----\n" +
		"! new\n"

	events := collectEvents(t, input)
	got := kinds(events)
	want := []interfaces.EventKind{
		interfaces.EventHeaders,
		interfaces.EventHunkHeader,
		interfaces.EventHunkLine,
		interfaces.EventNoNewlineAtEof,
		interfaces.EventHunkLine,
	}
	assertKinds(t, got, want)
}

func assertKinds(t *testing.T, got, want []interfaces.EventKind) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d events %v, want %d %v", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d kind = %v, want %v", i, got[i], want[i])
		}
	}
}
