// Package tests provides end-to-end integration tests for the patchscan
// scan pipeline (raw bytes -> Scanner -> Summary -> formatted output).
package tests

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/toyinlola/patchscan/pkg/interfaces"
	"github.com/toyinlola/patchscan/pkg/output"
	"github.com/toyinlola/patchscan/pkg/scan"
)

// ScanEvents drains a fresh Scanner over input and returns every event in
// order. It fails the test on any error other than io.EOF.
func ScanEvents(t *testing.T, input string) []interfaces.Event {
	t.Helper()

	sc := scan.New(strings.NewReader(input))
	defer sc.Close()

	var events []interfaces.Event
	for {
		ev, err := sc.Next(context.Background())
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

// Summarize scans input to completion and returns the resulting Summary.
func Summarize(t *testing.T, input string) *output.Summary {
	t.Helper()

	sc := scan.New(strings.NewReader(input))
	defer sc.Close()

	summary, err := output.Summarize(context.Background(), sc)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	return summary
}

// Formatter is the interface shared by pkg/output's summary formatters.
type Formatter interface {
	Format(w io.Writer, summary *output.Summary) error
}

// FormatSummary formats summary with formatter and returns the output as a
// string.
func FormatSummary(t *testing.T, formatter Formatter, summary *output.Summary) string {
	t.Helper()
	var buf bytes.Buffer
	if err := formatter.Format(&buf, summary); err != nil {
		t.Fatalf("Format: %v", err)
	}
	return buf.String()
}

// AssertEventKinds asserts that got matches want, kind by kind.
func AssertEventKinds(t *testing.T, got []interfaces.Event, want []interfaces.EventKind) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d events, want %d", len(got), len(want))
	}
	for i, ev := range got {
		if ev.Kind != want[i] {
			t.Errorf("event %d kind = %v, want %v", i, ev.Kind, want[i])
		}
	}
}
