// Package output formats patchscan's scan results for human and machine
// consumption.
package output

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/toyinlola/patchscan/pkg/interfaces"
)

// FileSummary describes one recognized patch body within the stream.
type FileSummary struct {
	Dialect    interfaces.Dialect `json:"dialect"`
	GitKind    interfaces.GitKind `json:"git_kind,omitempty"`
	OldName    string             `json:"old_name"`
	NewName    string             `json:"new_name"`
	IsBinary   bool               `json:"is_binary"`
	HunkCount  int                `json:"hunk_count"`
	AddedLines int                `json:"added_lines"`
	RemovedLines int             `json:"removed_lines"`
	StartLine  int                `json:"start_line"`
}

// Summary is the aggregate result of draining a Scanner to completion.
type Summary struct {
	Files       []FileSummary `json:"files"`
	ProseLines  int           `json:"prose_lines"`
	TotalEvents int           `json:"total_events"`
}

// Summarize drains sc, accumulating a Summary. It stops at the first error
// other than io.EOF.
func Summarize(ctx context.Context, sc interfaces.Scanner) (*Summary, error) {
	summary := &Summary{}
	var current *FileSummary

	for {
		ev, err := sc.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return summary, fmt.Errorf("output: scanning: %w", err)
		}
		summary.TotalEvents++

		switch ev.Kind {
		case interfaces.EventProse:
			summary.ProseLines++
		case interfaces.EventHeaders:
			if current != nil {
				summary.Files = append(summary.Files, *current)
			}
			current = &FileSummary{
				Dialect:   ev.Headers.Dialect,
				GitKind:   ev.Headers.GitKind,
				OldName:   ev.Headers.OldName,
				NewName:   ev.Headers.NewName,
				IsBinary:  ev.Headers.IsBinary,
				StartLine: ev.Headers.StartLine,
			}
		case interfaces.EventBinary:
			if current != nil {
				current.IsBinary = true
			}
		case interfaces.EventHunkHeader:
			if current != nil {
				current.HunkCount++
			}
		case interfaces.EventHunkLine:
			if current == nil {
				continue
			}
			switch ev.HunkLn.Kind {
			case interfaces.HunkLineAdded:
				current.AddedLines++
			case interfaces.HunkLineRemoved:
				current.RemovedLines++
			}
		}
	}

	if current != nil {
		summary.Files = append(summary.Files, *current)
	}
	return summary, nil
}
