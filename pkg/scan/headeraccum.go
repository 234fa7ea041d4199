package scan

import (
	"strings"

	"github.com/toyinlola/patchscan/pkg/interfaces"
)

// headerCap is the maximum number of lines a candidate header block may
// accumulate before the scanner gives up and fails permanently.
const headerCap = 1024

// continuationPrefixes are the line prefixes that can legally extend a
// candidate header block. looksLikeContinuation is intentionally
// permissive (dialect-agnostic); the per-dialect ordering rules in
// header.go decide whether a pushed line actually keeps the block valid.
var continuationPrefixes = []string{
	"+++ ",
	"--- ",
	"index ",
	"new file mode ",
	"deleted file mode ",
	"old mode ",
	"new mode ",
	"similarity index ",
	"dissimilarity index ",
	"rename from ",
	"rename to ",
	"copy from ",
	"copy to ",
	"Binary files ",
	"GIT binary patch",
}

// looksLikeContinuation reports whether line could extend a header block
// already in progress: one of the recognized continuation prefixes, or a
// line belonging to the context-diff hunk-separator family. A line for
// which it returns true is pushed onto the accumulator; whether the block
// stays valid is decided by the per-dialect rules in header.go.
func looksLikeContinuation(line string) bool {
	for _, p := range continuationPrefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return isContextSeparatorLine(line)
}

// isContextSeparatorLine reports whether line is one of the three forms
// that open a context-diff hunk: "***************", "*** N,M ****", or
// "--- N,M ----".
func isContextSeparatorLine(line string) bool {
	if line == "***************" {
		return true
	}
	if _, _, ok := parseContextSectionMarker(line, "*** ", " ****"); ok {
		return true
	}
	if _, _, ok := parseContextSectionMarker(line, "--- ", " ----"); ok {
		return true
	}
	return false
}

// headerAccumulator owns the bounded candidate-header-line buffer.
type headerAccumulator struct {
	lines []interfaces.Line
}

func (h *headerAccumulator) reset() {
	h.lines = h.lines[:0]
}

func (h *headerAccumulator) start(line interfaces.Line) {
	h.lines = append(h.lines[:0], line)
}

// push appends line to the accumulation. It returns false without
// modifying the accumulator if doing so would exceed headerCap; the caller
// must treat that as a fatal, unrecoverable condition (ErrHeaderTooLong).
func (h *headerAccumulator) push(line interfaces.Line) bool {
	if len(h.lines) >= headerCap {
		return false
	}
	h.lines = append(h.lines, line)
	return true
}
