package scan

import (
	"strconv"

	"github.com/toyinlola/patchscan/pkg/interfaces"
)

// parseUnifiedHunkHeader parses a "@@ -o,O +n,N @@ context" line. It
// returns ok=false if line does not match the unified hunk header grammar
// or if any of its four numbers overflows uint64.
func parseUnifiedHunkHeader(l interfaces.Line) (interfaces.HunkHeader, bool) {
	m := unifiedHunkHeaderRegex.FindStringSubmatch(l.Text())
	if m == nil {
		return interfaces.HunkHeader{}, false
	}
	origOffset, err1 := strconv.ParseUint(m[1], 10, 64)
	origCount, err2 := uint64(1), error(nil)
	if m[2] != "" {
		origCount, err2 = strconv.ParseUint(m[2], 10, 64)
	}
	newOffset, err3 := strconv.ParseUint(m[3], 10, 64)
	newCount, err4 := uint64(1), error(nil)
	if m[4] != "" {
		newCount, err4 = strconv.ParseUint(m[4], 10, 64)
	}
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return interfaces.HunkHeader{}, false
	}
	ctx := m[5]
	if len(ctx) > 0 && ctx[0] == ' ' {
		ctx = ctx[1:]
	}
	return interfaces.HunkHeader{
		OrigOffset: origOffset,
		OrigCount:  origCount,
		NewOffset:  newOffset,
		NewCount:   newCount,
		Context:    ctx,
		LineNumber: l.Number,
		Position:   l.Position,
	}, true
}

// classifyUnifiedLine maps a unified-diff body line's leading marker byte
// to its HunkLineKind. Body lines in a unified diff always carry
// SideBoth-equivalent semantics in the sense that a single stream of lines
// represents both sides at once; Side is still reported as SideBoth for
// every unified HunkLine per the data model.
func classifyUnifiedLine(text string) (kind interfaces.HunkLineKind, content string, ok bool) {
	if text == "" {
		return interfaces.HunkLineContext, "", true
	}
	switch text[0] {
	case ' ':
		return interfaces.HunkLineContext, text[1:], true
	case '+':
		return interfaces.HunkLineAdded, text[1:], true
	case '-':
		return interfaces.HunkLineRemoved, text[1:], true
	case '\\':
		return interfaces.HunkLineNoNewline, "", true
	default:
		return "", "", false
	}
}

// classifyContextBodyALine maps a context-diff old-section ("*** ... ***")
// body line's marker to its kind, per the explicit classification table:
// ' ' is shared context, '-' is a removal, '!' is a change, '\' is the
// no-newline marker. All are old_only except context, which is both.
func classifyContextBodyALine(text string) (kind interfaces.HunkLineKind, side interfaces.Side, content string, ok bool) {
	if text == "" {
		return interfaces.HunkLineContext, interfaces.SideBoth, "", true
	}
	body := text[1:]
	switch text[0] {
	case ' ':
		return interfaces.HunkLineContext, interfaces.SideBoth, body, true
	case '-':
		return interfaces.HunkLineRemoved, interfaces.SideOldOnly, body, true
	case '!':
		return interfaces.HunkLineChanged, interfaces.SideOldOnly, body, true
	case '\\':
		return interfaces.HunkLineNoNewline, interfaces.SideOldOnly, "", true
	default:
		return "", "", "", false
	}
}

// classifyContextBodyBLine is the equivalent of classifyContextBodyALine
// for the new-section ("--- ... ---") body.
func classifyContextBodyBLine(text string) (kind interfaces.HunkLineKind, side interfaces.Side, content string, ok bool) {
	if text == "" {
		return interfaces.HunkLineContext, interfaces.SideBoth, "", true
	}
	body := text[1:]
	switch text[0] {
	case ' ':
		return interfaces.HunkLineContext, interfaces.SideBoth, body, true
	case '+':
		return interfaces.HunkLineAdded, interfaces.SideNewOnly, body, true
	case '!':
		return interfaces.HunkLineChanged, interfaces.SideNewOnly, body, true
	case '\\':
		return interfaces.HunkLineNoNewline, interfaces.SideNewOnly, "", true
	default:
		return "", "", "", false
	}
}

// contextBodyALine is a buffered old-section line awaiting replay once the
// hunk's new-section marker is seen. The buffer is bounded by the hunk's
// declared orig_count, matching the spec's bounded-memory requirement.
type contextBodyALine struct {
	kind    interfaces.HunkLineKind
	side    interfaces.Side
	content []byte
	line    interfaces.Line
}
