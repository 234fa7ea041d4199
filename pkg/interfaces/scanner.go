// Package interfaces defines the shared types and contracts for all patchscan
// modules. This package has ZERO dependencies on any other pkg/ package.
// All cross-module communication goes through types and interfaces defined
// here.
package interfaces

import "context"

// Dialect identifies which of the three patch grammars a HeaderBlock was
// parsed from.
type Dialect string

const (
	DialectUnified    Dialect = "unified"
	DialectContext    Dialect = "context"
	DialectGitExtended Dialect = "git-extended"
)

// GitKind further classifies a git-extended HeaderBlock. It is meaningless
// for the unified and context dialects, where it is always GitKindNormal.
type GitKind string

const (
	GitKindNormal      GitKind = "normal"
	GitKindNewFile     GitKind = "new_file"
	GitKindDeletedFile GitKind = "deleted_file"
	GitKindRename      GitKind = "rename"
	GitKindPureRename  GitKind = "pure_rename"
	GitKindCopy        GitKind = "copy"
	GitKindModeChange  GitKind = "mode_change"
	GitKindBinary      GitKind = "binary"
)

// DevNull is the sentinel old/new name diff tools use for a side that does
// not exist (file creation or deletion).
const DevNull = "/dev/null"

// Line is a logical line read from the input stream: its content, its
// 1-based line number, and the byte offset at which it began. The trailing
// newline is preserved in Content when present in the input (it is absent
// only for a final unterminated line).
//
// A Line borrows from scanner-internal storage; callers must not retain a
// Line (or any Content slice from it) past the next call to Scanner.Next.
type Line struct {
	Content  []byte
	Number   int
	Position int64
}

// Text returns Content with any single trailing "\r\n" or "\n" stripped.
func (l Line) Text() string {
	b := l.Content
	if n := len(b); n > 0 && b[n-1] == '\n' {
		b = b[:n-1]
		if n := len(b); n > 0 && b[n-1] == '\r' {
			b = b[:n-1]
		}
	}
	return string(b)
}

// HeaderBlock is the identified contiguous prefix of a patch: the metadata
// lines that precede the first hunk.
type HeaderBlock struct {
	Dialect Dialect
	GitKind GitKind

	// OldName, NewName are the "best" display names for the old/new sides
	// (see the name-selection rule in the header parser). Either may be
	// DevNull.
	OldName string
	NewName string

	// GitOldName, GitNewName are the names exactly as written on the
	// "diff --git a/X b/Y" line, including the a/ b/ ornaments.
	GitOldName string
	GitNewName string

	OldMode *uint32
	NewMode *uint32

	OldHash string
	NewHash string

	SimilarityIndex    *int
	DissimilarityIndex *int

	RenameFrom string
	RenameTo   string
	CopyFrom   string
	CopyTo     string

	IsBinary bool

	// RawHeaderLines are the original lines making up the block, in input
	// order. They borrow from scanner-internal storage, same lifetime
	// rule as Line.
	RawHeaderLines []Line

	StartLine     int
	StartPosition int64
}

// HunkHeader describes the position and extent of one hunk.
type HunkHeader struct {
	OrigOffset uint64
	OrigCount  uint64
	NewOffset  uint64
	NewCount   uint64

	// Context is the optional function/section hint following the closing
	// "@@ " in a unified hunk header. Always empty for context diffs.
	Context string

	LineNumber int
	Position   int64
}

// HunkLineKind classifies a single line inside a hunk body.
type HunkLineKind string

const (
	HunkLineContext    HunkLineKind = "context"
	HunkLineAdded      HunkLineKind = "added"
	HunkLineRemoved    HunkLineKind = "removed"
	HunkLineChanged    HunkLineKind = "changed"
	HunkLineNoNewline  HunkLineKind = "no_newline"
)

// Side indicates, for a HunkLine inside a context diff, which section(s) of
// the hunk it belongs to. Unified diffs always use SideBoth.
type Side string

const (
	SideBoth    Side = "both"
	SideOldOnly Side = "old_only"
	SideNewOnly Side = "new_only"
)

// HunkLine is one line inside a hunk body, with its marker byte already
// stripped from Content.
type HunkLine struct {
	Kind    HunkLineKind
	Side    Side
	Content []byte

	LineNumber int
	Position   int64
}

// EventKind discriminates the Event union.
type EventKind int

const (
	EventProse EventKind = iota
	EventHeaders
	EventHunkHeader
	EventHunkLine
	EventNoNewlineAtEof
	EventBinary
)

func (k EventKind) String() string {
	switch k {
	case EventProse:
		return "Prose"
	case EventHeaders:
		return "Headers"
	case EventHunkHeader:
		return "HunkHeader"
	case EventHunkLine:
		return "HunkLine"
	case EventNoNewlineAtEof:
		return "NoNewlineAtEof"
	case EventBinary:
		return "Binary"
	default:
		return "Unknown"
	}
}

// Event is the discriminated union emitted by Scanner.Next. Exactly one of
// Headers, Hunk, HunkLn is non-nil, depending on Kind; for EventProse and
// EventNoNewlineAtEof the line content is in ProseLine; for EventBinary it
// is in ProseLine and IsGitBinaryPatch distinguishes the two binary
// markers.
//
// Every Event carries its own LineNumber and Position (1-based line, byte
// offset) even when that duplicates a field already present on Headers,
// Hunk, or HunkLn, matching spec's invariant that every event independently
// reports its position.
//
// An Event borrows from scanner-internal storage and remains valid only
// until the next call to Scanner.Next.
type Event struct {
	Kind EventKind

	ProseLine         []byte
	IsGitBinaryPatch  bool

	Headers *HeaderBlock
	Hunk    *HunkHeader
	HunkLn  *HunkLine

	LineNumber int
	Position   int64
}

// Scanner is the public facade over the patch-scanning state machine: a
// format-tolerant, single-pass lexer/parser that recognizes patch
// boundaries in an arbitrary byte stream and emits a typed Event for each
// recognized region.
//
// A Scanner is single-threaded and not safe for concurrent use. Each Event
// returned by Next borrows from Scanner-owned buffers that are overwritten
// by the following call to Next.
type Scanner interface {
	// Next advances the scanner by one logical step and reports the event
	// produced. It returns io.EOF when the input is exhausted.
	Next(ctx context.Context) (Event, error)

	// Position returns the byte offset of the line most recently read, or
	// -1 before the first successful read.
	Position() int64

	// LineNumber returns the 1-based line number of the line most recently
	// read, or 0 before the first successful read.
	LineNumber() int

	// SkipCurrentPatch drives Next internally until the scanner leaves the
	// in-patch/in-hunk states, discarding the events produced. It returns
	// the first error encountered, or nil if it reached a Headers, Prose,
	// or EOF boundary.
	SkipCurrentPatch(ctx context.Context) error

	// AtPatchStart reports whether the scanner is accumulating a header
	// block or is past a header block and between hunks. It reports false
	// while a hunk body is being read.
	AtPatchStart() bool

	// Close releases scanner-owned resources. It tolerates being called on
	// an already-closed Scanner.
	Close() error
}
