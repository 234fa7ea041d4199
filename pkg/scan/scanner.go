// Package scan implements a streaming, pull-based scanner that recognizes
// unified, context, and git-extended patch bodies in an arbitrary byte
// stream and emits a typed event for each recognized region.
package scan

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/toyinlola/patchscan/pkg/interfaces"
)

type scanState int

const (
	stateSeekingPatch scanState = iota
	stateAccumulatingHeaders
	stateInPatch
	stateInHunk
	stateError
)

// hunkMode distinguishes which hunk grammar is currently being streamed.
type hunkMode int

const (
	hunkNone hunkMode = iota
	hunkUnified
	hunkContextA
	hunkContextB
)

// scanner is the concrete interfaces.Scanner implementation.
type scanner struct {
	lr    *lineReader
	state scanState
	err   error
	closed bool

	accum headerAccumulator

	// pendingLine holds a line already read from lr that must be
	// reprocessed against a new state, instead of recursing.
	pendingLine   interfaces.Line
	havePending   bool

	// pendingEvents queues events produced in a batch (header-block Prose
	// replay, or a context hunk's replayed A-side lines) so Next still
	// returns exactly one event per call.
	pendingEvents []interfaces.Event

	dialect interfaces.Dialect

	hmode      hunkMode
	origRemain uint64
	newRemain  uint64
	bodyA      []contextBodyALine
	bodyAIndex int
}

// New returns a Scanner reading from r.
func New(r io.Reader) interfaces.Scanner {
	return &scanner{lr: newLineReader(r), state: stateSeekingPatch}
}

func (s *scanner) Position() int64 {
	if s.lr.lineNumber == 0 {
		return -1
	}
	return s.lr.current().Position
}

func (s *scanner) LineNumber() int {
	return s.lr.lineNumber
}

func (s *scanner) AtPatchStart() bool {
	return s.state == stateAccumulatingHeaders || s.state == stateInPatch
}

func (s *scanner) Close() error {
	s.closed = true
	return nil
}

func (s *scanner) fail(err error) (interfaces.Event, error) {
	s.state = stateError
	s.err = fmt.Errorf("%w: %w", ErrScannerFailed, err)
	return interfaces.Event{}, s.err
}

// readLine returns the next line to process: either a reprocessed pending
// line, or a fresh line from the underlying reader.
func (s *scanner) readLine() (interfaces.Line, error) {
	if s.havePending {
		s.havePending = false
		return s.pendingLine, nil
	}
	if err := s.lr.readNext(); err != nil {
		return interfaces.Line{}, err
	}
	return s.lr.current(), nil
}

// reprocess stashes line to be handed back out on the next readLine call.
func (s *scanner) reprocess(line interfaces.Line) {
	s.pendingLine = line
	s.havePending = true
}

func (s *scanner) Next(ctx context.Context) (interfaces.Event, error) {
	if s.closed {
		return interfaces.Event{}, ErrClosed
	}
	if s.err != nil {
		return interfaces.Event{}, s.err
	}
	if len(s.pendingEvents) > 0 {
		ev := s.pendingEvents[0]
		s.pendingEvents = s.pendingEvents[1:]
		return ev, nil
	}

	for {
		select {
		case <-ctx.Done():
			return interfaces.Event{}, fmt.Errorf("scan: cancelled: %w", ctx.Err())
		default:
		}

		switch s.state {
		case stateSeekingPatch, stateInPatch:
			return s.stepOutsideHunk(ctx)
		case stateAccumulatingHeaders:
			ev, err, done := s.stepAccumulating()
			if done {
				return ev, err
			}
			// need more: loop to read another line
		case stateInHunk:
			return s.stepHunk(ctx)
		default:
			return interfaces.Event{}, s.err
		}
	}
}

// stepOutsideHunk handles both SeekingPatch and InPatch: a plain line here
// is either Prose (SeekingPatch) or the start of a new header block
// (either state), or a hunk header (InPatch only).
func (s *scanner) stepOutsideHunk(ctx context.Context) (interfaces.Event, error) {
	line, err := s.readLine()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return interfaces.Event{}, io.EOF
		}
		return s.fail(err)
	}

	text := line.Text()

	if s.state == stateInPatch {
		if hh, ok := parseUnifiedHunkHeader(line); ok {
			s.beginUnifiedHunk(hh)
			s.state = stateInHunk
			return interfaces.Event{Kind: interfaces.EventHunkHeader, Hunk: &hh, LineNumber: line.Number, Position: line.Position}, nil
		}
		if isContextOpenerLine(text) {
			return s.beginContextHunk(line)
		}
	}

	status, _ := evaluateHeaderBlock([]interfaces.Line{line}, false)
	if status != headerNotAPatch || isHeaderOpenerLine(text) {
		s.accum.start(line)
		s.state = stateAccumulatingHeaders
		return s.driveAccumulation()
	}

	s.state = stateSeekingPatch
	return interfaces.Event{Kind: interfaces.EventProse, ProseLine: line.Content, LineNumber: line.Number, Position: line.Position}, nil
}

// isHeaderOpenerLine reports whether text can legally open a new header
// block, independent of whether a full block can yet be confirmed.
func isHeaderOpenerLine(text string) bool {
	if gitDiffLineRegex.MatchString(text) {
		return true
	}
	if classicDiffLineRegex.MatchString(text) {
		return true
	}
	if oldFileLineRegex.MatchString(text) {
		return true
	}
	if contextOldNameRegex.MatchString(text) && !contextOldSectionRegex.MatchString(text) {
		return true
	}
	return false
}

func isContextOpenerLine(text string) bool {
	return text == "***************"
}

// driveAccumulation pulls lines into the header accumulator until the
// block resolves (ready, or not-a-patch), returning exactly one event.
// Because resolving a block can require reading one line past its end (a
// non-continuation line, reprocessed afterward), this can consume several
// calls to readLine internally but always returns after producing exactly
// one event outcome, queuing the rest in pendingEvents.
func (s *scanner) driveAccumulation() (interfaces.Event, error) {
	for {
		status, hb := evaluateHeaderBlock(s.accum.lines, false)
		if status == headerReady {
			return s.finalizeHeaderBlock(hb)
		}
		if status == headerNotAPatch {
			return s.flushAccumulatorAsProse()
		}

		line, err := s.readLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				status, hb := evaluateHeaderBlock(s.accum.lines, true)
				if status == headerReady {
					return s.finalizeHeaderBlock(hb)
				}
				return s.flushAccumulatorAsProse()
			}
			return s.fail(err)
		}

		text := line.Text()
		if !looksLikeContinuation(text) {
			status, hb := evaluateHeaderBlock(s.accum.lines, true)
			s.reprocess(line)
			if status == headerReady {
				return s.finalizeHeaderBlock(hb)
			}
			return s.flushAccumulatorAsProse()
		}

		if !s.accum.push(line) {
			return s.fail(ErrHeaderTooLong)
		}
	}
}

func (s *scanner) finalizeHeaderBlock(hb *interfaces.HeaderBlock) (interfaces.Event, error) {
	s.dialect = hb.Dialect
	s.accum.reset()
	ev := interfaces.Event{Kind: interfaces.EventHeaders, Headers: hb, LineNumber: hb.StartLine, Position: hb.StartPosition}
	if hb.IsBinary {
		s.state = stateInPatch
		s.pendingEvents = append(s.pendingEvents, interfaces.Event{
			Kind:             interfaces.EventBinary,
			ProseLine:        lastLine(hb.RawHeaderLines).Content,
			IsGitBinaryPatch: isGitBinaryPatchLine(hb.RawHeaderLines),
			LineNumber:       lastLine(hb.RawHeaderLines).Number,
			Position:         lastLine(hb.RawHeaderLines).Position,
		})
	} else {
		s.state = stateInPatch
	}
	return ev, nil
}

func lastLine(lines []interfaces.Line) interfaces.Line {
	if len(lines) == 0 {
		return interfaces.Line{}
	}
	return lines[len(lines)-1]
}

func isGitBinaryPatchLine(lines []interfaces.Line) bool {
	l := lastLine(lines)
	return gitBinaryPatchRegex.MatchString(l.Text())
}

// flushAccumulatorAsProse discards the attempted header block, re-emitting
// its lines one at a time as Prose events, then returns the scanner to
// SeekingPatch.
func (s *scanner) flushAccumulatorAsProse() (interfaces.Event, error) {
	lines := append([]interfaces.Line(nil), s.accum.lines...)
	s.accum.reset()
	s.state = stateSeekingPatch
	for _, l := range lines[1:] {
		s.pendingEvents = append(s.pendingEvents, interfaces.Event{
			Kind: interfaces.EventProse, ProseLine: l.Content, LineNumber: l.Number, Position: l.Position,
		})
	}
	first := lines[0]
	return interfaces.Event{Kind: interfaces.EventProse, ProseLine: first.Content, LineNumber: first.Number, Position: first.Position}, nil
}

func (s *scanner) stepAccumulating() (interfaces.Event, error, bool) {
	ev, err := s.driveAccumulation()
	return ev, err, true
}

func (s *scanner) beginUnifiedHunk(hh interfaces.HunkHeader) {
	s.hmode = hunkUnified
	s.origRemain = hh.OrigCount
	s.newRemain = hh.NewCount
}

// beginContextHunk reads ahead through the "*** lo,hi ****" opener, buffers
// the old-section body (bounded by its declared count), then continues
// reading until the "--- lo,hi ----" new-section marker, at which point it
// emits the HunkHeader and queues the replayed old-section lines followed
// by a streaming cursor over the new section.
func (s *scanner) beginContextHunk(sepLine interfaces.Line) (interfaces.Event, error) {
	first, err := s.readLine()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return interfaces.Event{}, io.EOF
		}
		return s.fail(err)
	}
	lo, hi, ok := parseContextSectionMarker(first.Text(), "*** ", " ****")
	if !ok {
		s.reprocess(first)
		s.state = stateSeekingPatch
		return interfaces.Event{Kind: interfaces.EventProse, ProseLine: sepLine.Content, LineNumber: sepLine.Number, Position: sepLine.Position}, nil
	}
	origCount := hi - lo + 1
	if hi == 0 && lo == 0 {
		origCount = 0
	}

	var bodyA []contextBodyALine
	// A trailing "\ No newline at end of file" marker occupies a buffered
	// slot without counting against origCount, so the bound allows one
	// extra line before giving up on finding the new-section marker.
	for uint64(len(bodyA)) <= origCount+1 {
		l, err := s.readLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return s.fail(ErrScannerFailed)
			}
			return s.fail(err)
		}
		text := l.Text()
		if newLo, newHi, ok := parseContextSectionMarker(text, "--- ", " ----"); ok {
			newCount := newHi - newLo + 1
			if newHi == 0 && newLo == 0 {
				newCount = 0
			}
			hh := interfaces.HunkHeader{
				OrigOffset: lo, OrigCount: origCount,
				NewOffset: newLo, NewCount: newCount,
				LineNumber: sepLine.Number, Position: sepLine.Position,
			}
			s.hmode = hunkContextB
			s.newRemain = hh.NewCount
			s.bodyA = bodyA
			s.bodyAIndex = 0
			s.state = stateInHunk
			s.pendingEvents = s.bodyAAsEvents(bodyA)
			return interfaces.Event{Kind: interfaces.EventHunkHeader, Hunk: &hh, LineNumber: sepLine.Number, Position: sepLine.Position}, nil
		}
		kind, side, content, ok := classifyContextBodyALine(text)
		if !ok {
			return s.fail(ErrScannerFailed)
		}
		bodyA = append(bodyA, contextBodyALine{kind: kind, side: side, content: []byte(content), line: l})
	}
	return s.fail(ErrScannerFailed)
}

func (s *scanner) bodyAAsEvents(bodyA []contextBodyALine) []interfaces.Event {
	evs := make([]interfaces.Event, 0, len(bodyA))
	for _, b := range bodyA {
		if b.kind == interfaces.HunkLineNoNewline {
			evs = append(evs, interfaces.Event{
				Kind: interfaces.EventNoNewlineAtEof, ProseLine: b.line.Content,
				LineNumber: b.line.Number, Position: b.line.Position,
			})
			continue
		}
		evs = append(evs, interfaces.Event{
			Kind: interfaces.EventHunkLine,
			HunkLn: &interfaces.HunkLine{
				Kind: b.kind, Side: b.side, Content: b.content,
				LineNumber: b.line.Number, Position: b.line.Position,
			},
			LineNumber: b.line.Number, Position: b.line.Position,
		})
	}
	return evs
}

func (s *scanner) stepHunk(ctx context.Context) (interfaces.Event, error) {
	switch s.hmode {
	case hunkUnified:
		return s.stepUnifiedHunkLine()
	case hunkContextB:
		return s.stepContextBLine()
	default:
		return s.fail(ErrScannerFailed)
	}
}

func (s *scanner) stepUnifiedHunkLine() (interfaces.Event, error) {
	// Once both counts are used up, only a "\ No newline" marker still
	// belongs to the hunk.
	exhausted := s.origRemain == 0 && s.newRemain == 0
	line, err := s.readLine()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return interfaces.Event{}, io.EOF
		}
		return s.fail(err)
	}
	text := line.Text()
	kind, content, ok := classifyUnifiedLine(text)
	if !ok || (exhausted && kind != interfaces.HunkLineNoNewline) {
		s.reprocess(line)
		s.hmode = hunkNone
		s.state = stateInPatch
		return s.stepOutsideHunk(context.Background())
	}
	switch kind {
	case interfaces.HunkLineContext:
		if s.origRemain > 0 {
			s.origRemain--
		}
		if s.newRemain > 0 {
			s.newRemain--
		}
	case interfaces.HunkLineRemoved:
		if s.origRemain > 0 {
			s.origRemain--
		}
	case interfaces.HunkLineAdded:
		if s.newRemain > 0 {
			s.newRemain--
		}
	}
	if kind == interfaces.HunkLineNoNewline {
		return interfaces.Event{
			Kind: interfaces.EventNoNewlineAtEof, ProseLine: line.Content,
			LineNumber: line.Number, Position: line.Position,
		}, nil
	}
	return interfaces.Event{
		Kind: interfaces.EventHunkLine,
		HunkLn: &interfaces.HunkLine{
			Kind: kind, Side: interfaces.SideBoth, Content: []byte(content),
			LineNumber: line.Number, Position: line.Position,
		},
		LineNumber: line.Number, Position: line.Position,
	}, nil
}

func (s *scanner) stepContextBLine() (interfaces.Event, error) {
	// Once the new-side count is used up, only a "\ No newline" marker
	// still belongs to the hunk.
	exhausted := s.newRemain == 0
	line, err := s.readLine()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return interfaces.Event{}, io.EOF
		}
		return s.fail(err)
	}
	text := line.Text()
	kind, side, content, ok := classifyContextBodyBLine(text)
	if !ok || (exhausted && kind != interfaces.HunkLineNoNewline) {
		s.reprocess(line)
		s.hmode = hunkNone
		s.state = stateInPatch
		return s.stepOutsideHunk(context.Background())
	}
	if kind != interfaces.HunkLineNoNewline {
		s.newRemain--
	} else {
		return interfaces.Event{
			Kind: interfaces.EventNoNewlineAtEof, ProseLine: line.Content,
			LineNumber: line.Number, Position: line.Position,
		}, nil
	}
	return interfaces.Event{
		Kind: interfaces.EventHunkLine,
		HunkLn: &interfaces.HunkLine{
			Kind: kind, Side: side, Content: []byte(content),
			LineNumber: line.Number, Position: line.Position,
		},
		LineNumber: line.Number, Position: line.Position,
	}, nil
}

// SkipCurrentPatch drives Next until the scanner exits the in-patch/in-hunk
// region, discarding the events produced.
func (s *scanner) SkipCurrentPatch(ctx context.Context) error {
	if !s.AtPatchStart() && s.state != stateInHunk {
		return nil
	}
	for {
		ev, err := s.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if ev.Kind == interfaces.EventHeaders || ev.Kind == interfaces.EventProse {
			s.pendingEvents = append([]interfaces.Event{ev}, s.pendingEvents...)
			return nil
		}
	}
}
