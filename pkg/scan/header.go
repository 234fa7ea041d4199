package scan

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/toyinlola/patchscan/pkg/interfaces"
)

var (
	gitDiffLineRegex   = regexp.MustCompile(`^diff --git a/(.+) b/(.+)$`)
	// classicDiffLineRegex matches a classic (non-git) "diff" invocation
	// line, e.g. "diff -ruN dir1/file.c dir2/file.c" or "diff -u old new" —
	// the start marker directory-mode diffs carry instead of "diff --git".
	// It is only consulted after gitDiffLineRegex fails to match, so
	// "diff --git a/x b/y" is never misrouted here.
	classicDiffLineRegex = regexp.MustCompile(`^diff (?:-\S+\s+)*(\S+)\s+(\S+)$`)
	oldFileLineRegex   = regexp.MustCompile(`^--- (.+)$`)
	newFileLineRegex   = regexp.MustCompile(`^\+\+\+ (.+)$`)
	indexLineRegex     = regexp.MustCompile(`^index ([0-9a-zA-Z]+)\.\.([0-9a-zA-Z]+)(?: (\d+))?$`)
	oldModeLineRegex   = regexp.MustCompile(`^old mode (\d+)$`)
	newModeLineRegex   = regexp.MustCompile(`^new mode (\d+)$`)
	newFileModeRegex   = regexp.MustCompile(`^new file mode (\d+)$`)
	deletedFileModeRegex = regexp.MustCompile(`^deleted file mode (\d+)$`)
	similarityRegex    = regexp.MustCompile(`^similarity index (\d+)%$`)
	dissimilarityRegex = regexp.MustCompile(`^dissimilarity index (\d+)%$`)
	renameFromRegex    = regexp.MustCompile(`^rename from (.+)$`)
	renameToRegex      = regexp.MustCompile(`^rename to (.+)$`)
	copyFromRegex      = regexp.MustCompile(`^copy from (.+)$`)
	copyToRegex        = regexp.MustCompile(`^copy to (.+)$`)
	binaryFilesRegex   = regexp.MustCompile(`^Binary files (.+) and (.+) differ$`)
	gitBinaryPatchRegex = regexp.MustCompile(`^GIT binary patch$`)

	contextOldSectionRegex = regexp.MustCompile(`^\*\*\* (.+) \*\*\*\*$`)
	contextNewSectionRegex = regexp.MustCompile(`^--- (.+) ----$`)
	contextOldNameRegex    = regexp.MustCompile(`^\*\*\* (.+)$`)
	contextNewNameRegex    = regexp.MustCompile(`^--- (.+)$`)

	unifiedHunkHeaderRegex = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@(.*)$`)
)

// parseContextSectionMarker reports whether line matches "<prefix>N,M<suffix>"
// or "<prefix>N<suffix>", returning the parsed range bounds.
func parseContextSectionMarker(line, prefix, suffix string) (lo, hi uint64, ok bool) {
	if !strings.HasPrefix(line, prefix) || !strings.HasSuffix(line, suffix) {
		return 0, 0, false
	}
	body := line[len(prefix) : len(line)-len(suffix)]
	parts := strings.SplitN(body, ",", 2)
	lo64, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return 0, 0, false
	}
	if len(parts) == 1 {
		return lo64, lo64, true
	}
	hi64, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return 0, 0, false
	}
	return lo64, hi64, true
}

// headerStatus is the three-way outcome of evaluating a candidate header
// block: it may need more lines, be ready to finalize, or turn out not to
// be a header block at all (so the accumulated lines must be re-emitted as
// Prose, one at a time, starting from the first).
type headerStatus int

const (
	headerNeedMore headerStatus = iota
	headerReady
	headerNotAPatch
)

// evaluateHeaderBlock inspects the accumulated candidate lines and decides
// whether they form a complete, valid header block. forced is true when the
// accumulator was handed a non-continuation line (or hit EOF) and must
// decide now instead of asking for more input.
func evaluateHeaderBlock(lines []interfaces.Line, forced bool) (headerStatus, *interfaces.HeaderBlock) {
	if len(lines) == 0 {
		return headerNotAPatch, nil
	}

	first := lines[0].Text()

	switch {
	case gitDiffLineRegex.MatchString(first):
		return evaluateGitHeader(lines, forced)
	case classicDiffLineRegex.MatchString(first):
		return evaluateClassicDiffHeader(lines, forced)
	case strings.HasPrefix(first, "--- "):
		return evaluateUnifiedOrContextHeader(lines, forced, interfaces.DialectUnified)
	case contextOldNameRegex.MatchString(first) && !contextOldSectionRegex.MatchString(first):
		return evaluateUnifiedOrContextHeader(lines, forced, interfaces.DialectContext)
	default:
		return headerNotAPatch, nil
	}
}

// evaluateClassicDiffHeader handles a block opened by a classic (non-git)
// "diff ..." invocation line. That line carries no dialect information of
// its own; what follows decides whether the block is unified, context, or
// (when the file has no textual diff at all, just a changed blob) a
// standalone binary notice with no "--- "/"+++ " pair.
func evaluateClassicDiffHeader(lines []interfaces.Line, forced bool) (headerStatus, *interfaces.HeaderBlock) {
	m := classicDiffLineRegex.FindStringSubmatch(lines[0].Text())
	fallbackOld, fallbackNew := m[1], m[2]

	if len(lines) < 2 {
		if forced {
			return headerNotAPatch, nil
		}
		return headerNeedMore, nil
	}

	second := lines[1].Text()

	if binaryFilesRegex.MatchString(second) {
		hb := &interfaces.HeaderBlock{
			Dialect:        interfaces.DialectUnified,
			OldName:        fallbackOld,
			NewName:        fallbackNew,
			IsBinary:       true,
			StartLine:      lines[0].Number,
			StartPosition:  lines[0].Position,
			RawHeaderLines: append([]interfaces.Line(nil), lines[:2]...),
		}
		return headerReady, hb
	}

	var dialect interfaces.Dialect
	switch {
	case oldFileLineRegex.MatchString(second):
		dialect = interfaces.DialectUnified
	case contextOldNameRegex.MatchString(second) && !contextOldSectionRegex.MatchString(second):
		dialect = interfaces.DialectContext
	default:
		if forced {
			return headerNotAPatch, nil
		}
		return headerNeedMore, nil
	}

	status, hb := evaluateUnifiedOrContextHeader(lines[1:], forced, dialect)
	if status != headerReady {
		return status, hb
	}
	hb.StartLine = lines[0].Number
	hb.StartPosition = lines[0].Position
	hb.RawHeaderLines = append([]interfaces.Line{lines[0]}, hb.RawHeaderLines...)
	return headerReady, hb
}

// evaluateGitHeader handles a block opened by "diff --git a/X b/Y".
func evaluateGitHeader(lines []interfaces.Line, forced bool) (headerStatus, *interfaces.HeaderBlock) {
	m := gitDiffLineRegex.FindStringSubmatch(lines[0].Text())
	hb := &interfaces.HeaderBlock{
		Dialect:       interfaces.DialectGitExtended,
		GitOldName:    m[1],
		GitNewName:    m[2],
		StartLine:     lines[0].Number,
		StartPosition: lines[0].Position,
	}

	var (
		sawOldMode, sawNewMode           bool
		sawNewFileMode, sawDeletedMode   bool
		sawSimilarity, sawDissimilarity  bool
		sawRenameFrom, sawRenameTo       bool
		sawCopyFrom, sawCopyTo           bool
		sawIndex, sawMinus, sawPlus      bool
		sawBinaryMarker                  bool
	)

	for _, l := range lines[1:] {
		text := l.Text()
		// Ordering rule: "--- " must precede "+++ ", and no extended
		// header line may follow "+++ ". Once sawPlus is set, any further
		// candidate line (including a late "--- ") makes the block invalid.
		if sawPlus {
			return headerNotAPatch, nil
		}
		switch {
		case oldModeLineRegex.MatchString(text):
			if v, err := strconv.ParseUint(oldModeLineRegex.FindStringSubmatch(text)[1], 8, 32); err == nil {
				u32 := uint32(v)
				hb.OldMode = &u32
			}
			sawOldMode = true
		case newModeLineRegex.MatchString(text):
			if v, err := strconv.ParseUint(newModeLineRegex.FindStringSubmatch(text)[1], 8, 32); err == nil {
				u32 := uint32(v)
				hb.NewMode = &u32
			}
			sawNewMode = true
		case newFileModeRegex.MatchString(text):
			if v, err := strconv.ParseUint(newFileModeRegex.FindStringSubmatch(text)[1], 8, 32); err == nil {
				u32 := uint32(v)
				hb.NewMode = &u32
			}
			sawNewFileMode = true
		case deletedFileModeRegex.MatchString(text):
			if v, err := strconv.ParseUint(deletedFileModeRegex.FindStringSubmatch(text)[1], 8, 32); err == nil {
				u32 := uint32(v)
				hb.OldMode = &u32
			}
			sawDeletedMode = true
		case similarityRegex.MatchString(text):
			if v, err := strconv.Atoi(similarityRegex.FindStringSubmatch(text)[1]); err == nil && v <= 100 {
				hb.SimilarityIndex = &v
			}
			sawSimilarity = true
		case dissimilarityRegex.MatchString(text):
			if v, err := strconv.Atoi(dissimilarityRegex.FindStringSubmatch(text)[1]); err == nil && v <= 100 {
				hb.DissimilarityIndex = &v
			}
			sawDissimilarity = true
		case renameFromRegex.MatchString(text):
			hb.RenameFrom = renameFromRegex.FindStringSubmatch(text)[1]
			sawRenameFrom = true
		case renameToRegex.MatchString(text):
			hb.RenameTo = renameToRegex.FindStringSubmatch(text)[1]
			sawRenameTo = true
		case copyFromRegex.MatchString(text):
			hb.CopyFrom = copyFromRegex.FindStringSubmatch(text)[1]
			sawCopyFrom = true
		case copyToRegex.MatchString(text):
			hb.CopyTo = copyToRegex.FindStringSubmatch(text)[1]
			sawCopyTo = true
		case indexLineRegex.MatchString(text):
			m := indexLineRegex.FindStringSubmatch(text)
			hb.OldHash, hb.NewHash = m[1], m[2]
			if m[3] != "" {
				if v, err := strconv.ParseUint(m[3], 8, 32); err == nil {
					u32 := uint32(v)
					hb.OldMode, hb.NewMode = &u32, &u32
				}
			}
			sawIndex = true
		case oldFileLineRegex.MatchString(text):
			hb.OldName = stripGitPrefix(oldFileLineRegex.FindStringSubmatch(text)[1])
			sawMinus = true
		case newFileLineRegex.MatchString(text):
			hb.NewName = stripGitPrefix(newFileLineRegex.FindStringSubmatch(text)[1])
			sawPlus = true
		case binaryFilesRegex.MatchString(text):
			hb.IsBinary = true
			sawBinaryMarker = true
		case gitBinaryPatchRegex.MatchString(text):
			hb.IsBinary = true
			sawBinaryMarker = true
		default:
			if !forced {
				return headerNeedMore, nil
			}
			// Unrecognized trailing line: the block ends before it; this
			// function is only ever called with the full accumulated
			// slice, so the caller is responsible for re-slicing. Treat
			// as ready with what we have so far.
		}
	}

	if !forced && !sawBinaryMarker {
		// Still might accumulate rename/copy/mode lines; only finalize early
		// once we've also seen the old/new name lines (--- / +++), since
		// those are the normal terminal markers for a non-binary git diff.
		if !(sawMinus && sawPlus) {
			return headerNeedMore, nil
		}
	}

	hb.GitKind = determineGitKind(sawNewFileMode, sawDeletedMode, sawRenameFrom || sawRenameTo,
		sawCopyFrom || sawCopyTo, sawSimilarity, sawDissimilarity, sawBinaryMarker,
		sawOldMode || sawNewMode, hb)

	finalizeNames(hb, sawMinus, sawPlus, sawRenameFrom, sawRenameTo, sawCopyFrom, sawCopyTo)

	_ = sawIndex
	hb.RawHeaderLines = append([]interfaces.Line(nil), lines...)
	return headerReady, hb
}

// determineGitKind applies the spec's strict priority order: rename beats
// copy, a pure rename (no content change, only detected via 100% similarity
// and no hunks) is distinguished from a content-changing rename only by the
// similarity index value, new/deleted file beats mode-only changes, which
// beats is_binary, which beats plain modification. is_binary is checked
// last so a renamed or new/deleted binary file still classifies by its
// rename/copy/new_file/deleted_file status rather than as plain binary.
func determineGitKind(newFile, deletedFile, renamed, copied, similarity, dissimilarity,
	binary, modeOnly bool, hb *interfaces.HeaderBlock) interfaces.GitKind {
	switch {
	case renamed:
		if similarity && hb.SimilarityIndex != nil && *hb.SimilarityIndex == 100 {
			return interfaces.GitKindPureRename
		}
		return interfaces.GitKindRename
	case copied:
		return interfaces.GitKindCopy
	case newFile:
		return interfaces.GitKindNewFile
	case deletedFile:
		return interfaces.GitKindDeletedFile
	case modeOnly:
		return interfaces.GitKindModeChange
	case binary:
		return interfaces.GitKindBinary
	default:
		return interfaces.GitKindNormal
	}
}

// bestNameCandidate scores a candidate name for the name-selection rule:
// fewer path components wins, then shorter basename, then shorter total
// length.
type bestNameCandidate struct {
	name       string
	components int
	baseLen    int
	totalLen   int
}

func scoreName(name string) bestNameCandidate {
	trimmed := name
	return bestNameCandidate{
		name:       name,
		components: strings.Count(trimmed, "/") + 1,
		baseLen:    len(trimmed[strings.LastIndex(trimmed, "/")+1:]),
		totalLen:   len(trimmed),
	}
}

// pickBestName chooses among up to two candidate names for one side,
// skipping blanks, using the (components, baseLen, totalLen) tuple
// tie-break. An empty slice of non-blank candidates returns "".
func pickBestName(candidates ...string) string {
	var best *bestNameCandidate
	for _, c := range candidates {
		if c == "" {
			continue
		}
		sc := scoreName(c)
		if best == nil ||
			sc.components < best.components ||
			(sc.components == best.components && sc.baseLen < best.baseLen) ||
			(sc.components == best.components && sc.baseLen == best.baseLen && sc.totalLen < best.totalLen) {
			cp := sc
			best = &cp
		}
	}
	if best == nil {
		return ""
	}
	return best.name
}

// contextNameField strips a trailing tab-separated timestamp from a
// context-diff "*** name\ttimestamp" / "--- name\ttimestamp" field.
func contextNameField(field string) string {
	if idx := strings.IndexByte(field, '\t'); idx >= 0 {
		return field[:idx]
	}
	return field
}

func stripGitPrefix(name string) string {
	if name == interfaces.DevNull {
		return name
	}
	// Strip a lone "a/" or "b/" ornament prefix, and any trailing tab
	// timestamp git occasionally appends.
	if idx := strings.IndexByte(name, '\t'); idx >= 0 {
		name = name[:idx]
	}
	if strings.HasPrefix(name, "a/") || strings.HasPrefix(name, "b/") {
		return name[2:]
	}
	return name
}

func finalizeNames(hb *interfaces.HeaderBlock, sawMinus, sawPlus, sawRenameFrom, sawRenameTo, sawCopyFrom, sawCopyTo bool) {
	gitOld := stripGitPrefix(hb.GitOldName)
	gitNew := stripGitPrefix(hb.GitNewName)

	oldCandidate := ""
	if sawMinus {
		oldCandidate = hb.OldName
	}
	newCandidate := ""
	if sawPlus {
		newCandidate = hb.NewName
	}

	hb.OldName = pickBestName(oldCandidate, gitOld)
	hb.NewName = pickBestName(newCandidate, gitNew)
	if oldCandidate == interfaces.DevNull {
		hb.OldName = interfaces.DevNull
	}
	if newCandidate == interfaces.DevNull {
		hb.NewName = interfaces.DevNull
	}

	if sawRenameFrom {
		hb.OldName = hb.RenameFrom
	}
	if sawRenameTo {
		hb.NewName = hb.RenameTo
	}
	if sawCopyFrom {
		hb.OldName = hb.CopyFrom
	}
	if sawCopyTo {
		hb.NewName = hb.CopyTo
	}
}

// evaluateUnifiedOrContextHeader handles a block opened by a bare "--- "
// line (unified, no preceding "diff --git") or by a context-diff
// "*** oldname" line; the "***************" and "*** N,M ****" hunk
// markers are rejected here.
func evaluateUnifiedOrContextHeader(lines []interfaces.Line, forced bool, dialect interfaces.Dialect) (headerStatus, *interfaces.HeaderBlock) {
	hb := &interfaces.HeaderBlock{
		Dialect:       dialect,
		StartLine:     lines[0].Number,
		StartPosition: lines[0].Position,
	}

	if dialect == interfaces.DialectUnified {
		if len(lines) < 2 {
			if forced {
				return headerNotAPatch, nil
			}
			return headerNeedMore, nil
		}
		first := lines[0].Text()
		second := lines[1].Text()
		if !oldFileLineRegex.MatchString(first) {
			return headerNotAPatch, nil
		}
		if !newFileLineRegex.MatchString(second) {
			if forced {
				return headerNotAPatch, nil
			}
			return headerNeedMore, nil
		}
		hb.OldName = stripGitPrefix(oldFileLineRegex.FindStringSubmatch(first)[1])
		hb.NewName = stripGitPrefix(newFileLineRegex.FindStringSubmatch(second)[1])
		hb.RawHeaderLines = append([]interfaces.Line(nil), lines[:2]...)
		return headerReady, hb
	}

	// Context dialect header: exactly "*** oldname" followed by
	// "--- newname" (the "***************" hunk-section opener comes
	// after, and is handled by the hunk engine, not the header).
	text := lines[0].Text()
	if !contextOldNameRegex.MatchString(text) || contextOldSectionRegex.MatchString(text) {
		return headerNotAPatch, nil
	}
	hb.OldName = stripGitPrefix(contextNameField(contextOldNameRegex.FindStringSubmatch(text)[1]))
	if len(lines) < 2 {
		if forced {
			return headerNotAPatch, nil
		}
		return headerNeedMore, nil
	}
	next := lines[1].Text()
	if !contextNewNameRegex.MatchString(next) {
		if forced {
			return headerNotAPatch, nil
		}
		return headerNeedMore, nil
	}
	hb.NewName = stripGitPrefix(contextNameField(contextNewNameRegex.FindStringSubmatch(next)[1]))
	hb.RawHeaderLines = append([]interfaces.Line(nil), lines[:2]...)
	return headerReady, hb
}
