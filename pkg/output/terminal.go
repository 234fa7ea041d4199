package output

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// ANSI color codes for terminal output.
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
)

// TerminalFormatter writes a Summary to a terminal as a color-coded table.
type TerminalFormatter struct{}

// NewTerminalFormatter creates a terminal summary formatter.
func NewTerminalFormatter() *TerminalFormatter {
	return &TerminalFormatter{}
}

// Format writes the summary to w.
func (f *TerminalFormatter) Format(w io.Writer, summary *Summary) error {
	fmt.Fprintf(w, "\n%s%spatchscan summary%s\n\n", colorBold, colorCyan, colorReset)

	if len(summary.Files) == 0 {
		fmt.Fprintf(w, "  %sno patch bodies recognized (%d prose lines)%s\n\n", colorDim, summary.ProseLines, colorReset)
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "  %sFILE\tDIALECT\tKIND\tHUNKS\t+\t-%s\n", colorBold, colorReset)
	for _, fs := range summary.Files {
		name := fs.NewName
		if name == "" {
			name = fs.OldName
		}
		kind := string(fs.GitKind)
		if fs.IsBinary {
			kind = "binary"
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%d\t%s+%d%s\t%s-%d%s\n",
			name, fs.Dialect, kind, fs.HunkCount,
			colorGreen, fs.AddedLines, colorReset,
			colorRed, fs.RemovedLines, colorReset)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("output: writing terminal summary: %w", err)
	}

	fmt.Fprintf(w, "\n  %d files, %d prose lines%s\n\n", len(summary.Files), summary.ProseLines, colorReset)
	return nil
}
