package scan

import (
	"bufio"
	"fmt"
	"io"

	"github.com/toyinlola/patchscan/pkg/interfaces"
)

// lineReader reads one logical line at a time from an underlying io.Reader,
// tracking the 1-based line number and byte offset at which each line
// began. It preserves the trailing newline on every line that has one; only
// a final, unterminated line is returned without one.
type lineReader struct {
	br           *bufio.Reader
	nextPosition int64
	lineNumber   int
	exhausted    bool

	line interfaces.Line
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{br: bufio.NewReaderSize(r, 4096)}
}

// readNext reads the next line into the reader's current-line buffer. It
// returns io.EOF once the stream is exhausted, or a wrapped I/O error on an
// underlying read failure. The returned line is valid until the next call
// to readNext.
func (lr *lineReader) readNext() error {
	if lr.exhausted {
		return io.EOF
	}

	start := lr.nextPosition
	data, err := lr.br.ReadBytes('\n')
	if err != nil {
		if err != io.EOF {
			return fmt.Errorf("scan: reading line: %w", err)
		}
		lr.exhausted = true
		if len(data) == 0 {
			return io.EOF
		}
		// Final unterminated line: surface it now, report EOF next call.
	}

	lr.lineNumber++
	lr.nextPosition += int64(len(data))
	lr.line = interfaces.Line{
		Content:  data,
		Number:   lr.lineNumber,
		Position: start,
	}
	return nil
}

// current returns the most recently read line.
func (lr *lineReader) current() interfaces.Line {
	return lr.line
}
