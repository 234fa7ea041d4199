package scan

import "errors"

// ErrHeaderTooLong is returned (wrapped) when a candidate header block grows
// past the 1024-line cap without resolving into a valid HeaderBlock or being
// proven not to be one. Once returned, the scanner is permanently in its
// terminal error state: every later call to Next returns it again.
var ErrHeaderTooLong = errors.New("scan: header block exceeds 1024 lines")

// ErrClosed is returned by Next when called on a Scanner that has already
// been closed.
var ErrClosed = errors.New("scan: scanner is closed")

// ErrScannerFailed wraps ErrHeaderTooLong and any other fatal condition;
// once the scanner state machine reaches its terminal Error state, every
// subsequent call to Next returns this.
var ErrScannerFailed = errors.New("scan: scanner is in a failed state")
