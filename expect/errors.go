package expect

import (
	"fmt"
	"strings"
	"time"

	ncerr "goexpect/internal/errors"
)

// Sentinel errors.  Use errors.Is to test for them.
var (
	ErrTimeout    = ncerr.ErrTimeout
	ErrEOF        = ncerr.ErrEOF
	ErrClosed     = ncerr.ErrClosed
	ErrNotStarted = ncerr.ErrNotStarted
	ErrNoCommand  = ncerr.ErrNoCommand
)

// IOError is the captured failure of a read or write on the peer.
type IOError = ncerr.IOError

// TimeoutError is returned by the OrErr wait variants when no pattern
// matched in time.  It matches ErrTimeout.
type TimeoutError struct {
	Timeout  time.Duration
	Patterns []string
	Recent   string // most recent peer output, in printable form
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("expect: timed out after %v waiting for %s", e.Timeout, quoteList(e.Patterns))
	if e.Recent != "" {
		msg += "; recent output: " + e.Recent
	}
	return msg
}

func (e *TimeoutError) Unwrap() error { return ErrTimeout }

// EOFError is returned by ExpectOrErr when the peer closed its output
// before any pattern matched.  It matches ErrEOF.
type EOFError struct {
	Patterns []string
	Before   string // unmatched output left in the buffer
}

func (e *EOFError) Error() string {
	return "expect: end of stream while waiting for " + quoteList(e.Patterns)
}

func (e *EOFError) Unwrap() error { return ErrEOF }

func quoteList(ps []string) string {
	if len(ps) == 0 {
		return "end of stream"
	}
	q := make([]string, len(ps))
	for i, p := range ps {
		q[i] = fmt.Sprintf("%q", p)
	}
	return strings.Join(q, ", ")
}

// SpawnError reports a process or remote command that could not start.
type SpawnError = ncerr.SpawnError
