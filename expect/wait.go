package expect

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	ncerr "goexpect/internal/errors"
)

// pipePoll bounds each read in Pipe so that cancellation is noticed.
const pipePoll = 100 * time.Millisecond

// Expect waits up to timeout for any of patterns to appear in the peer's
// output.  Strings and byte slices are literals, *regexp.Regexp and
// Pattern values are regular expressions.  Other values are used as the
// literal text of fmt.Sprint, with a warning.
func (s *Session) Expect(timeout time.Duration, patterns ...any) Result {
	return s.ExpectPatterns(timeout, coercePatterns(patterns, s.log.Warn))
}

// ExpectDefault is Expect with the session's default timeout.
func (s *Session) ExpectDefault(patterns ...any) Result {
	return s.Expect(s.timeout, patterns...)
}

// ExpectPatterns is the typed form of Expect.
func (s *Session) ExpectPatterns(timeout time.Duration, patterns []Pattern) Result {
	s.last = cleared()
	start := time.Now()
	res := s.wait(timeout, patterns)
	s.stats.WaitFinished(res.Outcome.metric(), time.Since(start))
	if res.Err != nil {
		s.lastErr = res.Err
	}
	s.last = res
	return res
}

// ExpectEOF waits up to timeout for the peer's output to end.  On
// end-of-stream the result is successful and Before holds everything
// that was buffered, which is then discarded.
func (s *Session) ExpectEOF(timeout time.Duration) Result {
	res := s.ExpectPatterns(timeout, nil)
	if res.Outcome == EOF {
		res.Success = true
		res.Before = s.buf.drain()
		s.last = res
	}
	return res
}

// ExpectOrErr is Expect returning an error for anything but a match: a
// *TimeoutError, an *EOFError or the captured *IOError.  The index is the
// matching pattern's, or the negative result code.
func (s *Session) ExpectOrErr(timeout time.Duration, patterns ...any) (int, error) {
	ps := coercePatterns(patterns, s.log.Warn)
	res := s.ExpectPatterns(timeout, ps)
	return res.Code(), s.asError(res, timeout, ps)
}

// ExpectEOFOrErr is ExpectEOF returning an error on timeout or I/O
// failure.
func (s *Session) ExpectEOFOrErr(timeout time.Duration) (Result, error) {
	res := s.ExpectEOF(timeout)
	if res.Success {
		return res, nil
	}
	return res, s.asError(res, timeout, nil)
}

func (s *Session) asError(res Result, timeout time.Duration, ps []Pattern) error {
	switch res.Outcome {
	case Timeout:
		return &TimeoutError{Timeout: timeout, Patterns: patternStrings(ps), Recent: s.history.recent()}
	case EOF:
		return &EOFError{Patterns: patternStrings(ps), Before: s.buf.String()}
	case IOFailure:
		return res.Err
	}
	return nil
}

// wait runs the match-read loop.  Matching always happens before the
// deadline check, so a zero timeout still sees buffered output.
func (s *Session) wait(timeout time.Duration, patterns []Pattern) Result {
	deadline := time.Now().Add(timeout)
	for {
		if idx, loc := s.buf.scan(patterns); idx >= 0 {
			res := matchedResult(idx, s.buf.data, loc)
			if !s.noConsume {
				s.buf.consume(loc[1])
			}
			s.log.Debug("matched pattern %d: %s", idx, Printable([]byte(res.Match)))
			return res
		}

		if time.Until(deadline) <= 0 {
			s.log.Debug("timeout when expecting %q", patternStrings(patterns))
			return Result{Outcome: Timeout, Index: -1}
		}

		n, err := s.conduit.read(s.readBuf, deadline)
		if n > 0 {
			s.receive(s.readBuf[:n])
			if s.restart {
				deadline = time.Now().Add(timeout)
			}
			continue
		}
		switch {
		case err == nil:
			// nothing delivered; poll again
		case errors.Is(err, os.ErrDeadlineExceeded):
			s.log.Debug("timeout when expecting %q", patternStrings(patterns))
			return Result{Outcome: Timeout, Index: -1}
		case errors.Is(err, io.EOF):
			s.log.Debug("end of stream when expecting %q", patternStrings(patterns))
			return Result{Outcome: EOF, Index: -1}
		default:
			err = ncerr.Wrap("read", s.peer, err)
			s.log.Error("wait failed: %v", err)
			s.stats.RecordError(err.Error())
			return Result{Outcome: IOFailure, Index: -1, Err: err}
		}
	}
}

func (s *Session) receive(chunk []byte) {
	s.buf.append(chunk)
	s.history.add(chunk)
	s.log.Debug("obtained: %s", Printable(chunk))
}

// Pipe copies any buffered output and then everything the peer sends to
// w, until end-of-stream or ctx is done.  It returns nil on
// end-of-stream and ctx.Err() on cancellation.
func (s *Session) Pipe(ctx context.Context, w io.Writer) error {
	if s.buf.Len() > 0 {
		if _, err := io.WriteString(w, s.buf.drain()); err != nil {
			return err
		}
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := s.conduit.read(s.readBuf, time.Now().Add(pipePoll))
		if n > 0 {
			s.history.add(s.readBuf[:n])
			if _, werr := w.Write(s.readBuf[:n]); werr != nil {
				return werr
			}
			continue
		}
		switch {
		case err == nil, errors.Is(err, os.ErrDeadlineExceeded):
		case errors.Is(err, io.EOF):
			return nil
		default:
			err = ncerr.Wrap("read", s.peer, err)
			s.lastErr = err
			return err
		}
	}
}
