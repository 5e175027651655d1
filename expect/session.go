package expect

import (
	"errors"
	"io"
	"reflect"
	"time"

	ncerr "goexpect/internal/errors"
	"goexpect/internal/metrics"
	"goexpect/util"
)

// Stats is a point-in-time copy of a session's counters.
type Stats = metrics.Snapshot

// flusher is implemented by buffered sinks such as *bufio.Writer.
type flusher interface {
	Flush() error
}

// closeWriter is implemented by streams that can be half-closed, such as
// *net.TCPConn.
type closeWriter interface {
	CloseWrite() error
}

// Session couples a sink (where input is sent) with a source (whose
// output is awaited).
type Session struct {
	sink    io.Writer
	conduit *conduit
	buf     buffer
	readBuf []byte

	timeout   time.Duration
	restart   bool
	noConsume bool

	last    Result
	lastErr error

	log     *util.Logger
	stats   *metrics.Collector
	history *history
	peer    string

	proc       *Process
	resize     func(cols, rows int) error
	closeWrite func() error
	closers    []io.Closer
	closed     bool
}

// New starts a session that sends to sink and waits on src.  The bridge
// goroutine starts reading src immediately.
func New(src io.Reader, sink io.Writer, opts ...Option) (*Session, error) {
	return newSession(src, sink, buildOptions(opts))
}

func newSession(src io.Reader, sink io.Writer, o options) (*Session, error) {
	log := o.logger.Named("expect")
	c, err := startBridge(src, bridgeConfig{
		chunk:    o.chunkSize,
		observer: o.observer,
		log:      log,
		stats:    o.stats,
		peer:     o.peer,
	})
	if err != nil {
		return nil, err
	}
	return &Session{
		sink:       sink,
		conduit:    c,
		readBuf:    make([]byte, o.readSize),
		timeout:    o.timeout,
		restart:    o.restart,
		noConsume:  o.noConsume,
		last:       cleared(),
		log:        log,
		stats:      o.stats,
		history:    newHistory(o.historyChunks),
		peer:       o.peer,
		closeWrite: halfCloser(src, sink),
	}, nil
}

// halfCloser returns how to end the input of a session, or nil when the
// sink cannot be closed without also closing src.
func halfCloser(src io.Reader, sink io.Writer) func() error {
	if cw, ok := sink.(closeWriter); ok {
		return cw.CloseWrite
	}
	c, ok := sink.(io.Closer)
	if !ok {
		return nil
	}
	if t := reflect.TypeOf(src); t != nil && t.Comparable() && any(src) == any(sink) {
		return nil
	}
	return c.Close
}

// ── Sending ──────────────────────────────────────────────────────────

// Send writes p to the peer and flushes the sink if it buffers.  A failure
// is logged and returned; the session stays usable.
func (s *Session) Send(p []byte) error {
	if s.closed {
		return ErrClosed
	}
	s.log.Verbose("sending: %s", Printable(p))
	n, err := s.sink.Write(p)
	s.stats.Sent(n)
	op := "write"
	if err == nil {
		if f, ok := s.sink.(flusher); ok {
			op = "flush"
			err = f.Flush()
		}
	}
	if err != nil {
		err = ncerr.Wrap(op, s.peer, err)
		s.log.Error("error when sending bytes: %v", err)
		s.stats.RecordError(err.Error())
		return err
	}
	return nil
}

// SendString sends str.
func (s *Session) SendString(str string) error {
	return s.Send([]byte(str))
}

// SendLine sends str followed by a newline.
func (s *Session) SendLine(str string) error {
	return s.Send([]byte(str + "\n"))
}

// Write implements io.Writer on top of Send.
func (s *Session) Write(p []byte) (int, error) {
	if err := s.Send(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// ── Settings and state ───────────────────────────────────────────────

// Timeout returns the default wait timeout.
func (s *Session) Timeout() time.Duration { return s.timeout }

// SetTimeout changes the default wait timeout.
func (s *Session) SetTimeout(d time.Duration) { s.timeout = d }

// SetRestartOnReceive toggles re-arming the timeout on every arrival.
func (s *Session) SetRestartOnReceive(on bool) { s.restart = on }

// SetNoConsume toggles leaving matched output in the buffer.
func (s *Session) SetNoConsume(on bool) { s.noConsume = on }

// Last returns the result of the most recent wait.  Before any wait it
// reports a timeout with index -1.
func (s *Session) Last() Result { return s.last }

// Err returns the last captured I/O failure, if any.
func (s *Session) Err() error { return s.lastErr }

// Buffered returns the output received but not yet consumed.
func (s *Session) Buffered() string { return s.buf.String() }

// Stats returns a snapshot of the session counters.
func (s *Session) Stats() Stats { return s.stats.Snapshot() }

// Process returns the spawned process, or nil for sessions over plain
// streams.
func (s *Session) Process() *Process { return s.proc }

// Resize changes the peer's terminal size.  Sessions without a terminal
// return ErrNotStarted.
func (s *Session) Resize(cols, rows int) error {
	if s.resize == nil {
		return ErrNotStarted
	}
	return s.resize(cols, rows)
}

// Done is closed once the peer's output has ended and the bridge has
// stopped.
func (s *Session) Done() <-chan struct{} { return s.conduit.Done() }

// CloseWrite tells the peer no more input is coming while its output can
// still be awaited.  Sessions whose sink cannot be half-closed return
// ErrNotStarted.
func (s *Session) CloseWrite() error {
	if s.closed {
		return ErrClosed
	}
	if s.closeWrite == nil {
		return ErrNotStarted
	}
	s.log.Debug("closing input to %s", s.peer)
	if err := s.closeWrite(); err != nil && !ncerr.IsClosed(err) {
		return ncerr.Wrap("close", s.peer, err)
	}
	return nil
}

// Close closes the sink (when it is an io.Closer) and the pipe the
// session waits on.  It does not stop a spawned process; use Process for
// that.  Closing twice returns ErrClosed.
func (s *Session) Close() error {
	if s.closed {
		return ErrClosed
	}
	s.closed = true

	var errs []error
	if c, ok := s.sink.(io.Closer); ok {
		if err := c.Close(); err != nil && !ncerr.IsClosed(err) {
			s.log.Warn("closing sink: %v", err)
			errs = append(errs, ncerr.Wrap("close", s.peer, err))
		}
	}
	if err := s.conduit.close(); err != nil && !ncerr.IsClosed(err) {
		errs = append(errs, ncerr.Wrap("close", "pipe", err))
	}
	for _, c := range s.closers {
		if err := c.Close(); err != nil && !ncerr.IsClosed(err) && !errors.Is(err, io.EOF) {
			s.log.Debug("closing %T: %v", c, err)
		}
	}
	return errors.Join(errs...)
}
