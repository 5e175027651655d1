// Package expect drives an interactive byte-stream peer (a spawned
// process, a pseudo-terminal, a socket or a remote SSH shell) by sending
// input and blocking until the peer's output matches one of a set of
// patterns, or until a timeout, end-of-stream or I/O failure.
//
// # Quick Start
//
//	sess, err := expect.SpawnCommand(ctx, "bash -i")
//	if err != nil {
//		return err
//	}
//	defer sess.Close()
//
//	sess.SendLine("echo hi")
//	if _, err := sess.ExpectOrErr(10*time.Second, "hi"); err != nil {
//		return err
//	}
//
// # How waiting works
//
// Every session owns a background goroutine (the bridge) that drains the
// peer's output into an OS pipe.  A wait call reads that pipe with a read
// deadline, appends whatever arrived to the session buffer and retries
// its patterns against the whole buffer:
//
//   - patterns are tried in order; the lowest index that matches anywhere
//     wins, and within one pattern the leftmost occurrence wins
//   - on a match everything up to the end of the match is consumed,
//     unless the session is in no-consume mode
//   - a timeout of zero or less checks the buffer once and never blocks
//   - with restart-on-receive, every arrival re-arms the full timeout
//
// Strings are matched literally; pass a *regexp.Regexp or a [Pattern]
// built with [Compile] for regular expressions.
//
// # Results and errors
//
// [Session.Expect] returns a [Result] value describing the outcome.  The
// session keeps a copy of the most recent one in [Session.Last].  The
// OrErr variants turn timeouts, end-of-stream and I/O failures into
// errors ([ErrTimeout], [ErrEOF], *[IOError]) so that a sequence of steps
// can stop at the first disruption.
//
// A Session is not safe for concurrent use: issue one wait at a time.
package expect
