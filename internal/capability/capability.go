// Package capability defines what a run does with an established expect
// session: play a script of sends and waits, hand the peer over to the
// user's terminal, or several of these in turn.  Capabilities operate on
// an *expect.Session, so they do not care whether the peer is a spawned
// process, a TCP connection or a remote SSH command.
package capability

import (
	"context"

	"goexpect/expect"
)

// Capability drives a single session.
type Capability interface {
	// Handle runs the capability against the given session.  It blocks
	// until the capability is finished, the peer has gone away or the
	// context is cancelled.
	Handle(ctx context.Context, sess *expect.Session) error
}

// Chain runs capabilities one after another on the same session and
// stops at the first failure.
type Chain []Capability

// Handle runs each capability in order.
func (c Chain) Handle(ctx context.Context, sess *expect.Session) error {
	for _, next := range c {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := next.Handle(ctx, sess); err != nil {
			return err
		}
	}
	return nil
}
