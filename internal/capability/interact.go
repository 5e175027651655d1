package capability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/muesli/cancelreader"
	"golang.org/x/term"

	"goexpect/expect"
	"goexpect/util"
)

// Interact connects the session to the user: everything read from Stdin
// is sent to the peer and the peer's output is copied to Stdout.  When
// Stdin is a terminal it is switched to raw mode for the duration and
// its size is passed on to the peer.
type Interact struct {
	Stdin  io.Reader
	Stdout io.Writer
	Logger *util.Logger
}

// Handle relays until the peer's output ends or ctx is cancelled.  End of
// Stdin half-closes the session input and keeps relaying output.
func (c *Interact) Handle(ctx context.Context, sess *expect.Session) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if f, ok := c.Stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		restore, err := c.prepareTerminal(f, sess)
		if err != nil {
			return err
		}
		defer restore()
	}

	var inputDone chan error
	var in cancelreader.CancelReader
	if c.Stdin != nil {
		var err error
		in, err = cancelreader.NewReader(c.Stdin)
		if err != nil {
			// Regular files cannot be polled; read them without
			// cancellation.
			c.Logger.Debug("stdin is not pollable (%v), reading without cancel", err)
			in, err = cancelreader.NewReader(struct{ io.Reader }{c.Stdin})
		}
		if err != nil {
			return fmt.Errorf("interact: %w", err)
		}
		defer in.Close()

		inputDone = make(chan error, 1)
		go func() { inputDone <- c.forward(ctx, sess, in) }()
	}

	err := sess.Pipe(ctx, c.Stdout)
	cancel()

	if in != nil {
		var ierr error
		if in.Cancel() {
			ierr = <-inputDone
		} else {
			// Readers that cannot be interrupted are left to finish on
			// their own.
			select {
			case ierr = <-inputDone:
			default:
			}
		}
		if ierr != nil {
			c.Logger.Debug("interact input: %v", ierr)
		}
	}
	return err
}

// forward pumps input into the session and half-closes it at end of
// input.
func (c *Interact) forward(ctx context.Context, sess *expect.Session, in io.Reader) error {
	n, err := util.Pump(ctx, sess, in)
	if errors.Is(err, cancelreader.ErrCanceled) {
		return nil
	}
	if err != nil || ctx.Err() != nil {
		return err
	}
	c.Logger.Debug("input ended after %d bytes", n)
	if err := sess.CloseWrite(); err != nil && !errors.Is(err, expect.ErrNotStarted) && !errors.Is(err, expect.ErrClosed) {
		return err
	}
	return nil
}

func (c *Interact) prepareTerminal(f *os.File, sess *expect.Session) (func(), error) {
	fd := int(f.Fd())
	if cols, rows, err := term.GetSize(fd); err == nil {
		if err := sess.Resize(cols, rows); err != nil && !errors.Is(err, expect.ErrNotStarted) {
			c.Logger.Debug("resize to %dx%d: %v", cols, rows, err)
		}
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("interact: raw mode: %w", err)
	}
	return func() {
		if err := term.Restore(fd, state); err != nil {
			c.Logger.Warn("restoring terminal: %v", err)
		}
	}, nil
}
