package expect

import (
	"context"
	"os/exec"

	"github.com/creack/pty"

	ncerr "goexpect/internal/errors"
)

// SpawnPTY starts name with args on a new pseudo-terminal.  The terminal
// master is both the sink and the source, so the peer sees a real tty
// and its output includes the terminal's echo of everything sent.
func SpawnPTY(ctx context.Context, name string, args []string, opts ...Option) (*Session, error) {
	o := buildOptions(opts)
	cmd := exec.CommandContext(ctx, name, args...)
	applyCmdOptions(cmd, o)

	master, err := pty.StartWithSize(cmd, &pty.Winsize{Cols: uint16(o.cols), Rows: uint16(o.rows)})
	if err != nil {
		return nil, &ncerr.SpawnError{Command: cmd.String(), Err: err}
	}
	if o.peer == defaultOptions().peer {
		o.peer = name
	}
	sess, err := newSession(master, master, o)
	if err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		master.Close()
		return nil, err
	}
	sess.log.Verbose("spawned %s on a %dx%d pty (pid %d)", cmd.String(), o.cols, o.rows, cmd.Process.Pid)
	sess.proc = commandProcess(cmd)
	sess.resize = func(cols, rows int) error {
		return pty.Setsize(master, &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)})
	}
	// The master cannot be half-closed; the line discipline turns ^D at
	// the start of a line into end-of-file for the child.
	sess.closeWrite = func() error {
		_, err := master.Write([]byte{0x04})
		return err
	}
	return sess, nil
}
