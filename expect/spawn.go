package expect

import (
	"context"
	"os"
	"os/exec"
	"strings"

	ncerr "goexpect/internal/errors"
)

// Spawn starts name with args and returns a session over it.  Standard
// error is merged into standard output so both are awaited together.
// Cancelling ctx kills the process.
func Spawn(ctx context.Context, name string, args []string, opts ...Option) (*Session, error) {
	o := buildOptions(opts)
	cmd := exec.CommandContext(ctx, name, args...)
	applyCmdOptions(cmd, o)

	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, &ncerr.SpawnError{Command: cmd.String(), Err: err}
	}
	cmd.Stdout = pw
	cmd.Stderr = pw
	stdin, err := cmd.StdinPipe()
	if err != nil {
		pr.Close()
		pw.Close()
		return nil, &ncerr.SpawnError{Command: cmd.String(), Err: err}
	}
	if err := cmd.Start(); err != nil {
		pr.Close()
		pw.Close()
		return nil, &ncerr.SpawnError{Command: cmd.String(), Err: err}
	}
	// The child holds its own copy; ours must go so that its exit is
	// seen as end-of-stream.
	pw.Close()

	if o.peer == defaultOptions().peer {
		o.peer = name
	}
	sess, err := newSession(pr, stdin, o)
	if err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		pr.Close()
		return nil, err
	}
	sess.log.Verbose("spawned %s (pid %d)", cmd.String(), cmd.Process.Pid)
	sess.proc = commandProcess(cmd)
	return sess, nil
}

// SpawnCommand splits command on spaces and spawns it.  There is no shell
// quoting; use Spawn for arguments containing spaces.
func SpawnCommand(ctx context.Context, command string, opts ...Option) (*Session, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, ncerr.ErrNoCommand
	}
	return Spawn(ctx, fields[0], fields[1:], opts...)
}

func applyCmdOptions(cmd *exec.Cmd, o options) {
	if len(o.env) > 0 {
		cmd.Env = append(os.Environ(), o.env...)
	}
	if o.dir != "" {
		cmd.Dir = o.dir
	}
}

func commandProcess(cmd *exec.Cmd) *Process {
	p := newProcess(cmd.Process.Pid, cmd.Wait, nil)
	p.kill = cmd.Process.Kill
	p.signal = cmd.Process.Signal
	return p
}
