package expect

import (
	"os"
	"strings"
	"syscall"

	"golang.org/x/crypto/ssh"

	ncerr "goexpect/internal/errors"
)

// SpawnSSH opens a new session on client and runs command there, or the
// login shell when command is empty.  Remote standard error is merged
// into standard output.  Use WithPTY to request a terminal.
func SpawnSSH(client *ssh.Client, command string, opts ...Option) (*Session, error) {
	o := buildOptions(opts)
	if o.peer == defaultOptions().peer {
		o.peer = client.RemoteAddr().String()
	}
	remote, err := client.NewSession()
	if err != nil {
		return nil, ncerr.Wrap("new session", o.peer, err)
	}

	if o.requestPTY {
		modes := ssh.TerminalModes{
			ssh.ECHO:          1,
			ssh.TTY_OP_ISPEED: 14400,
			ssh.TTY_OP_OSPEED: 14400,
		}
		if err := remote.RequestPty("xterm", o.rows, o.cols, modes); err != nil {
			remote.Close()
			return nil, ncerr.Wrap("request pty", o.peer, err)
		}
	}
	for _, kv := range o.env {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			if err := remote.Setenv(k, v); err != nil {
				o.logger.Debug("remote refused %s: %v", k, err)
			}
		}
	}

	stdin, err := remote.StdinPipe()
	if err != nil {
		remote.Close()
		return nil, ncerr.Wrap("stdin", o.peer, err)
	}
	pr, pw, err := os.Pipe()
	if err != nil {
		remote.Close()
		return nil, ncerr.Wrap("pipe", o.peer, err)
	}
	remote.Stdout = pw
	remote.Stderr = pw

	if command == "" {
		err = remote.Shell()
	} else {
		err = remote.Start(command)
	}
	if err != nil {
		remote.Close()
		pr.Close()
		pw.Close()
		return nil, &ncerr.SpawnError{Command: command, Err: err}
	}

	sess, err := newSession(pr, stdin, o)
	if err != nil {
		remote.Close()
		pr.Close()
		pw.Close()
		return nil, err
	}
	sess.log.Verbose("started %q on %s", command, o.peer)
	sess.closers = append(sess.closers, remote)
	sess.resize = func(cols, rows int) error {
		return remote.WindowChange(rows, cols)
	}

	p := newProcess(0, remote.Wait, func() { pw.Close() })
	p.kill = func() error {
		if err := remote.Signal(ssh.SIGKILL); err != nil {
			return err
		}
		return remote.Close()
	}
	p.signal = func(sig os.Signal) error {
		name, ok := sshSignals[sig]
		if !ok {
			return ncerr.New("signal not supported over ssh: " + sig.String())
		}
		return remote.Signal(name)
	}
	sess.proc = p
	return sess, nil
}

var sshSignals = map[os.Signal]ssh.Signal{
	syscall.SIGHUP:  ssh.SIGHUP,
	syscall.SIGINT:  ssh.SIGINT,
	syscall.SIGQUIT: ssh.SIGQUIT,
	syscall.SIGKILL: ssh.SIGKILL,
	syscall.SIGTERM: ssh.SIGTERM,
}
