package core

import (
	"context"
	"time"

	"goexpect/expect"
	"goexpect/internal/capability"
	"goexpect/internal/retry"
	"goexpect/internal/transport"
	"goexpect/remote"
	"goexpect/util"
)

// SSHMode runs a command, or the login shell, on an SSH server and runs
// the capability against it.
type SSHMode struct {
	Client      *remote.Client
	Command     string // empty starts the login shell
	PTY         bool
	Retries     int
	Options     []expect.Option
	Capability  capability.Capability
	GracePeriod time.Duration
	Logger      *util.Logger
}

// Run connects, retrying transient failures, and starts the remote
// session.
func (m *SSHMode) Run(ctx context.Context) error {
	defer m.Client.Close()

	b := retry.ForConnect(m.Retries)
	b.OnRetry = func(attempt int, err error, wait time.Duration) {
		m.Logger.Warn("ssh connect to %s failed (attempt %d): %v; retrying in %v",
			m.Client.Addr(), attempt, err, wait.Round(time.Millisecond))
	}
	err := b.Do(ctx, func(int) error {
		err := m.Client.Connect(ctx)
		if err != nil && !transport.Retryable(err) {
			return retry.Permanent(err)
		}
		return err
	})
	if err != nil {
		return err
	}

	opts := append([]expect.Option{expect.WithPTY(m.PTY)}, m.Options...)
	sess, err := m.Client.Spawn(m.Command, opts...)
	if err != nil {
		return err
	}
	defer finish(sess, m.GracePeriod, m.Logger)

	return m.Capability.Handle(ctx, sess)
}
