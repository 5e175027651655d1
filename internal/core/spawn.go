package core

import (
	"context"
	"time"

	"goexpect/expect"
	"goexpect/internal/capability"
	"goexpect/util"
)

// SpawnMode starts a local command, on a pseudo-terminal when PTY is
// set, and runs the capability against it.
type SpawnMode struct {
	Command     []string
	PTY         bool
	Options     []expect.Option
	Capability  capability.Capability
	GracePeriod time.Duration
	Logger      *util.Logger
}

// Run spawns the command and returns the capability's error.  The
// process is reaped, or killed after GracePeriod, before Run returns.
func (m *SpawnMode) Run(ctx context.Context) error {
	spawn := expect.Spawn
	if m.PTY {
		spawn = expect.SpawnPTY
	}

	m.Logger.Verbose("spawning %v", m.Command)
	sess, err := spawn(ctx, m.Command[0], m.Command[1:], m.Options...)
	if err != nil {
		return err
	}
	defer finish(sess, m.GracePeriod, m.Logger)

	return m.Capability.Handle(ctx, sess)
}
