// Package core is the orchestration layer.  It turns a Config into a
// complete run: open the peer (spawn, dial, listen or ssh), wrap it in
// an expect session and hand that session to a capability.
//
// Architecture layers (bottom → top):
//
//	expect  →  transport / remote  →  capability  →  core  →  cmd (CLI)
//
// Build is the single dispatch point that picks the mode.
package core

import (
	"context"
	"time"

	"goexpect/expect"
	"goexpect/util"
)

// Mode represents a complete operational mode of goexpect (spawn, dial,
// listen or ssh).  Each mode owns its peer from start to teardown.
type Mode interface {
	Run(ctx context.Context) error
}

// finish closes a session whose peer is a process and gives the process
// grace to exit on its own before killing it.
func finish(sess *expect.Session, grace time.Duration, logger *util.Logger) {
	if err := sess.Close(); err != nil {
		logger.Debug("closing session: %v", err)
	}
	proc := sess.Process()
	if proc == nil {
		return
	}

	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case <-proc.Exited():
	case <-timer.C:
		logger.Verbose("process still running after %v, killing it", grace)
		if err := proc.Kill(); err != nil {
			logger.Warn("kill: %v", err)
			return
		}
		<-proc.Exited()
	}
	if err := proc.Wait(); err != nil {
		logger.Verbose("process exited: %v", err)
	} else {
		logger.Debug("process exited cleanly")
	}
}
