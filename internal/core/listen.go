package core

import (
	"context"
	"fmt"
	"net"

	"goexpect/expect"
	"goexpect/internal/capability"
	"goexpect/util"
)

// ListenMode waits for a single inbound TCP connection and runs the
// capability on it.
type ListenMode struct {
	Address    string // ":port"
	Options    []expect.Option
	Capability capability.Capability
	Logger     *util.Logger

	// Ready, when set, receives the bound address once listening.
	Ready chan<- net.Addr
}

// Run listens, accepts one connection and serves it.  Cancelling ctx
// before a peer arrives stops listening and returns ctx's error.
func (m *ListenMode) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", m.Address)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", m.Address, err)
	}

	m.Logger.Verbose("listening on %s (tcp)", ln.Addr())
	if m.Ready != nil {
		m.Ready <- ln.Addr()
	}

	// Shut the listener down when the context expires.
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	conn, err := ln.Accept()
	stop()
	ln.Close()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("accept: %w", err)
	}

	m.Logger.Verbose("connection from %s", conn.RemoteAddr())

	sess, err := expect.NewConn(conn, m.Options...)
	if err != nil {
		conn.Close()
		return err
	}
	defer sess.Close()

	return m.Capability.Handle(ctx, sess)
}
