package core

import (
	"context"
	"fmt"

	"goexpect/expect"
	"goexpect/internal/capability"
	"goexpect/internal/transport"
	"goexpect/util"
)

// DialMode connects to a TCP peer, directly or through an SSH server,
// and runs the capability on the connection.
type DialMode struct {
	Dialer     transport.Dialer
	Network    string
	Address    string
	Options    []expect.Option
	Capability capability.Capability
	Logger     *util.Logger
}

// Run dials the address, creates a session, and hands it to the
// capability.  The transport is closed when Run returns.
func (m *DialMode) Run(ctx context.Context) error {
	defer m.Dialer.Close()

	m.Logger.Verbose("connecting to %s (%s)", m.Address, m.Network)

	conn, err := m.Dialer.Dial(ctx, m.Network, m.Address)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", m.Address, err)
	}

	m.Logger.Verbose("connected to %s", m.Address)

	// Forwarded connections have no meaningful remote address.
	opts := append([]expect.Option{expect.WithPeerName(m.Address)}, m.Options...)
	sess, err := expect.NewConn(conn, opts...)
	if err != nil {
		conn.Close()
		return err
	}
	defer sess.Close()

	return m.Capability.Handle(ctx, sess)
}
