// Package transport opens the network connections that dial mode turns
// into expect sessions: plain TCP, TCP forwarded through an SSH server,
// and a retrying wrapper around either.
package transport

import (
	"context"
	"net"
)

// Dialer opens outbound network connections.
type Dialer interface {
	// Dial establishes a connection to the given network address.
	Dial(ctx context.Context, network, address string) (net.Conn, error)

	// Close releases any long-lived resources held by the dialer
	// (e.g. an SSH connection).  Stateless dialers return nil.
	Close() error
}
