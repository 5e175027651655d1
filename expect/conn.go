package expect

import "net"

// NewConn starts a session over a network connection, which serves as
// both sink and source.
func NewConn(conn net.Conn, opts ...Option) (*Session, error) {
	o := buildOptions(opts)
	if o.peer == defaultOptions().peer {
		o.peer = conn.RemoteAddr().String()
	}
	return newSession(conn, conn, o)
}
