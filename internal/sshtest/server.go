// Package sshtest runs a minimal in-process SSH server for tests.
//
// Sessions support "exec" (the command text is echoed back as
// "ran <command>" on stdout, "done" on stderr, then exit status 0) and
// "shell" (every input line is echoed back until stdin closes).  Pty,
// env and window-change requests are accepted and recorded.
// direct-tcpip channels are forwarded to the requested address.
package sshtest

import (
	"bufio"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"io"
	"net"
	"sync"
	"testing"

	"golang.org/x/crypto/ssh"
)

// Server is a running test server.
type Server struct {
	Addr     string
	User     string
	Password string
	HostKey  ssh.PublicKey

	ln       net.Listener
	mu       sync.Mutex
	requests []string
}

// Start listens on a loopback port and serves until the test ends.  An
// empty password disables authentication.
func Start(t testing.TB, user, password string) *Server {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generating host key: %v", err)
	}
	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		t.Fatalf("host signer: %v", err)
	}

	cfg := &ssh.ServerConfig{NoClientAuth: password == ""}
	if password != "" {
		cfg.PasswordCallback = func(c ssh.ConnMetadata, pass []byte) (*ssh.Permissions, error) {
			if c.User() == user && string(pass) == password {
				return nil, nil
			}
			return nil, fmt.Errorf("password rejected for %q", c.User())
		}
	}
	cfg.AddHostKey(signer)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := &Server{Addr: ln.Addr().String(), User: user, Password: password, HostKey: signer.PublicKey(), ln: ln}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go s.serveConn(conn, cfg)
		}
	}()
	return s
}

// Dial returns a client connected to the server.
func (s *Server) Dial(t testing.TB) *ssh.Client {
	t.Helper()
	cfg := &ssh.ClientConfig{
		User:            s.User,
		HostKeyCallback: ssh.FixedHostKey(s.HostKey),
	}
	if s.Password != "" {
		cfg.Auth = []ssh.AuthMethod{ssh.Password(s.Password)}
	}
	client, err := ssh.Dial("tcp", s.Addr, cfg)
	if err != nil {
		t.Fatalf("ssh dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

// Requests returns the channel request types seen so far, in order.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

func (s *Server) record(typ string) {
	s.mu.Lock()
	s.requests = append(s.requests, typ)
	s.mu.Unlock()
}

func (s *Server) serveConn(conn net.Conn, cfg *ssh.ServerConfig) {
	sconn, chans, reqs, err := ssh.NewServerConn(conn, cfg)
	if err != nil {
		conn.Close()
		return
	}
	defer sconn.Close()
	go ssh.DiscardRequests(reqs)

	for nc := range chans {
		switch nc.ChannelType() {
		case "session":
			ch, creqs, err := nc.Accept()
			if err != nil {
				continue
			}
			go s.serveSession(ch, creqs)
		case "direct-tcpip":
			go s.forward(nc)
		default:
			nc.Reject(ssh.UnknownChannelType, "unsupported channel type") //nolint:errcheck
		}
	}
}

// forward serves a direct-tcpip channel by dialing the target itself.
func (s *Server) forward(nc ssh.NewChannel) {
	var p struct {
		Host     string
		Port     uint32
		OrigHost string
		OrigPort uint32
	}
	if err := ssh.Unmarshal(nc.ExtraData(), &p); err != nil {
		nc.Reject(ssh.ConnectionFailed, "bad payload") //nolint:errcheck
		return
	}
	s.record("direct-tcpip")
	target, err := net.Dial("tcp", net.JoinHostPort(p.Host, fmt.Sprint(p.Port)))
	if err != nil {
		nc.Reject(ssh.ConnectionFailed, err.Error()) //nolint:errcheck
		return
	}
	ch, reqs, err := nc.Accept()
	if err != nil {
		target.Close()
		return
	}
	go ssh.DiscardRequests(reqs)

	go func() {
		io.Copy(target, ch) //nolint:errcheck
		target.Close()
	}()
	io.Copy(ch, target) //nolint:errcheck
	ch.Close()
}

func (s *Server) serveSession(ch ssh.Channel, reqs <-chan *ssh.Request) {
	for req := range reqs {
		s.record(req.Type)
		switch req.Type {
		case "exec":
			var p struct{ Command string }
			if err := ssh.Unmarshal(req.Payload, &p); err != nil {
				req.Reply(false, nil) //nolint:errcheck
				continue
			}
			req.Reply(true, nil) //nolint:errcheck
			go func() {
				fmt.Fprintf(ch, "ran %s\n", p.Command)
				fmt.Fprintf(ch.Stderr(), "done\n")
				exit(ch, 0)
			}()
		case "shell":
			req.Reply(true, nil) //nolint:errcheck
			go func() {
				sc := bufio.NewScanner(ch)
				for sc.Scan() {
					fmt.Fprintf(ch, "echo: %s\n", sc.Text())
				}
				exit(ch, 0)
			}()
		case "pty-req", "env", "window-change", "signal":
			if req.WantReply {
				req.Reply(true, nil) //nolint:errcheck
			}
		default:
			if req.WantReply {
				req.Reply(false, nil) //nolint:errcheck
			}
		}
	}
}

func exit(ch ssh.Channel, status uint32) {
	ch.SendRequest("exit-status", false, ssh.Marshal(struct{ Status uint32 }{status})) //nolint:errcheck
	ch.Close()
}
