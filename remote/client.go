package remote

import (
	"context"
	"fmt"
	"net"
	"sync"

	"golang.org/x/crypto/ssh"

	"goexpect/expect"
	ncerr "goexpect/internal/errors"
	"goexpect/util"
)

// Client is one SSH connection on which any number of expect sessions
// and forwarded connections can be opened.
type Client struct {
	config *Config
	client *ssh.Client
	logger *util.Logger
	mu     sync.RWMutex
	alive  bool
	stop   chan struct{}
}

// New creates a client that is ready to [Client.Connect].
func New(cfg *Config, logger *util.Logger) *Client {
	cfg.setDefaults()
	return &Client{config: cfg, logger: logger.Named("ssh")}
}

// Addr returns the server address as host:port.
func (c *Client) Addr() string {
	return util.FormatAddr(c.config.Host, c.config.Port)
}

// Connect dials the server and completes the handshake.
func (c *Client) Connect(ctx context.Context) error {
	authMethods, err := BuildAuthMethods(c.config)
	if err != nil {
		return ncerr.WrapSSH("auth", c.config.Host, c.config.Port, err)
	}

	hkCallback, err := hostKeyCallback(c.config)
	if err != nil {
		return ncerr.WrapSSH("hostkey", c.config.Host, c.config.Port, err)
	}

	sshCfg := &ssh.ClientConfig{
		User:            c.config.User,
		Auth:            authMethods,
		HostKeyCallback: hkCallback,
		Timeout:         c.config.ConnTimeout,
	}

	addr := c.Addr()
	c.logger.Debug("dialing %s as %s", addr, c.config.User)

	dialer := net.Dialer{Timeout: c.config.ConnTimeout}
	tcpConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return ncerr.Wrap("dial", addr, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(tcpConn, addr, sshCfg)
	if err != nil {
		tcpConn.Close()
		return ncerr.WrapSSH("handshake", c.config.Host, c.config.Port, err)
	}
	client := ssh.NewClient(sshConn, chans, reqs)
	c.logger.Verbose("connected to %s (%s)", addr, sshConn.ServerVersion())

	c.mu.Lock()
	c.client = client
	c.alive = true
	c.stop = make(chan struct{})
	stop := c.stop
	c.mu.Unlock()

	go c.monitor(client)
	if c.config.KeepAlive > 0 {
		go c.keepAlive(client, stop)
	}
	return nil
}

// Spawn starts command on the server, or the login shell when command is
// empty, and returns an expect session over it.
func (c *Client) Spawn(command string, opts ...expect.Option) (*expect.Session, error) {
	client, err := c.current()
	if err != nil {
		return nil, err
	}
	opts = append([]expect.Option{expect.WithPeerName(c.Addr())}, opts...)
	return expect.SpawnSSH(client, command, opts...)
}

// Dial opens a connection to address as seen from the server.
func (c *Client) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	client, err := c.current()
	if err != nil {
		return nil, err
	}
	c.logger.Debug("forwarding %s %s", network, address)
	conn, err := client.DialContext(ctx, network, address)
	if err != nil {
		return nil, fmt.Errorf("ssh dial %s: %w", address, err)
	}
	return conn, nil
}

// Close shuts down the SSH connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.alive = false
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
	if c.client != nil {
		err := c.client.Close()
		c.client = nil
		return err
	}
	return nil
}

// IsAlive reports whether the connection is still up.
func (c *Client) IsAlive() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.alive
}

func (c *Client) current() (*ssh.Client, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.alive || c.client == nil {
		return nil, ncerr.ErrNotConnected
	}
	return c.client, nil
}

// monitor blocks until the connection closes and flips the alive flag.
func (c *Client) monitor(client *ssh.Client) {
	err := client.Wait()

	c.mu.Lock()
	if c.client == client {
		c.alive = false
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Debug("connection closed: %v", err)
	} else {
		c.logger.Debug("connection closed")
	}
}
