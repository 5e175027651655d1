package transport

import (
	"context"
	"fmt"
	"net"
	"sync"

	"goexpect/remote"
	"goexpect/util"
)

// SSHDialer opens connections as seen from an SSH server, for peers that
// are only reachable behind it.  The SSH connection is made lazily on
// the first Dial and torn down on Close.
type SSHDialer struct {
	client    *remote.Client
	config    *remote.Config
	logger    *util.Logger
	mu        sync.Mutex
	connected bool
}

// NewSSHDialer creates a dialer that forwards through the server in cfg.
func NewSSHDialer(cfg *remote.Config, logger *util.Logger) *SSHDialer {
	return &SSHDialer{
		client: remote.New(cfg, logger),
		config: cfg,
		logger: logger,
	}
}

func (d *SSHDialer) connect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected && d.client.IsAlive() {
		return nil
	}

	d.logger.Verbose("connecting to SSH server %s@%s", d.config.User, d.client.Addr())
	if err := d.client.Connect(ctx); err != nil {
		return fmt.Errorf("ssh: %w", err)
	}
	d.connected = true
	return nil
}

// Dial connects to address through the SSH server.
func (d *SSHDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	if err := d.connect(ctx); err != nil {
		return nil, err
	}
	return d.client.Dial(ctx, network, address)
}

// Close tears down the SSH connection.
func (d *SSHDialer) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		d.connected = false
		return d.client.Close()
	}
	return nil
}
