package remote

import (
	"time"

	"golang.org/x/crypto/ssh"
)

const keepAliveRequest = "keepalive@openssh.com"

// keepAlive sends a global request every KeepAlive interval.  A server
// that stops answering is treated as gone and the connection is closed,
// which ends every session on it.
func (c *Client) keepAlive(client *ssh.Client, stop <-chan struct{}) {
	tick := time.NewTicker(c.config.KeepAlive)
	defer tick.Stop()

	for {
		select {
		case <-stop:
			return
		case <-tick.C:
			if _, _, err := client.SendRequest(keepAliveRequest, true, nil); err != nil {
				c.logger.Error("keepalive to %s failed: %v", c.Addr(), err)
				client.Close()
				return
			}
			c.logger.Debug("keepalive ok")
		}
	}
}
