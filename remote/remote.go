// Package remote connects to SSH servers and starts expect sessions on
// them.  Authentication follows the usual OpenSSH order: an explicit key,
// the agent, a password, then the default key files.
package remote

import (
	"os/user"
	"time"
)

// Config holds everything needed to reach an SSH server.
type Config struct {
	User          string
	Host          string
	Port          int
	KeyPath       string
	Password      string // used without prompting when set
	PromptPass    bool
	UseAgent      bool
	StrictHostKey bool
	KnownHosts    string
	ConnTimeout   time.Duration

	// KeepAlive is the interval between keepalive requests.  Zero
	// disables them.
	KeepAlive time.Duration

	// Prompt reads a secret from the user.  The default reads from the
	// controlling terminal without echo.
	Prompt func(prompt string) ([]byte, error)
}

func (c *Config) setDefaults() {
	if c.User == "" {
		if u, err := user.Current(); err == nil {
			c.User = u.Username
		}
	}
	if c.Port == 0 {
		c.Port = 22
	}
	if c.ConnTimeout == 0 {
		c.ConnTimeout = 30 * time.Second
	}
	if c.Prompt == nil {
		c.Prompt = terminalPrompt
	}
}
