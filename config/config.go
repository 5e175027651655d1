// Package config defines the runtime configuration for goexpect and
// provides helpers for parsing SSH target specifications.
package config

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	ncerr "goexpect/internal/errors"
	"goexpect/util"
)

// Mode names the kind of peer a run talks to.
type Mode string

const (
	ModeSpawn  Mode = "spawn"
	ModeDial   Mode = "dial"
	ModeListen Mode = "listen"
	ModeSSH    Mode = "ssh"
)

// Config holds every tuneable for a single goexpect run.
type Config struct {
	// ── Peer ─────────────────────────────────────────────────────────
	Command   []string // spawn: argv; ssh: remote command words
	Dial      string   // host:port
	Listen    bool
	LocalPort int // -p: listen port
	PTY       bool

	// ── SSH ──────────────────────────────────────────────────────────
	SSHSpec        string // raw [user@]host[:port] from -T
	SSHEnabled     bool
	SSHUser        string
	SSHHost        string
	SSHPort        int
	SSHKeyPath     string
	SSHPassword    bool   // true → prompt interactively
	SSHSecret      string // password from env or config file
	UseSSHAgent    bool
	StrictHostKey  bool
	KnownHostsPath string
	KeepAlive      time.Duration

	// ── Waiting ──────────────────────────────────────────────────────
	Timeout          time.Duration
	RestartOnReceive bool
	NoConsume        bool
	ReadSize         int
	History          int

	// ── Conversation ─────────────────────────────────────────────────
	Steps      []string // -x: command-line steps, run before the script
	ScriptPath string
	Interact   bool
	Quiet      bool // do not echo peer output

	// ── Connection ───────────────────────────────────────────────────
	ConnTimeout time.Duration
	Retries     int

	// ── Output ───────────────────────────────────────────────────────
	Verbose    int
	Timestamps bool
	LogOutput  string
	Stats      bool
	ConfigFile string // file actually loaded, if any
}

// Mode reports which kind of peer the configuration selects.  An SSH
// target combined with --dial means dialing through the SSH server.
func (c *Config) Mode() Mode {
	switch {
	case c.Listen:
		return ModeListen
	case c.Dial != "":
		return ModeDial
	case c.SSHEnabled:
		return ModeSSH
	default:
		return ModeSpawn
	}
}

// ── SSH-spec parser ──────────────────────────────────────────────────

// sshSpecRe matches [user@]host[:port].
var sshSpecRe = regexp.MustCompile(`^(?:([^@]+)@)?([^:@]+)(?::(\d+))?$`)

// ParseSSHSpec extracts user, host, and port from a string such as
// "admin@bastion.example.com:2222".  Port defaults to 22.
func ParseSSHSpec(spec string) (user, host string, port int, err error) {
	m := sshSpecRe.FindStringSubmatch(spec)
	if m == nil {
		return "", "", 0, fmt.Errorf("invalid ssh target %q; expected [user@]host[:port]", spec)
	}
	user = m[1]
	host = m[2]
	port = DefaultSSHPort
	if m[3] != "" {
		port, err = strconv.Atoi(m[3])
		if err != nil || port < 1 || port > 65535 {
			return "", "", 0, fmt.Errorf("invalid ssh port %q", m[3])
		}
	}
	return user, host, port, nil
}

// resolveSSH fills the SSH fields from SSHSpec.
func (c *Config) resolveSSH() error {
	if c.SSHSpec == "" {
		c.SSHEnabled = false
		return nil
	}
	user, host, port, err := ParseSSHSpec(c.SSHSpec)
	if err != nil {
		return &ncerr.ConfigError{Field: "ssh", Value: c.SSHSpec, Message: err.Error()}
	}
	c.SSHEnabled = true
	c.SSHUser = user
	c.SSHHost = host
	c.SSHPort = port
	return nil
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Listen && (c.Dial != "" || c.SSHEnabled) {
		return &ncerr.ConfigError{Field: "listen", Message: "listen mode cannot be combined with --dial or --ssh"}
	}

	switch c.Mode() {
	case ModeListen:
		if c.LocalPort < 1 || c.LocalPort > 65535 {
			return &ncerr.ConfigError{Field: "port", Value: strconv.Itoa(c.LocalPort),
				Message: "listen mode requires a port", Hint: "use -l -p <port>"}
		}
	case ModeDial:
		if _, _, err := util.ParseHostPort(c.Dial); err != nil {
			return &ncerr.ConfigError{Field: "dial", Value: c.Dial, Message: err.Error(), Hint: "use --dial host:port"}
		}
	case ModeSpawn:
		if len(c.Command) == 0 {
			return &ncerr.ConfigError{Field: "command", Message: ncerr.ErrNoCommand.Error(),
				Hint: "give a command to spawn, or use --dial, --listen or --ssh (see --help)"}
		}
	}

	if len(c.Command) > 0 && (c.Mode() == ModeDial || c.Mode() == ModeListen) {
		return &ncerr.ConfigError{Field: "command", Value: fmt.Sprint(c.Command),
			Message: fmt.Sprintf("%s mode takes no command", c.Mode())}
	}
	if c.PTY && (c.Mode() == ModeDial || c.Mode() == ModeListen) {
		return &ncerr.ConfigError{Field: "pty", Message: "--pty only applies to spawned or ssh commands"}
	}
	if c.Timeout < 0 {
		return &ncerr.ConfigError{Field: "timeout", Value: c.Timeout.String(), Message: "must not be negative"}
	}
	if c.ReadSize < 1 {
		return &ncerr.ConfigError{Field: "read-size", Value: strconv.Itoa(c.ReadSize), Message: "must be at least 1"}
	}
	if c.Retries < 0 {
		return &ncerr.ConfigError{Field: "retries", Value: strconv.Itoa(c.Retries), Message: "must not be negative"}
	}
	if c.SSHEnabled && c.SSHHost == "" {
		return &ncerr.ConfigError{Field: "ssh", Value: c.SSHSpec, Message: "ssh host is required"}
	}
	return nil
}
