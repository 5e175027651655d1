package config

import "time"

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags, config file parsing, and environment variable
// loading.

const (
	// EnvPrefix prefixes every environment variable, e.g.
	// GOEXPECT_TIMEOUT=30s.
	EnvPrefix = "GOEXPECT"

	// DefaultTimeout is the wait timeout for steps without their own.
	DefaultTimeout = 60 * time.Second

	// DefaultReadSize is the bridge chunk size in bytes.
	DefaultReadSize = 1024

	// DefaultHistory is how many recent output chunks are kept for
	// timeout diagnostics.
	DefaultHistory = 16

	// DefaultSSHPort is the standard SSH port.
	DefaultSSHPort = 22

	// DefaultConnTimeout is the TCP/SSH connection timeout.
	DefaultConnTimeout = 30 * time.Second

	// DefaultKeepAlive is the SSH keepalive interval.
	DefaultKeepAlive = 30 * time.Second

	// DefaultRetries is how many times a failed dial or SSH connect is
	// retried.
	DefaultRetries = 2

	// DefaultGracePeriod is how long a spawned process may take to exit
	// after the conversation ends before it is killed.
	DefaultGracePeriod = 5 * time.Second

	// DefaultTermCols and DefaultTermRows size pseudo-terminals when the
	// controlling terminal's size is unknown.
	DefaultTermCols = 132
	DefaultTermRows = 43
)
