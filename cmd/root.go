// Package cmd wires up the CLI flags and dispatches to the core modes.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	flag "github.com/spf13/pflag"

	"goexpect/config"
	"goexpect/expect"
	"goexpect/internal/core"
	"goexpect/internal/metrics"
	"goexpect/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X goexpect/cmd.version=2.0.0"
var version = "0.3.0" //nolint:gochecknoglobals

// Exit codes beyond the generic failure.
const (
	ExitFailure = 1
	ExitTimeout = 2
	ExitEOF     = 3
)

// Execute parses args and runs the selected mode against the process's
// standard streams.
func Execute(ctx context.Context, args []string) error {
	return run(ctx, args, core.IO{}, os.Stderr)
}

// ExitCode maps an error returned by Execute to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, expect.ErrTimeout):
		return ExitTimeout
	case errors.Is(err, expect.ErrEOF):
		return ExitEOF
	default:
		return ExitFailure
	}
}

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("goexpect", flag.ContinueOnError)
	fs.SortFlags = false

	// ── waiting ──────────────────────────────────────────────────
	fs.DurationP("timeout", "w", config.DefaultTimeout, "Default wait timeout")
	fs.Bool("restart-on-receive", false, "Re-arm the timeout whenever output arrives")
	fs.Bool("no-consume", false, "Leave matched output in the buffer")
	fs.Int("read-size", config.DefaultReadSize, "Bytes read from the peer at once")
	fs.Int("history", config.DefaultHistory, "Output chunks kept for error messages (0 disables)")

	// ── conversation ─────────────────────────────────────────────
	fs.StringArrayP("step", "x", nil, "Script step: send=TEXT, expect=TEXT, regex=EXPR or eof (repeatable)")
	fs.StringP("script", "f", "", "YAML script file run after the --step steps")
	fs.BoolP("interact", "i", false, "Hand the session to the terminal after the script")
	fs.BoolP("quiet", "q", false, "Do not echo peer output")

	// ── peer ─────────────────────────────────────────────────────
	fs.String("dial", "", "Connect to host:port instead of spawning a command")
	fs.BoolP("listen", "l", false, "Wait for one inbound connection")
	fs.IntP("port", "p", 0, "Listen port (with -l)")
	fs.Bool("pty", false, "Run the command on a pseudo-terminal")

	// ── SSH ──────────────────────────────────────────────────────
	fs.StringP("ssh", "T", "", "Run the command on [user@]host[:port], or dial through it with --dial")
	fs.String("ssh-key", "", "SSH private key file")
	fs.Bool("ssh-password", false, "Prompt for SSH password")
	fs.Bool("ssh-agent", false, "Use SSH agent")
	fs.Bool("strict-hostkey", false, "Verify SSH host keys")
	fs.String("known-hosts", "", "Custom known_hosts path")
	fs.Duration("keepalive", config.DefaultKeepAlive, "SSH and TCP keepalive interval (0 disables)")

	// ── connection ───────────────────────────────────────────────
	fs.Duration("conn-timeout", config.DefaultConnTimeout, "Timeout for establishing connections")
	fs.Int("retries", config.DefaultRetries, "Connection retries after the first attempt")

	// ── output ───────────────────────────────────────────────────
	fs.CountP("verbose", "v", "Increase verbosity (repeatable)")
	fs.Bool("timestamps", false, "Prefix log lines with timestamps")
	fs.String("log-output", "", "Append log lines to this file instead of stderr")
	fs.Bool("stats", false, "Print session counters as JSON on exit")
	fs.String("config", "", "Config file (default $XDG_CONFIG_HOME/goexpect/config.yaml)")

	fs.Bool("version", false, "Print version and exit")
	fs.BoolP("help", "h", false, "Show this help")
	return fs
}

func run(ctx context.Context, args []string, std core.IO, stderr io.Writer) error {
	fs := newFlagSet()
	fs.SetOutput(stderr)
	fs.Usage = func() { printUsage(fs, stderr) }

	// ── parse ────────────────────────────────────────────────────
	fs.SetInterspersed(false)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if help, _ := fs.GetBool("help"); help || len(args) == 0 {
		printUsage(fs, stderr)
		return nil
	}
	if showVersion, _ := fs.GetBool("version"); showVersion {
		fmt.Fprintf(stderr, "goexpect %s\n", version)
		return nil
	}

	// ── configuration ────────────────────────────────────────────
	cfg, err := config.Load(fs)
	if err != nil {
		return err
	}
	cfg.Command = fs.Args()
	cfg.Steps, _ = fs.GetStringArray("step")

	if err := cfg.Validate(); err != nil {
		return err
	}

	// ── build components ─────────────────────────────────────────
	logger, closeLog, err := buildLogger(cfg, stderr)
	if err != nil {
		return err
	}
	defer closeLog()
	if cfg.ConfigFile != "" {
		logger.Verbose("using config %s", cfg.ConfigFile)
	}

	stats := metrics.New()
	mode, err := core.Build(cfg, logger, stats, std)
	if err != nil {
		return err
	}

	runErr := mode.Run(ctx)
	if cfg.Stats {
		fmt.Fprintln(stderr, stats.JSON())
	}
	return runErr
}

// buildLogger honours -v, --timestamps and --log-output.  Warnings are
// shown without -v.
func buildLogger(cfg *config.Config, stderr io.Writer) (*util.Logger, func(), error) {
	logger := util.NewLogger(int(util.LogNormal) + cfg.Verbose)
	if cfg.Timestamps {
		logger.SetTimestamps(true)
	}
	if cfg.LogOutput == "" {
		logger.SetOutput(stderr)
		return logger, func() {}, nil
	}

	f, err := os.OpenFile(cfg.LogOutput, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("log output: %w", err)
	}
	logger.SetOutput(f)
	return logger, func() { f.Close() }, nil
}

func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintf(w, `goexpect – drive interactive programs v%s

Sends input to a peer and waits for its output to match.

Usage:
  goexpect [options] <command> [args...]       Spawn a local command
  goexpect --dial host:port [options]          Talk to a TCP service
  goexpect -l -p <port> [options]              Wait for one connection
  goexpect -T user@host [options] [command]    Run a command over SSH

Options:
`, version)
	fs.PrintDefaults()
	fmt.Fprintf(w, `
Examples:
  goexpect -x 'expect=$ ' -x 'send=uname -a\n' -x 'expect=$ ' bash
  goexpect --dial mail.example.com:25 -x 'regex=^220 ' -x 'send=QUIT\r\n' -x eof
  goexpect --pty -f login.yaml -i passwd
  goexpect -T admin@bastion -w 10s -f deploy.yaml
  goexpect -T admin@bastion --dial db-internal:5432 -i
`)
}
