package core

import (
	"fmt"
	"io"
	"os"
	"strings"

	"goexpect/config"
	"goexpect/expect"
	"goexpect/internal/capability"
	"goexpect/internal/metrics"
	"goexpect/internal/retry"
	"goexpect/internal/transport"
	"goexpect/remote"
	"goexpect/script"
	"goexpect/util"
)

// IO is the user's side of a run.  Zero fields default to the process's
// standard streams.
type IO struct {
	Stdin  io.Reader
	Stdout io.Writer
}

func (s IO) stdin() io.Reader {
	if s.Stdin != nil {
		return s.Stdin
	}
	return os.Stdin
}

func (s IO) stdout() io.Writer {
	if s.Stdout != nil {
		return s.Stdout
	}
	return os.Stdout
}

// Build constructs the appropriate Mode from the given configuration.
// stats may be nil.
func Build(cfg *config.Config, logger *util.Logger, stats *metrics.Collector, std IO) (Mode, error) {
	handler, err := buildCapability(cfg, logger, std)
	if err != nil {
		return nil, err
	}
	opts := sessionOptions(cfg, logger, stats, std)

	switch cfg.Mode() {
	case config.ModeListen:
		return &ListenMode{
			Address:    fmt.Sprintf(":%d", cfg.LocalPort),
			Options:    opts,
			Capability: handler,
			Logger:     logger,
		}, nil
	case config.ModeDial:
		return &DialMode{
			Dialer:     buildDialer(cfg, logger),
			Network:    "tcp",
			Address:    cfg.Dial,
			Options:    opts,
			Capability: handler,
			Logger:     logger,
		}, nil
	case config.ModeSSH:
		return &SSHMode{
			Client:      remote.New(remoteConfig(cfg), logger),
			Command:     strings.Join(cfg.Command, " "),
			PTY:         cfg.PTY,
			Retries:     cfg.Retries,
			Options:     opts,
			Capability:  handler,
			GracePeriod: config.DefaultGracePeriod,
			Logger:      logger,
		}, nil
	default:
		if len(cfg.Command) == 0 {
			return nil, expect.ErrNoCommand
		}
		return &SpawnMode{
			Command:     cfg.Command,
			PTY:         cfg.PTY,
			Options:     opts,
			Capability:  handler,
			GracePeriod: config.DefaultGracePeriod,
			Logger:      logger,
		}, nil
	}
}

// ── shared helpers ───────────────────────────────────────────────────

// sessionOptions maps the waiting and output settings onto session
// options.  Peer output is echoed to stdout unless the user asked for
// quiet or is interacting, where the interaction copies it instead.
func sessionOptions(cfg *config.Config, logger *util.Logger, stats *metrics.Collector, std IO) []expect.Option {
	opts := []expect.Option{
		expect.WithTimeout(cfg.Timeout),
		expect.WithRestartOnReceive(cfg.RestartOnReceive),
		expect.WithNoConsume(cfg.NoConsume),
		expect.WithChunkSize(cfg.ReadSize),
		expect.WithReadSize(cfg.ReadSize),
		expect.WithHistory(cfg.History),
		expect.WithLogger(logger),
	}
	if stats != nil {
		opts = append(opts, expect.WithMetrics(stats))
	}
	if !cfg.Quiet && !interactive(cfg) {
		opts = append(opts, expect.WithObserver(std.stdout()))
	}
	return opts
}

// interactive reports whether the run ends with the user at the wheel:
// either asked for, or the default when there is nothing scripted.
func interactive(cfg *config.Config) bool {
	return cfg.Interact || (len(cfg.Steps) == 0 && cfg.ScriptPath == "")
}

// buildCapability assembles the command-line steps and the script file
// into one script, followed by an interaction when requested.
func buildCapability(cfg *config.Config, logger *util.Logger, std IO) (capability.Capability, error) {
	var chain capability.Chain

	if len(cfg.Steps) > 0 || cfg.ScriptPath != "" {
		s := &script.Script{}
		for _, spec := range cfg.Steps {
			st, err := script.ParseStep(spec)
			if err != nil {
				return nil, fmt.Errorf("--step %q: %w", spec, err)
			}
			s.Steps = append(s.Steps, st)
		}
		if cfg.ScriptPath != "" {
			file, err := script.Load(cfg.ScriptPath)
			if err != nil {
				return nil, err
			}
			s.Timeout = file.Timeout
			s.Steps = append(s.Steps, file.Steps...)
		}
		chain = append(chain, &capability.Script{Script: s, Logger: logger.Named("script")})
	}

	if interactive(cfg) {
		chain = append(chain, &capability.Interact{
			Stdin:  std.stdin(),
			Stdout: std.stdout(),
			Logger: logger.Named("interact"),
		})
	}

	if len(chain) == 1 {
		return chain[0], nil
	}
	return chain, nil
}

// buildDialer creates the transport for dial mode: direct TCP, or
// through the SSH server when one is configured, retried on failure.
func buildDialer(cfg *config.Config, logger *util.Logger) transport.Dialer {
	var d transport.Dialer = &transport.TCPDialer{
		Timeout:   cfg.ConnTimeout,
		KeepAlive: cfg.KeepAlive,
	}
	if cfg.SSHEnabled {
		d = transport.NewSSHDialer(remoteConfig(cfg), logger)
	}
	if cfg.Retries > 0 {
		d = &transport.RetryDialer{
			Dialer:  d,
			Backoff: retry.ForConnect(cfg.Retries),
			Logger:  logger,
		}
	}
	return d
}

func remoteConfig(cfg *config.Config) *remote.Config {
	return &remote.Config{
		User:          cfg.SSHUser,
		Host:          cfg.SSHHost,
		Port:          cfg.SSHPort,
		KeyPath:       cfg.SSHKeyPath,
		Password:      cfg.SSHSecret,
		PromptPass:    cfg.SSHPassword,
		UseAgent:      cfg.UseSSHAgent,
		StrictHostKey: cfg.StrictHostKey,
		KnownHosts:    cfg.KnownHostsPath,
		ConnTimeout:   cfg.ConnTimeout,
		KeepAlive:     cfg.KeepAlive,
	}
}
