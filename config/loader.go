package config

// loader.go - configuration loading through viper.
//
// Precedence order (highest wins):
//   1. CLI flags  (bound from cmd/root.go)
//   2. Environment variables  (GOEXPECT_*)
//   3. Config file  (--config, or config.yaml in ConfigDir)
//   4. Defaults   (defaults.go)
//
// Keys are the long flag names, so "restart-on-receive" is set by the
// flag of that name, by GOEXPECT_RESTART_ON_RECEIVE, or by the YAML key
// restart-on-receive.

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Load builds the effective configuration.  fs may be nil; when given,
// flags the user actually set override everything else.  Command and
// Steps are not loaded here since they only come from the command line.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, fmt.Errorf("binding flags: %w", err)
		}
	}

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	cfg := fromViper(v)
	if err := cfg.resolveSSH(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("timeout", DefaultTimeout)
	v.SetDefault("read-size", DefaultReadSize)
	v.SetDefault("history", DefaultHistory)
	v.SetDefault("conn-timeout", DefaultConnTimeout)
	v.SetDefault("keepalive", DefaultKeepAlive)
	v.SetDefault("retries", DefaultRetries)
}

// readConfigFile loads the file named by the "config" key, or
// config.yaml from ConfigDir when it exists.
func readConfigFile(v *viper.Viper) error {
	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(ConfigDir())
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Dial:      v.GetString("dial"),
		Listen:    v.GetBool("listen"),
		LocalPort: v.GetInt("port"),
		PTY:       v.GetBool("pty"),

		SSHSpec:        v.GetString("ssh"),
		SSHKeyPath:     v.GetString("ssh-key"),
		SSHPassword:    v.GetBool("ssh-password"),
		SSHSecret:      v.GetString("ssh-secret"),
		UseSSHAgent:    v.GetBool("ssh-agent"),
		StrictHostKey:  v.GetBool("strict-hostkey"),
		KnownHostsPath: v.GetString("known-hosts"),
		KeepAlive:      v.GetDuration("keepalive"),

		Timeout:          v.GetDuration("timeout"),
		RestartOnReceive: v.GetBool("restart-on-receive"),
		NoConsume:        v.GetBool("no-consume"),
		ReadSize:         v.GetInt("read-size"),
		History:          v.GetInt("history"),

		ScriptPath: v.GetString("script"),
		Interact:   v.GetBool("interact"),
		Quiet:      v.GetBool("quiet"),

		ConnTimeout: v.GetDuration("conn-timeout"),
		Retries:     v.GetInt("retries"),

		Verbose:    v.GetInt("verbose"),
		Timestamps: v.GetBool("timestamps"),
		LogOutput:  v.GetString("log-output"),
		Stats:      v.GetBool("stats"),
		ConfigFile: v.ConfigFileUsed(),
	}
}

// ConfigDir returns the directory searched for config.yaml.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "goexpect")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".goexpect"
	}
	return filepath.Join(home, ".config", "goexpect")
}
