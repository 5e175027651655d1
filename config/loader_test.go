package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

// isolate keeps the user's real config directory out of the test.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	return dir
}

func testFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.DurationP("timeout", "w", DefaultTimeout, "")
	fs.Bool("restart-on-receive", false, "")
	fs.String("ssh", "", "")
	fs.String("config", "", "")
	fs.CountP("verbose", "v", "")
	return fs
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load(nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Timeout != DefaultTimeout || cfg.ReadSize != DefaultReadSize || cfg.History != DefaultHistory {
		t.Errorf("timeout=%v read-size=%d history=%d", cfg.Timeout, cfg.ReadSize, cfg.History)
	}
	if cfg.Retries != DefaultRetries || cfg.KeepAlive != DefaultKeepAlive || cfg.ConnTimeout != DefaultConnTimeout {
		t.Errorf("retries=%d keepalive=%v conn-timeout=%v", cfg.Retries, cfg.KeepAlive, cfg.ConnTimeout)
	}
	if cfg.ConfigFile != "" {
		t.Errorf("loaded unexpected config file %s", cfg.ConfigFile)
	}
}

func TestLoadFromEnv(t *testing.T) {
	isolate(t)
	t.Setenv("GOEXPECT_TIMEOUT", "15s")
	t.Setenv("GOEXPECT_RESTART_ON_RECEIVE", "true")
	t.Setenv("GOEXPECT_SSH", "ops@gw:2200")
	t.Setenv("GOEXPECT_SSH_SECRET", "pw")
	t.Setenv("GOEXPECT_RETRIES", "5")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Timeout != 15*time.Second || !cfg.RestartOnReceive || cfg.Retries != 5 {
		t.Errorf("timeout=%v restart=%v retries=%d", cfg.Timeout, cfg.RestartOnReceive, cfg.Retries)
	}
	if !cfg.SSHEnabled || cfg.SSHUser != "ops" || cfg.SSHHost != "gw" || cfg.SSHPort != 2200 || cfg.SSHSecret != "pw" {
		t.Errorf("ssh = %+v", cfg)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	data := "timeout: 5s\nno-consume: true\nhistory: 4\nverbose: 2\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GOEXPECT_CONFIG", path)

	cfg, err := Load(nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Timeout != 5*time.Second || !cfg.NoConsume || cfg.History != 4 || cfg.Verbose != 2 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.ConfigFile != path {
		t.Errorf("ConfigFile = %q", cfg.ConfigFile)
	}
}

func TestLoadDefaultConfigDir(t *testing.T) {
	dir := isolate(t)
	if err := os.MkdirAll(filepath.Join(dir, "goexpect"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "goexpect", "config.yaml"), []byte("retries: 7\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Retries != 7 {
		t.Errorf("retries = %d", cfg.Retries)
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "p.yaml")
	if err := os.WriteFile(path, []byte("timeout: 5s\nverbose: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GOEXPECT_TIMEOUT", "10s")

	fs := testFlags()
	if err := fs.Parse([]string{"--config", path, "-w", "20s"}); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(fs)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Timeout != 20*time.Second {
		t.Errorf("flag did not win: timeout = %v", cfg.Timeout)
	}
	if cfg.Verbose != 1 {
		t.Errorf("unset flag overrode the file: verbose = %d", cfg.Verbose)
	}

	fs = testFlags()
	if err := fs.Parse([]string{"--config", path}); err != nil {
		t.Fatal(err)
	}
	cfg, err = Load(fs)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Timeout != 10*time.Second {
		t.Errorf("env did not beat the file: timeout = %v", cfg.Timeout)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := isolate(t)

	t.Run("missing explicit file", func(t *testing.T) {
		t.Setenv("GOEXPECT_CONFIG", filepath.Join(dir, "absent.yaml"))
		if _, err := Load(nil); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		if err := os.WriteFile(path, []byte("timeout: [unclosed\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		t.Setenv("GOEXPECT_CONFIG", path)
		if _, err := Load(nil); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("bad ssh spec", func(t *testing.T) {
		t.Setenv("GOEXPECT_SSH", "a@b@c")
		if _, err := Load(nil); err == nil {
			t.Error("expected error")
		}
	})
}

func TestConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	if got := ConfigDir(); got != filepath.Join("/xdg", "goexpect") {
		t.Errorf("ConfigDir = %s", got)
	}
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HOME", "/home/tester")
	if got := ConfigDir(); got != filepath.Join("/home/tester", ".config", "goexpect") {
		t.Errorf("ConfigDir = %s", got)
	}
}
