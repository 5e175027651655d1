package remote

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

func noPrompt(string) ([]byte, error) { return nil, errors.New("unexpected prompt") }

func TestBuildAuthMethods(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "id_plain")
	writeKey(t, plain, "")

	tests := []struct {
		name    string
		cfg     Config
		methods int
	}{
		{"explicit key", Config{KeyPath: plain, Prompt: noPrompt}, 1},
		{"password", Config{Password: "pw", Prompt: noPrompt}, 2},
		{"key and password", Config{KeyPath: plain, Password: "pw", Prompt: noPrompt}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			methods, err := BuildAuthMethods(&tt.cfg)
			if err != nil {
				t.Fatalf("BuildAuthMethods: %v", err)
			}
			if len(methods) != tt.methods {
				t.Errorf("got %d methods, want %d", len(methods), tt.methods)
			}
		})
	}
}

func TestBuildAuthMethodsEncryptedKeyPrompts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "id_locked")
	writeKey(t, path, "hunter2")

	var prompts []string
	cfg := &Config{KeyPath: path, Prompt: func(p string) ([]byte, error) {
		prompts = append(prompts, p)
		return []byte("hunter2"), nil
	}}
	if _, err := BuildAuthMethods(cfg); err != nil {
		t.Fatalf("BuildAuthMethods: %v", err)
	}
	if len(prompts) != 1 || prompts[0] != "Enter passphrase for "+path+": " {
		t.Errorf("prompts = %q", prompts)
	}
}

func TestBuildAuthMethodsPromptsForPassword(t *testing.T) {
	var asked string
	cfg := &Config{User: "root", Host: "box", PromptPass: true, Prompt: func(p string) ([]byte, error) {
		asked = p
		return []byte("pw"), nil
	}}
	methods, err := BuildAuthMethods(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if asked != "root@box's password: " || len(methods) != 2 {
		t.Errorf("asked %q, %d methods", asked, len(methods))
	}
}

func TestBuildAuthMethodsFailures(t *testing.T) {
	t.Setenv("SSH_AUTH_SOCK", "")
	t.Setenv("HOME", t.TempDir())

	if _, err := BuildAuthMethods(&Config{KeyPath: "/nonexistent/key", Prompt: noPrompt}); err == nil {
		t.Error("expected error for missing key")
	}
	if _, err := BuildAuthMethods(&Config{UseAgent: true, Prompt: noPrompt}); err == nil {
		t.Error("expected error without an agent socket")
	}
	if _, err := BuildAuthMethods(&Config{Prompt: noPrompt}); err == nil {
		t.Error("expected error when nothing is available")
	}
}

func TestHostKeyCallback(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		t.Fatal(err)
	}
	khFile := filepath.Join(t.TempDir(), "known_hosts")
	line := knownhosts.Line([]string{knownhosts.Normalize("example.com:22")}, signer.PublicKey())
	if err := os.WriteFile(khFile, []byte(line+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Run("insecure", func(t *testing.T) {
		cb, err := hostKeyCallback(&Config{})
		if err != nil || cb == nil {
			t.Fatalf("cb=%v err=%v", cb, err)
		}
	})

	t.Run("known host", func(t *testing.T) {
		cb, err := hostKeyCallback(&Config{StrictHostKey: true, KnownHosts: khFile})
		if err != nil {
			t.Fatal(err)
		}
		addr := &fakeAddr{"192.0.2.1:22"}
		if err := cb("example.com:22", addr, signer.PublicKey()); err != nil {
			t.Errorf("known key rejected: %v", err)
		}
		if err := cb("other.com:22", addr, signer.PublicKey()); err == nil {
			t.Error("unknown host accepted")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := hostKeyCallback(&Config{StrictHostKey: true, KnownHosts: "/nonexistent/known_hosts"}); err == nil {
			t.Error("expected error")
		}
	})
}

// ── helpers ──────────────────────────────────────────────────────────

type fakeAddr struct{ s string }

func (a *fakeAddr) Network() string { return "tcp" }
func (a *fakeAddr) String() string  { return a.s }

// writeKey writes a fresh ed25519 key in OpenSSH format, encrypted when
// passphrase is set.
func writeKey(t *testing.T, path, passphrase string) {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	var block *pem.Block
	if passphrase == "" {
		block, err = ssh.MarshalPrivateKey(priv, "test")
	} else {
		block, err = ssh.MarshalPrivateKeyWithPassphrase(priv, "test", []byte(passphrase))
	}
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, pem.EncodeToMemory(block), 0o600); err != nil {
		t.Fatal(err)
	}
}
