package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	ncerr "goexpect/internal/errors"
	"goexpect/internal/retry"
	"goexpect/internal/sshtest"
	"goexpect/remote"
	"goexpect/util"
)

// greeter accepts connections and writes msg to each before closing it.
func greeter(t *testing.T, msg string) net.Listener {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Write([]byte(msg)) //nolint:errcheck
			conn.Close()
		}
	}()
	return ln
}

func TestTCPDialer_Connect(t *testing.T) {
	ln := greeter(t, "hello from server\n")

	d := &TCPDialer{Timeout: 2 * time.Second}
	conn, err := d.Dial(context.Background(), "tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	data, err := io.ReadAll(conn)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if got := string(data); got != "hello from server\n" {
		t.Errorf("got %q", got)
	}
}

func TestTCPDialer_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := &TCPDialer{Timeout: 5 * time.Second}
	if _, err := d.Dial(ctx, "tcp", "127.0.0.1:1"); err == nil {
		t.Fatal("expected error with cancelled context")
	}
}

func TestTCPDialer_Close(t *testing.T) {
	d := &TCPDialer{}
	if err := d.Close(); err != nil {
		t.Errorf("Close should be no-op, got: %v", err)
	}
}

func sshConfig(t *testing.T, srv *sshtest.Server) *remote.Config {
	t.Helper()
	host, portStr, err := net.SplitHostPort(srv.Addr)
	if err != nil {
		t.Fatal(err)
	}
	port, _ := strconv.Atoi(portStr)
	return &remote.Config{
		User:        srv.User,
		Host:        host,
		Port:        port,
		Password:    srv.Password,
		ConnTimeout: 2 * time.Second,
		Prompt: func(string) ([]byte, error) {
			return nil, errors.New("no terminal")
		},
	}
}

func TestSSHDialer_Forward(t *testing.T) {
	srv := sshtest.Start(t, "deploy", "s3cret")
	ln := greeter(t, "behind the bastion\n")

	d := NewSSHDialer(sshConfig(t, srv), util.NewLogger(0))
	defer d.Close()

	for i := 0; i < 2; i++ {
		conn, err := d.Dial(context.Background(), "tcp", ln.Addr().String())
		if err != nil {
			t.Fatalf("Dial #%d: %v", i, err)
		}
		data, err := io.ReadAll(conn)
		conn.Close()
		if err != nil {
			t.Fatalf("ReadAll: %v", err)
		}
		if got := string(data); got != "behind the bastion\n" {
			t.Errorf("got %q", got)
		}
	}

	var forwards int
	for _, r := range srv.Requests() {
		if r == "direct-tcpip" {
			forwards++
		}
	}
	if forwards != 2 {
		t.Errorf("forwarded channels = %d, want 2", forwards)
	}

	if err := d.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestSSHDialer_AuthFailure(t *testing.T) {
	srv := sshtest.Start(t, "deploy", "s3cret")
	cfg := sshConfig(t, srv)
	cfg.Password = "wrong"

	d := NewSSHDialer(cfg, util.NewLogger(0))
	_, err := d.Dial(context.Background(), "tcp", "127.0.0.1:1")
	var se *ncerr.SSHError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *SSHError", err)
	}
	if Retryable(err) {
		t.Error("handshake failure should not be retried")
	}
	if err := d.Close(); err != nil {
		t.Errorf("Close without connection: %v", err)
	}
}

// flakyDialer fails its first `fails` dials with err.
type flakyDialer struct {
	fails  int32
	calls  atomic.Int32
	err    error
	closed bool
}

func (d *flakyDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	if d.calls.Add(1) <= d.fails {
		return nil, d.err
	}
	a, b := net.Pipe()
	go b.Close()
	return a, nil
}

func (d *flakyDialer) Close() error {
	d.closed = true
	return nil
}

func TestRetryDialer(t *testing.T) {
	refused := errors.New("connection refused")
	tests := []struct {
		name      string
		fails     int32
		err       error
		attempts  int
		wantErr   bool
		wantCalls int32
	}{
		{"first try", 0, refused, 3, false, 1},
		{"recovers", 2, refused, 3, false, 3},
		{"gives up", 5, refused, 3, true, 3},
		{"auth is permanent", 5, ncerr.WrapSSH("auth", "h", 22, refused), 3, true, 1},
		{"hostkey is permanent", 5, ncerr.WrapSSH("hostkey", "h", 22, refused), 3, true, 1},
		{"session is retried", 1, ncerr.WrapSSH("session", "h", 22, refused), 3, false, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inner := &flakyDialer{fails: tt.fails, err: tt.err}
			d := &RetryDialer{
				Dialer:  inner,
				Backoff: &retry.Backoff{InitialDelay: time.Millisecond, MaxAttempts: tt.attempts},
				Logger:  util.NewLogger(0),
			}
			conn, err := d.Dial(context.Background(), "tcp", "peer:1")
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !errors.Is(err, refused) {
					t.Errorf("err = %v, want it to wrap %v", err, refused)
				}
			} else {
				if err != nil {
					t.Fatalf("Dial: %v", err)
				}
				conn.Close()
			}
			if got := inner.calls.Load(); got != tt.wantCalls {
				t.Errorf("calls = %d, want %d", got, tt.wantCalls)
			}
			d.Close()
			if !inner.closed {
				t.Error("Close did not reach the wrapped dialer")
			}
		})
	}
}

func TestRetryDialer_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	inner := &flakyDialer{fails: 100, err: errors.New("refused")}
	d := &RetryDialer{
		Dialer:  inner,
		Backoff: &retry.Backoff{InitialDelay: time.Hour},
		Logger:  util.NewLogger(0),
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := d.Dial(ctx, "tcp", "peer:1")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
