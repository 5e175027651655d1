package transport

import (
	"context"
	"errors"
	"net"
	"time"

	ncerr "goexpect/internal/errors"
	"goexpect/internal/retry"
	"goexpect/util"
)

// RetryDialer retries a failed Dial with backoff.  Authentication and
// host-key failures are not retried.
type RetryDialer struct {
	Dialer  Dialer
	Backoff *retry.Backoff
	Logger  *util.Logger
}

// Dial tries the wrapped dialer until it succeeds or the backoff gives
// up.
func (d *RetryDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	b := *d.Backoff
	b.OnRetry = func(attempt int, err error, wait time.Duration) {
		d.Logger.Warn("connect to %s failed (attempt %d): %v; retrying in %v",
			address, attempt, err, wait.Round(time.Millisecond))
	}
	return retry.Value(ctx, &b, func(int) (net.Conn, error) {
		conn, err := d.Dialer.Dial(ctx, network, address)
		if err != nil && !Retryable(err) {
			return nil, retry.Permanent(err)
		}
		return conn, err
	})
}

// Close closes the wrapped dialer.
func (d *RetryDialer) Close() error { return d.Dialer.Close() }

// Retryable reports whether a failed connection attempt is worth
// repeating.  Rejected credentials, unknown host keys and cancellation
// are not.
func Retryable(err error) bool {
	var se *ncerr.SSHError
	if errors.As(err, &se) {
		return se.Op != "auth" && se.Op != "hostkey" && se.Op != "handshake"
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
