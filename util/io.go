package util

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"sync"
	"syscall"
)

// DefaultBufSize is the standard buffer size for relay I/O (32 KiB).
const DefaultBufSize = 32 * 1024

// Pump copies src into dst until src reaches EOF, a write fails, or ctx is
// cancelled.  Cancellation is only observed between reads, so callers that
// need a prompt return must make src itself cancellable.  Errors that are
// expected during shutdown are reported as nil.
func Pump(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	buf := GetBuf()
	defer PutBuf(buf)

	var total int64
	for {
		if err := ctx.Err(); err != nil {
			return total, nil
		}
		n, rerr := src.Read(*buf)
		if n > 0 {
			w, werr := dst.Write((*buf)[:n])
			total += int64(w)
			if werr != nil {
				if IsHarmless(werr) {
					return total, nil
				}
				return total, werr
			}
		}
		if rerr != nil {
			if IsHarmless(rerr) {
				return total, nil
			}
			return total, rerr
		}
	}
}

// IsHarmless reports whether err marks an ordinary end of a byte stream
// rather than a failure: EOF, a closed pipe or socket, or EIO from a
// pseudo-terminal master whose child has exited.
func IsHarmless(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) ||
		errors.Is(err, io.ErrClosedPipe) || errors.Is(err, os.ErrClosed) {
		return true
	}
	// Linux reports EIO on the pty master once the slave side is gone.
	if errors.Is(err, syscall.EIO) {
		return true
	}
	// net.OpError wrapping "use of closed network connection"
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return errors.Is(opErr.Err, net.ErrClosed)
	}
	return false
}

var bufPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, DefaultBufSize)
		return &buf
	},
}

// GetBuf retrieves a DefaultBufSize buffer from the shared pool.  Callers
// must hand it back with [PutBuf].
func GetBuf() *[]byte {
	return bufPool.Get().(*[]byte)
}

// PutBuf returns a buffer to the pool.  Buffers of the wrong size are
// dropped so a resliced buffer never leaks back in.
func PutBuf(buf *[]byte) {
	if buf == nil || cap(*buf) < DefaultBufSize {
		return
	}
	*buf = (*buf)[:DefaultBufSize]
	bufPool.Put(buf)
}
