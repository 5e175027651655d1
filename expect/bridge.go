package expect

import (
	"io"
	"os"
	"time"

	ncerr "goexpect/internal/errors"
	"goexpect/internal/metrics"
	"goexpect/util"
)

// DefaultChunkSize is the bridge's read size.
const DefaultChunkSize = 1024

// conduit is the pollable side of the bridge: the read end of an OS pipe
// whose write end is fed by a goroutine draining the peer's output.  Read
// deadlines on the pipe bound every wait.
type conduit struct {
	r    *os.File
	done chan struct{}
	err  error // bridge failure, valid once done is closed
}

type bridgeConfig struct {
	chunk    int
	observer io.Writer
	log      *util.Logger
	stats    *metrics.Collector
	peer     string
}

// startBridge creates the pipe and starts copying src into it.
func startBridge(src io.Reader, cfg bridgeConfig) (*conduit, error) {
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, ncerr.Wrap("pipe", cfg.peer, err)
	}
	if cfg.chunk <= 0 {
		cfg.chunk = DefaultChunkSize
	}
	c := &conduit{r: pr, done: make(chan struct{})}
	go c.run(src, pw, cfg)
	return c, nil
}

// run copies src to w one chunk at a time, each write completing before
// the next read.  The write end is always closed on exit so the reader
// sees end-of-stream.
func (c *conduit) run(src io.Reader, w *os.File, cfg bridgeConfig) {
	defer close(c.done)
	defer func() {
		if err := w.Close(); err != nil {
			cfg.log.Debug("closing pipe: %v", err)
		}
	}()

	buf := make([]byte, cfg.chunk)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			cfg.stats.ChunkReceived(n)
			if _, werr := w.Write(buf[:n]); werr != nil {
				// The read end is gone, normally because the session was closed.
				c.err = ncerr.Wrap("write", "pipe", werr)
				cfg.log.Debug("bridge stopped: %v", c.err)
				return
			}
			if cfg.observer != nil {
				if _, oerr := cfg.observer.Write(buf[:n]); oerr != nil {
					cfg.log.Debug("observer: %v", oerr)
				}
			}
		}
		if err != nil {
			if util.IsHarmless(err) {
				cfg.log.Debug("end of stream from %s", cfg.peer)
				if cl, ok := src.(io.Closer); ok {
					if cerr := cl.Close(); cerr != nil && !ncerr.IsClosed(cerr) {
						cfg.log.Debug("closing source: %v", cerr)
					}
				}
				return
			}
			c.err = ncerr.Wrap("read", cfg.peer, err)
			cfg.log.Warn("bridge stopped: %v", c.err)
			cfg.stats.RecordError(c.err.Error())
			return
		}
	}
}

// read reads from the pipe, giving up at deadline.  A zero deadline blocks
// indefinitely.
func (c *conduit) read(p []byte, deadline time.Time) (int, error) {
	if err := c.r.SetReadDeadline(deadline); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

func (c *conduit) close() error {
	return c.r.Close()
}

// Done is closed once the bridge goroutine has finished.
func (c *conduit) Done() <-chan struct{} { return c.done }
