// Package metrics provides lightweight, lock-free counters for tracking
// what an expect session has exchanged with its peer and how its waits
// ended.
//
// All methods are safe for concurrent use: the bridge goroutine records
// received bytes while the caller records waits.  A nil *Collector is a
// valid no-op receiver, so callers never need to nil-check.
package metrics

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Collector tracks runtime metrics for one session.
// A nil Collector is safe to use; all methods become no-ops.
type Collector struct {
	bytesIn   atomic.Int64
	bytesOut  atomic.Int64
	chunksIn  atomic.Int64
	sends     atomic.Int64
	waits     atomic.Int64
	matches   atomic.Int64
	timeouts  atomic.Int64
	eofs      atomic.Int64
	failures  atomic.Int64
	errors    atomic.Int64
	waitNanos atomic.Int64

	mu           sync.RWMutex
	startTime    time.Time
	lastMatch    time.Time
	lastError    time.Time
	lastErrorMsg string
}

// New creates a metrics collector with the start time set to now.
func New() *Collector {
	return &Collector{startTime: time.Now()}
}

// ── I/O metrics ──────────────────────────────────────────────────────

// ChunkReceived records one chunk of n bytes drained from the peer.
func (c *Collector) ChunkReceived(n int) {
	if c == nil {
		return
	}
	c.chunksIn.Add(1)
	c.bytesIn.Add(int64(n))
}

// Sent records n bytes written to the peer.
func (c *Collector) Sent(n int) {
	if c == nil {
		return
	}
	c.sends.Add(1)
	c.bytesOut.Add(int64(n))
}

// TotalBytesIn returns total bytes received.
func (c *Collector) TotalBytesIn() int64 {
	if c == nil {
		return 0
	}
	return c.bytesIn.Load()
}

// TotalBytesOut returns total bytes sent.
func (c *Collector) TotalBytesOut() int64 {
	if c == nil {
		return 0
	}
	return c.bytesOut.Load()
}

// ── Wait metrics ─────────────────────────────────────────────────────

// Outcome classifies how a wait ended.
type Outcome int

const (
	Matched Outcome = iota
	TimedOut
	EndOfStream
	Failed
)

// WaitFinished records one completed wait and how long it blocked.
func (c *Collector) WaitFinished(o Outcome, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.waits.Add(1)
	c.waitNanos.Add(int64(elapsed))
	switch o {
	case Matched:
		c.matches.Add(1)
		c.mu.Lock()
		c.lastMatch = time.Now()
		c.mu.Unlock()
	case TimedOut:
		c.timeouts.Add(1)
	case EndOfStream:
		c.eofs.Add(1)
	case Failed:
		c.failures.Add(1)
	}
}

// Waits returns the number of completed waits.
func (c *Collector) Waits() int64 {
	if c == nil {
		return 0
	}
	return c.waits.Load()
}

// Matches returns the number of waits that ended in a match.
func (c *Collector) Matches() int64 {
	if c == nil {
		return 0
	}
	return c.matches.Load()
}

// Timeouts returns the number of waits that timed out.
func (c *Collector) Timeouts() int64 {
	if c == nil {
		return 0
	}
	return c.timeouts.Load()
}

// ── Error metrics ────────────────────────────────────────────────────

// RecordError increments the error counter and stores the message.
// Wait failures are counted separately by WaitFinished; callers record
// the message here as well when they want it surfaced in snapshots.
func (c *Collector) RecordError(msg string) {
	if c == nil {
		return
	}
	c.errors.Add(1)
	c.mu.Lock()
	c.lastError = time.Now()
	c.lastErrorMsg = msg
	c.mu.Unlock()
}

// ErrorCount returns the total number of errors recorded.
func (c *Collector) ErrorCount() int64 {
	if c == nil {
		return 0
	}
	return c.errors.Load()
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Uptime           string `json:"uptime"`
	BytesIn          int64  `json:"bytes_in"`
	BytesOut         int64  `json:"bytes_out"`
	ChunksIn         int64  `json:"chunks_in"`
	Sends            int64  `json:"sends"`
	Waits            int64  `json:"waits"`
	Matches          int64  `json:"matches"`
	Timeouts         int64  `json:"timeouts"`
	EOFs             int64  `json:"eofs"`
	WaitFailures     int64  `json:"wait_failures"`
	ErrorsTotal      int64  `json:"errors_total"`
	TimeWaiting      string `json:"time_waiting"`
	LastMatch        string `json:"last_match,omitempty"`
	LastError        string `json:"last_error,omitempty"`
	LastErrorMessage string `json:"last_error_message,omitempty"`
}

// Snapshot returns a copy of all current metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Uptime:       time.Since(c.startTime).Truncate(time.Millisecond).String(),
		BytesIn:      c.bytesIn.Load(),
		BytesOut:     c.bytesOut.Load(),
		ChunksIn:     c.chunksIn.Load(),
		Sends:        c.sends.Load(),
		Waits:        c.waits.Load(),
		Matches:      c.matches.Load(),
		Timeouts:     c.timeouts.Load(),
		EOFs:         c.eofs.Load(),
		WaitFailures: c.failures.Load(),
		ErrorsTotal:  c.errors.Load(),
		TimeWaiting:  time.Duration(c.waitNanos.Load()).Truncate(time.Millisecond).String(),
	}
	if !c.lastMatch.IsZero() {
		s.LastMatch = c.lastMatch.Format(time.RFC3339)
	}
	if !c.lastError.IsZero() {
		s.LastError = c.lastError.Format(time.RFC3339)
		s.LastErrorMessage = c.lastErrorMsg
	}
	return s
}

// JSON returns the snapshot as an indented JSON string.
func (c *Collector) JSON() string {
	s := c.Snapshot()
	data, _ := json.MarshalIndent(s, "", "  ")
	return string(data)
}
