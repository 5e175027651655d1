package expect

import (
	"io"
	"time"

	"goexpect/internal/metrics"
	"goexpect/util"
)

// DefaultTimeout is the wait timeout of a new session.
const DefaultTimeout = 60 * time.Second

// options holds session settings.  Spawn-specific fields are ignored by
// New and NewConn.
type options struct {
	timeout       time.Duration
	restart       bool
	noConsume     bool
	chunkSize     int
	readSize      int
	observer      io.Writer
	logger        *util.Logger
	stats         *metrics.Collector
	historyChunks int
	peer          string
	env           []string
	dir           string
	cols, rows    int
	requestPTY    bool
}

// Option configures a Session.
type Option func(*options)

func defaultOptions() options {
	return options{
		timeout:       DefaultTimeout,
		chunkSize:     DefaultChunkSize,
		readSize:      DefaultChunkSize,
		historyChunks: defaultHistoryChunks,
		peer:          "peer",
		cols:          132,
		rows:          43,
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = util.NewLogger(0)
		o.logger.SetOutput(io.Discard)
	}
	if o.stats == nil {
		o.stats = metrics.New()
	}
	return o
}

// WithTimeout sets the default wait timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithRestartOnReceive makes every arrival of output re-arm the full
// timeout, so a wait only expires after a quiet period.
func WithRestartOnReceive(on bool) Option {
	return func(o *options) { o.restart = on }
}

// WithNoConsume leaves matched output in the buffer.
func WithNoConsume(on bool) Option {
	return func(o *options) { o.noConsume = on }
}

// WithChunkSize sets how many bytes the bridge reads from the peer at once.
func WithChunkSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.chunkSize = n
		}
	}
}

// WithReadSize sets how many bytes a wait reads from the pipe at once.
func WithReadSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.readSize = n
		}
	}
}

// WithObserver copies every chunk of peer output to w as it arrives.
// Errors from w are ignored.  w is written from the bridge goroutine.
func WithObserver(w io.Writer) Option {
	return func(o *options) { o.observer = w }
}

// WithLogger routes session logging to l.  Without it the session logs
// nothing.
func WithLogger(l *util.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics records session counters into c, which may be shared
// between sessions.
func WithMetrics(c *metrics.Collector) Option {
	return func(o *options) { o.stats = c }
}

// WithHistory sets how many recent chunks are kept for error messages.
// Zero disables the history.
func WithHistory(chunks int) Option {
	return func(o *options) { o.historyChunks = chunks }
}

// WithPeerName names the peer in logs and errors.
func WithPeerName(name string) Option {
	return func(o *options) { o.peer = name }
}

// WithEnv appends environment variables for spawned processes.
func WithEnv(env ...string) Option {
	return func(o *options) { o.env = append(o.env, env...) }
}

// WithDir sets the working directory of spawned processes.
func WithDir(dir string) Option {
	return func(o *options) { o.dir = dir }
}

// WithTermSize sets the terminal size used by SpawnPTY and by SpawnSSH
// when a pseudo-terminal is requested.
func WithTermSize(cols, rows int) Option {
	return func(o *options) {
		if cols > 0 && rows > 0 {
			o.cols, o.rows = cols, rows
		}
	}
}

// WithPTY makes SpawnSSH request a pseudo-terminal for the remote side.
func WithPTY(on bool) Option {
	return func(o *options) { o.requestPTY = on }
}
