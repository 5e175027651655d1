package expect

import (
	"bytes"
	"io"
	"sync"
	"testing"
)

// syncBuffer is a bytes.Buffer safe for use from the bridge goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// newPipeSession returns a session whose peer output is written through
// the returned pipe writer and whose input lands in the returned buffer.
func newPipeSession(t *testing.T, opts ...Option) (*Session, *io.PipeWriter, *syncBuffer) {
	t.Helper()
	pr, pw := io.Pipe()
	sink := &syncBuffer{}
	s, err := New(pr, sink, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		pw.Close()
		s.Close() //nolint:errcheck
	})
	return s, pw, sink
}

// feed writes peer output.  It may run on its own goroutine, so it
// reports with Errorf.
func feed(t *testing.T, w io.Writer, s string) {
	t.Helper()
	if _, err := io.WriteString(w, s); err != nil {
		t.Errorf("feeding %q: %v", s, err)
	}
}
