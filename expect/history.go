package expect

import (
	"strings"

	"github.com/eapache/queue"
)

const (
	defaultHistoryChunks = 16
	maxRecentBytes       = 512
)

// history remembers the last few chunks read from the peer so that a
// timeout can show what the peer was actually saying.
type history struct {
	q   *queue.Queue
	max int
}

func newHistory(max int) *history {
	if max <= 0 {
		return nil
	}
	return &history{q: queue.New(), max: max}
}

func (h *history) add(chunk []byte) {
	if h == nil || len(chunk) == 0 {
		return
	}
	h.q.Add(append([]byte(nil), chunk...))
	for h.q.Length() > h.max {
		h.q.Remove()
	}
}

// recent returns the tail of the remembered output in printable form.
func (h *history) recent() string {
	if h == nil || h.q.Length() == 0 {
		return ""
	}
	var raw []byte
	for i := 0; i < h.q.Length(); i++ {
		raw = append(raw, h.q.Get(i).([]byte)...)
	}
	if len(raw) > maxRecentBytes {
		raw = raw[len(raw)-maxRecentBytes:]
	}
	return strings.TrimSpace(Printable(raw))
}
