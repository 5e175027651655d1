package expect

// buffer accumulates peer output in arrival order.  Positions are byte
// offsets; nothing is re-decoded, so consuming a match never splits or
// duplicates bytes.
type buffer struct {
	data []byte
}

func (b *buffer) append(p []byte) { b.data = append(b.data, p...) }

func (b *buffer) Len() int { return len(b.data) }

func (b *buffer) String() string { return string(b.data) }

// consume drops the first n bytes.
func (b *buffer) consume(n int) {
	if n <= 0 {
		return
	}
	if n >= len(b.data) {
		b.data = b.data[:0]
		return
	}
	b.data = append(b.data[:0], b.data[n:]...)
}

// drain empties the buffer and returns what it held.
func (b *buffer) drain() string {
	s := string(b.data)
	b.data = b.data[:0]
	return s
}

// scan tries each pattern against the whole buffer in priority order and
// returns the index of the first one that matches together with its
// submatch positions, or -1.
func (b *buffer) scan(patterns []Pattern) (int, []int) {
	for i, p := range patterns {
		if loc := p.find(b.data); loc != nil {
			return i, loc
		}
	}
	return -1, nil
}
