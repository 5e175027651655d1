package expect

import "goexpect/internal/metrics"

// Outcome classifies how a wait ended.
type Outcome int

const (
	Matched Outcome = iota
	Timeout
	EOF
	IOFailure
)

func (o Outcome) String() string {
	switch o {
	case Matched:
		return "matched"
	case Timeout:
		return "timeout"
	case EOF:
		return "eof"
	case IOFailure:
		return "io-failure"
	default:
		return "unknown"
	}
}

func (o Outcome) metric() metrics.Outcome {
	switch o {
	case Matched:
		return metrics.Matched
	case Timeout:
		return metrics.TimedOut
	case EOF:
		return metrics.EndOfStream
	default:
		return metrics.Failed
	}
}

// Integer result codes, as returned by [Result.Code].  A successful match
// reports the zero-based pattern index instead.
const (
	CodeTimeout = -1
	CodeEOF     = -2
	CodeIOError = -9
)

// Result describes the outcome of one wait call.
type Result struct {
	Outcome Outcome

	// Index is the zero-based index of the matching pattern, or -1.
	Index int

	// Before holds the buffered output that preceded the match.  For a
	// successful ExpectEOF it holds everything that was buffered.
	Before string

	// Match is the matched text; Groups holds the full match followed by
	// every capture group (empty for groups that did not participate).
	Match  string
	Groups []string

	// Success is true for a match, or for end-of-stream reached by
	// ExpectEOF.
	Success bool

	// Err is the captured failure when Outcome is IOFailure.
	Err error
}

// Code returns the pattern index for a match and one of the negative
// Code constants otherwise.
func (r Result) Code() int {
	switch r.Outcome {
	case Matched:
		return r.Index
	case Timeout:
		return CodeTimeout
	case EOF:
		return CodeEOF
	default:
		return CodeIOError
	}
}

// cleared is the state of Last before any wait has finished.
func cleared() Result {
	return Result{Outcome: Timeout, Index: -1}
}

func matchedResult(idx int, data []byte, loc []int) Result {
	groups := make([]string, len(loc)/2)
	for i := range groups {
		if loc[2*i] >= 0 {
			groups[i] = string(data[loc[2*i]:loc[2*i+1]])
		}
	}
	return Result{
		Outcome: Matched,
		Index:   idx,
		Before:  string(data[:loc[0]]),
		Match:   groups[0],
		Groups:  groups,
		Success: true,
	}
}
