package script

import (
	"context"
	"errors"
	"fmt"
	"time"

	"goexpect/expect"
	"goexpect/util"
)

// StepResult records what one step observed.
type StepResult struct {
	Step    Step
	Result  expect.Result
	Elapsed time.Duration
	Skipped bool // optional step that timed out
}

// Run executes the steps in order against sess and stops at the first
// step that fails.  ctx is checked between steps.
func (s *Script) Run(ctx context.Context, sess *expect.Session, log *util.Logger) ([]StepResult, error) {
	results := make([]StepResult, 0, len(s.Steps))
	for i, st := range s.Steps {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		if st.patterns == nil {
			if err := st.compile(); err != nil {
				return results, fmt.Errorf("step %d: %w", i+1, err)
			}
		}
		timeout := st.Timeout
		if timeout == 0 {
			timeout = s.Timeout
		}
		if timeout == 0 {
			timeout = sess.Timeout()
		}

		log.Verbose("step %d: %s", i+1, st)
		start := time.Now()
		res, err := runStep(sess, st, timeout)
		sr := StepResult{Step: st, Result: res, Elapsed: time.Since(start)}

		if err != nil && st.Optional && errors.Is(err, expect.ErrTimeout) {
			log.Verbose("step %d: optional, skipped after %v", i+1, timeout)
			sr.Skipped = true
			err = nil
		}
		results = append(results, sr)
		if err != nil {
			return results, fmt.Errorf("step %d (%s): %w", i+1, st, err)
		}
		if res.Success {
			log.Debug("step %d: matched %q in %v", i+1, res.Match, sr.Elapsed)
		}
	}
	return results, nil
}

func runStep(sess *expect.Session, st Step, timeout time.Duration) (expect.Result, error) {
	if st.Send != "" {
		if err := sess.SendString(st.Send); err != nil {
			return expect.Result{Index: -1}, err
		}
	}
	switch {
	case st.EOF:
		return sess.ExpectEOFOrErr(timeout)
	case len(st.patterns) > 0:
		args := make([]any, len(st.patterns))
		for i, p := range st.patterns {
			args[i] = p
		}
		_, err := sess.ExpectOrErr(timeout, args...)
		return sess.Last(), err
	default:
		return expect.Result{Index: -1}, nil
	}
}
