package capability

import (
	"context"

	"goexpect/expect"
	"goexpect/script"
	"goexpect/util"
)

// Script plays a conversation script against the session.
type Script struct {
	Script *script.Script
	Logger *util.Logger

	// Results holds the outcome of every step attempted by the last
	// Handle call.
	Results []script.StepResult
}

// Handle runs the script and returns the first step failure.
func (c *Script) Handle(ctx context.Context, sess *expect.Session) error {
	results, err := c.Script.Run(ctx, sess, c.Logger)
	c.Results = results
	if err != nil {
		return err
	}
	c.Logger.Verbose("script finished: %d steps", len(results))
	return nil
}
