package expect

import (
	"os"
	"sync"
)

// Process is the handle of a spawned peer: a local child process or a
// remote SSH command.  It is reaped in the background as soon as it
// exits.
type Process struct {
	pid    int
	kill   func() error
	signal func(os.Signal) error

	done chan struct{}
	mu   sync.Mutex
	err  error
}

// newProcess starts reaping with wait and runs after once wait returns.
func newProcess(pid int, wait func() error, after func()) *Process {
	p := &Process{pid: pid, done: make(chan struct{})}
	go func() {
		err := wait()
		p.mu.Lock()
		p.err = err
		p.mu.Unlock()
		if after != nil {
			after()
		}
		close(p.done)
	}()
	return p
}

// Pid returns the local process id, or 0 for remote commands.
func (p *Process) Pid() int { return p.pid }

// Exited is closed once the process has been reaped.
func (p *Process) Exited() <-chan struct{} { return p.done }

// Wait blocks until the process exits and returns its exit error.
func (p *Process) Wait() error {
	<-p.done
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Kill terminates the process immediately.
func (p *Process) Kill() error {
	if p.kill == nil {
		return ErrNotStarted
	}
	return p.kill()
}

// Signal delivers sig to the process.
func (p *Process) Signal(sig os.Signal) error {
	if p.signal == nil {
		return ErrNotStarted
	}
	return p.signal(sig)
}
