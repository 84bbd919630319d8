package toolexec

import (
	"context"
	"sync"
)

// Recorder is a Runner that records commands instead of executing them.
// Fn, when set, is called for each command and its error returned.
type Recorder struct {
	mu       sync.Mutex
	Commands []Command
	Fn       func(cmd Command) error
}

// Run records cmd.
func (r *Recorder) Run(_ context.Context, cmd Command) error {
	r.mu.Lock()
	r.Commands = append(r.Commands, cmd)
	fn := r.Fn
	r.mu.Unlock()
	if fn != nil {
		return fn(cmd)
	}
	return nil
}

// Names returns the executable names run so far, in order.
func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.Commands))
	for _, c := range r.Commands {
		out = append(out, c.Name)
	}
	return out
}
