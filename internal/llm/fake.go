package llm

import (
	"context"
	"sync"
)

// Fake is a scripted Client for tests. Each call pops the next reply;
// when the script runs out the last entry repeats. Calls counts every
// invocation, which lets tests assert a stage was never reached.
type Fake struct {
	mu      sync.Mutex
	replies []string
	errs    []error
	calls   int
}

// NewFake returns a fake that replies with the given texts in order.
func NewFake(replies ...string) *Fake {
	return &Fake{replies: replies}
}

// Fail schedules an error for the i-th call (0-based) instead of a reply.
func (f *Fake) Fail(i int, err error) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	for len(f.errs) <= i {
		f.errs = append(f.errs, nil)
	}
	f.errs[i] = err
	return f
}

// Complete returns the scripted reply or error for this call.
func (f *Fake) Complete(_ context.Context, _ Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++

	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if len(f.replies) == 0 {
		return "", nil
	}
	if i >= len(f.replies) {
		i = len(f.replies) - 1
	}
	return f.replies[i], nil
}

// Calls reports how many times Complete was invoked.
func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
