package notification

import (
	"context"
	"errors"
	"sync"
)

// Call records one Send on a Recorder.
type Call struct {
	To  string
	Msg Message
}

// Recorder is a Dispatcher test double. It records every call and fails the
// addresses listed in FailFor.
type Recorder struct {
	mu      sync.Mutex
	calls   []Call
	FailFor map[string]error
}

func NewRecorder() *Recorder {
	return &Recorder{FailFor: map[string]error{}}
}

// Fail makes every later send to addr return err (or a generic error).
func (r *Recorder) Fail(addr string, err error) {
	if err == nil {
		err = errors.New("delivery rejected")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.FailFor[addr] = err
}

func (r *Recorder) Send(_ context.Context, to string, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{To: to, Msg: msg})
	if err, ok := r.FailFor[to]; ok {
		return err
	}
	return nil
}

// Calls returns a copy of the recorded calls.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// Reset forgets recorded calls.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}
