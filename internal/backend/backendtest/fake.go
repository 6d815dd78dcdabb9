// Package backendtest provides in-memory invokers for tests.
package backendtest

import (
	"context"
	"slices"
	"sync"

	"codeberg.org/mutker/powerctl/internal/backend"
	"codeberg.org/mutker/powerctl/internal/errors"
)

// CallHandler answers a single call.
type CallHandler func(ctx context.Context, args []any) ([]any, error)

// Call is a recorded invocation.
type Call struct {
	Name string
	Args []any
}

// Invoker records every call and answers from registered handlers. Calls
// without a handler fail with an unknown-call error.
type Invoker struct {
	mu       sync.Mutex
	handlers map[string]CallHandler
	calls    []Call
}

var _ backend.Invoker = (*Invoker)(nil)

func New() *Invoker {
	return &Invoker{handlers: make(map[string]CallHandler)}
}

// On registers h for name, replacing any previous handler.
func (f *Invoker) On(name string, h CallHandler) *Invoker {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[name] = h

	return f
}

// Return answers name with a fixed result tuple.
func (f *Invoker) Return(name string, result ...any) *Invoker {
	return f.On(name, func(context.Context, []any) ([]any, error) {
		return slices.Clone(result), nil
	})
}

// Fail answers name with err.
func (f *Invoker) Fail(name string, err error) *Invoker {
	return f.On(name, func(context.Context, []any) ([]any, error) {
		return nil, err
	})
}

func (f *Invoker) Invoke(ctx context.Context, name string, args []any) ([]any, error) {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Name: name, Args: slices.Clone(args)})
	h, ok := f.handlers[name]
	f.mu.Unlock()

	if !ok {
		errFactory := errors.New()
		return nil, errFactory.WithData(backend.ErrUnknownCall, name)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return h(ctx, args)
}

// Calls returns a copy of the recorded calls in order.
func (f *Invoker) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()

	return slices.Clone(f.calls)
}

// Names returns the recorded call names in order.
func (f *Invoker) Names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	names := make([]string, len(f.calls))
	for i, c := range f.calls {
		names[i] = c.Name
	}

	return names
}

// Count returns how many times name was called.
func (f *Invoker) Count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, c := range f.calls {
		if c.Name == name {
			n++
		}
	}

	return n
}

// Reset forgets recorded calls but keeps handlers.
func (f *Invoker) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}
