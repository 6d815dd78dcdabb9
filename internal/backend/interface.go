// Package backend is the typed gateway to the remote settings authority.
//
// The authority is reached through a single primitive: invoke a named
// function with positional arguments and receive a positional result
// tuple. Every name has a fixed arity and result shape; the set of names is
// a closed contract, see calls.go.
package backend

import "context"

// Invoker calls a named remote function. Implementations must honor ctx
// cancellation and must not retry.
type Invoker interface {
	Invoke(ctx context.Context, name string, args []any) ([]any, error)
}

// InvokerFunc adapts a function to the Invoker interface.
type InvokerFunc func(ctx context.Context, name string, args []any) ([]any, error)

// Invoke calls f.
func (f InvokerFunc) Invoke(ctx context.Context, name string, args []any) ([]any, error) {
	return f(ctx, name, args)
}
