package reducer

import (
	"context"
	"maps"
	"slices"
	"sync"

	"codeberg.org/mutker/powerctl/internal/errors"
	"codeberg.org/mutker/powerctl/internal/mirror"
	"codeberg.org/mutker/powerctl/internal/state"
)

// Dispatcher owns one domain's current snapshot. Dispatches are serialized
// per domain; subscribers hear about a snapshot only when its revision
// changed. Subscribers run synchronously and must not dispatch from within
// the callback.
type Dispatcher[S state.Snapshot[S]] struct {
	env    *Env
	reduce Func[S]

	dispatchMu sync.Mutex
	publishMu  sync.Mutex

	mu      sync.RWMutex
	current S
	subs    map[int]func(S)
	nextSub int
	closed  bool
}

func NewDispatcher[S state.Snapshot[S]](env *Env, initial S, reduce Func[S]) *Dispatcher[S] {
	return &Dispatcher[S]{
		env:     env,
		reduce:  reduce,
		current: initial,
		subs:    make(map[int]func(S)),
	}
}

// Snapshot returns the current snapshot.
func (d *Dispatcher[S]) Snapshot() S {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.current
}

// Subscribe registers fn for every published snapshot and returns a
// function that removes it.
func (d *Dispatcher[S]) Subscribe(fn func(S)) func() {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := d.nextSub
	d.nextSub++
	d.subs[id] = fn

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.subs, id)
	}
}

// Dispatch runs the reducer on the current snapshot and publishes the
// result if it changed. Remote errors are returned as-is; the mirror keeps
// whatever was written before the failing call.
func (d *Dispatcher[S]) Dispatch(ctx context.Context, a Action) error {
	d.dispatchMu.Lock()
	defer d.dispatchMu.Unlock()

	if d.isClosed() {
		return errors.New().New(ErrClosed)
	}

	prev := d.Snapshot()
	next, err := d.reduce(ctx, d.env, prev, a)
	if err != nil {
		return err
	}
	if next.Rev() == prev.Rev() {
		return nil
	}
	d.publish(func(S) S { return next })

	return nil
}

// Refetch rebuilds the snapshot from the mirror after a write that did not
// go through Dispatch.
func (d *Dispatcher[S]) Refetch() {
	d.publish(func(cur S) S { return cur.Next(d.store()) })
}

// Close stops publishing. In-flight dispatches complete but their result
// is dropped.
func (d *Dispatcher[S]) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true
	clear(d.subs)
}

func (d *Dispatcher[S]) store() *mirror.Store {
	return d.env.Store
}

func (d *Dispatcher[S]) isClosed() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.closed
}

// publish installs build(current) and notifies subscribers in subscription
// order. The
// published revision always moves forward, even when a refetch landed
// while a dispatch was in flight.
func (d *Dispatcher[S]) publish(build func(cur S) S) {
	d.publishMu.Lock()
	defer d.publishMu.Unlock()

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	next := build(d.current)
	if next.Rev() <= d.current.Rev() {
		next = next.Stamp(d.current.Rev() + 1)
	}
	d.current = next
	subs := make([]func(S), 0, len(d.subs))
	for _, id := range slices.Sorted(maps.Keys(d.subs)) {
		subs = append(subs, d.subs[id])
	}
	d.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
}
