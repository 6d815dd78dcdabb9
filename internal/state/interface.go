// Package state builds immutable per-domain snapshots out of the value
// mirror. A snapshot's Revision is its change signal: two snapshots with
// the same revision are the same state.
package state

import "codeberg.org/mutker/powerctl/internal/mirror"

// Snapshot is implemented by every domain snapshot. Next rebuilds the
// snapshot from the mirror with the following revision, carrying any
// UI-local fields over. Stamp returns a copy carrying rev.
type Snapshot[S any] interface {
	Rev() uint64
	Next(store *mirror.Store) S
	Stamp(rev uint64) S
}
