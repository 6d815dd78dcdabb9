// Package derive recomputes denormalized settings from their sources. All
// functions are pure over their inputs and idempotent; callers re-run them
// after every write to a source field.
package derive

import (
	"codeberg.org/mutker/powerctl/internal/mirror"
	"codeberg.org/mutker/powerctl/internal/settings"
)

// PerCoreBounds returns count copies of the aggregate bound.
func PerCoreBounds(minMHz, maxMHz *int, count int) []settings.MinMax {
	if count < 0 {
		count = 0
	}
	out := make([]settings.MinMax, count)
	for i := range out {
		out[i] = settings.MinMax{Min: minMHz, Max: maxMHz}
	}

	return out
}

// SyncAggregateClocks rewrites the per-core bounds from the aggregate
// min/max clock settings.
func SyncAggregateClocks(s *mirror.Store, count int) {
	minMHz := mirror.Must(s, settings.CPUMinClock)
	maxMHz := mirror.Must(s, settings.CPUMaxClock)
	mirror.Set(s, settings.CPUMinMaxClocks, PerCoreBounds(minMHz, maxMHz, count))
}

// CountOnline counts the online cores in a status vector.
func CountOnline(status []bool) int {
	n := 0
	for _, online := range status {
		if online {
			n++
		}
	}

	return n
}

// DetectSMT guesses whether SMT is active from the status vector: cores 0/1
// and 2/3 must share their status, and the device must support SMT at all.
// The pairing is a topology heuristic and can misclassify other layouts.
func DetectSMT(status []bool, capable bool) bool {
	return len(status) > 3 &&
		status[0] == status[1] &&
		status[2] == status[3] &&
		capable
}

// SyncOnlineStatus stores the status vector together with the online count
// and SMT flag derived from it.
func SyncOnlineStatus(s *mirror.Store, status []bool, capable bool) {
	mirror.Set(s, settings.CPUStatusOnline, status)
	mirror.Set(s, settings.CPUOnline, CountOnline(status))
	mirror.Set(s, settings.CPUSMT, DetectSMT(status, capable))
}

// SyncOnlineCount stores the status vector and recounts online cores,
// leaving the SMT flag as the backend reported it.
func SyncOnlineCount(s *mirror.Store, status []bool) {
	mirror.Set(s, settings.CPUStatusOnline, status)
	mirror.Set(s, settings.CPUOnline, CountOnline(status))
}

// OnlinePlan returns the online vector for n requested cores. With SMT the
// first n logical cores are used; without it every even core up to 2n.
func OnlinePlan(n, total int, smt bool) []bool {
	out := make([]bool, total)
	for i := range out {
		if smt {
			out[i] = i < n
		} else {
			out[i] = i%2 == 0 && i < n*2
		}
	}

	return out
}
