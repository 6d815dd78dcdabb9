package derive_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/mutker/powerctl/internal/derive"
	"codeberg.org/mutker/powerctl/internal/limits"
	"codeberg.org/mutker/powerctl/internal/mirror"
	"codeberg.org/mutker/powerctl/internal/settings"
)

func TestPerCoreBoundsAggregateScenario(t *testing.T) {
	got := derive.PerCoreBounds(settings.Int(1400), settings.Int(3500), 8)

	require.Len(t, got, 8)
	for i, b := range got {
		require.NotNil(t, b.Min, "core %d", i)
		require.NotNil(t, b.Max, "core %d", i)
		assert.Equal(t, 1400, *b.Min)
		assert.Equal(t, 3500, *b.Max)
	}
}

func TestSyncAggregateClocksIsIdempotent(t *testing.T) {
	s := mirror.New()
	settings.Seed(s, limits.Defaults())
	mirror.Set(s, settings.CPUMinClock, settings.Int(1400))
	mirror.Set(s, settings.CPUMaxClock, settings.Int(3500))

	derive.SyncAggregateClocks(s, 8)
	first := mirror.Must(s, settings.CPUMinMaxClocks)
	derive.SyncAggregateClocks(s, 8)
	second := mirror.Must(s, settings.CPUMinMaxClocks)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second sync changed bounds (-first +second):\n%s", diff)
	}
	assert.Len(t, second, 8)
}

func TestSyncAggregateClocksUnset(t *testing.T) {
	s := mirror.New()
	settings.Seed(s, limits.Defaults())

	derive.SyncAggregateClocks(s, 4)

	assert.Equal(t, make([]settings.MinMax, 4), mirror.Must(s, settings.CPUMinMaxClocks))
}

func TestOnlineStatusScenario(t *testing.T) {
	status := []bool{true, true, true, true, false, false, false, false}

	assert.Equal(t, 4, derive.CountOnline(status))
	assert.False(t, derive.DetectSMT(status, false))
	assert.True(t, derive.DetectSMT(status, true))
}

func TestDetectSMT(t *testing.T) {
	tests := []struct {
		name    string
		status  []bool
		capable bool
		want    bool
	}{
		{"too short", []bool{true, true, true}, true, false},
		{"paired", []bool{true, true, false, false}, true, true},
		{"first pair split", []bool{true, false, true, true}, true, false},
		{"second pair split", []bool{true, true, true, false}, true, false},
		{"alternating", []bool{true, false, true, false, true, false, true, false}, true, false},
		{"not capable", []bool{true, true, true, true}, false, false},
		{"empty", nil, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, derive.DetectSMT(tt.status, tt.capable))
		})
	}
}

func TestSyncOnlineStatusIsIdempotent(t *testing.T) {
	s := mirror.New()
	status := []bool{true, true, true, true, false, false, false, false}

	derive.SyncOnlineStatus(s, status, false)
	derive.SyncOnlineStatus(s, mirror.Must(s, settings.CPUStatusOnline), false)

	assert.Equal(t, status, mirror.Must(s, settings.CPUStatusOnline))
	assert.Equal(t, 4, mirror.Must(s, settings.CPUOnline))
	assert.False(t, mirror.Must(s, settings.CPUSMT))
}

func TestSyncOnlineCountKeepsSMT(t *testing.T) {
	s := mirror.New()
	mirror.Set(s, settings.CPUSMT, true)

	derive.SyncOnlineCount(s, []bool{true, false, true, false})

	assert.Equal(t, 2, mirror.Must(s, settings.CPUOnline))
	assert.True(t, mirror.Must(s, settings.CPUSMT))
}

func TestOnlinePlan(t *testing.T) {
	assert.Equal(t,
		[]bool{true, true, true, false, false, false, false, false},
		derive.OnlinePlan(3, 8, true))
	assert.Equal(t,
		[]bool{true, false, true, false, true, false, false, false},
		derive.OnlinePlan(3, 8, false))
	assert.Equal(t, 8, derive.CountOnline(derive.OnlinePlan(8, 8, true)))
	assert.Equal(t, 4, derive.CountOnline(derive.OnlinePlan(8, 8, false)))
}
