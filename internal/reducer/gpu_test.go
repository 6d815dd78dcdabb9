package reducer_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/mutker/powerctl/internal/backend"
	"codeberg.org/mutker/powerctl/internal/limits"
	"codeberg.org/mutker/powerctl/internal/mirror"
	"codeberg.org/mutker/powerctl/internal/reducer"
	"codeberg.org/mutker/powerctl/internal/settings"
	"codeberg.org/mutker/powerctl/internal/state"
)

func TestPPTToggleAndEdit(t *testing.T) {
	env, auth := newEnv(t, limits.Defaults())
	ctx := context.Background()
	s, err := state.LoadGPU(env.Store)
	require.NoError(t, err)

	got, err := reducer.GPU(ctx, env, s, reducer.SetFastPPT{MilliWatts: 15000000})
	require.NoError(t, err)
	assert.Equal(t, s.Rev(), got.Rev(), "no slow PPT to pair with")

	on, err := reducer.GPU(ctx, env, s, reducer.TogglePPT{On: true})
	require.NoError(t, err)
	assert.Equal(t, settings.Int(29000000), on.FastPPT)
	assert.Equal(t, settings.Int(29000000), on.SlowPPT)
	assert.Empty(t, auth.Calls())

	fast, err := reducer.GPU(ctx, env, on, reducer.SetFastPPT{MilliWatts: 15000000})
	require.NoError(t, err)
	assert.Equal(t, []any{15000000, 29000000}, auth.Calls()[0].Args)
	assert.Equal(t, settings.Int(15000000), fast.FastPPT)
	assert.Equal(t, settings.Int(29000000), fast.SlowPPT)

	slow, err := reducer.GPU(ctx, env, fast, reducer.SetSlowPPT{MilliWatts: 12000000})
	require.NoError(t, err)
	assert.Equal(t, []any{15000000, 12000000}, auth.Calls()[1].Args)
	assert.Equal(t, settings.Int(12000000), slow.SlowPPT)

	off, err := reducer.GPU(ctx, env, slow, reducer.TogglePPT{On: false})
	require.NoError(t, err)
	assert.Nil(t, off.FastPPT)
	assert.Nil(t, off.SlowPPT)
	assert.Equal(t, 1, auth.Count(backend.CallGPUUnsetPPT))
}

func TestPPTClampedToSameValueKeepsRevision(t *testing.T) {
	env, auth := newEnv(t, limits.Defaults())
	ctx := context.Background()
	s, err := state.LoadGPU(env.Store)
	require.NoError(t, err)
	s, err = reducer.GPU(ctx, env, s, reducer.TogglePPT{On: true})
	require.NoError(t, err)

	got, err := reducer.GPU(ctx, env, s, reducer.SetFastPPT{MilliWatts: 40000000})
	require.NoError(t, err)
	assert.Equal(t, 1, auth.Count(backend.CallGPUSetPPT))
	assert.Equal(t, s.Rev(), got.Rev())
	assert.Equal(t, settings.Int(29000000), mirror.Must(env.Store, settings.GPUFastPPT))
}

func TestGPUClocks(t *testing.T) {
	env, auth := newEnv(t, limits.Defaults())
	ctx := context.Background()
	s, err := state.LoadGPU(env.Store)
	require.NoError(t, err)

	s, err = reducer.GPU(ctx, env, s, reducer.ToggleGPUClocks{On: true})
	require.NoError(t, err)
	assert.Equal(t, settings.Int(200), s.MinClock)
	assert.Equal(t, settings.Int(1600), s.MaxClock)

	s, err = reducer.GPU(ctx, env, s, reducer.SetGPUMaxClock{MHz: 1200})
	require.NoError(t, err)
	assert.Equal(t, settings.Int(1200), s.MaxClock)

	s, err = reducer.GPU(ctx, env, s, reducer.SetGPUMinClock{MHz: 100})
	require.NoError(t, err)
	assert.Equal(t, settings.Int(200), s.MinClock, "clamped by the backend")

	s, err = reducer.GPU(ctx, env, s, reducer.ToggleGPUClocks{On: false})
	require.NoError(t, err)
	assert.Nil(t, s.MinClock)
	assert.Nil(t, s.MaxClock)
	assert.Equal(t, []string{
		backend.CallGPUSetClockLimits,
		backend.CallGPUSetClockLimits,
		backend.CallGPUUnsetClockLimits,
	}, auth.Names())
}

func TestSlowMemoryFollowsBackend(t *testing.T) {
	env, auth := newEnv(t, limits.Defaults())
	s, err := state.LoadGPU(env.Store)
	require.NoError(t, err)

	// Defaults are not memory-control capable, so the backend keeps it off.
	got, err := reducer.GPU(context.Background(), env, s, reducer.SetSlowMemory{On: true})
	require.NoError(t, err)
	assert.Equal(t, 1, auth.Count(backend.CallGPUSetSlowMemory))
	assert.Equal(t, s.Rev(), got.Rev())
	assert.False(t, got.SlowMemory)

	l := limits.Defaults()
	l.GPU.MemoryControlCapable = true
	env, _ = newEnv(t, l)
	s, err = state.LoadGPU(env.Store)
	require.NoError(t, err)
	got, err = reducer.GPU(context.Background(), env, s, reducer.SetSlowMemory{On: true})
	require.NoError(t, err)
	assert.True(t, got.SlowMemory)
	assert.Equal(t, s.Rev()+1, got.Rev())
}
