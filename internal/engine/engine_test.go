package engine_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"codeberg.org/mutker/powerctl/internal/backend"
	"codeberg.org/mutker/powerctl/internal/backend/backendtest"
	"codeberg.org/mutker/powerctl/internal/engine"
	"codeberg.org/mutker/powerctl/internal/errors"
	"codeberg.org/mutker/powerctl/internal/limits"
	"codeberg.org/mutker/powerctl/internal/reducer"
	"codeberg.org/mutker/powerctl/internal/scheduler"
	"codeberg.org/mutker/powerctl/internal/state"
	"codeberg.org/mutker/powerctl/internal/telemetry"
)

type memoryHistory struct {
	mu   sync.Mutex
	recs []telemetry.Record
}

func (h *memoryHistory) Record(_ context.Context, rec *telemetry.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.recs = append(h.recs, *rec)
	return nil
}

func (h *memoryHistory) Recent(context.Context, int) ([]telemetry.Record, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]telemetry.Record(nil), h.recs...), nil
}

func (*memoryHistory) Close() error { return nil }

func (h *memoryHistory) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.recs)
}

func newEngine(t *testing.T, opts engine.Options) (*engine.Engine, *backendtest.Authority) {
	t.Helper()

	auth := backendtest.NewAuthority(limits.Defaults())
	opts.Invoker = auth
	if opts.Interval == 0 {
		opts.Interval = time.Hour
	}
	e, err := engine.New(opts)
	require.NoError(t, err)

	return e, auth
}

func TestNewRequiresInvoker(t *testing.T) {
	_, err := engine.New(engine.Options{})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, engine.ErrInvalidConfig))
}

func TestNewRejectsInvalidLimits(t *testing.T) {
	l := limits.Defaults()
	l.GPU.FastPPTLimits = &limits.Range{Min: 10, Max: 1}

	_, err := engine.New(engine.Options{Invoker: backendtest.New(), Limits: l})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, engine.ErrInvalidConfig))
}

func TestSnapshotsAvailableBeforeStart(t *testing.T) {
	e, auth := newEngine(t, engine.Options{})
	defer e.Close()

	assert.Equal(t, 8, e.CPU().Snapshot().TotalCores)
	assert.Equal(t, "Default", e.General().Snapshot().Name)
	assert.Empty(t, auth.Calls())
}

func TestStartReloadsAndPublishes(t *testing.T) {
	defer goleak.VerifyNone(t)

	history := &memoryHistory{}
	e, auth := newEngine(t, engine.Options{History: history})
	auth.Update(func(s *backendtest.State) {
		s.Name = "Battery saver"
		s.Persistent = true
	})

	var got []state.General
	unsubscribe := e.General().Subscribe(func(g state.General) { got = append(got, g) })
	defer unsubscribe()

	require.NoError(t, e.Start(context.Background()))
	require.NoError(t, e.Close())

	require.NotEmpty(t, got)
	last := got[len(got)-1]
	assert.Equal(t, "Battery saver", last.Name)
	assert.True(t, last.Persistent)
	assert.Equal(t, 1, history.Len())

	recs, _ := history.Recent(context.Background(), 1)
	assert.Equal(t, string(scheduler.EventFullReload), recs[0].Kind)
	assert.Equal(t, "Battery saver", recs[0].Profile)
}

func TestStartTwice(t *testing.T) {
	defer goleak.VerifyNone(t)

	e, _ := newEngine(t, engine.Options{})
	require.NoError(t, e.Start(context.Background()))
	err := e.Start(context.Background())
	assert.True(t, errors.HasCode(err, engine.ErrInvalidState))
	require.NoError(t, e.Close())
}

func TestPeriodicRefreshRecordsHistory(t *testing.T) {
	defer goleak.VerifyNone(t)

	history := &memoryHistory{}
	e, auth := newEngine(t, engine.Options{History: history, Interval: 5 * time.Millisecond})
	require.NoError(t, e.Start(context.Background()))

	auth.Update(func(s *backendtest.State) { s.ChargeNow = 33 })
	require.Eventually(t, func() bool {
		return e.Battery().Snapshot().ChargeNow == 33
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, e.Close())
	assert.GreaterOrEqual(t, history.Len(), 2)
}

func TestDispatchRoutesByDomain(t *testing.T) {
	e, auth := newEngine(t, engine.Options{})
	defer e.Close()
	ctx := context.Background()

	require.NoError(t, e.Dispatch(ctx, reducer.SetPersistent{On: true}))
	require.NoError(t, e.Dispatch(ctx, reducer.SetGovernor{Governor: "powersave"}))
	require.NoError(t, e.Dispatch(ctx, reducer.TogglePPT{On: true}))

	assert.True(t, e.General().Snapshot().Persistent)
	assert.Equal(t, "powersave", e.CPU().Snapshot().CoreGovernor())
	assert.NotNil(t, e.GPU().Snapshot().FastPPT)
	assert.Equal(t, 1, auth.Count(backend.CallGeneralSetPersistent))
	assert.Equal(t, 1, auth.Count(backend.CallCPUSetGovernor))
}

func TestLoadSystemDefaultsReloads(t *testing.T) {
	e, auth := newEngine(t, engine.Options{})
	defer e.Close()

	require.NoError(t, e.Dispatch(context.Background(), reducer.LoadSystemDefaults{}))

	assert.Equal(t, 1, auth.Count(backend.CallGeneralGetLimits))
	assert.Equal(t, "System", e.General().Snapshot().Name)
}

func TestHookRefetches(t *testing.T) {
	e, auth := newEngine(t, engine.Options{})
	defer e.Close()

	require.NoError(t, e.Hook(context.Background(), scheduler.HookProcessActive))
	assert.Equal(t, 1, auth.Count(backend.CallGeneralGetLimits))

	err := e.Hook(context.Background(), "bogus")
	assert.True(t, errors.HasCode(err, scheduler.ErrUnknownHook))
}

func TestCloseCancelsInFlightCalls(t *testing.T) {
	defer goleak.VerifyNone(t)

	e, auth := newEngine(t, engine.Options{})
	started := make(chan struct{})
	auth.On(backend.CallGeneralSetPersistent, func(ctx context.Context, _ []any) ([]any, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	})

	done := make(chan error, 1)
	go func() { done <- e.Dispatch(context.Background(), reducer.SetPersistent{On: true}) }()
	<-started

	require.NoError(t, e.Close())
	err := <-done
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))

	err = e.Dispatch(context.Background(), reducer.SetPersistent{On: true})
	assert.True(t, errors.HasCode(err, engine.ErrClosed))
	assert.NoError(t, e.Close(), "closing twice is fine")
}

func TestRemoteCallMetrics(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	e, _ := newEngine(t, engine.Options{Registerer: reg})
	defer e.Close()

	require.NoError(t, e.Dispatch(context.Background(), reducer.SetPersistent{On: true}))

	n, err := testutil.GatherAndCount(reg, "powerctl_remote_calls_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
