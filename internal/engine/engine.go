package engine

import (
	"context"
	"sync"

	"codeberg.org/mutker/powerctl/internal/backend"
	"codeberg.org/mutker/powerctl/internal/errors"
	"codeberg.org/mutker/powerctl/internal/limits"
	"codeberg.org/mutker/powerctl/internal/logger"
	"codeberg.org/mutker/powerctl/internal/mirror"
	"codeberg.org/mutker/powerctl/internal/reducer"
	"codeberg.org/mutker/powerctl/internal/scheduler"
	"codeberg.org/mutker/powerctl/internal/settings"
	"codeberg.org/mutker/powerctl/internal/state"
	"codeberg.org/mutker/powerctl/internal/telemetry"
)

type Engine struct {
	store   *mirror.Store
	gw      *backend.Gateway
	sched   *scheduler.Scheduler
	history telemetry.Collector
	log     logger.Logger

	battery *reducer.Dispatcher[state.Battery]
	cpu     *reducer.Dispatcher[state.CPU]
	gpu     *reducer.Dispatcher[state.GPU]
	general *reducer.Dispatcher[state.General]

	// root is cancelled by Close and bounds every remote call.
	root   context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	started bool
	closed  bool
	wg      sync.WaitGroup
}

// New seeds the mirror with the fallback limits and builds the dispatchers.
// No remote call is made until Start or the first Dispatch.
func New(opts Options) (*Engine, error) {
	errFactory := errors.New()

	if opts.Invoker == nil {
		return nil, errFactory.WithMessage(ErrInvalidConfig, "Engine needs an invoker")
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.History == nil {
		opts.History = telemetry.Noop()
	}
	if opts.Limits.CPU.Count == 0 {
		opts.Limits = limits.Defaults()
	}
	if err := opts.Limits.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}

	inv := opts.Invoker
	if opts.Registerer != nil {
		inv = backend.Instrument(inv, backend.NewMetrics(opts.Registerer))
	}

	store := mirror.New()
	settings.Seed(store, opts.Limits)
	gw := backend.NewGateway(inv)

	sched, err := scheduler.New(store, gw, scheduler.Options{
		Interval: opts.Interval,
		Logger:   opts.Logger.With("scheduler"),
	})
	if err != nil {
		return nil, err
	}

	env := &reducer.Env{
		Store:   store,
		Gateway: gw,
		Log:     opts.Logger.With("reducer"),
		Reload:  sched.FullReload,
	}

	e := &Engine{
		store:   store,
		gw:      gw,
		sched:   sched,
		history: opts.History,
		log:     opts.Logger,
	}
	e.root, e.cancel = context.WithCancel(context.Background())

	if err := e.initDispatchers(env); err != nil {
		e.cancel()
		return nil, errFactory.Wrap(ErrInitFailed, err)
	}
	sched.OnEvent(e.onSchedulerEvent)

	return e, nil
}

func (e *Engine) initDispatchers(env *reducer.Env) error {
	b, err := state.LoadBattery(e.store)
	if err != nil {
		return err
	}
	c, err := state.LoadCPU(e.store)
	if err != nil {
		return err
	}
	g, err := state.LoadGPU(e.store)
	if err != nil {
		return err
	}
	gen, err := state.LoadGeneral(e.store)
	if err != nil {
		return err
	}

	e.battery = reducer.NewDispatcher(env, b, reducer.Battery)
	e.cpu = reducer.NewDispatcher(env, c, reducer.CPU)
	e.gpu = reducer.NewDispatcher(env, g, reducer.GPU)
	e.general = reducer.NewDispatcher(env, gen, reducer.General)

	return nil
}

// Start runs the first full reload and then the periodic refresh loop
// until Close.
func (e *Engine) Start(ctx context.Context) error {
	errFactory := errors.New()

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return errFactory.New(ErrClosed)
	}
	if e.started {
		e.mu.Unlock()
		return errFactory.WithMessage(ErrInvalidState, "Engine already started")
	}
	e.started = true
	e.mu.Unlock()

	ctx, stop := e.bind(ctx)
	defer stop()

	if err := e.sched.FullReload(ctx); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return errFactory.New(ErrClosed)
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		if err := e.sched.Run(e.root); err != nil {
			e.log.Error().Err(err).Msg("Refresh loop stopped")
		}
	}()

	return nil
}

// Reload runs a full reload outside the periodic schedule.
func (e *Engine) Reload(ctx context.Context) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	ctx, stop := e.bind(ctx)
	defer stop()

	return e.sched.FullReload(ctx)
}

// Dispatch routes a to the dispatcher of its domain.
func (e *Engine) Dispatch(ctx context.Context, a reducer.Action) error {
	errFactory := errors.New()

	if err := e.checkOpen(); err != nil {
		return err
	}
	if a == nil {
		return errFactory.WithData(ErrUnhandledAction, "nil action")
	}

	ctx, stop := e.bind(ctx)
	defer stop()

	switch a.Domain() {
	case reducer.DomainBattery:
		return e.battery.Dispatch(ctx, a)
	case reducer.DomainCPU:
		return e.cpu.Dispatch(ctx, a)
	case reducer.DomainGPU:
		return e.gpu.Dispatch(ctx, a)
	case reducer.DomainGeneral:
		return e.general.Dispatch(ctx, a)
	default:
		return errFactory.WithData(ErrUnhandledAction, a.Domain())
	}
}

// Hook runs a lifecycle hook by name.
func (e *Engine) Hook(ctx context.Context, name string, args ...string) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	ctx, stop := e.bind(ctx)
	defer stop()

	if err := e.sched.Hook(ctx, name, args...); err != nil {
		return err
	}
	// Hooks that do not reload may still have changed cached state.
	e.refetch()

	return nil
}

func (e *Engine) Battery() *reducer.Dispatcher[state.Battery] { return e.battery }
func (e *Engine) CPU() *reducer.Dispatcher[state.CPU]         { return e.cpu }
func (e *Engine) GPU() *reducer.Dispatcher[state.GPU]         { return e.gpu }
func (e *Engine) General() *reducer.Dispatcher[state.General] { return e.general }

func (e *Engine) Scheduler() *scheduler.Scheduler { return e.sched }
func (e *Engine) Gateway() *backend.Gateway       { return e.gw }
func (e *Engine) Store() *mirror.Store            { return e.store }

// Close cancels every in-flight call, waits for the refresh loop and stops
// all dispatchers from publishing. It does not close the history
// collector, which belongs to the caller.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	e.cancel()
	e.wg.Wait()

	e.battery.Close()
	e.cpu.Close()
	e.gpu.Close()
	e.general.Close()

	e.log.Debug().Msg("Engine closed")

	return nil
}

func (e *Engine) checkOpen() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return errors.New().New(ErrClosed)
	}

	return nil
}

// bind derives a context that is also cancelled by Close.
func (e *Engine) bind(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(e.root, cancel)

	return ctx, func() {
		stop()
		cancel()
	}
}

func (e *Engine) refetch() {
	e.battery.Refetch()
	e.cpu.Refetch()
	e.gpu.Refetch()
	e.general.Refetch()
}

func (e *Engine) onSchedulerEvent(ev scheduler.Event) {
	e.refetch()

	rec := &telemetry.Record{
		Timestamp:      ev.At,
		Kind:           string(ev.Kind),
		Profile:        ev.Profile,
		ProfileChanged: ev.ProfileChanged,
		Persistent:     ev.Persistent,
		Battery: telemetry.BatteryReadings{
			CurrentNow: ev.CurrentNow,
			ChargeNow:  ev.ChargeNow,
			ChargeFull: ev.ChargeFull,
		},
		Duration: ev.Duration,
	}
	if err := e.history.Record(e.root, rec); err != nil && e.root.Err() == nil {
		e.log.Warn().Err(err).Msg("Failed to record refresh history")
	}
}
