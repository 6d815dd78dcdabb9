package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"codeberg.org/mutker/powerctl/internal/backend"
	"codeberg.org/mutker/powerctl/internal/derive"
	"codeberg.org/mutker/powerctl/internal/errors"
	"codeberg.org/mutker/powerctl/internal/limits"
	"codeberg.org/mutker/powerctl/internal/logger"
	"codeberg.org/mutker/powerctl/internal/mirror"
	"codeberg.org/mutker/powerctl/internal/settings"
)

const DefaultInterval = 5 * time.Second

type Options struct {
	Interval time.Duration
	Logger   logger.Logger
}

type Scheduler struct {
	store    *mirror.Store
	gw       *backend.Gateway
	log      logger.Logger
	interval time.Duration

	// inFlight is held for the whole of any reload or refresh. Ticks use
	// TryLock and are skipped, never queued.
	inFlight sync.Mutex
	paused   atomic.Bool

	mu        sync.RWMutex
	listeners []Listener
}

func New(store *mirror.Store, gw *backend.Gateway, opts Options) (*Scheduler, error) {
	errFactory := errors.New()

	if opts.Interval == 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Interval < 0 {
		return nil, errFactory.WithData(ErrInvalidConfig, "refresh interval must be positive")
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}

	return &Scheduler{
		store:    store,
		gw:       gw,
		log:      opts.Logger,
		interval: opts.Interval,
	}, nil
}

// OnEvent registers l for every completed run.
func (s *Scheduler) OnEvent(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Run ticks at the configured interval until ctx is cancelled. Failed
// ticks are logged; the next tick tries again.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Debug().Dur("interval", s.interval).Msg("Refresh loop started")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.Tick(ctx); err != nil && ctx.Err() == nil {
				s.log.Warn().Err(err).Msg("Periodic refresh failed")
			}
		}
	}
}

// FullReload fetches the limits and then every setting, writes them to the
// mirror and re-derives the dependent fields. It waits for any run in
// flight.
func (s *Scheduler) FullReload(ctx context.Context) error {
	s.inFlight.Lock()
	defer s.inFlight.Unlock()

	start := time.Now()
	ev, err := s.fullReload(ctx)
	if err != nil {
		return err
	}
	ev.At, ev.Duration = start, time.Since(start)
	s.notify(ctx, ev)

	return nil
}

// Tick runs one periodic refresh. It issues no remote calls when a run is
// already in flight or ticks are paused.
func (s *Scheduler) Tick(ctx context.Context) error {
	errFactory := errors.New()

	if s.paused.Load() {
		return nil
	}
	if !s.inFlight.TryLock() {
		s.log.Debug().Msg("Refresh skipped, run in flight")
		return nil
	}
	defer s.inFlight.Unlock()

	start := time.Now()
	name, err := s.gw.SettingsName(ctx)
	if err != nil {
		return errFactory.Wrap(ErrRefreshFailed, err)
	}

	if prev := mirror.Must(s.store, settings.GeneralName); name != prev {
		s.log.Info().Str("from", prev).Str("to", name).Msg("Profile changed, reloading")
		mirror.Set(s.store, settings.GeneralName, name)

		ev, err := s.fullReload(ctx)
		if err != nil {
			// The next tick must see the change again.
			mirror.Set(s.store, settings.GeneralName, prev)
			return err
		}
		ev.At, ev.Duration, ev.ProfileChanged = start, time.Since(start), true
		s.notify(ctx, ev)

		return nil
	}

	hot, err := s.fetchHot(ctx)
	if err != nil {
		return errFactory.Wrap(ErrRefreshFailed, err)
	}
	hot.write(s.store)

	s.notify(ctx, Event{
		Kind:       EventRefresh,
		At:         start,
		Duration:   time.Since(start),
		Profile:    name,
		Persistent: hot.persistent,
		CurrentNow: hot.currentNow,
		ChargeNow:  hot.chargeNow,
		ChargeFull: hot.chargeFull,
	})

	return nil
}

// Pause stops ticks from issuing calls until Resume.
func (s *Scheduler) Pause() {
	s.paused.Store(true)
}

func (s *Scheduler) Resume() {
	s.paused.Store(false)
}

func (s *Scheduler) Paused() bool {
	return s.paused.Load()
}

func (s *Scheduler) notify(ctx context.Context, ev Event) {
	if ctx.Err() != nil {
		return
	}

	s.mu.RLock()
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.RUnlock()

	for _, l := range listeners {
		l(ev)
	}
}

type hotFields struct {
	currentNow float64
	chargeNow  float64
	chargeFull float64
	persistent bool
}

func (s *Scheduler) fetchHot(ctx context.Context) (hotFields, error) {
	var h hotFields
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { h.currentNow, err = s.gw.BatteryCurrentNow(gctx); return err })
	g.Go(func() (err error) { h.chargeNow, err = s.gw.BatteryChargeNow(gctx); return err })
	g.Go(func() (err error) { h.chargeFull, err = s.gw.BatteryChargeFull(gctx); return err })
	g.Go(func() (err error) { h.persistent, err = s.gw.Persistent(gctx); return err })

	return h, g.Wait()
}

func (h hotFields) write(store *mirror.Store) {
	mirror.Set(store, settings.BatteryCurrentNow, h.currentNow)
	mirror.Set(store, settings.BatteryChargeNow, h.chargeNow)
	mirror.Set(store, settings.BatteryChargeFull, h.chargeFull)
	mirror.Set(store, settings.GeneralPersistent, h.persistent)
}

// snapshot is everything a full reload fetches. Nothing is written to the
// mirror until every call succeeded.
type snapshot struct {
	hot hotFields

	limits       limits.Limits
	chargeDesign float64
	chargePower  float64
	chargeRate   *int
	chargeMode   *string
	chargeLimit  *float64

	status    []bool
	minClock  *int
	maxClock  *int
	governors []string

	fastPPT    *int
	slowPPT    *int
	gpuMin     *int
	gpuMax     *int
	slowMemory bool

	name     string
	path     string
	version  string
	messages []settings.Message
}

func (s *Scheduler) fullReload(ctx context.Context) (Event, error) {
	errFactory := errors.New()
	gw := s.gw

	var snap snapshot
	l, err := gw.Limits(ctx)
	if err != nil {
		return Event{}, errFactory.Wrap(ErrReloadFailed, err)
	}
	if err := l.Validate(); err != nil {
		return Event{}, errFactory.Wrap(ErrReloadFailed, err)
	}
	snap.limits = l

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { snap.hot, err = s.fetchHot(gctx); return err })
	g.Go(func() (err error) { snap.chargeDesign, err = gw.BatteryChargeDesign(gctx); return err })
	g.Go(func() (err error) { snap.chargePower, err = gw.BatteryChargePower(gctx); return err })
	g.Go(func() (err error) { snap.chargeRate, err = gw.BatteryChargeRate(gctx); return err })
	g.Go(func() (err error) { snap.chargeMode, err = gw.BatteryChargeMode(gctx); return err })
	g.Go(func() (err error) { snap.chargeLimit, err = gw.BatteryChargeLimit(gctx); return err })
	g.Go(func() (err error) { snap.status, err = gw.CPUOnlines(gctx); return err })
	g.Go(func() (err error) { snap.minClock, snap.maxClock, err = gw.CPUClockLimits(gctx, 0); return err })
	g.Go(func() (err error) { snap.governors, err = gw.CPUGovernors(gctx); return err })
	g.Go(func() (err error) { snap.fastPPT, snap.slowPPT, err = gw.GPUPPT(gctx); return err })
	g.Go(func() (err error) { snap.gpuMin, snap.gpuMax, err = gw.GPUClockLimits(gctx); return err })
	g.Go(func() (err error) { snap.slowMemory, err = gw.GPUSlowMemory(gctx); return err })
	g.Go(func() (err error) { snap.name, err = gw.SettingsName(gctx); return err })
	g.Go(func() (err error) { snap.path, err = gw.SettingsPath(gctx); return err })
	g.Go(func() (err error) { snap.version, err = gw.Info(gctx); return err })
	g.Go(func() (err error) { snap.messages, err = gw.Messages(gctx, nil); return err })
	if err := g.Wait(); err != nil {
		return Event{}, errFactory.Wrap(ErrReloadFailed, err)
	}

	snap.write(s.store)
	s.log.Debug().
		Str("profile", snap.name).
		Int("cores", l.CPU.Count).
		Int("online", derive.CountOnline(snap.status)).
		Msg("Full reload complete")

	return Event{
		Kind:       EventFullReload,
		Profile:    snap.name,
		Persistent: snap.hot.persistent,
		CurrentNow: snap.hot.currentNow,
		ChargeNow:  snap.hot.chargeNow,
		ChargeFull: snap.hot.chargeFull,
	}, nil
}

func (snap *snapshot) write(store *mirror.Store) {
	mirror.Set(store, settings.LimitsAll, snap.limits)
	snap.hot.write(store)

	mirror.Set(store, settings.BatteryChargeDesign, snap.chargeDesign)
	mirror.Set(store, settings.BatteryChargePower, snap.chargePower)
	mirror.Set(store, settings.BatteryChargeRate, snap.chargeRate)
	mirror.Set(store, settings.BatteryChargeMode, snap.chargeMode)
	mirror.Set(store, settings.BatteryChargeLimit, snap.chargeLimit)

	mirror.Set(store, settings.CPUMinClock, snap.minClock)
	mirror.Set(store, settings.CPUMaxClock, snap.maxClock)
	mirror.Set(store, settings.CPUGovernor, snap.governors)

	mirror.Set(store, settings.GPUFastPPT, snap.fastPPT)
	mirror.Set(store, settings.GPUSlowPPT, snap.slowPPT)
	mirror.Set(store, settings.GPUMinClock, snap.gpuMin)
	mirror.Set(store, settings.GPUMaxClock, snap.gpuMax)
	mirror.Set(store, settings.GPUSlowMemory, snap.slowMemory)

	mirror.Set(store, settings.GeneralName, snap.name)
	mirror.Set(store, settings.GeneralPath, snap.path)
	mirror.Set(store, settings.VInfo, snap.version)
	mirror.Set(store, settings.Messages, snap.messages)

	derive.SyncOnlineStatus(store, snap.status, snap.limits.CPU.SMTCapable)
	derive.SyncAggregateClocks(store, snap.limits.CPU.Count)
}
