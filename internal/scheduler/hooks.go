package scheduler

import (
	"context"
	"fmt"

	"codeberg.org/mutker/powerctl/internal/errors"
)

// Hook names accepted by Hook.
const (
	HookProcessActive   = "process_active"
	HookProcessInactive = "process_inactive"
	HookContextStart    = "context_start"
	HookContextStop     = "context_stop"
	HookPluggedIn       = "plugged_in"
	HookUnplugged       = "unplugged"
)

// Hooks returns the accepted hook names.
func Hooks() []string {
	return []string{
		HookProcessActive, HookProcessInactive,
		HookContextStart, HookContextStop,
		HookPluggedIn, HookUnplugged,
	}
}

// ProcessActive resumes ticks and reloads everything, since the backend may
// have changed while we were suspended.
func (s *Scheduler) ProcessActive(ctx context.Context) error {
	s.Resume()
	return s.FullReload(ctx)
}

// ProcessInactive pauses ticks. It issues no remote calls.
func (s *Scheduler) ProcessInactive(context.Context) error {
	s.Pause()
	return nil
}

// ContextStart asks the backend to load the per-application profile. The
// profile change is picked up by the next tick.
func (s *Scheduler) ContextStart(ctx context.Context, id, name string) error {
	errFactory := errors.New()

	if id == "" {
		return errFactory.WithData(errors.ErrInvalidArgument, "application id is empty")
	}
	if _, err := s.gw.LoadSettings(ctx, id+".json", name); err != nil {
		return errFactory.Wrap(ErrRefreshFailed, err)
	}
	s.log.Info().Str("id", id).Str("name", name).Msg("Loaded application profile")

	return nil
}

func (s *Scheduler) ContextStop(ctx context.Context) error {
	errFactory := errors.New()

	if _, err := s.gw.LoadDefaultSettings(ctx); err != nil {
		return errFactory.Wrap(ErrRefreshFailed, err)
	}
	s.log.Info().Msg("Loaded default profile")

	return nil
}

func (s *Scheduler) PluggedIn(ctx context.Context) error {
	errFactory := errors.New()

	if _, err := s.gw.OnPluggedIn(ctx); err != nil {
		return errFactory.Wrap(ErrRefreshFailed, err)
	}

	return nil
}

func (s *Scheduler) Unplugged(ctx context.Context) error {
	errFactory := errors.New()

	if _, err := s.gw.OnUnplugged(ctx); err != nil {
		return errFactory.Wrap(ErrRefreshFailed, err)
	}

	return nil
}

// Hook runs the lifecycle hook called name. Only context_start takes
// arguments: the application id and an optional display name.
func (s *Scheduler) Hook(ctx context.Context, name string, args ...string) error {
	errFactory := errors.New()

	switch name {
	case HookProcessActive:
		return s.ProcessActive(ctx)
	case HookProcessInactive:
		return s.ProcessInactive(ctx)
	case HookContextStart:
		if len(args) == 0 || len(args) > 2 {
			return errFactory.WithData(errors.ErrInvalidArgument,
				fmt.Sprintf("%s takes an id and an optional name, got %d arguments", name, len(args)))
		}
		display := args[0]
		if len(args) == 2 {
			display = args[1]
		}
		return s.ContextStart(ctx, args[0], display)
	case HookContextStop:
		return s.ContextStop(ctx)
	case HookPluggedIn:
		return s.PluggedIn(ctx)
	case HookUnplugged:
		return s.Unplugged(ctx)
	default:
		return errFactory.WithData(ErrUnknownHook, name)
	}
}
