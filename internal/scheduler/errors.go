package scheduler

import "codeberg.org/mutker/powerctl/internal/errors"

const (
	ErrReloadFailed  = errors.ErrReloadFailed
	ErrRefreshFailed = errors.ErrRefreshFailed
	ErrUnknownHook   = errors.ErrUnknownHook
	ErrInvalidConfig = errors.ErrInvalidConfig
)
