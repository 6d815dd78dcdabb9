package engine

import "codeberg.org/mutker/powerctl/internal/errors"

const (
	ErrClosed          = errors.ErrEngineClosed
	ErrInvalidConfig   = errors.ErrInvalidConfig
	ErrUnhandledAction = errors.ErrUnhandledAction
	ErrInitFailed      = errors.ErrInitFailed
	ErrInvalidState    = errors.ErrInvalidOperation
)
