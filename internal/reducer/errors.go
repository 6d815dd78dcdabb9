package reducer

import "codeberg.org/mutker/powerctl/internal/errors"

const (
	ErrUnhandledAction = errors.ErrUnhandledAction
	ErrInvalidArgument = errors.ErrInvalidArgument
	ErrClosed          = errors.ErrEngineClosed
)
