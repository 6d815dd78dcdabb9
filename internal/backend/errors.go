package backend

import "codeberg.org/mutker/powerctl/internal/errors"

const (
	// Call errors
	ErrRemoteCall  = errors.ErrRemoteCall
	ErrUnknownCall = errors.ErrUnknownCall
	ErrCallArity   = errors.ErrCallArity
	ErrDecode      = errors.ErrDecodeResult

	// Transport errors
	ErrTransport      = errors.ErrTransport
	ErrRemoteStatus   = errors.ErrRemoteStatus
	ErrInvalidAddress = errors.ErrInvalidBackend
	ErrMismatchedID   = errors.ErrMismatchedID
)
