package errors

import "errors"

var (
	ErrEngineNotReady    = errors.New("engine server is not ready")
	ErrEngineUnavailable = errors.New("engine returned no usable response")
	ErrBadVertex         = errors.New("invalid engine vertex")
	ErrHostCall          = errors.New("host call failed")
	ErrGTPCommand        = errors.New("gtp command failed")
	ErrGTPClosed         = errors.New("gtp process closed")
	ErrUnauthorized      = errors.New("unauthorized")
)
