package core

import (
	"errors"
)

var (
	// ErrHostUnavailable is returned by timeline views when the host editor
	// cannot be introspected (no project open, UI not present).
	ErrHostUnavailable = errors.New("host timeline unavailable")
	ErrAssetNotFound   = errors.New("asset not found")
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrUnknownEffect   = errors.New("unknown effect type")
	ErrNotInitialized  = errors.New("system not initialized")
	ErrUnknown         = errors.New("unknown")
)
