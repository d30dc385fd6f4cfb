package device

import "errors"

// Error kinds surfaced at the device API boundary (spec §7).
var (
	ErrNotSystemDevice = errors.New("device: not the system device")
	ErrInvalidState    = errors.New("device: invalid state")
	ErrInvalidCommand  = errors.New("device: invalid command")
)
