package device

import "errors"

// ErrNoSource is returned when a reader is called without a source.
var ErrNoSource = errors.New("no platform source configured")
