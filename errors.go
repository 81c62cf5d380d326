package cpupool

import "errors"

// Sentinel errors for the invalid-argument, resource-exhaustion, and
// backend-failure kinds described in the package's error handling design.
// Consistency violations (double free, bitmap/free-list mismatch, a leak
// detected at destroy time) are treated as programming bugs and panic
// rather than returning an error — see bitmap.go and pool.go.
var (
	ErrInvalidArgument = errors.New("cpupool: invalid argument")
	ErrOutOfMemory     = errors.New("cpupool: out of memory")
	ErrDirectoryFull   = errors.New("cpupool: pool directory full")
	ErrPoolNotFound    = errors.New("cpupool: pool not allocated")
	ErrSlotBusy        = errors.New("cpupool: size class already registered")
	ErrNotSupported    = errors.New("cpupool: operation not supported on this platform")
)
