package health

import "sync/atomic"

// ready gates the readiness probe during graceful shutdown. It starts true and
// is flipped off before the HTTP server begins draining connections.
var ready atomic.Bool

func init() {
	ready.Store(true)
}

// SetReady toggles the readiness gate.
func SetReady(v bool) {
	ready.Store(v)
}

// IsReady reports the current readiness gate state.
func IsReady() bool {
	return ready.Load()
}
