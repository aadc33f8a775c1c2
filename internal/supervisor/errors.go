package supervisor

import "errors"

// Sentinel error kinds surfaced by the supervision engine (spec.md §7).
// The engine never surfaces these to a human caller directly (it is
// detached); they are logged to the application log and the control log.
var (
	// ErrSpawnFailed means the OS rejected the exec call; the engine does
	// not respawn after this, it exits.
	ErrSpawnFailed = errors.New("spawn failed")
)
