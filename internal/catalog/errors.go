package catalog

import "errors"

// Sentinel error kinds surfaced by the catalog layer (spec.md §7). Wrapped
// with fmt.Errorf("...: %w", err) at call sites and compared with
// errors.Is, matching the teacher's store.ErrNotFound /
// redis.ErrChannelNotFound idiom.
var (
	// ErrCorrupt means the document failed to parse; fatal to the current
	// operation, never auto-repaired.
	ErrCorrupt = errors.New("catalog corrupt")

	// ErrBusy means the exclusive file lock could not be acquired within
	// the configured timeout.
	ErrBusy = errors.New("catalog busy")

	// ErrUnknownID means the id is not present in the catalog.
	ErrUnknownID = errors.New("unknown application id")

	// ErrUnknownUUID means resolve_uuid found no matching record.
	ErrUnknownUUID = errors.New("unknown application uuid")

	// ErrNoDump means dump.json has never been written (CheckDump /
	// Load have nothing to compare against or restore from).
	ErrNoDump = errors.New("no dump.json saved yet")
)
