package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nyxwatch/am3/internal/am3path"
)

// Store is the durable JSON document (spec.md §4.1, L3). It is the only
// component that touches status.json directly; everything else goes
// through Facade (L6).
//
// Concurrency model mirrors internal/repo/store/store.go's split between a
// durable system of record and readers that tolerate a stale view: here the
// durable side is the catalog file itself (no in-memory mirror, since the
// catalog must be read fresh by every independent control-tool invocation),
// and the serialization primitive is an OS-level advisory lock
// (github.com/gofrs/flock) rather than an in-process mutex, because writers
// are independent processes.
type Store struct {
	log         *zap.Logger
	tree        am3path.Tree
	lockTimeout time.Duration
}

// NewStore constructs a Store rooted at tree. lockTimeout bounds how long
// Mutate waits for the advisory lock before returning ErrBusy; zero means
// block indefinitely (spec.md §4.1 explicitly allows this).
func NewStore(log *zap.Logger, tree am3path.Tree, lockTimeout time.Duration) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{log: log.Named("catalog_store"), tree: tree, lockTimeout: lockTimeout}
}

// Load reads the current document without taking the write lock. Returns a
// freshly-initialized document if the file is absent or empty, and
// ErrCorrupt if present but not valid JSON. Because no lock is held, a
// concurrent Mutate may race this read; callers needing a consistent
// snapshot across a read-then-write use Mutate instead.
func (s *Store) Load() (Document, error) {
	data, err := os.ReadFile(s.tree.Status)
	if err != nil {
		if os.IsNotExist(err) {
			boot, berr := am3path.CurrentBootTime()
			if berr != nil {
				return Document{}, fmt.Errorf("read boot time: %w", berr)
			}
			return NewDocument(boot), nil
		}
		return Document{}, fmt.Errorf("read catalog: %w", err)
	}
	if len(data) == 0 {
		boot, berr := am3path.CurrentBootTime()
		if berr != nil {
			return Document{}, fmt.Errorf("read boot time: %w", berr)
		}
		return NewDocument(boot), nil
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	if repaired := s.repairMissingUUIDs(doc); repaired {
		if err := s.writeAtomic(doc); err != nil {
			s.log.Warn("persist repaired uuids failed", zap.Error(err))
		}
	}
	return doc, nil
}

// repairMissingUUIDs fills in a uuid for any legacy app record that predates
// spec.md §3's uuid field, mutating doc in place. load() is the single
// canonical read path (spec.md §9 open question 2), so repairing here means
// every caller — not just the next explicit save — sees a populated uuid.
func (s *Store) repairMissingUUIDs(doc Document) bool {
	var repaired bool
	for id, entry := range doc.Apps {
		if entry.AppConf.UUID == "" {
			entry.AppConf.UUID = uuid.NewString()
			doc.Apps[id] = entry
			repaired = true
		}
	}
	return repaired
}

// Mutate acquires the exclusive advisory lock on the catalog file, reads
// the current document (fresh if absent), passes it to f, and atomically
// writes back whatever f returns. The lock scope covers read+write to
// prevent lost updates across concurrent control invocations (spec.md
// §4.1). If f returns an error, nothing is written and the error is
// propagated unwrapped.
func (s *Store) Mutate(ctx context.Context, f func(Document) (Document, error)) (Document, error) {
	if err := s.tree.Ensure(); err != nil {
		return Document{}, err
	}

	fl := flock.New(s.tree.Status + ".lock")
	locked, err := s.acquire(ctx, fl)
	if err != nil {
		return Document{}, err
	}
	if !locked {
		return Document{}, ErrBusy
	}
	defer func() {
		if uerr := fl.Unlock(); uerr != nil {
			s.log.Warn("release catalog lock failed", zap.Error(uerr))
		}
	}()

	doc, err := s.Load()
	if err != nil {
		return Document{}, err
	}

	newDoc, err := f(doc)
	if err != nil {
		return Document{}, err
	}

	if err := s.writeAtomic(newDoc); err != nil {
		return Document{}, err
	}
	return newDoc, nil
}

// acquire blocks until the lock is held, ctx is done, or (when lockTimeout
// is set) the timeout elapses.
func (s *Store) acquire(ctx context.Context, fl *flock.Flock) (bool, error) {
	if s.lockTimeout <= 0 {
		if err := fl.Lock(); err != nil {
			return false, fmt.Errorf("acquire catalog lock: %w", err)
		}
		return true, nil
	}

	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	const retryInterval = 50 * time.Millisecond
	locked, err := fl.TryLockContext(lockCtx, retryInterval)
	if err != nil {
		return false, fmt.Errorf("acquire catalog lock: %w", err)
	}
	return locked, nil
}

// writeAtomic marshals doc as indented UTF-8 JSON (spec.md §6) and writes
// it via temp-file-then-rename so a crash mid-write never leaves status.json
// truncated or partially written.
func (s *Store) writeAtomic(doc Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	return writeFileAtomic(s.tree.Status, data)
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".am3-tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename temp file into place: %w", err)
	}
	return nil
}

// EnsureInitialized creates the directory tree if missing, and — inside one
// Mutate — performs the boot-reset check: if the persisted
// system_boot_time differs from the current one, every file under pids/ is
// purged (those pids can no longer correspond to live processes, spec.md
// §3 Lifecycle) and the stamp is refreshed.
func (s *Store) EnsureInitialized(ctx context.Context) error {
	if err := s.tree.Ensure(); err != nil {
		return err
	}

	current, err := am3path.CurrentBootTime()
	if err != nil {
		return fmt.Errorf("read current boot time: %w", err)
	}

	_, err = s.Mutate(ctx, func(doc Document) (Document, error) {
		if doc.SystemBootTime == "" {
			doc.SystemBootTime = current
			return doc, nil
		}
		if doc.SystemBootTime != current {
			if err := purgePidFiles(s.tree); err != nil {
				return Document{}, fmt.Errorf("purge stale pid files: %w", err)
			}
			s.log.Info("boot time changed; stale pid files purged",
				zap.String("previous", doc.SystemBootTime), zap.String("current", current))
			doc.SystemBootTime = current
		}
		return doc, nil
	})
	return err
}

func purgePidFiles(tree am3path.Tree) error {
	entries, err := os.ReadDir(tree.Pids)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if err := os.Remove(filepath.Join(tree.Pids, e.Name())); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}
