package catalog

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/nyxwatch/am3/internal/am3path"
	"github.com/nyxwatch/am3/internal/proctree"
)

// Facade is the catalog façade (L6): CRUD over catalog entries, id
// allocation, dedupe by start path, default log-path collision handling,
// and pid-file-backed liveness. The control front end (L8, external) and
// the bridge go through it for every catalog operation except the initial
// Store.EnsureInitialized (amctl) and Store.Load of the api block (bridge).
type Facade struct {
	log   *zap.Logger
	store *Store
	tree  am3path.Tree

	sf singleflight.Group // coalesces concurrent List() calls, per
	// internal/service/channel_summary.go's SummaryService pattern
}

func NewFacade(log *zap.Logger, store *Store, tree am3path.Tree) *Facade {
	if log == nil {
		log = zap.NewNop()
	}
	return &Facade{log: log.Named("catalog_facade"), store: store, tree: tree}
}

// AppStatus is one row of list() output.
type AppStatus struct {
	ID      int64
	Name    string
	UUID    string
	Running bool
}

// List returns every application with its running flag computed as: pid
// file exists ∧ contents parse as an integer ∧ that pid is live in the OS
// (spec.md §4.2). Concurrent List() calls within this process are
// coalesced via singleflight, since a catalog read is pure I/O with no
// side effects worth duplicating.
func (f *Facade) List() ([]AppStatus, error) {
	v, err, _ := f.sf.Do("list", func() (any, error) {
		doc, err := f.store.Load()
		if err != nil {
			return nil, err
		}
		ids := sortedIDs(doc.Apps)
		out := make([]AppStatus, 0, len(ids))
		for _, id := range ids {
			entry := doc.Apps[id]
			out = append(out, AppStatus{
				ID:      id,
				Name:    entry.AppConf.Name,
				UUID:    entry.AppConf.UUID,
				Running: f.isRunning(entry.AppConf.AppPidFile),
			})
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]AppStatus), nil
}

func (f *Facade) isRunning(pidFile string) bool {
	_, ok := f.LivePid(pidFile)
	return ok
}

// LivePid reads pidFile and reports the pid it names if that pid is live,
// the same check List uses per entry, exposed for callers (internal/apprun) that
// need to act on a single application's liveness rather than list all of
// them.
func (f *Facade) LivePid(pidFile string) (int, bool) {
	if pidFile == "" {
		return 0, false
	}
	data, err := os.ReadFile(pidFile)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, false
	}
	if !proctree.PidLive(int32(pid)) {
		return 0, false
	}
	return pid, true
}

// CreateOrUpdate fills in defaults and, inside one Mutate, either updates
// the record whose start matches cfg.Start in place (returning its id) or
// allocates a new one as max(ids)+1, -1 if empty (spec.md §4.2, §8).
func (f *Facade) CreateOrUpdate(ctx context.Context, cfg ApplicationConfig) (int64, error) {
	var assignedID int64

	_, err := f.store.Mutate(ctx, func(doc Document) (Document, error) {
		for id, entry := range doc.Apps {
			if entry.AppConf.Start == cfg.Start {
				merged := cfg
				merged.UUID = entry.AppConf.UUID // uuid is invariant under update (spec.md §8)
				if merged.AppLogPath == "" {
					merged.AppLogPath = entry.AppConf.AppLogPath
				}
				if merged.AppPidFile == "" {
					merged.AppPidFile = entry.AppConf.AppPidFile
				}
				f.applyDefaults(&merged, id, doc.Apps)
				doc.Apps[id] = AppEntry{AppConf: merged}
				assignedID = id
				return doc, nil
			}
		}

		id := nextID(doc.Apps)
		f.applyDefaults(&cfg, id, doc.Apps)
		doc.Apps[id] = AppEntry{AppConf: cfg}
		assignedID = id
		return doc, nil
	})
	if err != nil {
		return 0, err
	}
	return assignedID, nil
}

// PreviewDefaults applies the same defaulting CreateOrUpdate would, against
// the id it would allocate if cfg were new, without mutating the catalog or
// spawning anything — the "generate-only mode" behind amctl start
// --generate (spec.md §9 supplemented feature, adapted from
// src/am3/utils/cmd_util.py's config-preview path).
func (f *Facade) PreviewDefaults(cfg ApplicationConfig) (ApplicationConfig, error) {
	doc, err := f.store.Load()
	if err != nil {
		return ApplicationConfig{}, err
	}
	id := nextID(doc.Apps)
	f.applyDefaults(&cfg, id, doc.Apps)
	return cfg, nil
}

// applyDefaults fills whichever of name, working_directory, interpreter,
// app_log_path, app_pid_file, and uuid are still empty (spec.md §4.2). On
// the update path the uuid, log path and pid file have already been carried
// over from the existing record.
func (f *Facade) applyDefaults(cfg *ApplicationConfig, id int64, existing map[int64]AppEntry) {
	if cfg.Name == "" {
		base := filepath.Base(cfg.Start)
		cfg.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if cfg.WorkingDirectory == "" {
		if abs, err := filepath.Abs(filepath.Dir(cfg.Start)); err == nil {
			cfg.WorkingDirectory = abs
		} else {
			cfg.WorkingDirectory = "."
		}
	}
	if cfg.Interpreter == "" {
		cfg.Interpreter = guessInterpreter(cfg.Start)
	}
	if cfg.UUID == "" {
		cfg.UUID = uuid.NewString()
	}

	slug := am3path.Slug(cfg.Name)
	if cfg.AppLogPath == "" {
		cfg.AppLogPath = f.uniqueLogPath(slug, existing)
	}
	if cfg.AppPidFile == "" {
		cfg.AppPidFile = f.tree.PidFilePath(slug, id)
	}
}

// uniqueLogPath implements the log-path collision policy (spec.md §4.2):
// <slug>.log, else <slug>-1.log, <slug>-2.log, ... until no other record
// already uses that path.
func (f *Facade) uniqueLogPath(slug string, existing map[int64]AppEntry) string {
	used := make(map[string]struct{}, len(existing))
	for _, e := range existing {
		if e.AppConf.AppLogPath != "" {
			used[e.AppConf.AppLogPath] = struct{}{}
		}
	}
	for suffix := 0; ; suffix++ {
		candidate := f.tree.LogFilePath(slug, suffix)
		if _, taken := used[candidate]; !taken {
			return candidate
		}
	}
}

// guessInterpreter recovers src/am3/utils/cmd_util.py's guess_interpreter:
// .sh → /bin/bash, .py → the first of python3/python found on PATH,
// extensionless → no interpreter. Spec.md leaves the default unspecified;
// this is the supplemented behavior recorded in SPEC_FULL.md §4.
func guessInterpreter(start string) string {
	switch filepath.Ext(start) {
	case ".sh":
		return "/bin/bash"
	case ".py":
		if path, err := exec.LookPath("python3"); err == nil {
			return path
		}
		if path, err := exec.LookPath("python"); err == nil {
			return path
		}
		return "python3"
	default:
		return ""
	}
}

// Resolve turns a token ("all" or a decimal id) into a list of ids present
// in the catalog (spec.md §4.2).
func (f *Facade) Resolve(token string) ([]int64, error) {
	doc, err := f.store.Load()
	if err != nil {
		return nil, err
	}
	if token == "all" {
		return sortedIDs(doc.Apps), nil
	}
	id, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid id %q: %w", token, err)
	}
	if _, ok := doc.Apps[id]; !ok {
		return nil, fmt.Errorf("id %d: %w", id, ErrUnknownID)
	}
	return []int64{id}, nil
}

// ResolveUUID returns the numeric id for a uuid, or ErrUnknownUUID.
func (f *Facade) ResolveUUID(appUUID string) (int64, error) {
	doc, err := f.store.Load()
	if err != nil {
		return 0, err
	}
	for id, entry := range doc.Apps {
		if entry.AppConf.UUID == appUUID {
			return id, nil
		}
	}
	return 0, ErrUnknownUUID
}

// Get returns the full config for id.
func (f *Facade) Get(id int64) (ApplicationConfig, error) {
	doc, err := f.store.Load()
	if err != nil {
		return ApplicationConfig{}, err
	}
	entry, ok := doc.Apps[id]
	if !ok {
		return ApplicationConfig{}, fmt.Errorf("id %d: %w", id, ErrUnknownID)
	}
	return entry.AppConf, nil
}

// Delete removes id's record. Callers must stop the supervision engine
// first (spec.md §4.2); this call only touches the catalog document.
func (f *Facade) Delete(ctx context.Context, id int64) error {
	_, err := f.store.Mutate(ctx, func(doc Document) (Document, error) {
		if _, ok := doc.Apps[id]; !ok {
			return Document{}, fmt.Errorf("id %d: %w", id, ErrUnknownID)
		}
		delete(doc.Apps, id)
		return doc, nil
	})
	return err
}

// GetAPIBlock returns the catalog's optional remote-bridge configuration.
func (f *Facade) GetAPIBlock() (APIBlock, error) {
	doc, err := f.store.Load()
	if err != nil {
		return APIBlock{}, err
	}
	return doc.API, nil
}

// SetAPIBlock replaces the catalog's remote-bridge configuration (spec.md
// §9 supplemented feature: amctl api init writes this).
func (f *Facade) SetAPIBlock(ctx context.Context, block APIBlock) error {
	_, err := f.store.Mutate(ctx, func(doc Document) (Document, error) {
		doc.API = block
		return doc, nil
	})
	return err
}

func nextID(apps map[int64]AppEntry) int64 {
	max := int64(-1)
	for id := range apps {
		if id > max {
			max = id
		}
	}
	return max + 1
}

func sortedIDs(apps map[int64]AppEntry) []int64 {
	ids := make([]int64, 0, len(apps))
	for id := range apps {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
