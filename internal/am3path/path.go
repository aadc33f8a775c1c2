// Package am3path resolves the on-disk layout rooted at <HOME>/.am3 and the
// small platform-detection helpers (init system, default shell) the rest of
// the module needs before it can touch the filesystem at all.
package am3path

import (
	"fmt"
	"os"
	"path/filepath"
)

// Tree is the resolved set of directories and well-known files rooted at the
// data directory. Every path is absolute.
type Tree struct {
	Root    string // <HOME>/.am3
	Pids    string // <root>/pids
	Logs    string // <root>/logs
	Init    string // <root>/init
	Status  string // <root>/status.json
	Dump    string // <root>/dump.json
	DumpBak string // <root>/dump_bak.json
	CtlLog  string // <root>/am3.log
	InitTxt string // <root>/init/init.txt
}

// Resolve returns the Tree for this invocation. AM3_HOME overrides the
// default <HOME>/.am3 root, mirroring the way services/systemd.go in the
// reference server reads ZMUX_REMUX_TEMPLATE_UNIT_FILE once at startup.
func Resolve() (Tree, error) {
	root := os.Getenv("AM3_HOME")
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Tree{}, fmt.Errorf("resolve home directory: %w", err)
		}
		root = filepath.Join(home, ".am3")
	}
	root = filepath.Clean(root)

	return Tree{
		Root:    root,
		Pids:    filepath.Join(root, "pids"),
		Logs:    filepath.Join(root, "logs"),
		Init:    filepath.Join(root, "init"),
		Status:  filepath.Join(root, "status.json"),
		Dump:    filepath.Join(root, "dump.json"),
		DumpBak: filepath.Join(root, "dump_bak.json"),
		CtlLog:  filepath.Join(root, "am3.log"),
		InitTxt: filepath.Join(root, "init", "init.txt"),
	}, nil
}

// Ensure creates the directory tree (root, pids, logs, init) if missing.
func (t Tree) Ensure() error {
	for _, dir := range []string{t.Root, t.Pids, t.Logs, t.Init} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// PidFilePath returns the path for an application's monitor pid file given
// its slugged name and numeric id: <pids>/<slug>-<id>.pid
func (t Tree) PidFilePath(slug string, id int64) string {
	return filepath.Join(t.Pids, fmt.Sprintf("%s-%d.pid", slug, id))
}

// LogFilePath returns the candidate default log path for an application:
// <logs>/<slug>.log, or <logs>/<slug>-<suffix>.log when suffix > 0.
func (t Tree) LogFilePath(slug string, suffix int) string {
	if suffix <= 0 {
		return filepath.Join(t.Logs, slug+".log")
	}
	return filepath.Join(t.Logs, fmt.Sprintf("%s-%d.log", slug, suffix))
}
