// Package rotatingfile implements a minimal writer-side size-rotation
// policy: rotate when a file exceeds a configured size, keep a bounded
// number of rotated generations. Both the supervision engine's
// application-log writer (spec.md §6, ~1 MB) and the control tool's own
// am3.log (spec.md §6, ~10 MB, mirroring src/am3/cmdline.py's
// `logger.add(am3_log_path, rotation="10 MB")`) share this implementation
// rather than each hand-rolling their own. No third-party log-rotation
// library appears anywhere in the retrieval pack, so this stays on the
// standard library (see DESIGN.md).
package rotatingfile

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Writer is an io.Writer (via Write) and a line-oriented WriteLine helper,
// safe for concurrent use.
type Writer struct {
	mu         sync.Mutex
	path       string
	maxBytes   int64
	maxBackups int
	f          *os.File
	size       int64
}

// New opens (creating if necessary) path for appending, rotating
// immediately if it is already over maxBytes.
func New(path string, maxBytes int64, maxBackups int) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create directory for %s: %w", path, err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	var size int64
	if fi, err := f.Stat(); err == nil {
		size = fi.Size()
	}
	w := &Writer{path: path, maxBytes: maxBytes, maxBackups: maxBackups, f: f, size: size}
	if size > maxBytes {
		if err := w.rotate(); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// Write implements io.Writer, rotating first if p would push the file past
// maxBytes.
func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.size+int64(len(p)) > w.maxBytes {
		if err := w.rotate(); err != nil {
			return 0, err
		}
	}
	n, err := w.f.Write(p)
	w.size += int64(n)
	return n, err
}

// WriteLine appends line plus a trailing newline.
func (w *Writer) WriteLine(line string) error {
	_, err := w.Write([]byte(line + "\n"))
	return err
}

// rotate closes the current file, shifts path.1..path.N-1 to path.2..path.N
// (dropping anything past maxBackups), renames path to path.1, and reopens
// path fresh. Caller must hold w.mu.
func (w *Writer) rotate() error {
	if err := w.f.Close(); err != nil {
		return fmt.Errorf("close before rotate: %w", err)
	}

	for i := w.maxBackups - 1; i >= 1; i-- {
		old := fmt.Sprintf("%s.%d", w.path, i)
		next := fmt.Sprintf("%s.%d", w.path, i+1)
		if _, err := os.Stat(old); err == nil {
			_ = os.Rename(old, next)
		}
	}
	if _, err := os.Stat(w.path); err == nil {
		if err := os.Rename(w.path, w.path+".1"); err != nil {
			return fmt.Errorf("rotate %s: %w", w.path, err)
		}
	}

	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("reopen %s after rotate: %w", w.path, err)
	}
	w.f = f
	w.size = 0
	return nil
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.Close()
}
