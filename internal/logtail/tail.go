package logtail

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Lines returns the last n lines of the file at path, oldest first. A
// missing file yields an empty slice rather than an error, since "no
// application output yet" is a normal state, not a failure.
func Lines(path string, n int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	buf := newRingBuffer(n)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		buf.Append(sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	return buf.Lines(), nil
}

// Follow writes the last n lines of path to out, then keeps writing newly
// appended lines until ctx is canceled, the way `tail -f` behaves. It
// watches path's directory with fsnotify instead of polling — the same
// library internal/bridge/watch uses to notice catalog changes, reused
// here for the CLI's own `log -f`.
func Follow(ctx context.Context, path string, n int, out io.Writer) error {
	initial, err := Lines(path, n)
	if err != nil {
		return err
	}
	for _, line := range initial {
		fmt.Fprintln(out, line)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	f, err := openOrWaitForCreate(ctx, watcher, path)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	defer f.Close()

	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("seek %s: %w", path, err)
	}
	reader := bufio.NewReader(f)

	drain := func() {
		for {
			line, err := reader.ReadString('\n')
			if line != "" {
				fmt.Fprint(out, line)
				if line[len(line)-1] != '\n' {
					fmt.Fprintln(out)
				}
			}
			if err != nil {
				return
			}
		}
	}
	drain()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Name == path && (ev.Op&(fsnotify.Write|fsnotify.Create)) != 0 {
				drain()
			}
		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch error: %w", werr)
		}
	}
}

// openOrWaitForCreate opens path, or, if it does not exist yet, retries on
// every event in its watched directory until it appears or ctx is done.
func openOrWaitForCreate(ctx context.Context, watcher *fsnotify.Watcher, path string) (*os.File, error) {
	for {
		f, err := os.Open(path)
		if err == nil {
			return f, nil
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case _, ok := <-watcher.Events:
			if !ok {
				return nil, fmt.Errorf("open %s: %w", path, err)
			}
		case werr := <-watcher.Errors:
			return nil, fmt.Errorf("watch error: %w", werr)
		}
	}
}
