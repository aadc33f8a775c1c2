package supervisor

import "github.com/nyxwatch/am3/pkg/rotatingfile"

// newRotatingWriter opens the application log with spec.md §6's ~1 MB
// rotation policy; the rotation mechanics live in pkg/rotatingfile, shared
// with internal/ctllog's control-log writer.
func newRotatingWriter(path string, maxBytes int64, maxBackups int) (*rotatingfile.Writer, error) {
	return rotatingfile.New(path, maxBytes, maxBackups)
}
