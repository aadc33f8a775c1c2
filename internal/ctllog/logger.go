// Package ctllog builds the shared structured logger that writes to
// am3.log (spec.md §6: "control tool's own log (size-rotated at ~10 MB)").
// Both cmd/amctl and cmd/am3-monitor processes append to the same file;
// each log line is a self-contained JSON object so interleaved writes from
// independent processes remain parseable line by line.
package ctllog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nyxwatch/am3/pkg/rotatingfile"
)

const (
	maxBytes   = 10 << 20 // ~10 MB, spec.md §6
	maxBackups = 5
)

// New builds a zap.Logger that writes JSON lines to path.
func New(path string) (*zap.Logger, error) {
	w, err := rotatingfile.New(path, maxBytes, maxBackups)
	if err != nil {
		return nil, err
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(w), zap.InfoLevel)
	return zap.New(core), nil
}

// NewDevelopment builds the colored, console-friendly logger cmd/amctl
// attaches to for interactive runs, matching cmd/zmux-server/main.go's
// construction (NewDevelopmentConfig + CapitalColorLevelEncoder,
// stacktrace/caller disabled).
func NewDevelopment() (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.TimeKey = ""
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.DisableStacktrace = true
	cfg.DisableCaller = true
	return cfg.Build()
}
