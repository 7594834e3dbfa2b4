// Package logging builds the installer's audit log.
package logging

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a JSON logger appending to path, tagged with a fresh run id.
// An empty path yields a no-op logger; the run id is still generated so it
// can be shown to the operator.
func New(path string) (*zap.Logger, string, error) {
	runID := uuid.NewString()
	if path == "" {
		return zap.NewNop(), runID, nil
	}

	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}
	cfg.Sampling = nil
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.InitialFields = map[string]any{"run_id": runID}

	logger, err := cfg.Build()
	if err != nil {
		return nil, "", fmt.Errorf("failed to open audit log %s: %w", path, err)
	}
	return logger, runID, nil
}
