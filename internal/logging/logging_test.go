package logging

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWithoutPathIsNop(t *testing.T) {
	logger, runID, err := New("")
	require.NoError(t, err)
	require.NotNil(t, logger)

	_, err = uuid.Parse(runID)
	assert.NoError(t, err)

	logger.Info("discarded")
}

func TestNewWritesJSONWithRunID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")

	logger, runID, err := New(path)
	require.NoError(t, err)

	logger.Info("command finished", zap.String("command", "systemctl"))
	_ = logger.Sync()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	require.True(t, scanner.Scan())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
	assert.Equal(t, runID, entry["run_id"])
	assert.Equal(t, "systemctl", entry["command"])
	assert.Equal(t, "command finished", entry["msg"])
	assert.Contains(t, entry, "time")
}

func TestNewRunIDsDiffer(t *testing.T) {
	_, a, err := New("")
	require.NoError(t, err)
	_, b, err := New("")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestNewBadPath(t *testing.T) {
	_, _, err := New(filepath.Join(t.TempDir(), "missing", "audit.log"))
	assert.Error(t, err)
}
