package common

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLogger_ProductionAddsFileOutput(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Environment = "production"
	cfg.Logging.Output = []string{"stdout"}

	logger := InitLogger(cfg)
	require.NotNil(t, logger)

	path := GetLogFilePath(logger)
	assert.Equal(t, logFileName, filepath.Base(path))
}

func TestGetLogFilePath_NilLogger(t *testing.T) {
	assert.Empty(t, GetLogFilePath(nil))
}
