package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RejectsUnknownLevel(t *testing.T) {
	_, err := New("dev", "loud")
	require.Error(t, err)
}

func TestNew_WritesRotatingFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "agent.log")

	log, err := New("prod", "info", Options{File: file})
	require.NoError(t, err)

	log.Info("задача запущена")
	log.Debug("не попадет в файл")
	_ = log.Sync()

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "задача запущена")
	assert.NotContains(t, string(data), "не попадет в файл")
}

func TestNop(t *testing.T) {
	assert.NotNil(t, Nop().Logger)
}
