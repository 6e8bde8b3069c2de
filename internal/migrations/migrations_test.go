package migrations

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSource_EmbeddedMigrations(t *testing.T) {
	src, err := Source()
	require.NoError(t, err)
	defer src.Close()

	version, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	up, _, err := src.ReadUp(version)
	require.NoError(t, err)
	defer up.Close()
	body, err := io.ReadAll(up)
	require.NoError(t, err)
	for _, table := range []string{"tasks", "agent_steps", "llm_logs"} {
		assert.Contains(t, string(body), "CREATE TABLE IF NOT EXISTS "+table)
	}

	down, _, err := src.ReadDown(version)
	require.NoError(t, err)
	defer down.Close()
}
