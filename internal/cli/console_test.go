package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"browserAgent/internal/logger"
	"browserAgent/internal/observe"
	"browserAgent/internal/security"
	"browserAgent/internal/tools"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestConsole_RunUntilExit(t *testing.T) {
	var out bytes.Buffer
	c := NewPlainConsole(strings.NewReader("первая задача\n  вторая  \nexit\nне дойдет\n"), &out)

	var got []string
	err := c.Run(context.Background(), func(ctx context.Context, line string) {
		got = append(got, line)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"первая задача", "вторая"}, got)
	assert.Contains(t, out.String(), TaskPrompt)
	assert.Contains(t, out.String(), "До свидания")
}

func TestConsole_EndsOnEmptyLineAndEOF(t *testing.T) {
	for _, input := range []string{"\n", "", "QUIT\n", "последняя без перевода строки"} {
		c := NewPlainConsole(strings.NewReader(input), io.Discard)
		calls := 0
		err := c.Run(context.Background(), func(ctx context.Context, line string) { calls++ })
		require.NoError(t, err, input)
		if input == "последняя без перевода строки" {
			assert.Equal(t, 1, calls)
		} else {
			assert.Zero(t, calls, input)
		}
	}
}

func TestConsole_AskUser(t *testing.T) {
	var out bytes.Buffer
	c := NewPlainConsole(strings.NewReader(" Y \n"), &out)

	answer, err := c.AskUser(context.Background(), "продолжить? (y/n): ")
	require.NoError(t, err)
	assert.Equal(t, "Y", answer)
	assert.Equal(t, "продолжить? (y/n): ", out.String())
}

func TestConsole_AskUserCanceled(t *testing.T) {
	r, w := io.Pipe()
	c := NewPlainConsole(r, io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.AskUser(ctx, "? ")
	assert.ErrorIs(t, err, context.Canceled)

	// Прерванное чтение отдает строку следующему вызову.
	go func() {
		_, _ = io.WriteString(w, "y\n")
	}()
	answer, err := c.AskUser(context.Background(), "? ")
	require.NoError(t, err)
	assert.Equal(t, "y", answer)
	require.NoError(t, w.Close())
}

func TestConsole_AskUserClosedInputDeclines(t *testing.T) {
	var out bytes.Buffer
	c := NewPlainConsole(strings.NewReader(""), &out)

	answer, err := c.AskUser(context.Background(), "? ")
	require.NoError(t, err)
	assert.Empty(t, answer)

	obs := &observe.Observation{Elements: []observe.Element{
		{ID: "e1", Tag: "button", Role: "button", Name: "Delete account"},
	}}
	gate := security.NewGate(c, logger.Wrap(zaptest.NewLogger(t)))
	allowed, err := gate.Check(context.Background(), tools.ClickArgs{ElementID: "e1"}, obs)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Contains(t, out.String(), "Delete account")
}
