package browser

import (
	"errors"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeContext struct {
	err    error
	closed int
}

func (c *fakeContext) Close(...playwright.BrowserContextCloseOptions) error {
	c.closed++
	return c.err
}

type fakeDriver struct {
	err     error
	stopped int
}

func (d *fakeDriver) Stop() error {
	d.stopped++
	return d.err
}

func TestNew_Defaults(t *testing.T) {
	b := New(Config{Engine: "firefox"})
	assert.Equal(t, ".profile/firefox", b.cfg.UserDataDir)
	assert.Equal(t, 30*time.Second, b.cfg.Timeout)
	assert.Equal(t, 60*time.Second, b.cfg.NavigateTimeout)
	assert.Nil(t, b.getBrowserArgs())

	b = New(Config{})
	assert.Equal(t, "chromium", b.cfg.Engine)
	assert.Equal(t, []string{"--no-sandbox"}, b.getBrowserArgs())
}

func TestShutdown_StopsDriverWhenContextFails(t *testing.T) {
	bc := &fakeContext{err: errors.New("target closed")}
	pw := &fakeDriver{}

	err := shutdown(bc, pw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target closed")
	assert.Equal(t, 1, bc.closed)
	assert.Equal(t, 1, pw.stopped)
}

func TestShutdown_NothingLaunched(t *testing.T) {
	assert.NoError(t, shutdown(nil, nil))
	assert.NoError(t, New(Config{}).Close())
}

func TestPage_NotLaunched(t *testing.T) {
	_, err := New(Config{}).Page()
	assert.ErrorIs(t, err, ErrNotLaunched)
}
