package fakebrowser

import (
	"context"
	"testing"

	"browserAgent/internal/browser"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDriver_PageBeforeLaunch(t *testing.T) {
	d := New(NewPage())

	_, err := d.Page()
	require.ErrorIs(t, err, browser.ErrNotLaunched)

	require.NoError(t, d.Launch(context.Background()))
	_, err = d.Page()
	require.NoError(t, err)
}

func TestPage_GotoRouteAndBack(t *testing.T) {
	p := NewPage()
	p.Routes["https://example.com"] = Route{
		Title:    "Example Domain",
		Elements: []*Element{Visible("a", "More information", 10, 10, 100, 20)},
	}
	ctx := context.Background()

	require.NoError(t, p.Goto(ctx, "https://example.com"))
	assert.Equal(t, "https://example.com/", p.URL())
	title, _ := p.Title(ctx)
	assert.Equal(t, "Example Domain", title)

	handles, err := p.QueryAll(ctx, browser.InteractiveSelector)
	require.NoError(t, err)
	require.Len(t, handles, 1)
	require.NoError(t, handles[0].Click(0))

	require.NoError(t, p.GoBack(ctx))
	assert.Equal(t, "about:blank", p.URL())
	assert.Equal(t, []string{"goto:https://example.com", "click:More information", "back"}, p.Actions())
}
