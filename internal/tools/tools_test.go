package tools

import (
	"context"
	"errors"
	"testing"

	"browserAgent/internal/browser/fakebrowser"
	"browserAgent/internal/llm"
	"browserAgent/internal/logger"
	"browserAgent/internal/observe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestDefinitions(t *testing.T) {
	defs := Definitions()
	require.Len(t, defs, 8)

	names := make([]string, 0, len(defs))
	for _, d := range defs {
		names = append(names, d.Name)
		assert.NotEmpty(t, d.Description, d.Name)
		assert.Equal(t, "object", d.Parameters["type"], d.Name)
		assert.Contains(t, d.Parameters, "properties", d.Name)
		assert.NotContains(t, d.Parameters, "$schema", d.Name)
		assert.NotContains(t, d.Parameters, "$id", d.Name)
	}
	assert.Equal(t, []string{
		"browser_goto", "browser_observe", "browser_click", "browser_type",
		"browser_press", "browser_scroll", "browser_wait", "browser_back",
	}, names)

	assert.Equal(t, []any{"element_id", "text"}, defs[3].Parameters["required"])
	assert.Equal(t, []any{"url"}, defs[0].Parameters["required"])
	assert.Equal(t, []any{}, defs[1].Parameters["required"])

	defs[0].Name = "mutated"
	assert.Equal(t, "browser_goto", Definitions()[0].Name, "Definitions отдает копию")
}

func TestParse(t *testing.T) {
	no := false
	tests := []struct {
		name    string
		call    llm.ToolCall
		want    Call
		wantErr error
	}{
		{
			name: "goto",
			call: llm.ToolCall{Name: "browser_goto", Args: map[string]any{"url": "https://example.com"}},
			want: GotoArgs{URL: "https://example.com"},
		},
		{
			name: "observe без аргументов",
			call: llm.ToolCall{Name: "browser_observe", Args: map[string]any{}},
			want: ObserveArgs{},
		},
		{
			name: "type с clear_first",
			call: llm.ToolCall{Name: "browser_type", Args: map[string]any{"element_id": "e2", "text": "кофе", "clear_first": false}},
			want: TypeArgs{ElementID: "e2", Text: "кофе", ClearFirst: &no},
		},
		{
			name: "scroll с целым числом",
			call: llm.ToolCall{Name: "browser_scroll", Args: map[string]any{"deltaY": 400}},
			want: ScrollArgs{DeltaY: 400},
		},
		{
			name: "лишние поля допускаются",
			call: llm.ToolCall{Name: "browser_click", Args: map[string]any{"element_id": "e1", "reasoning": "кнопка"}},
			want: ClickArgs{ElementID: "e1"},
		},
		{
			name:    "неизвестный инструмент",
			call:    llm.ToolCall{Name: "browser_hover", Args: map[string]any{}},
			wantErr: ErrUnknownTool,
		},
		{
			name:    "аргументы не JSON",
			call:    llm.ToolCall{Name: "browser_click", RawArgs: `{"element_id":`},
			wantErr: ErrInvalidArguments,
		},
		{
			name:    "нет обязательного поля",
			call:    llm.ToolCall{Name: "browser_goto", Args: map[string]any{}},
			wantErr: ErrInvalidArguments,
		},
		{
			name:    "неверный тип",
			call:    llm.ToolCall{Name: "browser_wait", Args: map[string]any{"ms": "долго"}},
			wantErr: ErrInvalidArguments,
		},
		{
			name:    "отрицательная пауза",
			call:    llm.ToolCall{Name: "browser_wait", Args: map[string]any{"ms": -5}},
			wantErr: ErrInvalidArguments,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.call)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTypeArgs_ClearDefault(t *testing.T) {
	yes, no := true, false
	assert.True(t, TypeArgs{}.Clear())
	assert.True(t, TypeArgs{ClearFirst: &yes}.Clear())
	assert.False(t, TypeArgs{ClearFirst: &no}.Clear())
}

type fixture struct {
	page     *fakebrowser.Page
	observer *observe.Observer
	exec     *Executor
	obs      *observe.Observation
}

func newFixture(t *testing.T, elements ...*fakebrowser.Element) *fixture {
	t.Helper()
	page := fakebrowser.NewPage(elements...)
	observer := observe.NewObserver(observe.Options{ScreenshotDir: t.TempDir()})
	obs, err := observer.Capture(context.Background(), page)
	require.NoError(t, err)
	return &fixture{
		page:     page,
		observer: observer,
		exec:     NewExecutor(Config{}, logger.Wrap(zaptest.NewLogger(t))),
		obs:      obs,
	}
}

func (f *fixture) run(t *testing.T, call Call) (Result, error) {
	t.Helper()
	return f.exec.Execute(context.Background(), Env{Page: f.page, Observation: f.obs, Observer: f.observer}, call)
}

func TestExecute_Goto(t *testing.T) {
	f := newFixture(t)
	res, err := f.run(t, GotoArgs{URL: "https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, Result{"ok": true, "url": "https://example.com/"}, res)
}

func TestExecute_ClickAndType(t *testing.T) {
	f := newFixture(t,
		fakebrowser.Visible("input", "Поиск", 10, 10, 200, 30),
		fakebrowser.Visible("button", "Найти", 220, 10, 80, 30),
	)

	res, err := f.run(t, TypeArgs{ElementID: "e1", Text: "кофе"})
	require.NoError(t, err)
	assert.Equal(t, Result{"ok": true, "typed": "e1", "chars": 4}, res)

	res, err = f.run(t, ClickArgs{ElementID: "e2"})
	require.NoError(t, err)
	assert.Equal(t, Result{"ok": true, "clicked": "e2"}, res)

	assert.Equal(t, []string{
		"focus:Поиск", "press:ControlOrMeta+A", "press:Backspace", "type:кофе", "click:Найти",
	}, f.page.Actions())
}

func TestExecute_TypeWithoutClear(t *testing.T) {
	f := newFixture(t, fakebrowser.Visible("input", "Email", 10, 10, 200, 30))
	no := false

	_, err := f.run(t, TypeArgs{ElementID: "e1", Text: "a@b.c", ClearFirst: &no})
	require.NoError(t, err)
	assert.Equal(t, []string{"focus:Email", "type:a@b.c"}, f.page.Actions())
}

func TestExecute_UnknownElement(t *testing.T) {
	f := newFixture(t, fakebrowser.Visible("button", "OK", 10, 10, 80, 30))

	_, err := f.run(t, ClickArgs{ElementID: "e9"})
	require.ErrorIs(t, err, observe.ErrUnknownElement)
	var actionErr *ActionError
	assert.False(t, errors.As(err, &actionErr))
	assert.Empty(t, f.page.Actions())
}

func TestExecute_StaleElement(t *testing.T) {
	f := newFixture(t, fakebrowser.Visible("button", "OK", 10, 10, 80, 30))
	_, err := f.observer.Capture(context.Background(), f.page)
	require.NoError(t, err)

	_, err = f.run(t, ClickArgs{ElementID: "e1"})
	assert.ErrorIs(t, err, observe.ErrStaleElement)
	assert.Empty(t, f.page.Actions())
}

func TestExecute_ClickFailureIsActionError(t *testing.T) {
	el := fakebrowser.Visible("button", "OK", 10, 10, 80, 30)
	el.ClickErr = errors.New("element is detached")
	f := newFixture(t, el)

	_, err := f.run(t, ClickArgs{ElementID: "e1"})
	var actionErr *ActionError
	require.ErrorAs(t, err, &actionErr)
	assert.Equal(t, Click, actionErr.Tool)
}

func TestExecute_BackSwallowsError(t *testing.T) {
	f := newFixture(t)
	f.page.BackErr = errors.New("no history")

	res, err := f.run(t, BackArgs{})
	require.NoError(t, err)
	assert.Equal(t, Result{"ok": true, "url": "about:blank"}, res)
}

func TestExecute_SimpleActions(t *testing.T) {
	f := newFixture(t)

	res, err := f.run(t, PressArgs{Key: "Enter"})
	require.NoError(t, err)
	assert.Equal(t, Result{"ok": true, "key": "Enter"}, res)

	res, err = f.run(t, ScrollArgs{DeltaY: 600})
	require.NoError(t, err)
	assert.Equal(t, Result{"ok": true, "deltaY": 600.0}, res)

	res, err = f.run(t, WaitArgs{MS: 250})
	require.NoError(t, err)
	assert.Equal(t, Result{"ok": true, "ms": 250}, res)

	assert.Equal(t, []string{"press:Enter", "wheel:0,600", "wait:250ms"}, f.page.Actions())
}

func TestExecute_Observe(t *testing.T) {
	f := newFixture(t, fakebrowser.Visible("a", "Docs", 10, 10, 50, 20))
	f.page.SetTitle("Example")

	res, err := f.run(t, ObserveArgs{})
	require.NoError(t, err)
	assert.Equal(t, true, res["ok"])
	assert.Equal(t, "Example", res["title"])
	elements, ok := res["elements"].([]observe.Element)
	require.True(t, ok)
	require.Len(t, elements, 1)
	assert.Equal(t, "e1", elements[0].ID)
	assert.True(t, f.obs.Expired(), "observe закрывает предыдущее наблюдение")
}

func TestExecute_NoPage(t *testing.T) {
	exec := NewExecutor(Config{}, nil)
	_, err := exec.Execute(context.Background(), Env{}, BackArgs{})
	assert.Error(t, err)
}
