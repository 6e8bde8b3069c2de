package security

import (
	"context"
	"errors"
	"testing"

	"browserAgent/internal/logger"
	"browserAgent/internal/observe"
	"browserAgent/internal/tools"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type scriptedAsker struct {
	answer    string
	err       error
	questions []string
}

func (a *scriptedAsker) AskUser(_ context.Context, question string) (string, error) {
	a.questions = append(a.questions, question)
	return a.answer, a.err
}

type countingMetrics map[string]int

func (m countingMetrics) ObserveGate(decision string) { m[decision]++ }

var page = &observe.Observation{Elements: []observe.Element{
	{ID: "e1", Tag: "a", Name: "Документация"},
	{ID: "e2", Tag: "button", Role: "button", Name: "Delete account"},
	{ID: "e3", Tag: "input", Type: "password", Placeholder: "Пароль"},
	{ID: "e4", Tag: "button", Text: "Оформить заказ"},
	{ID: "e5", Tag: "input", Type: "text", Name: "Поиск"},
	{ID: "e6", Tag: "button", Text: "Подтвердить"},
}}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		call      tools.Call
		dangerous bool
		hint      string
	}{
		{"goto не проверяется", tools.GotoArgs{URL: "https://shop.example/checkout"}, false, ""},
		{"безопасная ссылка", tools.ClickArgs{ElementID: "e1"}, false, "a  Документация"},
		{"удаление", tools.ClickArgs{ElementID: "e2"}, true, "button button Delete account"},
		{"заказ по-русски", tools.ClickArgs{ElementID: "e4"}, true, "button   Оформить заказ"},
		{"подтверждение", tools.ClickArgs{ElementID: "e6"}, true, "button   Подтвердить"},
		{"ввод пароля", tools.TypeArgs{ElementID: "e3", Text: "secret"}, true, "input"},
		{"клик по полю пароля", tools.ClickArgs{ElementID: "e3"}, false, "input"},
		{"обычное поле", tools.TypeArgs{ElementID: "e5", Text: "кофе"}, false, "input  Поиск"},
		{"элемента нет", tools.ClickArgs{ElementID: "e99"}, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Classify(tt.call, page)
			assert.Equal(t, tt.dangerous, v.Dangerous)
			assert.Equal(t, tt.hint, v.Hint)
			if tt.dangerous {
				assert.NotEmpty(t, v.Reason)
			}
		})
	}
}

func TestClassify_NilObservation(t *testing.T) {
	assert.False(t, Classify(tools.ClickArgs{ElementID: "e1"}, nil).Dangerous)
}

func TestGate_SafeCallDoesNotAsk(t *testing.T) {
	asker := &scriptedAsker{answer: "n"}
	metrics := countingMetrics{}
	gate := NewGate(asker, logger.Wrap(zaptest.NewLogger(t))).WithMetrics(metrics)

	ok, err := gate.Check(context.Background(), tools.ClickArgs{ElementID: "e1"}, page)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, asker.questions)
	assert.Equal(t, 1, metrics["allowed"])
}

func TestGate_DeleteRequiresConfirmation(t *testing.T) {
	tests := []struct {
		answer string
		want   bool
	}{
		{"y", true},
		{" YES ", true},
		{"n", false},
		{"no", false},
		{"", false},
		{"да", false},
	}
	for _, tt := range tests {
		t.Run(tt.answer, func(t *testing.T) {
			asker := &scriptedAsker{answer: tt.answer}
			gate := NewGate(asker, logger.Wrap(zaptest.NewLogger(t)))

			ok, err := gate.Check(context.Background(), tools.ClickArgs{ElementID: "e2"}, page)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			require.Len(t, asker.questions, 1)
			assert.Equal(t, `🔐 Security check: выполнить "browser_click" по "button button Delete account"? (y/n): `, asker.questions[0])
		})
	}
}

func TestGate_AskerError(t *testing.T) {
	gate := NewGate(&scriptedAsker{err: context.Canceled}, nil)

	ok, err := gate.Check(context.Background(), tools.TypeArgs{ElementID: "e3", Text: "x"}, page)
	assert.False(t, ok)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestGate_NoAskerDeclines(t *testing.T) {
	metrics := countingMetrics{}
	gate := NewGate(nil, nil).WithMetrics(metrics)

	ok, err := gate.Check(context.Background(), tools.ClickArgs{ElementID: "e2"}, page)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, metrics["declined"])
}
