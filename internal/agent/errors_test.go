package agent

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"browserAgent/internal/browser"
	"browserAgent/internal/llm"
	"browserAgent/internal/observe"
	"browserAgent/internal/tools"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, KindNone},
		{"отмена", fmt.Errorf("шаг: %w", context.Canceled), KindCanceled},
		{"таймаут", context.DeadlineExceeded, KindCanceled},
		{"браузер", browser.ErrNotLaunched, KindConfig},
		{"ключ", llm.ErrMissingCredential, KindConfig},
		{"устаревший id", observe.ErrStaleElement, KindStaleReference},
		{"неизвестный id", observe.ErrUnknownElement, KindStaleReference},
		{"действие", &tools.ActionError{Tool: tools.Click, Err: errors.New("detached")}, KindAction},
		{"таймаут перехода", &tools.ActionError{Tool: tools.Goto, Err: fmt.Errorf("переход: %w", context.DeadlineExceeded)}, KindAction},
		{"аргументы", tools.ErrInvalidArguments, KindModelFormat},
		{"инструмент", tools.ErrUnknownTool, KindModelFormat},
		{"вендор", &llm.APIError{Vendor: "openai", Status: 503, Err: errors.New("down")}, KindTransport},
		{"прочее", errors.New("boom"), KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestErrorKindString(t *testing.T) {
	assert.Equal(t, "stale_reference", KindStaleReference.String())
	assert.Equal(t, "transport", KindTransport.String())
	assert.Equal(t, "internal", ErrorKind(100).String())
}
