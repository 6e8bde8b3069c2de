package llm

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type plan struct {
	Goal        string   `json:"goal"`
	Checkpoints []string `json:"checkpoints"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want plan
		ok   bool
	}{
		{name: "чистый JSON", in: `{"goal":"g","checkpoints":["a"]}`, want: plan{Goal: "g", Checkpoints: []string{"a"}}, ok: true},
		{name: "markdown", in: "```json\n{\"goal\":\"g\"}\n```", want: plan{Goal: "g"}, ok: true},
		{name: "текст вокруг", in: "Вот план: {\"goal\":\"g\"} удачи", want: plan{Goal: "g"}, ok: true},
		{name: "не JSON", in: "не знаю", ok: false},
		{name: "пусто", in: "", ok: false},
		{name: "неверный тип", in: `{"goal":42}`, ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DecodeJSON[plan](tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeArgs(t *testing.T) {
	args, raw := decodeArgs(`{"url":"https://example.com"}`)
	assert.Equal(t, map[string]any{"url": "https://example.com"}, args)
	assert.Empty(t, raw)

	args, raw = decodeArgs("")
	assert.Equal(t, map[string]any{}, args)
	assert.Empty(t, raw)

	args, raw = decodeArgs(`{"url":`)
	assert.Nil(t, args)
	assert.Equal(t, `{"url":`, raw)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(&APIError{Vendor: "openai", Status: http.StatusTooManyRequests}))
	assert.True(t, IsTransient(&APIError{Vendor: "openai", Status: http.StatusBadGateway}))
	assert.True(t, IsTransient(&APIError{Vendor: "openai"}))
	assert.False(t, IsTransient(&APIError{Vendor: "openai", Status: http.StatusUnauthorized}))
	assert.False(t, IsTransient(context.Canceled))
	assert.False(t, IsTransient(ErrMissingCredential))
}

func TestRetryAction(t *testing.T) {
	t.Run("повторяет временные ошибки", func(t *testing.T) {
		calls := 0
		retries := 0
		err := retryAction(context.Background(), 3, time.Millisecond, func() error {
			calls++
			if calls < 3 {
				return &APIError{Vendor: "x", Status: http.StatusServiceUnavailable}
			}
			return nil
		}, func(int, error) { retries++ })
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
		assert.Equal(t, 2, retries)
	})

	t.Run("постоянная ошибка сразу", func(t *testing.T) {
		calls := 0
		denied := &APIError{Vendor: "x", Status: http.StatusForbidden}
		err := retryAction(context.Background(), 3, time.Millisecond, func() error {
			calls++
			return denied
		}, nil)
		require.ErrorIs(t, err, denied)
		assert.Equal(t, 1, calls)
	})

	t.Run("исчерпание попыток", func(t *testing.T) {
		err := retryAction(context.Background(), 2, time.Millisecond, func() error {
			return &APIError{Vendor: "x", Status: http.StatusTooManyRequests}
		}, nil)
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Contains(t, err.Error(), "после 2 попыток")
	})
}

func TestNew_MissingCredential(t *testing.T) {
	for _, vendor := range []string{"openai", "anthropic", "gemini"} {
		t.Run(vendor, func(t *testing.T) {
			_, err := New(context.Background(), Config{Provider: vendor})
			require.ErrorIs(t, err, ErrMissingCredential)
		})
	}

	_, err := New(context.Background(), Config{Provider: "llama"})
	require.ErrorIs(t, err, ErrUnknownVendor)
}

func TestRateLimiter_TokenBudget(t *testing.T) {
	rl := NewRateLimiter(2, 100)
	ctx := context.Background()

	require.NoError(t, rl.AllowRequest(ctx))
	require.NoError(t, rl.AllowTokens(ctx, 60))

	requests, tokens := rl.GetStats()
	assert.Equal(t, 1, requests)
	assert.InDelta(t, 40, tokens, 1)

	short, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	require.Error(t, rl.AllowTokens(short, 80), "бюджет пополняется слишком медленно")

	rl.ConsumeTokens(30)
	_, tokens = rl.GetStats()
	assert.InDelta(t, 10, tokens, 1)
}
