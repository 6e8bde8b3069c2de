package llm

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter ограничивает частоту запросов (RPM) и расход токенов (TPH).
// Оба бюджета - token bucket: при исчерпании вызов ждет пополнения или отмены ctx.
type RateLimiter struct {
	requestsPerMinute int
	tokensPerHour     int

	requests *rate.Limiter
	tokens   *rate.Limiter
}

func NewRateLimiter(requestsPerMinute, tokensPerHour int) *RateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	if tokensPerHour <= 0 {
		tokensPerHour = 90000
	}

	return &RateLimiter{
		requestsPerMinute: requestsPerMinute,
		tokensPerHour:     tokensPerHour,
		requests:          rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/time.Minute.Seconds()), requestsPerMinute),
		tokens:            rate.NewLimiter(rate.Limit(float64(tokensPerHour)/time.Hour.Seconds()), tokensPerHour),
	}
}

// AllowRequest ждет свободный слот запроса.
func (rl *RateLimiter) AllowRequest(ctx context.Context) error {
	if err := rl.requests.Wait(ctx); err != nil {
		return fmt.Errorf("превышен лимит запросов (%d RPM): %w", rl.requestsPerMinute, err)
	}
	return nil
}

// AllowTokens резервирует оценку токенов запроса. Запрос больше всего бюджета
// ограничивается размером бюджета, иначе он не прошел бы никогда.
func (rl *RateLimiter) AllowTokens(ctx context.Context, tokens int) error {
	if tokens <= 0 {
		return nil
	}
	if err := rl.tokens.WaitN(ctx, min(tokens, rl.tokensPerHour)); err != nil {
		return fmt.Errorf("превышен лимит токенов (%d TPH), требуется %d: %w", rl.tokensPerHour, tokens, err)
	}
	return nil
}

// ConsumeTokens списывает токены, которые оказались сверх оценки. Бюджет может уйти в долг.
func (rl *RateLimiter) ConsumeTokens(tokens int) {
	if tokens <= 0 {
		return
	}
	rl.tokens.ReserveN(time.Now(), min(tokens, rl.tokensPerHour))
}

// GetStats возвращает текущий остаток запросов и токенов.
func (rl *RateLimiter) GetStats() (requestsAvailable int, tokensAvailable int) {
	return int(rl.requests.Tokens()), int(rl.tokens.Tokens())
}
