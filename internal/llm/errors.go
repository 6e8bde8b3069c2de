package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

var (
	// ErrMissingCredential - ключ вендора не задан. Ошибка конфигурации, не повторяется.
	ErrMissingCredential = errors.New("не задан ключ API")
	ErrUnknownVendor     = errors.New("неизвестный провайдер")
)

// APIError - ответ вендора с кодом ошибки. Status 0 означает, что ответа не было.
type APIError struct {
	Vendor string
	Status int
	Err    error
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %v", e.Vendor, e.Err)
	}
	return fmt.Sprintf("%s: HTTP %d: %v", e.Vendor, e.Status, e.Err)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Transient - стоит ли повторять запрос.
func (e *APIError) Transient() bool {
	return e.Status == 0 || e.Status == http.StatusTooManyRequests || e.Status >= http.StatusInternalServerError
}

// IsTransient сообщает, что ошибка сетевая, 429 или 5xx.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Transient()
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// retryAction повторяет fn, пока ошибка временная и попытки не исчерпаны.
func retryAction(ctx context.Context, maxRetries int, delay time.Duration, fn func() error, onRetry func(attempt int, err error)) error {
	if maxRetries < 1 {
		maxRetries = 1
	}
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		if i > 0 {
			if onRetry != nil {
				onRetry(i, lastErr)
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !IsTransient(err) {
			return err
		}
	}
	return fmt.Errorf("после %d попыток: %w", maxRetries, lastErr)
}
