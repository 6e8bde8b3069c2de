package agent

import (
	"context"
	"errors"
	"net"

	"browserAgent/internal/browser"
	"browserAgent/internal/llm"
	"browserAgent/internal/observe"
	"browserAgent/internal/tools"
)

// ErrorKind - класс ошибки цикла.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	// KindConfig - нет ключа, неизвестный вендор, браузер не запущен. Не повторяется.
	KindConfig
	// KindStaleReference - element_id не из текущего наблюдения. Прерывает задачу.
	KindStaleReference
	// KindAction - сбой браузера при действии. Результат уходит критику.
	KindAction
	// KindModelFormat - модель вызвала неизвестный инструмент или передала неверные аргументы.
	KindModelFormat
	// KindTransport - вендор недоступен или ответил 429/5xx.
	KindTransport
	KindCanceled
	KindInternal
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindConfig:
		return "config"
	case KindStaleReference:
		return "stale_reference"
	case KindAction:
		return "action"
	case KindModelFormat:
		return "model_format"
	case KindTransport:
		return "transport"
	case KindCanceled:
		return "canceled"
	default:
		return "internal"
	}
}

// Classify относит ошибку к одному из классов. ActionError проверяется первой:
// собственный таймаут драйвера (например, перехода) - сбой действия, а не отмена задачи.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	var actionErr *tools.ActionError
	if errors.As(err, &actionErr) {
		return KindAction
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCanceled
	}
	if errors.Is(err, browser.ErrNotLaunched) ||
		errors.Is(err, llm.ErrMissingCredential) ||
		errors.Is(err, llm.ErrUnknownVendor) {
		return KindConfig
	}
	if errors.Is(err, observe.ErrElementReference) {
		return KindStaleReference
	}
	if errors.Is(err, tools.ErrInvalidArguments) || errors.Is(err, tools.ErrUnknownTool) {
		return KindModelFormat
	}
	var apiErr *llm.APIError
	var netErr net.Error
	if errors.As(err, &apiErr) || errors.As(err, &netErr) {
		return KindTransport
	}
	return KindInternal
}
