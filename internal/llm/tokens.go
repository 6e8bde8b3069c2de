package llm

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter оценивает число токенов в тексте.
type TokenCounter interface {
	Count(text string) int
}

// ApproxCounter - грубая оценка: около четырех байт на токен.
type ApproxCounter struct{}

func (ApproxCounter) Count(text string) int {
	return (len(text) + 3) / 4
}

// TiktokenCounter считает токены кодировкой tiktoken. Кодировка загружается
// при первом вызове; если загрузить не удалось, используется ApproxCounter.
type TiktokenCounter struct {
	encoding string
	once     sync.Once
	enc      *tiktoken.Tiktoken
}

func NewTiktokenCounter(encoding string) *TiktokenCounter {
	if encoding == "" {
		encoding = "cl100k_base"
	}
	return &TiktokenCounter{encoding: encoding}
}

func (t *TiktokenCounter) Count(text string) int {
	t.once.Do(func() {
		if enc, err := tiktoken.GetEncoding(t.encoding); err == nil {
			t.enc = enc
		}
	})
	if t.enc == nil {
		return ApproxCounter{}.Count(text)
	}
	return len(t.enc.Encode(text, nil, nil))
}
