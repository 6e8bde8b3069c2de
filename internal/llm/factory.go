package llm

import (
	"context"
	"fmt"
)

type Config struct {
	Provider  string
	OpenAI    VendorConfig
	Anthropic VendorConfig
	Gemini    VendorConfig
}

// New создает адаптер выбранного вендора. Отсутствие ключа - ErrMissingCredential.
func New(ctx context.Context, cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "", "openai":
		return NewOpenAI(cfg.OpenAI)
	case "anthropic":
		return NewAnthropic(cfg.Anthropic)
	case "gemini":
		return NewGemini(ctx, cfg.Gemini)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownVendor, cfg.Provider)
	}
}
