// Package config собирает настройки агента из .env, переменных окружения,
// необязательного YAML-файла и флагов командной строки.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Cfg struct {
	LLM     LLM
	Browser Browser
	Agent   Agent
	Logger  Logger
	Journal Journal
	Metrics Metrics
}

// LLM описывает выбранного вендора и общие лимиты запросов.
type LLM struct {
	Provider          string
	OpenAI            Vendor
	Anthropic         Vendor
	Gemini            Vendor
	MaxTokens         int
	Retries           int
	RetryDelay        time.Duration
	RequestsPerMinute int
	TokensPerHour     int
}

type Vendor struct {
	APIKey  string
	Model   string
	BaseURL string
}

type Browser struct {
	Engine          string
	Headless        bool
	ProfileDir      string
	ScreenshotDir   string
	Display         string
	BrowsersPath    string
	Timeout         time.Duration
	NavigateTimeout time.Duration
	ActionTimeout   time.Duration
}

type Agent struct {
	MaxSteps           int
	ObserveMaxElements int
}

type Logger struct {
	Env   string
	Level string
	File  string
}

// Journal включает аудит-журнал задач. Пустой Driver означает, что журнал выключен.
type Journal struct {
	Driver  string
	DSN     string
	Migrate bool
}

type Metrics struct {
	Addr string
}

// Ключи совпадают с именами переменных окружения в нижнем регистре.
const (
	KeyConfigFile      = "config"
	KeyProvider        = "provider"
	KeyHeadless        = "headless"
	KeyBrowserEngine   = "browser_engine"
	KeyProfileDir      = "profile_dir"
	KeyScreenshotDir   = "screenshot_dir"
	KeyMaxSteps        = "max_steps"
	KeyObserveElements = "observe_max_elements"
	KeyLogLevel        = "log_level"
	KeyMetricsAddr     = "metrics_addr"
	KeyJournalDriver   = "journal_driver"
	KeyJournalDSN      = "journal_dsn"
)

var ErrInvalid = errors.New("некорректная конфигурация")

var defaults = map[string]any{
	KeyProvider:               "openai",
	"openai_model":            "gpt-5",
	"anthropic_model":         "claude-3-5-sonnet-20241022",
	"gemini_model":            "gemini-2.0-flash",
	"llm_max_tokens":          900,
	"llm_retries":             3,
	"llm_retry_delay":         2 * time.Second,
	"llm_requests_per_minute": 60,
	"llm_tokens_per_hour":     90000,
	KeyHeadless:               "false",
	KeyBrowserEngine:          "chromium",
	KeyScreenshotDir:          ".artifacts/screens",
	"browser_timeout":         30 * time.Second,
	"navigate_timeout":        60 * time.Second,
	"action_timeout":          10 * time.Second,
	KeyMaxSteps:               60,
	KeyObserveElements:        80,
	"env":                     "dev",
	KeyLogLevel:               "info",
	"journal_migrations":      "true",
}

// Load читает конфигурацию. v может содержать уже привязанные флаги cobra,
// они имеют приоритет над окружением. Отсутствие ключей API здесь не ошибка:
// их наличие проверяется при создании провайдера.
func Load(v *viper.Viper) (*Cfg, error) {
	_ = godotenv.Load()

	if v == nil {
		v = viper.New()
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if file := v.GetString(KeyConfigFile); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("ошибка чтения файла конфигурации %s: %w", file, err)
		}
	}

	cfg := &Cfg{
		LLM: LLM{
			Provider: strings.ToLower(v.GetString(KeyProvider)),
			OpenAI: Vendor{
				APIKey:  v.GetString("openai_api_key"),
				Model:   v.GetString("openai_model"),
				BaseURL: v.GetString("openai_base_url"),
			},
			Anthropic: Vendor{
				APIKey:  v.GetString("anthropic_api_key"),
				Model:   v.GetString("anthropic_model"),
				BaseURL: v.GetString("anthropic_base_url"),
			},
			Gemini: Vendor{
				APIKey: v.GetString("gemini_api_key"),
				Model:  v.GetString("gemini_model"),
			},
			MaxTokens:         intOr(v, "llm_max_tokens"),
			Retries:           intOr(v, "llm_retries"),
			RetryDelay:        durationOr(v, "llm_retry_delay"),
			RequestsPerMinute: intOr(v, "llm_requests_per_minute"),
			TokensPerHour:     intOr(v, "llm_tokens_per_hour"),
		},
		Browser: Browser{
			Engine:          strings.ToLower(v.GetString(KeyBrowserEngine)),
			Headless:        boolOf(v, KeyHeadless),
			ProfileDir:      v.GetString(KeyProfileDir),
			ScreenshotDir:   v.GetString(KeyScreenshotDir),
			Display:         v.GetString("display"),
			BrowsersPath:    v.GetString("playwright_browsers_path"),
			Timeout:         durationOr(v, "browser_timeout"),
			NavigateTimeout: durationOr(v, "navigate_timeout"),
			ActionTimeout:   durationOr(v, "action_timeout"),
		},
		Agent: Agent{
			MaxSteps:           intOr(v, KeyMaxSteps),
			ObserveMaxElements: intOr(v, KeyObserveElements),
		},
		Logger: Logger{
			Env:   v.GetString("env"),
			Level: v.GetString(KeyLogLevel),
			File:  v.GetString("log_file"),
		},
		Journal: Journal{
			Driver:  strings.ToLower(v.GetString(KeyJournalDriver)),
			DSN:     v.GetString(KeyJournalDSN),
			Migrate: boolOf(v, "journal_migrations"),
		},
		Metrics: Metrics{
			Addr: v.GetString(KeyMetricsAddr),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	// Профиль по умолчанию свой у каждого движка: chromium и firefox несовместимы по формату.
	if cfg.Browser.ProfileDir == "" {
		cfg.Browser.ProfileDir = ".profile/" + cfg.Browser.Engine
	}
	return cfg, nil
}

func (c *Cfg) validate() error {
	switch c.LLM.Provider {
	case "openai", "anthropic", "gemini":
	default:
		return fmt.Errorf("%w: неизвестный провайдер %q", ErrInvalid, c.LLM.Provider)
	}
	switch c.Browser.Engine {
	case "chromium", "firefox":
	default:
		return fmt.Errorf("%w: неизвестный движок браузера %q", ErrInvalid, c.Browser.Engine)
	}
	switch c.Journal.Driver {
	case "", "sqlite", "postgres":
	default:
		return fmt.Errorf("%w: неизвестный драйвер журнала %q", ErrInvalid, c.Journal.Driver)
	}
	if c.Journal.Driver != "" && c.Journal.DSN == "" {
		return fmt.Errorf("%w: для журнала %s нужен JOURNAL_DSN", ErrInvalid, c.Journal.Driver)
	}
	return nil
}

// intOr возвращает значение по умолчанию, если в окружении мусор или неположительное число.
func intOr(v *viper.Viper, key string) int {
	if n := v.GetInt(key); n > 0 {
		return n
	}
	if def, ok := defaults[key].(int); ok {
		return def
	}
	return 0
}

func durationOr(v *viper.Viper, key string) time.Duration {
	if d := v.GetDuration(key); d > 0 {
		return d
	}
	if def, ok := defaults[key].(time.Duration); ok {
		return def
	}
	return 0
}

func boolOf(v *viper.Viper, key string) bool {
	switch strings.ToLower(strings.TrimSpace(v.GetString(key))) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
