package tools

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"browserAgent/internal/browser"
	"browserAgent/internal/logger"
	"browserAgent/internal/observe"

	"go.uber.org/zap"
)

// Result - структурированный ответ инструмента, всегда с ключом ok.
type Result map[string]any

// ActionError - сбой браузера при выполнении действия. Ошибки ссылок на элементы
// (observe.ErrElementReference) в него не заворачиваются.
type ActionError struct {
	Tool Name
	Err  error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Tool, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// Env - состояние, в котором исполняется вызов.
type Env struct {
	Page        browser.Page
	Observation *observe.Observation
	Observer    *observe.Observer
}

type Config struct {
	ActionTimeout time.Duration
	TypeDelay     time.Duration
}

type Executor struct {
	cfg Config
	log *logger.Zap
}

func NewExecutor(cfg Config, log *logger.Zap) *Executor {
	if cfg.ActionTimeout == 0 {
		cfg.ActionTimeout = 10 * time.Second
	}
	if cfg.TypeDelay == 0 {
		cfg.TypeDelay = 10 * time.Millisecond
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Executor{cfg: cfg, log: log}
}

// Execute выполняет один вызов. Ссылка на элемент, которого нет в env.Observation
// или наблюдение которого устарело, всегда ошибка.
func (e *Executor) Execute(ctx context.Context, env Env, call Call) (Result, error) {
	if env.Page == nil {
		return nil, browser.ErrNotLaunched
	}
	page := env.Page

	switch c := call.(type) {
	case GotoArgs:
		if err := page.Goto(ctx, c.URL); err != nil {
			return nil, &ActionError{Tool: Goto, Err: err}
		}
		return Result{"ok": true, "url": page.URL()}, nil

	case ObserveArgs:
		if env.Observer == nil {
			return nil, fmt.Errorf("%s: наблюдатель не задан", Observe)
		}
		obs, err := env.Observer.Capture(ctx, page)
		if err != nil {
			return nil, err
		}
		return Result{
			"ok":              true,
			"observation_id":  obs.ID,
			"url":             obs.URL,
			"title":           obs.Title,
			"screenshot_path": obs.ScreenshotPath,
			"elements":        obs.Elements,
		}, nil

	case ClickArgs:
		h, err := env.Observation.Handle(c.ElementID)
		if err != nil {
			return nil, err
		}
		if err := h.Click(e.cfg.ActionTimeout); err != nil {
			return nil, &ActionError{Tool: Click, Err: err}
		}
		return Result{"ok": true, "clicked": c.ElementID}, nil

	case TypeArgs:
		h, err := env.Observation.Handle(c.ElementID)
		if err != nil {
			return nil, err
		}
		if err := e.typeInto(ctx, page, h, c); err != nil {
			return nil, &ActionError{Tool: Type, Err: err}
		}
		return Result{"ok": true, "typed": c.ElementID, "chars": utf8.RuneCountInString(c.Text)}, nil

	case PressArgs:
		if err := page.Press(ctx, c.Key); err != nil {
			return nil, &ActionError{Tool: Press, Err: err}
		}
		return Result{"ok": true, "key": c.Key}, nil

	case ScrollArgs:
		if err := page.Wheel(ctx, 0, c.DeltaY); err != nil {
			return nil, &ActionError{Tool: Scroll, Err: err}
		}
		return Result{"ok": true, "deltaY": c.DeltaY}, nil

	case WaitArgs:
		if err := page.Wait(ctx, time.Duration(c.MS)*time.Millisecond); err != nil {
			return nil, err
		}
		return Result{"ok": true, "ms": c.MS}, nil

	case BackArgs:
		// Неудачный переход назад не ошибка: сообщаем, где остались.
		if err := page.GoBack(ctx); err != nil {
			e.log.Debug("Переход назад не выполнен", zap.Error(err))
		}
		return Result{"ok": true, "url": page.URL()}, nil

	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownTool, call)
	}
}

func (e *Executor) typeInto(ctx context.Context, page browser.Page, h browser.ElementHandle, c TypeArgs) error {
	if err := h.Focus(); err != nil {
		return err
	}
	if c.Clear() {
		if err := page.Press(ctx, "ControlOrMeta+A"); err != nil {
			return err
		}
		if err := page.Press(ctx, "Backspace"); err != nil {
			return err
		}
	}
	return page.Type(ctx, c.Text, e.cfg.TypeDelay)
}
