package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/playwright-community/playwright-go"
)

func New(cfg Config) *PlaywrightBrowser {
	if cfg.Engine == "" {
		cfg.Engine = "chromium"
	}
	if cfg.UserDataDir == "" {
		cfg.UserDataDir = ".profile/" + cfg.Engine
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.NavigateTimeout == 0 {
		cfg.NavigateTimeout = 60 * time.Second
	}

	return &PlaywrightBrowser{
		cfg: cfg,
	}
}

func (b *PlaywrightBrowser) getBrowserArgs() []string {
	if b.cfg.Engine == "firefox" {
		return nil
	}
	return []string{
		"--no-sandbox",
	}
}

func (b *PlaywrightBrowser) getEnvMap() map[string]string {
	if b.cfg.Display != "" {
		return map[string]string{
			"DISPLAY": b.cfg.Display,
		}
	}
	return nil
}

func (b *PlaywrightBrowser) browserType(pw *playwright.Playwright) playwright.BrowserType {
	if b.cfg.Engine == "firefox" {
		return pw.Firefox
	}
	return pw.Chromium
}

// Launch поднимает persistent-контекст в UserDataDir: куки и логины переживают перезапуск.
// Размер окна не фиксируется, страница занимает все окно.
func (b *PlaywrightBrowser) Launch(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, dir := range []string{b.cfg.UserDataDir, b.cfg.ScreenshotDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("ошибка создания каталога %s: %w", dir, err)
		}
	}
	if b.cfg.BrowsersPath != "" {
		if err := os.Setenv("PLAYWRIGHT_BROWSERS_PATH", b.cfg.BrowsersPath); err != nil {
			return err
		}
	}

	pw, err := playwright.Run()
	if err != nil {
		return fmt.Errorf("ошибка запуска playwright: %w", err)
	}

	opts := playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless:   playwright.Bool(b.cfg.Headless),
		Args:       b.getBrowserArgs(),
		NoViewport: playwright.Bool(true),
	}
	if env := b.getEnvMap(); env != nil {
		opts.Env = env
	}

	browserContext, err := b.browserType(pw).LaunchPersistentContext(b.cfg.UserDataDir, opts)
	if err != nil {
		_ = pw.Stop()
		return fmt.Errorf("ошибка запуска %s: %w", b.cfg.Engine, err)
	}

	var page playwright.Page
	if pages := browserContext.Pages(); len(pages) > 0 {
		page = pages[0]
	} else if page, err = browserContext.NewPage(); err != nil {
		_ = shutdown(browserContext, pw)
		return fmt.Errorf("ошибка открытия вкладки: %w", err)
	}
	page.SetDefaultTimeout(float64(b.cfg.Timeout.Milliseconds()))
	if err := page.BringToFront(); err != nil {
		_ = shutdown(browserContext, pw)
		return fmt.Errorf("ошибка активации вкладки: %w", err)
	}

	b.mu.Lock()
	b.pw = pw
	b.context = browserContext
	b.page = page
	b.mu.Unlock()
	return nil
}

func (b *PlaywrightBrowser) Page() (Page, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.page == nil {
		return nil, ErrNotLaunched
	}
	return &playwrightPage{page: b.page, navigateTimeout: b.cfg.NavigateTimeout}, nil
}

func (b *PlaywrightBrowser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var bc contextCloser
	if b.context != nil {
		bc = b.context
	}
	var st driverStopper
	if b.pw != nil {
		st = b.pw
	}
	b.page, b.context, b.pw = nil, nil, nil
	return shutdown(bc, st)
}

type contextCloser interface {
	Close(options ...playwright.BrowserContextCloseOptions) error
}

type driverStopper interface {
	Stop() error
}

// shutdown закрывает контекст и останавливает драйвер. Драйвер останавливается, даже если контекст не закрылся.
func shutdown(bc contextCloser, pw driverStopper) error {
	var errs []error
	if bc != nil {
		if err := bc.Close(); err != nil {
			errs = append(errs, fmt.Errorf("ошибка закрытия контекста: %w", err))
		}
	}
	if pw != nil {
		if err := pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("ошибка остановки playwright: %w", err))
		}
	}
	return errors.Join(errs...)
}
