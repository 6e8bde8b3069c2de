package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// describeScript вычисляет видимость и доступное имя элемента внутри страницы.
const describeScript = `(el) => {
  const cs = window.getComputedStyle(el);
  const visible = !!cs && cs.visibility !== "hidden" && cs.display !== "none" && Number(cs.opacity || "1") > 0.05;
  return {
    visible,
    tag: el.tagName.toLowerCase(),
    role: el.getAttribute("role") || "",
    name: el.getAttribute("aria-label") || el.getAttribute("title") || el.getAttribute("name") || "",
    text: el.innerText || el.textContent || "",
    placeholder: el.placeholder || "",
    type: el.type || "",
    value: typeof el.value === "string" ? el.value : "",
  };
}`

type playwrightPage struct {
	page            playwright.Page
	navigateTimeout time.Duration
}

func (p *playwrightPage) URL() string {
	return p.page.URL()
}

func (p *playwrightPage) Title(ctx context.Context) (string, error) {
	return p.page.Title()
}

func (p *playwrightPage) QueryAll(ctx context.Context, selector string) ([]ElementHandle, error) {
	handles, err := p.page.QuerySelectorAll(selector)
	if err != nil {
		return nil, err
	}
	result := make([]ElementHandle, 0, len(handles))
	for _, h := range handles {
		result = append(result, &playwrightElement{handle: h})
	}
	return result, nil
}

func (p *playwrightPage) Screenshot(ctx context.Context, path string) error {
	_, err := p.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(false),
	})
	return err
}

// Goto ждет domcontentloaded, но не дольше navigateTimeout и не дольше ctx.
func (p *playwrightPage) Goto(ctx context.Context, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, p.navigateTimeout)
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		_, err := p.page.Goto(url, playwright.PageGotoOptions{
			WaitUntil: playwright.WaitUntilStateDomcontentloaded,
			Timeout:   playwright.Float(float64(p.navigateTimeout.Milliseconds())),
		})
		errChan <- err
	}()

	select {
	case <-navCtx.Done():
		return fmt.Errorf("переход на %s не завершился за %v: %w", url, p.navigateTimeout, navCtx.Err())
	case err := <-errChan:
		return err
	}
}

func (p *playwrightPage) GoBack(ctx context.Context) error {
	_, err := p.page.GoBack(playwright.PageGoBackOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	return err
}

func (p *playwrightPage) Press(ctx context.Context, key string) error {
	return p.page.Keyboard().Press(key)
}

func (p *playwrightPage) Type(ctx context.Context, text string, delay time.Duration) error {
	return p.page.Keyboard().Type(text, playwright.KeyboardTypeOptions{
		Delay: playwright.Float(float64(delay.Milliseconds())),
	})
}

func (p *playwrightPage) Wheel(ctx context.Context, dx, dy float64) error {
	return p.page.Mouse().Wheel(dx, dy)
}

func (p *playwrightPage) Wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type playwrightElement struct {
	handle playwright.ElementHandle
}

func (e *playwrightElement) BoundingBox() (*Rect, error) {
	box, err := e.handle.BoundingBox()
	if err != nil || box == nil {
		return nil, err
	}
	return &Rect{X: box.X, Y: box.Y, Width: box.Width, Height: box.Height}, nil
}

func (e *playwrightElement) Describe() (ElementMeta, error) {
	raw, err := e.handle.Evaluate(describeScript)
	if err != nil {
		return ElementMeta{}, err
	}
	// Evaluate отдает map[string]any, проще перегнать через JSON, чем разбирать поля вручную.
	data, err := json.Marshal(raw)
	if err != nil {
		return ElementMeta{}, err
	}
	var meta ElementMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return ElementMeta{}, fmt.Errorf("ошибка разбора описания элемента: %w", err)
	}
	return meta, nil
}

func (e *playwrightElement) Click(timeout time.Duration) error {
	return e.handle.Click(playwright.ElementHandleClickOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
}

func (e *playwrightElement) Focus() error {
	return e.handle.Focus()
}
