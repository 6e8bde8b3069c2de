package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"browserAgent/internal/browser"
	"browserAgent/internal/cli/ui"
)

// BrowserHandler дает человеку открыть страницу в браузере агента,
// например чтобы залогиниться перед задачей.
type BrowserHandler struct {
	driver browser.Driver
	out    io.Writer
}

func NewBrowserHandler(driver browser.Driver, out io.Writer) *BrowserHandler {
	return &BrowserHandler{driver: driver, out: out}
}

func (h *BrowserHandler) Open(ctx context.Context, url string) {
	url = strings.TrimSpace(url)
	if url == "" {
		ui.Errorf(h.out, "Укажите адрес: open <url>")
		return
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}

	page, err := h.driver.Page()
	if err != nil {
		ui.Errorf(h.out, "Браузер недоступен: %v", err)
		return
	}
	ui.Infof(h.out, "%s Открытие %s...", ui.IconTool, url)
	if err := page.Goto(ctx, url); err != nil {
		ui.Errorf(h.out, "Ошибка навигации: %v", err)
		return
	}
	title, _ := page.Title(ctx)
	fmt.Fprintf(h.out, ui.ColorGreen+ui.IconCheckmark+" Открыто:"+ui.ColorReset+" %s %s\n", page.URL(), title)
}
