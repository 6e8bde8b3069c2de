// Package fakebrowser - in-memory реализация browser.Driver для тестов.
// Страница хранит список элементов и журнал выполненных действий.
package fakebrowser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"browserAgent/internal/browser"
)

// Element - элемент фейковой страницы.
type Element struct {
	Meta     browser.ElementMeta
	Box      *browser.Rect
	ClickErr error

	page *Page
}

// Visible создает видимый элемент с заданной геометрией.
func Visible(tag, name string, x, y, w, h float64) *Element {
	return &Element{
		Meta: browser.ElementMeta{Visible: true, Tag: tag, Name: name},
		Box:  &browser.Rect{X: x, Y: y, Width: w, Height: h},
	}
}

func (e *Element) BoundingBox() (*browser.Rect, error) {
	return e.Box, nil
}

func (e *Element) Describe() (browser.ElementMeta, error) {
	return e.Meta, nil
}

func (e *Element) Click(timeout time.Duration) error {
	if e.ClickErr != nil {
		return e.ClickErr
	}
	e.page.record("click:" + e.Meta.Name)
	return nil
}

func (e *Element) Focus() error {
	e.page.record("focus:" + e.Meta.Name)
	return nil
}

// Route описывает содержимое страницы по адресу.
type Route struct {
	Title    string
	Elements []*Element
}

type Page struct {
	mu       sync.Mutex
	url      string
	title    string
	elements []*Element
	history  []string
	actions  []string

	Routes      map[string]Route
	Screenshots []string
	GotoErr     error
	BackErr     error
	TypeErr     error
}

// NewPage создает страницу about:blank с заданными элементами.
func NewPage(elements ...*Element) *Page {
	p := &Page{url: "about:blank", Routes: map[string]Route{}}
	p.SetElements(elements...)
	return p
}

// SetElements заменяет содержимое страницы, имитируя изменение DOM.
func (p *Page) SetElements(elements ...*Element) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range elements {
		e.page = p
	}
	p.elements = elements
}

func (p *Page) SetTitle(title string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.title = title
}

// Actions возвращает журнал действий вида "goto:https://...", "click:Имя".
func (p *Page) Actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.actions...)
}

func (p *Page) record(action string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.actions = append(p.actions, action)
}

func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *Page) Title(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.title, nil
}

func (p *Page) QueryAll(ctx context.Context, selector string) ([]browser.ElementHandle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	result := make([]browser.ElementHandle, 0, len(p.elements))
	for _, e := range p.elements {
		result = append(result, e)
	}
	return result, nil
}

func (p *Page) Screenshot(ctx context.Context, path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Screenshots = append(p.Screenshots, path)
	return nil
}

// Goto переходит по адресу. Если для адреса есть Route, страница получает его содержимое.
// Адрес без пути нормализуется добавлением "/", как это делает браузер.
func (p *Page) Goto(ctx context.Context, url string) error {
	if p.GotoErr != nil {
		return p.GotoErr
	}
	p.record("goto:" + url)

	p.mu.Lock()
	route, ok := p.Routes[url]
	p.history = append(p.history, p.url)
	p.url = normalize(url)
	p.mu.Unlock()

	if ok {
		p.SetTitle(route.Title)
		p.SetElements(route.Elements...)
	}
	return nil
}

func (p *Page) GoBack(ctx context.Context) error {
	if p.BackErr != nil {
		return p.BackErr
	}
	p.record("back")
	p.mu.Lock()
	defer p.mu.Unlock()
	if n := len(p.history); n > 0 {
		p.url = p.history[n-1]
		p.history = p.history[:n-1]
	}
	return nil
}

func (p *Page) Press(ctx context.Context, key string) error {
	p.record("press:" + key)
	return nil
}

func (p *Page) Type(ctx context.Context, text string, delay time.Duration) error {
	if p.TypeErr != nil {
		return p.TypeErr
	}
	p.record("type:" + text)
	return nil
}

func (p *Page) Wheel(ctx context.Context, dx, dy float64) error {
	p.record(fmt.Sprintf("wheel:%g,%g", dx, dy))
	return nil
}

func (p *Page) Wait(ctx context.Context, d time.Duration) error {
	p.record("wait:" + d.String())
	return ctx.Err()
}

// Driver отдает одну и ту же страницу после Launch.
type Driver struct {
	mu       sync.Mutex
	page     *Page
	launched bool
}

func New(page *Page) *Driver {
	return &Driver{page: page}
}

func (d *Driver) Launch(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.launched = true
	return nil
}

func (d *Driver) Page() (browser.Page, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.launched {
		return nil, browser.ErrNotLaunched
	}
	return d.page, nil
}

func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.launched = false
	return nil
}

func normalize(url string) string {
	i := strings.Index(url, "://")
	if i < 0 || strings.Contains(url[i+3:], "/") {
		return url
	}
	return url + "/"
}
