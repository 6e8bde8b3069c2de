// Package browser оборачивает playwright за узкими интерфейсами Driver, Page и ElementHandle.
// Агент и наблюдатель работают только с интерфейсами, поэтому в тестах используется fakebrowser.
package browser

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

// ErrNotLaunched возвращается при обращении к странице до Launch или после Close.
var ErrNotLaunched = errors.New("браузер не запущен")

// InteractiveSelector выбирает все элементы, с которыми может взаимодействовать агент.
const InteractiveSelector = "a,button,input,textarea,select,[role='button'],[role='link'],[contenteditable='true']"

type Driver interface {
	Launch(ctx context.Context) error
	// Page возвращает текущую вкладку или ErrNotLaunched.
	Page() (Page, error)
	Close() error
}

// Page - операции над текущей вкладкой, которые нужны наблюдателю и исполнителю инструментов.
type Page interface {
	URL() string
	Title(ctx context.Context) (string, error)
	QueryAll(ctx context.Context, selector string) ([]ElementHandle, error)
	// Screenshot сохраняет снимок видимой области в path.
	Screenshot(ctx context.Context, path string) error
	Goto(ctx context.Context, url string) error
	GoBack(ctx context.Context) error
	Press(ctx context.Context, key string) error
	Type(ctx context.Context, text string, delay time.Duration) error
	Wheel(ctx context.Context, dx, dy float64) error
	Wait(ctx context.Context, d time.Duration) error
}

// ElementHandle - живая ссылка на DOM-элемент. Действительна, пока элемент в документе.
type ElementHandle interface {
	// BoundingBox возвращает nil без ошибки для элементов без геометрии.
	BoundingBox() (*Rect, error)
	Describe() (ElementMeta, error)
	Click(timeout time.Duration) error
	Focus() error
}

type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// ElementMeta - сырые атрибуты элемента, вычисленные в странице.
type ElementMeta struct {
	Visible     bool   `json:"visible"`
	Tag         string `json:"tag"`
	Role        string `json:"role"`
	Name        string `json:"name"`
	Text        string `json:"text"`
	Placeholder string `json:"placeholder"`
	Type        string `json:"type"`
	Value       string `json:"value"`
}

type Config struct {
	Engine          string // chromium или firefox
	Headless        bool
	UserDataDir     string
	ScreenshotDir   string
	BrowsersPath    string
	Display         string
	Timeout         time.Duration
	NavigateTimeout time.Duration
}

type PlaywrightBrowser struct {
	mu      sync.RWMutex
	pw      *playwright.Playwright
	context playwright.BrowserContext
	page    playwright.Page
	cfg     Config
}
