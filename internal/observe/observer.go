package observe

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"browserAgent/internal/browser"

	"github.com/google/uuid"
)

// Бюджеты символов для текстовых полей элемента.
const (
	nameBudget        = 60
	textBudget        = 80
	placeholderBudget = 60
	typeBudget        = 30
	valueBudget       = 60

	minElementSize = 5.0
)

type Options struct {
	MaxElements   int
	ScreenshotDir string
	Selector      string
	Now           func() time.Time
	NewID         func() string
}

// Observer делает снимки страницы и владеет ареной текущего наблюдения.
type Observer struct {
	opts    Options
	mu      sync.Mutex
	current *arena
}

func NewObserver(opts Options) *Observer {
	if opts.MaxElements <= 0 {
		opts.MaxElements = 80
	}
	if opts.ScreenshotDir == "" {
		opts.ScreenshotDir = ".artifacts/screens"
	}
	if opts.Selector == "" {
		opts.Selector = browser.InteractiveSelector
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Observer{opts: opts}
}

type candidate struct {
	handle browser.ElementHandle
	meta   browser.ElementMeta
	box    browser.Rect
}

// Capture снимает скриншот видимой области и собирает до MaxElements видимых
// элементов не меньше 5x5 в порядке документа, затем упорядочивает их сверху
// вниз и слева направо и нумерует e1..eN. Предыдущее наблюдение становится устаревшим.
func (o *Observer) Capture(ctx context.Context, page browser.Page) (*Observation, error) {
	if page == nil {
		return nil, browser.ErrNotLaunched
	}
	now := o.opts.Now()
	obs := &Observation{
		ID:        o.opts.NewID(),
		URL:       page.URL(),
		Timestamp: now.UTC(),
	}
	if title, err := page.Title(ctx); err == nil {
		obs.Title = title
	}

	obs.ScreenshotPath = filepath.Join(o.opts.ScreenshotDir, fmt.Sprintf("%d_%s.png", now.UnixMilli(), obs.ID))
	if err := page.Screenshot(ctx, obs.ScreenshotPath); err != nil {
		return nil, fmt.Errorf("ошибка скриншота: %w", err)
	}

	handles, err := page.QueryAll(ctx, o.opts.Selector)
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска элементов: %w", err)
	}

	candidates := make([]candidate, 0, min(len(handles), o.opts.MaxElements))
	for _, h := range handles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		box, err := h.BoundingBox()
		if err != nil || box == nil {
			continue
		}
		if box.Width < minElementSize || box.Height < minElementSize {
			continue
		}
		meta, err := h.Describe()
		if err != nil || !meta.Visible {
			continue
		}
		candidates = append(candidates, candidate{handle: h, meta: meta, box: *box})
		if len(candidates) >= o.opts.MaxElements {
			break
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i].box, candidates[j].box
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})

	next := newArena(len(candidates))
	obs.Elements = make([]Element, 0, len(candidates))
	for i, c := range candidates {
		id := fmt.Sprintf("e%d", i+1)
		next.put(id, c.handle)
		obs.Elements = append(obs.Elements, Element{
			ID:          id,
			Tag:         c.meta.Tag,
			Role:        c.meta.Role,
			Name:        Truncate(c.meta.Name, nameBudget),
			Text:        Truncate(c.meta.Text, textBudget),
			Placeholder: Truncate(c.meta.Placeholder, placeholderBudget),
			Type:        Truncate(c.meta.Type, typeBudget),
			Value:       Truncate(c.meta.Value, valueBudget),
			BBox:        &BBox{X: c.box.X, Y: c.box.Y, W: c.box.Width, H: c.box.Height},
		})
	}
	obs.handles = next

	o.mu.Lock()
	if o.current != nil {
		o.current.invalidate()
	}
	o.current = next
	o.mu.Unlock()

	return obs, nil
}
