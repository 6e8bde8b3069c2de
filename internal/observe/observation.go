// Package observe превращает состояние страницы в компактное наблюдение для LLM.
//
// Наблюдение содержит упорядоченный список видимых интерактивных элементов с
// идентификаторами e1, e2, ... и арену живых ссылок на них. Идентификаторы
// действительны только до следующего снимка: новый Capture закрывает арену
// предыдущего наблюдения, и обращение к ней возвращает ErrStaleElement.
package observe

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"browserAgent/internal/browser"
)

var (
	ErrElementReference = errors.New("недействительная ссылка на элемент")
	ErrUnknownElement   = fmt.Errorf("%w: элемента нет в наблюдении", ErrElementReference)
	ErrStaleElement     = fmt.Errorf("%w: наблюдение устарело", ErrElementReference)
)

type BBox struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

type Element struct {
	ID          string `json:"id"`
	Tag         string `json:"tag"`
	Role        string `json:"role,omitempty"`
	Name        string `json:"name,omitempty"`
	Text        string `json:"text,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	Type        string `json:"type,omitempty"`
	Value       string `json:"value,omitempty"`
	BBox        *BBox  `json:"bbox,omitempty"`
}

// Label - то, как элемент называется для человека и модели.
func (e Element) Label() string {
	switch {
	case e.Name != "":
		return e.Name
	case e.Text != "":
		return e.Text
	default:
		return e.Placeholder
	}
}

type Observation struct {
	ID             string    `json:"observation_id"`
	URL            string    `json:"url"`
	Title          string    `json:"title"`
	Timestamp      time.Time `json:"timestamp"`
	ScreenshotPath string    `json:"screenshot_path"`
	Elements       []Element `json:"elements"`

	handles *arena
}

// Element ищет элемент по идентификатору. Метаданные остаются доступными и после устаревания.
func (o *Observation) Element(id string) (Element, bool) {
	if o == nil {
		return Element{}, false
	}
	for _, e := range o.Elements {
		if e.ID == id {
			return e, true
		}
	}
	return Element{}, false
}

// Handle возвращает живую ссылку на элемент или ошибку, обернутую в ErrElementReference.
func (o *Observation) Handle(id string) (browser.ElementHandle, error) {
	if o == nil || o.handles == nil {
		return nil, fmt.Errorf("%w: element_id=%s (вызовите browser_observe)", ErrUnknownElement, id)
	}
	return o.handles.get(id)
}

// Expired сообщает, был ли после этого наблюдения сделан новый снимок.
func (o *Observation) Expired() bool {
	return o == nil || o.handles == nil || o.handles.isExpired()
}

type arena struct {
	mu      sync.RWMutex
	handles map[string]browser.ElementHandle
	expired bool
}

func newArena(size int) *arena {
	return &arena{handles: make(map[string]browser.ElementHandle, size)}
}

func (a *arena) put(id string, h browser.ElementHandle) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.handles[id] = h
}

func (a *arena) get(id string) (browser.ElementHandle, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.expired {
		return nil, fmt.Errorf("%w: element_id=%s получен из предыдущего наблюдения", ErrStaleElement, id)
	}
	h, ok := a.handles[id]
	if !ok {
		return nil, fmt.Errorf("%w: element_id=%s (вызовите browser_observe заново)", ErrUnknownElement, id)
	}
	return h, nil
}

// invalidate освобождает ссылки. Повторный вызов безопасен.
func (a *arena) invalidate() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.expired = true
	a.handles = nil
}

func (a *arena) isExpired() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.expired
}
