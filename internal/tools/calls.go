// Package tools описывает словарь инструментов браузера, доступных модели,
// проверяет аргументы вызовов по JSON Schema и исполняет их на странице.
package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"browserAgent/internal/llm"

	"github.com/invopop/jsonschema"
	validator "github.com/santhosh-tekuri/jsonschema/v5"
)

type Name string

const (
	Goto    Name = "browser_goto"
	Observe Name = "browser_observe"
	Click   Name = "browser_click"
	Type    Name = "browser_type"
	Press   Name = "browser_press"
	Scroll  Name = "browser_scroll"
	Wait    Name = "browser_wait"
	Back    Name = "browser_back"
)

var (
	ErrUnknownTool      = errors.New("неизвестный инструмент")
	ErrInvalidArguments = errors.New("неверные аргументы инструмента")
)

// Call - проверенный вызов инструмента. Реализации: GotoArgs, ObserveArgs,
// ClickArgs, TypeArgs, PressArgs, ScrollArgs, WaitArgs, BackArgs.
type Call interface {
	Tool() Name
	isCall()
}

// Targeted - вызов, адресующий элемент последнего наблюдения.
type Targeted interface {
	Call
	Target() string
}

type GotoArgs struct {
	URL string `json:"url" jsonschema:"minLength=1" jsonschema_description:"Абсолютный URL"`
}

type ObserveArgs struct{}

type ClickArgs struct {
	ElementID string `json:"element_id" jsonschema:"minLength=1" jsonschema_description:"Идентификатор элемента (e1, e2, ...)"`
}

type TypeArgs struct {
	ElementID  string `json:"element_id" jsonschema:"minLength=1" jsonschema_description:"Идентификатор поля ввода"`
	Text       string `json:"text" jsonschema_description:"Текст для ввода"`
	ClearFirst *bool  `json:"clear_first,omitempty" jsonschema_description:"Очистить поле перед вводом (по умолчанию true)"`
}

type PressArgs struct {
	Key string `json:"key" jsonschema:"minLength=1" jsonschema_description:"Имя клавиши: Enter, Escape, Tab, ArrowDown"`
}

type ScrollArgs struct {
	DeltaY float64 `json:"deltaY" jsonschema_description:"Смещение по вертикали в пикселях"`
}

type WaitArgs struct {
	MS int `json:"ms" jsonschema:"minimum=0,maximum=60000" jsonschema_description:"Пауза в миллисекундах"`
}

type BackArgs struct{}

func (GotoArgs) Tool() Name    { return Goto }
func (ObserveArgs) Tool() Name { return Observe }
func (ClickArgs) Tool() Name   { return Click }
func (TypeArgs) Tool() Name    { return Type }
func (PressArgs) Tool() Name   { return Press }
func (ScrollArgs) Tool() Name  { return Scroll }
func (WaitArgs) Tool() Name    { return Wait }
func (BackArgs) Tool() Name    { return Back }

func (GotoArgs) isCall()    {}
func (ObserveArgs) isCall() {}
func (ClickArgs) isCall()   {}
func (TypeArgs) isCall()    {}
func (PressArgs) isCall()   {}
func (ScrollArgs) isCall()  {}
func (WaitArgs) isCall()    {}
func (BackArgs) isCall()    {}

func (c ClickArgs) Target() string { return c.ElementID }
func (c TypeArgs) Target() string  { return c.ElementID }

// Clear сообщает, нужно ли очистить поле перед вводом.
func (c TypeArgs) Clear() bool {
	return c.ClearFirst == nil || *c.ClearFirst
}

type tool struct {
	name        Name
	description string
	args        Call
}

var vocabulary = []tool{
	{Goto, "Перейти по URL в текущей вкладке", GotoArgs{}},
	{Observe, "Сделать компактный снимок страницы (url/title/скрин + список интерактивных элементов)", ObserveArgs{}},
	{Click, "Кликнуть по element_id из последнего observe", ClickArgs{}},
	{Type, "Ввести текст в поле element_id (по умолчанию очищает поле)", TypeArgs{}},
	{Press, "Нажать клавишу (например Enter, Escape, Tab)", PressArgs{}},
	{Scroll, "Прокрутка по Y (положительное вниз)", ScrollArgs{}},
	{Wait, "Подождать N миллисекунд", WaitArgs{}},
	{Back, "Назад", BackArgs{}},
}

type compiled struct {
	spec   llm.ToolSpec
	schema *validator.Schema
	args   reflect.Type
}

var (
	registryOnce sync.Once
	registry     map[Name]compiled
	specs        []llm.ToolSpec
	registryErr  error
)

func load() (map[Name]compiled, []llm.ToolSpec, error) {
	registryOnce.Do(func() {
		r := &jsonschema.Reflector{ExpandedStruct: true, DoNotReference: true, AllowAdditionalProperties: true}
		registry = make(map[Name]compiled, len(vocabulary))
		for _, t := range vocabulary {
			params, raw, err := reflectSchema(r, t.args)
			if err != nil {
				registryErr = fmt.Errorf("схема %s: %w", t.name, err)
				return
			}
			schema, err := validator.CompileString(string(t.name)+".json", string(raw))
			if err != nil {
				registryErr = fmt.Errorf("компиляция схемы %s: %w", t.name, err)
				return
			}
			spec := llm.ToolSpec{Name: string(t.name), Description: t.description, Parameters: params}
			registry[t.name] = compiled{spec: spec, schema: schema, args: reflect.TypeOf(t.args)}
			specs = append(specs, spec)
		}
	})
	return registry, specs, registryErr
}

// reflectSchema строит схему аргументов и приводит ее к виду, который принимают все вендоры:
// без $schema и $id, всегда с properties и required.
func reflectSchema(r *jsonschema.Reflector, args Call) (map[string]any, []byte, error) {
	data, err := json.Marshal(r.Reflect(args))
	if err != nil {
		return nil, nil, err
	}
	var params map[string]any
	if err := json.Unmarshal(data, &params); err != nil {
		return nil, nil, err
	}
	delete(params, "$schema")
	delete(params, "$id")
	params["type"] = "object"
	if _, ok := params["properties"]; !ok {
		params["properties"] = map[string]any{}
	}
	if _, ok := params["required"]; !ok {
		params["required"] = []any{}
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, nil, err
	}
	return params, raw, nil
}

// Definitions возвращает описания инструментов для модели в фиксированном порядке.
func Definitions() []llm.ToolSpec {
	_, s, err := load()
	if err != nil {
		panic(err)
	}
	return append([]llm.ToolSpec(nil), s...)
}

// Parse проверяет вызов модели по схеме инструмента и превращает его в типизированный Call.
func Parse(tc llm.ToolCall) (Call, error) {
	reg, _, err := load()
	if err != nil {
		return nil, err
	}
	c, ok := reg[Name(tc.Name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, tc.Name)
	}
	if tc.Args == nil {
		return nil, fmt.Errorf("%w: %s: аргументы не JSON-объект: %q", ErrInvalidArguments, tc.Name, tc.RawArgs)
	}

	payload, err := json.Marshal(tc.Args)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidArguments, tc.Name, err)
	}
	var decoded any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidArguments, tc.Name, err)
	}
	if err := c.schema.Validate(decoded); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidArguments, tc.Name, err)
	}

	ptr := reflect.New(c.args)
	if err := json.Unmarshal(payload, ptr.Interface()); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidArguments, tc.Name, err)
	}
	return ptr.Elem().Interface().(Call), nil
}
