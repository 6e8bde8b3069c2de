package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"browserAgent/internal/cli/ui"

	"github.com/chzyer/readline"
)

// TaskPrompt - приглашение ко вводу задачи.
const TaskPrompt = ui.IconBrain + " Задача для агента (или 'exit'): "

// ErrClosed - ввод закончился (EOF или Ctrl+C на пустой строке).
var ErrClosed = errors.New("ввод закрыт")

// errInterrupted - Ctrl+C на непустой строке: строка сбрасывается.
var errInterrupted = errors.New("ввод прерван")

type lineResult struct {
	line string
	err  error
}

// Console читает строки из терминала через readline, а без терминала - построчно из Reader.
// В каждый момент выполняется не больше одного чтения: если ожидание прервано
// отменой ctx, следующая строка достанется следующему вызову.
type Console struct {
	rl  *readline.Instance
	in  *bufio.Reader
	out io.Writer

	mu      sync.Mutex
	pending chan lineResult
}

// NewConsole открывает терминал с историей в historyFile. Если readline недоступен,
// используется stdin.
func NewConsole(historyFile string) *Console {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return NewPlainConsole(os.Stdin, os.Stdout)
	}
	return &Console{rl: rl, out: rl.Stdout()}
}

func NewPlainConsole(in io.Reader, out io.Writer) *Console {
	return &Console{in: bufio.NewReader(in), out: out}
}

// Out - вывод консоли.
func (c *Console) Out() io.Writer {
	return c.out
}

func (c *Console) Close() error {
	if c.rl != nil {
		return c.rl.Close()
	}
	return nil
}

// AskUser задает вопрос и ждет ответа человека. Ctrl+C и закрытый ввод считаются пустым ответом.
func (c *Console) AskUser(ctx context.Context, question string) (string, error) {
	answer, err := c.readLine(ctx, question)
	if errors.Is(err, errInterrupted) || errors.Is(err, ErrClosed) {
		return "", nil
	}
	return answer, err
}

// Run - цикл чтения задач. exit, quit или пустая строка завершают сессию.
func (c *Console) Run(ctx context.Context, handle func(ctx context.Context, line string)) error {
	for {
		line, err := c.readLine(ctx, TaskPrompt)
		switch {
		case errors.Is(err, ErrClosed):
			return nil
		case errors.Is(err, errInterrupted):
			continue
		case err != nil:
			return err
		}

		switch strings.ToLower(line) {
		case "", "exit", "quit":
			fmt.Fprintln(c.out, ui.ColorCyan+ui.IconWave+" До свидания!"+ui.ColorReset)
			return nil
		}
		handle(ctx, line)
	}
}

func (c *Console) readLine(ctx context.Context, prompt string) (string, error) {
	c.mu.Lock()
	if c.pending == nil {
		ch := make(chan lineResult, 1)
		c.pending = ch
		go func() {
			line, err := c.read(prompt)
			ch <- lineResult{line: line, err: err}
		}()
	}
	ch := c.pending
	c.mu.Unlock()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		c.mu.Lock()
		c.pending = nil
		c.mu.Unlock()
		return strings.TrimSpace(r.line), r.err
	}
}

func (c *Console) read(prompt string) (string, error) {
	if c.rl != nil {
		c.rl.SetPrompt(prompt)
		line, err := c.rl.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt) && line != "":
			return "", errInterrupted
		case errors.Is(err, readline.ErrInterrupt), errors.Is(err, io.EOF):
			return "", ErrClosed
		}
		return line, err
	}

	fmt.Fprint(c.out, prompt)
	line, err := c.in.ReadString('\n')
	if errors.Is(err, io.EOF) {
		if line != "" {
			return line, nil
		}
		return "", ErrClosed
	}
	return line, err
}
