package container_test

import (
	"errors"
	"fmt"
)

// ── fixtures ──────────────────────────────────────────────────────────────────

type Bar struct{ ID int }

func NewBar() *Bar { return &Bar{} }

type Foo struct{ Bar *Bar }

func NewFoo(bar *Bar) *Foo { return &Foo{Bar: bar} }

type ILogger interface{ Log(string) }

type Logger struct{ Lines []string }

func (l *Logger) Log(s string) { l.Lines = append(l.Lines, s) }

type Service struct{ Logger ILogger }

func NewService(logger ILogger) *Service { return &Service{Logger: logger} }

type Report struct {
	Title string
	Bar   *Bar
	Pages int
}

func NewReport(title string, bar *Bar, pages int) *Report {
	return &Report{Title: title, Bar: bar, Pages: pages}
}

type Counter struct {
	Start int
	Hits  int
	Calls []string
}

func NewCounter(start int) *Counter { return &Counter{Start: start} }

func (c *Counter) Inc() { c.Hits++; c.Calls = append(c.Calls, "inc") }

func (c *Counter) Add(n int) int {
	c.Hits += n
	c.Calls = append(c.Calls, fmt.Sprintf("add%d", n))
	return c.Hits
}

func (c *Counter) Check(msg string) error {
	if msg != "" {
		return errors.New(msg)
	}
	return nil
}

type Broken struct{}

var errBroken = errors.New("broken")

func NewBroken() (*Broken, error) { return nil, errBroken }

type Panicky struct{}

func NewPanicky() *Panicky { panic("boom") }

type Pipeline struct {
	Bar    *Bar
	Stages []string
}

func NewPipeline(bar *Bar, stages ...string) *Pipeline {
	return &Pipeline{Bar: bar, Stages: stages}
}

type Clock struct{ Zone string }

type NeedsVal struct{ Bar Bar }

func NewNeedsVal(bar Bar) *NeedsVal { return &NeedsVal{Bar: bar} }

type ValBox struct{ N int }

func NewValBox() ValBox { return ValBox{} }

func (b *ValBox) Bump() { b.N++ }

func (b ValBox) Peek() int { return b.N }
