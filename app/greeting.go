// Package app is the demo domain wired through the container.
package app

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Clock tells the time in a fixed zone.
type Clock struct {
	loc    *time.Location
	layout string
	now    func() time.Time
}

// NewClock loads zone; an empty zone means UTC.
func NewClock(zone string) (*Clock, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("clock: %w", err)
	}
	return &Clock{loc: loc, layout: time.RFC3339, now: time.Now}, nil
}

// SetLayout changes the format used by Stamp.
func (c *Clock) SetLayout(layout string) { c.layout = layout }

// Now returns the current time in the clock's zone.
func (c *Clock) Now() time.Time { return c.now().In(c.loc) }

// Stamp formats the current time.
func (c *Clock) Stamp() string { return c.Now().Format(c.layout) }

// Zone returns the location name.
func (c *Clock) Zone() string { return c.loc.String() }

// Greeter builds a greeting for a name.
type Greeter interface {
	Greet(name string) string
}

// ConsoleGreeter greets with a fixed salutation.
type ConsoleGreeter struct {
	clock      *Clock
	salutation string
}

func NewConsoleGreeter(clock *Clock, salutation string) *ConsoleGreeter {
	if salutation == "" {
		salutation = "Hello"
	}
	return &ConsoleGreeter{clock: clock, salutation: salutation}
}

func (g *ConsoleGreeter) Greet(name string) string {
	if g.clock == nil {
		return fmt.Sprintf("%s, %s!", g.salutation, name)
	}
	return fmt.Sprintf("%s, %s! It is %s in %s.", g.salutation, name, g.clock.Stamp(), g.clock.Zone())
}

// Greeting is the JSON body of /greet.
type Greeting struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// GreetingService is built per request with Make; its dependencies are shared.
type GreetingService struct {
	greeter Greeter
	logger  *zap.Logger
}

func NewGreetingService(greeter Greeter, logger *zap.Logger) *GreetingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GreetingService{greeter: greeter, logger: logger}
}

// Greet returns an error when no Greeter could be wired.
func (s *GreetingService) Greet(name string) (Greeting, error) {
	if s.greeter == nil {
		return Greeting{}, fmt.Errorf("greeting: no greeter bound")
	}
	msg := s.greeter.Greet(name)
	s.logger.Debug("greeted", zap.String("name", name))
	return Greeting{Name: name, Message: msg}, nil
}
