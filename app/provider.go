package app

import (
	"net/http"
	"time"

	"github.com/km-arc/go-autowire/framework/container"
	gohttp "github.com/km-arc/go-autowire/framework/http"
	"github.com/km-arc/go-autowire/framework/routing"
)

// ServiceProvider registers the greeting domain.
//
// Registered keys:
//   - *Clock, lazy, aliased as "clock"
//   - *ConsoleGreeter, bound to Greeter and aliased as "greeter"
//
// GreetingService and GreetController are only catalogued; they are built
// with Make.
type ServiceProvider struct {
	container.BaseProvider
	Zone       string
	Salutation string
}

func (p *ServiceProvider) Register(c *container.Container) error {
	for _, ctor := range []any{NewClock, NewConsoleGreeter, NewGreetingService, NewGreetController} {
		if err := c.Provide(ctor); err != nil {
			return err
		}
	}

	clock := c.Lazy(container.NameOf[*Clock](), p.Zone).SetCallback("SetLayout", time.Kitchen)
	if err := c.Register(clock); err != nil {
		return err
	}

	salutation := p.Salutation
	err := c.Register(func() (*ConsoleGreeter, error) {
		return container.MakeOf[*ConsoleGreeter](c, map[int]any{1: salutation})
	})
	if err != nil {
		return err
	}

	c.Alias("clock", container.NameOf[*Clock]()).
		Alias(container.NameOf[Greeter](), container.NameOf[*ConsoleGreeter]()).
		Alias("greeter", container.NameOf[Greeter]())
	return nil
}

// GreetController serves /greet/{name}.
type GreetController struct {
	container *container.Container
}

func NewGreetController(c *container.Container) *GreetController {
	return &GreetController{container: c}
}

// Routes registers the controller's endpoints.
func (ctl *GreetController) Routes(r *routing.Router) {
	r.Get("/greet/{name}", ctl.Greet)
}

// Greet builds a fresh GreetingService for the request.
func (ctl *GreetController) Greet(w http.ResponseWriter, r *http.Request) {
	req, res := gohttp.NewRequest(r), gohttp.NewResponse(w)

	svc, err := container.MakeOf[*GreetingService](ctl.container, nil)
	if err != nil {
		res.ServerError(err.Error())
		return
	}
	greeting, err := svc.Greet(req.RouteParam("name"))
	if err != nil {
		res.ServerError(err.Error())
		return
	}
	res.Success(greeting)
}
