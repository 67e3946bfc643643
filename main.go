package main

import (
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/km-arc/go-autowire/app"
	foundation "github.com/km-arc/go-autowire/framework/app"
	"github.com/km-arc/go-autowire/framework/container"
	gohttp "github.com/km-arc/go-autowire/framework/http"
)

func main() {
	application, err := foundation.New() // loads .env automatically
	if err != nil {
		zap.NewExample().Fatal("bootstrap failed", zap.Error(err))
	}
	logger := application.Logger()

	if err := application.RegisterProvider(&app.ServiceProvider{
		Zone:       os.Getenv("APP_TIMEZONE"),
		Salutation: os.Getenv("APP_SALUTATION"),
	}); err != nil {
		logger.Fatal("register provider", zap.Error(err))
	}

	r, err := application.Router()
	if err != nil {
		logger.Fatal("resolve router", zap.Error(err))
	}

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		gohttp.NewResponse(w).Success(map[string]any{
			"app":         application.Config().App.Name,
			"definitions": application.Len(),
		})
	})

	// GET /greet/{name} builds a fresh GreetingService per request.
	greet, err := container.MakeOf[*app.GreetController](application.Container, nil)
	if err != nil {
		logger.Fatal("make greet controller", zap.Error(err))
	}
	greet.Routes(r)

	if err := application.Run(); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
