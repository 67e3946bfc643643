// Package inspect serves a read-only JSON view of a container.
//
//	GET /container/definitions             every definition, sorted by key
//	GET /container/definitions/{key...}    one definition; ?execute=true materializes it
//	GET /container/aliases                 the alias table
package inspect

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/km-arc/go-autowire/framework/container"
	gohttp "github.com/km-arc/go-autowire/framework/http"
	"github.com/km-arc/go-autowire/framework/routing"
)

// Handler exposes a container over HTTP.
type Handler struct {
	container *container.Container
	logger    *zap.Logger
}

// New creates a Handler. Both parameters are autowired when it is built
// with Make.
func New(c *container.Container, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{container: c, logger: logger}
}

// Routes registers the endpoints on r under /container. Responses are never
// cached, since definitions change as they are resolved.
func (h *Handler) Routes(r *routing.Router) {
	r.Prefix("/container", func(r *routing.Router) {
		r.Middleware(middleware.NoCache)
		r.Get("/definitions", h.definitions)
		// keys contain slashes, so the key is the rest of the path
		r.Get("/definitions/*", h.definition)
		r.Get("/aliases", h.aliases)
	})
}

func (h *Handler) definitions(w http.ResponseWriter, _ *http.Request) {
	gohttp.NewResponse(w).Success(h.container.Definitions())
}

func (h *Handler) definition(w http.ResponseWriter, r *http.Request) {
	req, res := gohttp.NewRequest(r), gohttp.NewResponse(w)
	key := req.RouteParam("*")

	info, ok, err := h.container.Inspect(key, req.QueryBool("execute", false))
	switch {
	case errors.Is(err, container.ErrAliasCycle):
		res.Conflict(err.Error())
	case err != nil:
		h.logger.Warn("inspect failed", zap.String("key", key), zap.Error(err))
		res.ServerError(err.Error())
	case !ok:
		res.NotFound("no definition for " + key)
	default:
		res.Success(info)
	}
}

func (h *Handler) aliases(w http.ResponseWriter, _ *http.Request) {
	gohttp.NewResponse(w).Success(h.container.Aliases())
}
