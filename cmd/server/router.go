package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"casetransfer/internal/casetransfer/handler"
	platformmetrics "casetransfer/internal/platform/metrics"
	"casetransfer/pkg/platform/circuit"
	"casetransfer/pkg/platform/httputil"
	authmw "casetransfer/pkg/platform/middleware/auth"
	"casetransfer/pkg/platform/middleware/metadata"
	"casetransfer/pkg/platform/middleware/request"
	"casetransfer/pkg/platform/middleware/requesttime"
)

type application struct {
	service        handler.Service
	logger         *slog.Logger
	tokens         authmw.JWTValidator
	httpMetrics    *platformmetrics.Metrics
	metricsHandler http.Handler
	requestTimeout time.Duration
	// breakers guard the broker dispatchers; any open one degrades /health.
	breakers []*circuit.Breaker
}

func newRouter(app *application) chi.Router {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(request.Recovery(app.logger))
	r.Use(request.Logger(app.logger))
	r.Use(requesttime.Middleware)
	if app.httpMetrics != nil {
		r.Use(app.httpMetrics.Middleware)
	}
	if app.requestTimeout > 0 {
		r.Use(chimiddleware.Timeout(app.requestTimeout))
	}

	r.Get("/health", app.health)
	if app.metricsHandler != nil {
		r.Handle("/metrics", app.metricsHandler)
	}

	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth(app.tokens, app.logger))
		handler.New(app.service, app.logger).Register(r)
	})
	return r
}

type healthResponse struct {
	Status   string            `json:"status"`
	Breakers map[string]string `json:"breakers,omitempty"`
}

// health reports "degraded" while any dispatch breaker is open. The service
// still answers, so the status code stays 200.
func (app *application) health(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{Status: "ok"}
	if len(app.breakers) > 0 {
		resp.Breakers = make(map[string]string, len(app.breakers))
	}
	for _, b := range app.breakers {
		resp.Breakers[b.Name()] = b.State().String()
		if b.IsOpen() {
			resp.Status = "degraded"
		}
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}
