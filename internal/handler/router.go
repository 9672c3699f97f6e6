package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sparrowchat/sparrow/internal/config"
	"github.com/sparrowchat/sparrow/internal/middleware"
	"github.com/sparrowchat/sparrow/internal/observability"
)

// NewRouter assembles the full HTTP surface. The WebSocket endpoint sits
// outside the metrics middleware: the status-recording wrapper does not
// implement http.Hijacker, which the upgrade needs.
func NewRouter(
	msgH *MessageHandler,
	userH *UserHandler,
	wsH http.Handler,
	mediaDir string,
	readyChecks []func(context.Context) error,
	cfg *config.Config,
) http.Handler {

	r := chi.NewRouter()

	r.Get("/ws", wsH.ServeHTTP)
	r.Handle("/media/*", http.StripPrefix("/media/", http.FileServer(http.Dir(mediaDir))))

	r.Group(func(g chi.Router) {
		g.Use(middleware.RequestID)
		g.Use(observability.MetricsMiddleware(cfg.ServiceName))
		g.Use(middleware.Recovery())
		g.Use(middleware.RateLimit(cfg.RateLimitReqs, cfg.RateLimitWin))

		g.Handle("/metrics", promhttp.Handler())
		g.Get("/health/live", observability.HealthLiveHandler)
		g.Get("/health/ready", observability.HealthReadyHandler(readyChecks...))

		g.Group(func(p chi.Router) {
			p.Use(middleware.JWT([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.JWTAudience))

			p.Get("/api/messages/contacts", msgH.GetContacts)
			p.Get("/api/messages/requests", msgH.GetRequests)
			p.Post("/api/messages/send/{id}", msgH.Send)
			p.Post("/api/messages/accept/{id}", msgH.AcceptRequest)
			p.Put("/api/messages/block/{id}", msgH.Block)
			p.Get("/api/messages/{id}", msgH.GetConversation)

			p.Get("/api/users/search", userH.Search)
			p.Get("/api/users/online", userH.Online)
		})
	})

	return otelhttp.NewHandler(r, cfg.ServiceName)
}
