package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	httpmiddleware "github.com/aaryan182/veterinary-chatbot-sdk/internal/http/middleware"
	"github.com/aaryan182/veterinary-chatbot-sdk/internal/webchat"
	"github.com/aaryan182/veterinary-chatbot-sdk/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger             *logging.Logger
	WebchatHandler     *webchat.Handler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int
}

// New creates the Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	if cfg == nil || cfg.WebchatHandler == nil {
		panic("router: webchat handler required")
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// The websocket route stays outside the logging/compression wrappers;
	// wrapping the ResponseWriter would break the connection hijack.
	r.Get("/chat/ws", cfg.WebchatHandler.HandleWebSocket)

	r.Group(func(chat chi.Router) {
		chat.Use(middleware.Compress(5))
		if cfg.Logger != nil {
			chat.Use(httpmiddleware.RequestLogger(cfg.Logger))
		}
		if cfg.RateLimitRPS > 0 {
			chat.Use(httpmiddleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
		}

		chat.Get("/chat/widget.js", cfg.WebchatHandler.HandleWidgetJS)
		chat.Post("/chat/message", cfg.WebchatHandler.HandleMessage)
		chat.Get("/chat/history", cfg.WebchatHandler.HandleHistory)
	})

	return r
}
