package router

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"vidlist-backend/internal/handlers"
	"vidlist-backend/internal/middleware"
)

// Static serves locally stored uploads. A zero value disables it.
type Static struct {
	URLPrefix string
	Dir       string
}

func New(
	logger *zap.Logger,
	jwtAuth *middleware.JWTAuth,
	authLimiter *middleware.RateLimiter,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	playlistHandler *handlers.PlaylistHandler,
	metricsHandler http.Handler,
	static Static,
	corsOrigins string,
	trustProxy bool,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	if trustProxy {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(corsOrigins))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	if static.Dir != "" && strings.HasPrefix(static.URLPrefix, "/") {
		prefix := strings.TrimSuffix(static.URLPrefix, "/")
		r.Handle(prefix+"/*", http.StripPrefix(prefix+"/", http.FileServer(http.Dir(static.Dir))))
	}

	r.Route("/api/v1", func(r chi.Router) {

		// ──── User Routes ────
		r.Route("/users", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(authLimiter.Middleware)
				r.Post("/register", authHandler.Register)
				r.Post("/login", authHandler.Login)
				r.Post("/refresh-token", authHandler.Refresh)
			})

			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.Post("/logout", authHandler.Logout)
				r.Post("/change-password", userHandler.ChangePassword)
				r.Get("/me", userHandler.GetMe)
				r.Put("/update-account", userHandler.UpdateAccount)
				r.Put("/update-avatar", userHandler.UpdateAvatar)
			})
		})

		// ──── Playlist Routes ────
		r.Route("/playlist", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/create/new", playlistHandler.CreateNew)
			r.Post("/create/youtube", playlistHandler.ImportYouTube)
			r.Get("/", playlistHandler.List)
			r.Get("/{id}", playlistHandler.Get)
		})
	})

	return r
}
