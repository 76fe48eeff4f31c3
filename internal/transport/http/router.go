package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"warbler/internal/handler"
	"warbler/internal/httputil"
	"warbler/internal/logging"
	"warbler/internal/metrics"
	"warbler/internal/session"
	authmw "warbler/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler    *handler.AuthHandler
	UserHandler    *handler.UserHandler
	FollowHandler  *handler.FollowHandler
	MessageHandler *handler.MessageHandler
	HomeHandler    *handler.HomeHandler

	Sessions *session.Manager
	Tokens   authmw.TokenParser
	Users    authmw.UserLoader
}

// NewRouter creates and configures a new Chi router with all routes.
// Login requirements are checked per handler since anonymous visitors get
// different redirects on different pages.
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Instrument)
	r.Use(httputil.NoCache)

	// Operational endpoints
	r.Get("/health", handler.Health)
	r.Method("GET", "/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(authmw.LoadCurrentUser(cfg.Sessions, cfg.Tokens, cfg.Users))

		r.Get("/", cfg.HomeHandler.Home)

		// Auth
		r.Get("/signup", cfg.AuthHandler.SignupForm)
		r.Post("/signup", cfg.AuthHandler.Signup)
		r.Get("/login", cfg.AuthHandler.LoginForm)
		r.Post("/login", cfg.AuthHandler.Login)
		r.Get("/logout", cfg.AuthHandler.Logout)
		r.Post("/api/token", cfg.AuthHandler.Token)

		r.Route("/users", func(r chi.Router) {
			r.Get("/", cfg.UserHandler.Index)
			r.Get("/profile", cfg.UserHandler.EditForm)
			r.Post("/profile", cfg.UserHandler.Edit)
			r.Get("/likes", cfg.UserHandler.Likes)
			r.Post("/follow/{id}", cfg.FollowHandler.Follow)
			r.Post("/stop-following/{id}", cfg.FollowHandler.StopFollowing)
			r.Post("/add_like/{id}", cfg.MessageHandler.ToggleLike)

			r.Get("/{id}", cfg.UserHandler.Show)
			r.Get("/{id}/following", cfg.FollowHandler.Following)
			r.Get("/{id}/followers", cfg.FollowHandler.Followers)
			r.Post("/{id}/delete", cfg.UserHandler.Delete)
		})

		r.Route("/messages", func(r chi.Router) {
			r.Get("/new", cfg.MessageHandler.NewForm)
			r.Post("/new", cfg.MessageHandler.Create)
			r.Get("/{id}", cfg.MessageHandler.Show)
			r.Post("/{id}/delete", cfg.MessageHandler.Delete)
		})
	})

	return r
}
