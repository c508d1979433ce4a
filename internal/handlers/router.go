package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jeremyjsx/journal/internal/auth"
	"github.com/jeremyjsx/journal/internal/middleware"
	"github.com/jeremyjsx/journal/internal/posts"
)

type RouterDeps struct {
	Posts  *posts.Service
	Auth   auth.Provider
	Health *HealthDeps
	Logger *slog.Logger

	CORSAllowedOrigins []string
	// SignInLimiter throttles POST /api/auth/signin when set.
	SignInLimiter *middleware.RateLimiter
}

func NewRouter(deps RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging(logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: deps.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	if deps.Health != nil {
		r.Get("/health", Health(deps.Health))
	}

	postsHandler := NewPostsHandler(deps.Posts, logger)
	authHandler := NewAuthHandler(deps.Auth, logger)
	authenticate := middleware.Authenticate(deps.Auth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", authHandler.SignUp())
			if deps.SignInLimiter != nil {
				r.With(deps.SignInLimiter.Limit).Post("/signin", authHandler.SignIn())
			} else {
				r.Post("/signin", authHandler.SignIn())
			}
			r.Post("/signout", authHandler.SignOut())
			r.With(authenticate).Get("/me", authHandler.Me())
		})

		r.Get("/posts", postsHandler.ListPublished())
		r.Get("/posts/{id}", postsHandler.GetPublished())
		r.Get("/categories", postsHandler.Categories())

		r.Route("/admin", func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.RequireAdmin)

			r.Get("/stats", postsHandler.Stats())
			r.Get("/posts", postsHandler.List())
			r.Post("/posts", postsHandler.Create())
			r.Get("/posts/{id}", postsHandler.Get())
			r.Put("/posts/{id}", postsHandler.Update())
			r.Delete("/posts/{id}", postsHandler.Delete())
		})
	})

	return r
}
