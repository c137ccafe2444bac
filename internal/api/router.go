package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/adityakr/videotube-be/internal/api/handlers"
	"github.com/adityakr/videotube-be/internal/auth"
	"github.com/adityakr/videotube-be/internal/config"
	"github.com/adityakr/videotube-be/internal/monitoring"
	"github.com/adityakr/videotube-be/internal/services"
)

// Deps bundles everything the router wires together.
type Deps struct {
	Config        *config.Config
	Tokens        *auth.TokenManager
	Users         services.UserServiceProvider
	Channels      services.ChannelServiceProvider
	Subscriptions services.SubscriptionServiceProvider
	Videos        services.VideoServiceProvider
	Events        services.EventServiceProvider
	Stats         *monitoring.StatUpdater
}

// NewRouter creates and configures a new Chi router.
func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{d.Config.CORSOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	userHandler := handlers.NewUserHandler(d.Users, d.Events, d.Config.UploadTempDir,
		d.Config.IsProduction(), d.Config.Tokens.RefreshExpiry)
	channelHandler := handlers.NewChannelHandler(d.Channels)
	subscriptionHandler := handlers.NewSubscriptionHandler(d.Subscriptions)
	videoHandler := handlers.NewVideoHandler(d.Videos, d.Config.UploadTempDir)
	systemHandler := handlers.NewSystemHandler(d.Stats)

	requireAuth := auth.RequireAuth(d.Tokens, d.Users)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/register", userHandler.Register)
			r.Post("/login", userHandler.Login)
			r.Post("/refresh-token", userHandler.Refresh)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/logout", userHandler.Logout)
				r.Post("/change-password", userHandler.ChangePassword)
				r.Get("/me", userHandler.GetMe)
				r.Patch("/update-account", userHandler.UpdateAccount)
				r.Patch("/avatar", userHandler.UpdateAvatar)
				r.Patch("/cover-image", userHandler.UpdateCoverImage)
				r.Get("/history", channelHandler.GetWatchHistory)
				r.Get("/activity", userHandler.Activity)
			})
		})

		r.Route("/channels", func(r chi.Router) {
			r.Get("/{username}/videos", videoHandler.ListForChannel)
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/{username}", channelHandler.GetProfile)
			})
		})

		r.Route("/subscriptions", func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/{username}/toggle", subscriptionHandler.Toggle)
			r.Get("/subscribers", subscriptionHandler.Subscribers)
			r.Get("/channels", subscriptionHandler.Channels)
		})

		r.Route("/videos", func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", videoHandler.Publish)
			r.Get("/{id}", videoHandler.Get)
		})

		r.Get("/system/stats", systemHandler.GetStats)
	})

	return r
}
