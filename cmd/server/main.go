package main

import (
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/anirudhnegi03/tarunet/internal/auth"
	"github.com/anirudhnegi03/tarunet/internal/cache"
	"github.com/anirudhnegi03/tarunet/internal/database"
	"github.com/anirudhnegi03/tarunet/internal/handlers"
	"github.com/anirudhnegi03/tarunet/internal/middleware"
	"github.com/anirudhnegi03/tarunet/internal/notify"
)

func main() {
	auth.Init()
	database.ConnectDB()

	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)

	if err := cache.ConnectRedis(); err != nil {
		logger.Warnf("redis unavailable, friend events will not be queued: %v", err)
	}

	hub := notify.NewHub()

	r := chi.NewRouter()

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.LogMiddleware(logger))

		api.Route("/auth", func(ar chi.Router) {
			ar.Post("/signup", handlers.SignupHandler)
			ar.Post("/login", handlers.LoginHandler)
			ar.Post("/logout", handlers.LogoutHandler)
			ar.With(middleware.RequireAuth).Post("/onboarding", handlers.OnboardingHandler)
			ar.With(middleware.RequireAuth).Get("/me", handlers.MeHandler)
		})

		api.Route("/users", func(ur chi.Router) {
			ur.Use(middleware.RequireAuth)
			ur.Get("/", handlers.RecommendedUsersHandler)
			ur.Get("/friends", handlers.MyFriendsHandler)
			ur.Delete("/friends/{id}", handlers.RemoveFriendHandler(hub))
			ur.Post("/friend-requests/{id}", handlers.SendFriendRequestHandler(hub))
			ur.Put("/friend-requests/{id}/accept", handlers.AcceptFriendRequestHandler(hub))
			ur.Delete("/friend-requests/{id}/reject", handlers.RejectFriendRequestHandler(hub))
			ur.Get("/friend-requests", handlers.FriendRequestsHandler)
			ur.Get("/outgoing-friend-requests", handlers.OutgoingFriendRequestsHandler)
		})
	})

	// The notification socket sits outside the logging group; the status
	// recorder does not implement http.Hijacker.
	r.With(middleware.RequireAuth).Get("/ws/notifications", handlers.NotificationsWSHandler(logger, hub))

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
