package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"umrah-companion-backend/internal/config"
	"umrah-companion-backend/internal/handlers"
	"umrah-companion-backend/internal/middleware"
	"umrah-companion-backend/internal/repository"
	"umrah-companion-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Run() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	// Connect to database
	db, err := pgxpool.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Database connection established")

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	locationRepo := repository.NewLocationRepository(db)
	duaRepo := repository.NewDuaRepository(db)
	placeRepo := repository.NewPlaceRepository(db)
	guideRepo := repository.NewGuideRepository(db)

	// Initialize services
	userService := services.NewUserService(userRepo, groupRepo, cfg.JWT.Secret)
	groupService := services.NewGroupService(groupRepo, userRepo, locationRepo)
	messageService := services.NewMessageService(messageRepo)
	mediaService, err := services.NewMediaService(cfg.Media)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create media service")
	}
	duaService := services.NewDuaService(duaRepo, mediaService)
	pushService, err := services.NewPushService(cfg.APNS)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create push service")
	}
	chatHub := services.NewChatHub(messageRepo, userRepo, groupService, pushService)
	locationHub := services.NewLocationHub(locationRepo)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	userHandler := handlers.NewUserHandler(userService)
	groupHandler := handlers.NewGroupHandler(groupService, messageService)
	duaHandler := handlers.NewDuaHandler(duaService)
	placeHandler := handlers.NewPlaceHandler(placeRepo)
	guideHandler := handlers.NewGuideHandler(guideRepo)
	locationHandler := handlers.NewLocationHandler(locationRepo)
	mediaHandler := handlers.NewMediaHandler(mediaService)
	wsHandler := handlers.NewWSHandler(chatHub, locationHub, userService)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)

	// Routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/auth/login", authHandler.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(userService))

			r.Get("/users", userHandler.ListUsers)
			r.Post("/users/{user_id}/push-token", userHandler.RegisterPushToken)

			r.Get("/groups", groupHandler.ListGroups)
			r.Get("/groups/{group_id}", groupHandler.GetGroup)
			r.Get("/groups/{group_id}/messages", groupHandler.GetMessages)

			r.Get("/duas", duaHandler.ListDuas)
			r.Get("/duas/categories", duaHandler.Categories)
			r.Get("/duas/{dua_id}", duaHandler.GetDua)
			r.Get("/places", placeHandler.ListPlaces)
			r.Get("/guides", guideHandler.ListGuides)

			r.Get("/locations", locationHandler.ListLocations)
			r.Get("/locations/{user_id}", locationHandler.GetLocation)

			r.Post("/media/signature", mediaHandler.SignUpload)

			// Admin-only mutations
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin)

				r.Post("/users", userHandler.CreateUser)
				r.Put("/users/{user_id}", userHandler.UpdateUser)
				r.Delete("/users/{user_id}", userHandler.DeleteUser)

				r.Post("/groups", groupHandler.CreateGroup)
				r.Put("/groups/{group_id}", groupHandler.UpdateGroup)
				r.Delete("/groups/{group_id}", groupHandler.DeleteGroup)

				r.Post("/duas", duaHandler.CreateDua)
				r.Put("/duas/{dua_id}", duaHandler.UpdateDua)
				r.Delete("/duas/{dua_id}", duaHandler.DeleteDua)

				r.Post("/places", placeHandler.CreatePlace)
				r.Put("/places/{place_id}", placeHandler.UpdatePlace)
				r.Delete("/places/{place_id}", placeHandler.DeletePlace)

				r.Post("/guides", guideHandler.CreateGuide)
				r.Put("/guides/{guide_id}", guideHandler.UpdateGuide)
				r.Delete("/guides/{guide_id}", guideHandler.DeleteGuide)
			})
		})
	})

	// WebSocket routes
	r.Get("/ws/chat", wsHandler.HandleChat)
	r.Get("/ws/location", wsHandler.HandleLocation)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
