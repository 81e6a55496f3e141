package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/roomatch/apiserver/config"
	"github.com/roomatch/apiserver/internal/db"
	"github.com/roomatch/apiserver/internal/handlers"
	"github.com/roomatch/apiserver/internal/mq"
	"github.com/roomatch/apiserver/internal/services"
	"github.com/roomatch/apiserver/internal/storage"
	"github.com/roomatch/apiserver/internal/store"
	"github.com/roomatch/apiserver/internal/store/memory"
	"github.com/roomatch/apiserver/types"
)

// Deps bundles the wired services the router mounts.
type Deps struct {
	Logger    zerolog.Logger
	Users     *services.UserService
	Tokens    *services.TokenService
	Rooms     *services.RoomService
	Messages  *services.MessageService
	Feedback  *services.FeedbackService
	Ads       *services.AdService
	Analytics *services.AnalyticsService
	Media     *storage.Storage
}

// Server wraps the HTTP server and the resources it owns.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	tokenStore *store.RedisTokenStore
	bus        *mq.MQ
}

// New wires up the configured backends and constructs a Server.
func New(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*Server, error) {
	if cfg.Auth.AccessSecret == "" || cfg.Auth.RefreshSecret == "" {
		return nil, errors.New("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET are required")
	}

	srv := &Server{}

	var dbConn *sql.DB
	needsDB := cfg.StoreBackend == "postgres" || cfg.TokenStoreBackend == "postgres"
	if needsDB {
		conn, err := db.Open(ctx, cfg)
		if err != nil {
			return nil, err
		}
		dbConn = conn
		srv.db = conn
	}

	var (
		userRepo  services.UserRepository
		roomRepo  services.RoomRepository
		fbRepo    services.FeedbackRepository
		convoRepo services.ConversationRepository
		adRepo    services.AdRepository
		eventRepo services.EventRepository
	)
	switch cfg.StoreBackend {
	case "postgres":
		userRepo = store.NewUserRepository(dbConn)
		roomRepo = store.NewRoomRepository(dbConn)
		fbRepo = store.NewFeedbackRepository(dbConn)
		convoRepo = store.NewConversationRepository(dbConn)
		adRepo = store.NewAdRepository(dbConn)
		eventRepo = store.NewEventRepository(dbConn)
	case "memory":
		userRepo = memory.NewUserStore()
		roomRepo = memory.NewRoomStore()
		fbRepo = memory.NewFeedbackStore()
		convoRepo = memory.NewConversationStore()
		adRepo = memory.NewAdStore()
		eventRepo = memory.NewEventStore()
	default:
		srv.close()
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	var tokenStore services.RefreshTokenStore
	switch cfg.TokenStoreBackend {
	case "postgres":
		tokenStore = store.NewTokenRepository(dbConn)
	case "redis":
		redisStore, err := store.NewRedisTokenStore(ctx, cfg.Redis)
		if err != nil {
			srv.close()
			return nil, err
		}
		srv.tokenStore = redisStore
		tokenStore = redisStore
	case "memory":
		tokenStore = memory.NewTokenStore()
	default:
		srv.close()
		return nil, fmt.Errorf("unknown token store backend %q", cfg.TokenStoreBackend)
	}

	var bus *mq.MQ
	switch cfg.MQBackend {
	case "rabbitmq":
		backend, err := mq.NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			srv.close()
			return nil, err
		}
		bus = mq.New(backend)
	case "pubsub":
		backend, err := mq.NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			srv.close()
			return nil, err
		}
		bus = mq.New(backend)
	case "none", "":
	default:
		srv.close()
		return nil, fmt.Errorf("unknown mq backend %q", cfg.MQBackend)
	}
	srv.bus = bus

	var media *storage.Storage
	switch cfg.StorageBackend {
	case "minio":
		backend, err := storage.NewMinioClient(cfg.Minio)
		if err != nil {
			srv.close()
			return nil, err
		}
		media = storage.NewStorage(backend)
	case "gcs":
		backend, err := storage.NewGCSClient(ctx, cfg.GCS)
		if err != nil {
			srv.close()
			return nil, err
		}
		media = storage.NewStorage(backend)
	case "none", "":
	default:
		srv.close()
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
	if media != nil {
		if err := media.EnsureBucket(ctx); err != nil {
			srv.close()
			return nil, err
		}
		logger.Info().
			Str("backend", cfg.StorageBackend).
			Str("bucket", media.Bucket()).
			Msg("media storage ready")
	}

	userService := services.NewUserService(userRepo)
	analyticsService := services.NewAnalyticsService(eventRepo, bus, logger)
	tokenService := services.NewTokenService(cfg.Auth, tokenStore)
	roomService := services.NewRoomService(roomRepo, userRepo, media, analyticsService)
	messageService := services.NewMessageService(convoRepo)
	feedbackService := services.NewFeedbackService(fbRepo, userService, roomRepo)
	adService := services.NewAdService(adRepo, analyticsService)

	router := NewRouter(Deps{
		Logger:    logger,
		Users:     userService,
		Tokens:    tokenService,
		Rooms:     roomService,
		Messages:  messageService,
		Feedback:  feedbackService,
		Ads:       adService,
		Analytics: analyticsService,
		Media:     media,
	})
	srv.router = router

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}
	srv.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return srv, nil
}

// NewRouter assembles the full route tree from already-wired services.
func NewRouter(deps Deps) *chi.Mux {
	authHandler := handlers.NewAuthHandler(deps.Users, deps.Tokens, deps.Analytics)
	userHandler := handlers.NewUserHandler(deps.Users)
	roomHandler := handlers.NewRoomHandler(deps.Rooms)
	mediaHandler := handlers.NewMediaHandler(deps.Media)
	messageHandler := handlers.NewMessageHandler(deps.Messages)
	feedbackHandler := handlers.NewFeedbackHandler(deps.Feedback)
	adHandler := handlers.NewAdHandler(deps.Ads)
	adminHandler := handlers.NewAdminHandler(deps.Users, deps.Rooms, deps.Feedback, deps.Ads)

	router := chi.NewRouter()
	router.Use(
		chimiddleware.RequestID,
		chimiddleware.RealIP,
		chimiddleware.Recoverer,
		requestLogger(deps.Logger),
		requestMetrics,
		chimiddleware.Timeout(60*time.Second),
	)

	router.Get("/healthz", handlers.Healthz)
	router.Handle("/metrics", promhttp.Handler())

	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, authHandler)
	})
	router.Route("/users", func(r chi.Router) {
		r.Use(authHandler.RequireAuth)
		handlers.UserRouter(r, userHandler)
	})
	router.Route("/rooms", func(r chi.Router) {
		handlers.RoomRouter(r, roomHandler, authHandler.RequireAuth)
	})
	router.Route("/media", func(r chi.Router) {
		handlers.MediaRouter(r, mediaHandler)
	})
	router.Route("/messages", func(r chi.Router) {
		r.Use(authHandler.RequireAuth)
		handlers.MessageRouter(r, messageHandler)
	})
	router.Route("/feedback", func(r chi.Router) {
		handlers.FeedbackRouter(r, feedbackHandler, authHandler.RequireAuth)
	})
	router.Route("/ads", func(r chi.Router) {
		handlers.AdRouter(r, adHandler)
	})
	router.Route("/admin", func(r chi.Router) {
		r.Use(authHandler.RequireAuth, handlers.RequireRole(types.RoleAdmin))
		handlers.AdminRouter(r, adminHandler)
	})

	return router
}

// Router exposes the chi router for route inspection.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown and releases owned resources.
func (s *Server) Shutdown() error {
	s.close()
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Close()
}

func (s *Server) close() {
	if s.db != nil {
		_ = s.db.Close()
	}
	if s.tokenStore != nil {
		_ = s.tokenStore.Close()
	}
	if s.bus != nil {
		_ = s.bus.Close()
	}
}
