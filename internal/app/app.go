// Package app wires configuration, storage, services and the HTTP router.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Murlii-Manohar/StyleTextSwapp/internal/http/handlers"
	"github.com/Murlii-Manohar/StyleTextSwapp/internal/http/handlers/guest"
	"github.com/Murlii-Manohar/StyleTextSwapp/internal/http/middleware"
	"github.com/Murlii-Manohar/StyleTextSwapp/internal/repo"
	"github.com/Murlii-Manohar/StyleTextSwapp/internal/repo/memory"
	"github.com/Murlii-Manohar/StyleTextSwapp/internal/repo/postgres"
	"github.com/Murlii-Manohar/StyleTextSwapp/internal/rewriter"
	"github.com/Murlii-Manohar/StyleTextSwapp/internal/service"
	"github.com/Murlii-Manohar/StyleTextSwapp/pkg/config"
	"github.com/Murlii-Manohar/StyleTextSwapp/pkg/database"
	"github.com/Murlii-Manohar/StyleTextSwapp/pkg/events"
	"github.com/Murlii-Manohar/StyleTextSwapp/pkg/logger"
	mw "github.com/Murlii-Manohar/StyleTextSwapp/pkg/middleware"
)

const serviceName = "styletext"

// OpenStore builds the configured storage backend. The choice is made once.
func OpenStore(ctx context.Context, cfg *config.Config) (repo.Store, error) {
	switch cfg.Storage.Backend {
	case config.StorageMemory:
		logger.Info("Using in-memory storage")
		return memory.New(), nil
	case config.StoragePostgres:
		pool, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		db := database.OpenDB(pool)
		if err := postgres.Migrate(ctx, db); err != nil {
			db.Close()
			pool.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		logger.Info("Using PostgreSQL storage")
		return &pooledStore{Store: postgres.New(db), pool: pool}, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// pooledStore closes the pgx pool behind the *sql.DB wrapper.
type pooledStore struct {
	*postgres.Store
	pool *pgxpool.Pool
}

func (s *pooledStore) Close() error {
	err := s.Store.Close()
	s.pool.Close()
	return err
}

// OpenEventBus connects to NATS, or returns a bus that drops events when no
// URL is configured.
func OpenEventBus(cfg config.NATSConfig) (events.EventBus, error) {
	if cfg.URL == "" {
		logger.Info("NATS_URL not set, events disabled")
		return events.NoopEventBus{}, nil
	}
	return events.NewNATSEventBus(cfg.URL)
}

// NewRouter builds the HTTP handler for the whole API.
func NewRouter(cfg *config.Config, store repo.Store, rw rewriter.Rewriter, eventBus events.Publisher) http.Handler {
	sessions := middleware.NewSessions(cfg.Auth).BoundTo(store.Epoch())

	identity := service.NewIdentityService(store, eventBus, cfg.Guest.MaxUsage)
	transforms := service.NewTransformService(store, service.NewUsageLedger(store), rw, eventBus)
	accounts := service.NewAuthService(store, eventBus)

	guestHandler := guest.NewHandler(identity, sessions)
	transformHandler := handlers.NewTransformHandler(transforms)
	authHandler := handlers.NewAuthHandler(accounts, sessions)

	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName(serviceName))
	r.Use(mw.Logging)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(mw.Health)
	r.Use(mw.Metrics)
	r.Use(sessions.Load)

	r.Route("/api", func(r chi.Router) {
		r.Post("/transform", transformHandler.Transform)
		r.Mount("/guest", guestHandler.Routes())

		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)

		// Account-only routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAccount)
			r.Get("/user", authHandler.Me)
			r.Get("/transformations", transformHandler.History)
		})
	})

	return r
}
