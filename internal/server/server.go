package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/supportdesk/apiserver/config"
	"github.com/supportdesk/apiserver/internal/db"
	"github.com/supportdesk/apiserver/internal/events"
	"github.com/supportdesk/apiserver/internal/handlers"
	"github.com/supportdesk/apiserver/internal/services"
	"github.com/supportdesk/apiserver/internal/storage"
	"github.com/supportdesk/apiserver/internal/store"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	publisher  *events.Publisher
}

// New constructs a Server with basic middleware and defaults.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	jwtSecret := strings.TrimSpace(cfg.Auth.JWTSecret)
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)
	ticketRepo := store.NewTicketRepository(dbConn)
	noteRepo := store.NewNoteRepository(dbConn)

	userService := services.NewUserService(userRepo)
	ticketService := services.NewTicketService(ticketRepo)
	noteService := services.NewNoteService(noteRepo, ticketService)

	var publisher *events.Publisher
	backend, err := events.NewBackend(ctx, cfg.MQ)
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("init event backend: %w", err)
	}
	if backend != nil {
		publisher = events.NewPublisher(backend, cfg.MQ.Channel)
		ticketService.WithPublisher(publisher)
		noteService.WithPublisher(publisher)
	}

	attachments, err := storage.NewFromConfig(ctx, cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("init attachment storage: %w", err)
	}
	if attachments != nil {
		if err := attachments.EnsureBucket(ctx); err != nil {
			_ = dbConn.Close()
			return nil, fmt.Errorf("ensure attachment bucket: %w", err)
		}
		ticketService.WithStorage(attachments)
	}

	authMiddleware := handlers.RequireAuth(jwtSecret, userService)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/api/users", func(r chi.Router) {
		handlers.AuthRouter(r, userService, cfg.Auth)
	})
	router.Route("/api/tickets", func(r chi.Router) {
		handlers.TicketRouter(r, ticketService, noteService, authMiddleware)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("server configured", "port", port, "attachments", attachments != nil, "events", publisher != nil)

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		publisher:  publisher,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.publisher != nil {
		_ = s.publisher.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}
