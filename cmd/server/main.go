package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/pesio-ai/be-dash-approvals/internal/auth"
	"github.com/pesio-ai/be-dash-approvals/internal/config"
	"github.com/pesio-ai/be-dash-approvals/internal/events"
	"github.com/pesio-ai/be-dash-approvals/internal/handler"
	"github.com/pesio-ai/be-dash-approvals/internal/logger"
	"github.com/pesio-ai/be-dash-approvals/internal/middleware"
	"github.com/pesio-ai/be-dash-approvals/internal/store"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:       os.Getenv("LOG_LEVEL"),
		Environment: cfg.Service.Environment,
		ServiceName: cfg.Service.Name,
		Version:     cfg.Service.Version,
	})

	log.Info().
		Str("service", cfg.Service.Name).
		Str("version", cfg.Service.Version).
		Str("environment", cfg.Service.Environment).
		Msg("Starting Dashboard Approvals Service")

	// Create context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize storage backend
	storage, cleanup, err := newStorage(ctx, cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Storage.Backend).Msg("Failed to initialize storage")
	}
	defer cleanup()
	log.Info().Str("backend", cfg.Storage.Backend).Msg("Storage initialized")

	// Initialize NATS event fan-out (optional)
	var publisher *events.Publisher
	if cfg.NATS.URL != "" {
		publisher, err = events.Connect(cfg.NATS.URL, log.Logger)
		if err != nil {
			log.Fatal().Err(err).Str("url", cfg.NATS.URL).Msg("Failed to connect to NATS")
		}
		defer publisher.Close()
		log.Info().Str("url", cfg.NATS.URL).Msg("NATS event fan-out enabled")
	}

	// Initialize stores (notifications first; approvals emit into it)
	notifications, err := store.NewNotificationStore(ctx, storage, publisher, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load notification store")
	}
	approvals, err := store.NewApprovalStore(ctx, storage, notifications, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load approval store")
	}
	log.Info().
		Int("pending", approvals.PendingCount()).
		Int("unread", notifications.UnreadCount()).
		Msg("Stores rehydrated")

	// Initialize credential directory
	directory := auth.NewDirectory()
	if cfg.Auth.CredentialsFile != "" {
		if err := directory.LoadFile(cfg.Auth.CredentialsFile); err != nil {
			log.Fatal().Err(err).Str("path", cfg.Auth.CredentialsFile).Msg("Failed to load credentials")
		}
	}

	// Setup HTTP routes
	httpHandler := handler.NewHTTPHandler(approvals, notifications, log)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	// Approval routes
	mux.HandleFunc("/api/v1/approvals", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			httpHandler.ListApprovals(w, r)
		case http.MethodPost:
			httpHandler.CreateApproval(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/api/v1/approvals/approve", httpHandler.ApproveRequest)
	mux.HandleFunc("/api/v1/approvals/reject", httpHandler.RejectRequest)

	// Notification routes
	mux.HandleFunc("/api/v1/notifications", httpHandler.ListNotifications)
	mux.HandleFunc("/api/v1/notifications/read", httpHandler.MarkNotificationRead)
	mux.HandleFunc("/api/v1/notifications/read-all", httpHandler.MarkAllNotificationsRead)
	mux.HandleFunc("/api/v1/notifications/delete", httpHandler.DeleteNotification)
	mux.HandleFunc("/api/v1/notifications/clear", httpHandler.ClearNotifications)

	// Apply middleware
	var h http.Handler = mux
	h = auth.Middleware(directory)(h)
	h = middleware.RequestID(h)
	h = middleware.Logger(&log.Logger)(h)
	h = middleware.Recovery(&log.Logger)(h)
	h = middleware.CORS([]string{"*"})(h)
	h = middleware.Timeout(cfg.Server.WriteTimeout)(h)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      h,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("HTTP server failed")
		}
	}()

	// Start gRPC server (health + reflection; domain operations are HTTP-only)
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer) // Enable reflection for debugging

	grpcListener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPC.Port))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create gRPC listener")
	}

	go func() {
		log.Info().Int("port", cfg.GRPC.Port).Msg("Starting gRPC server")
		if err := grpcServer.Serve(grpcListener); err != nil {
			log.Error().Err(err).Msg("gRPC server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	// Stop gRPC server gracefully
	grpcServer.GracefulStop()

	log.Info().Msg("Server stopped")
}

// newStorage builds the configured storage backend and returns it with
// its cleanup function.
func newStorage(ctx context.Context, cfg config.Storage) (store.Storage, func(), error) {
	noop := func() {}

	switch cfg.Backend {
	case "memory":
		return store.NewMemoryStorage(), noop, nil
	case "file":
		s, err := store.NewFileStorage(cfg.Dir)
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil
	case "sqlite":
		s, err := store.NewSQLiteStorage(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		return s, func() { s.Close() }, nil
	case "postgres":
		s, err := store.NewPostgresStorage(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
