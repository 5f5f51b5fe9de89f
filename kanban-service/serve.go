package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/chepyr/go-kanban/internal/config"
	"github.com/chepyr/go-kanban/internal/db"
	"github.com/chepyr/go-kanban/internal/events"
	"github.com/chepyr/go-kanban/internal/handlers"
	"github.com/chepyr/go-kanban/internal/kanban"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and websocket server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			dbConn, err := initDB(cmd, cfg)
			if err != nil {
				return err
			}
			defer dbConn.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			h, closeHandlers, err := initHandlers(ctx, cfg, dbConn)
			if err != nil {
				return err
			}
			defer closeHandlers()

			server := initServer(cfg, h.Routes())
			// Shutdown leaves hijacked websocket connections alone
			server.RegisterOnShutdown(h.WSHub.CloseAll)
			return startServer(ctx, server)
		},
	}
}

// initHandlers wires the service together. With REDIS_URL set, events go
// through Redis and every instance relays them to its own websocket hub. The
// returned func releases the background workers.
func initHandlers(ctx context.Context, cfg config.Config, dbConn *sqlx.DB) (*handlers.Handler, func(), error) {
	hub := handlers.NewWSHub()
	var (
		publisher events.Publisher = hub
		closeFn                    = func() {}
	)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("REDIS_URL: %w", err)
		}
		rc := redis.NewClient(opts)
		if err := rc.Ping(ctx).Err(); err != nil {
			rc.Close()
			return nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		publisher = events.NewRedisPublisher(rc, cfg.RedisChannel)
		go events.Relay(ctx, rc, cfg.RedisChannel, hub)
		closeFn = func() { rc.Close() }
		log.WithField("channel", cfg.RedisChannel).Info("relaying board events through redis")
	}

	limiter := handlers.NewRateLimiter(cfg.WSRateLimit, time.Second)
	h := &handlers.Handler{
		Service:        kanban.NewService(db.NewStore(dbConn), publisher),
		JWT:            handlers.JWTConfig{Secret: []byte(cfg.JWTSecret), Issuer: cfg.JWTIssuer, Audience: cfg.JWTAudience},
		RateLimiter:    limiter,
		WSHub:          hub,
		DB:             dbConn,
		AllowedOrigins: cfg.AllowedOrigins,
	}
	return h, func() {
		limiter.Stop()
		closeFn()
	}, nil
}

func initServer(cfg config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// startServer blocks until ctx is done and then shuts the server down.
func startServer(ctx context.Context, server *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", server.Addr).Info("starting kanban server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Info("server stopped")
	return nil
}
