package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/coursetable/ferry/internal/bootstrap"
	"github.com/coursetable/ferry/internal/config"
	"github.com/coursetable/ferry/internal/db"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Server holds the state for the operations HTTP server.
type Server struct {
	config   *config.Config
	router   *gin.Engine
	database *db.PostgresDB
	deps     *bootstrap.Dependencies
	logger   zerolog.Logger
	http     *http.Server
}

// NewServer creates and initializes a new server instance by calling bootstrap functions.
func NewServer(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*Server, error) {
	database, err := bootstrap.SetupDatabase(ctx, cfg, lgr)
	if err != nil {
		return nil, fmt.Errorf("failed to setup database: %w", err)
	}

	if err := bootstrap.RunMigrations(ctx, cfg, database, lgr); err != nil {
		database.Close()
		return nil, err
	}

	deps, err := bootstrap.BuildDependencies(cfg, database, lgr)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to setup dependencies: %w", err)
	}

	if err := bootstrap.RecoverInterruptedRuns(ctx, deps); err != nil {
		database.Close()
		return nil, err
	}

	return &Server{
		config:   cfg,
		router:   bootstrap.SetupRouter(cfg, deps, lgr),
		database: database,
		deps:     deps,
		logger:   lgr,
	}, nil
}

// Run starts the HTTP server and the event hub, and shuts both down on
// SIGINT/SIGTERM or when ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go s.deps.EventsHub.Run(hubCtx)

	s.http = &http.Server{
		Addr:         ":" + s.config.Server.Port,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.http.Addr).Msg("HTTP server listening")
		serverErrors <- s.http.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			s.close()
			return fmt.Errorf("error starting server: %w", err)
		}
	case <-ctx.Done():
		s.logger.Info().Msg("Shutdown requested, stopping server...")
	}

	err := s.Shutdown(context.Background())
	stopHub()
	return err
}

// Shutdown stops accepting requests, waits for background runs to record
// their outcome and closes the database pool.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, config.Duration(s.config.Server.ShutdownTimeout, 10*time.Second))
	defer cancel()

	var errs []error
	if s.http != nil {
		s.logger.Info().Msg("Shutting down HTTP server...")
		if err := s.http.Shutdown(ctx); err != nil {
			s.logger.Error().Err(err).Msg("HTTP server shutdown error")
			errs = append(errs, err)
		}
	}

	if err := s.deps.RunService.Shutdown(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Pipeline runs did not stop in time")
		errs = append(errs, err)
	}

	s.close()
	s.logger.Info().Msg("Server shutdown process complete.")
	return errors.Join(errs...)
}

func (s *Server) close() {
	if s.database != nil {
		s.logger.Info().Msg("Closing database connection pool...")
		s.database.Close()
		s.database = nil
	}
}
