package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/akorchagin/vidstream/internal/db"
	"github.com/akorchagin/vidstream/internal/handlers"
	"github.com/akorchagin/vidstream/internal/handlers/middleware"
	"github.com/akorchagin/vidstream/internal/logger"
	"github.com/akorchagin/vidstream/internal/mediastore"
	"github.com/akorchagin/vidstream/internal/repository/postgres"
	"github.com/akorchagin/vidstream/internal/service/auth"
	"github.com/akorchagin/vidstream/internal/service/auth/tokenmanager"
	"github.com/akorchagin/vidstream/internal/service/user"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	log logger.Logger
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	log, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	userRepo := &postgres.UserRepo{DB: pool}

	// Initialize services
	tokenManager, err := tokenmanager.New(tokenmanager.Config{
		AccessSecret:  c.AccessTokenSecret,
		RefreshSecret: c.RefreshTokenSecret,
		AccessTTL:     c.AccessTokenTTL,
		RefreshTTL:    c.RefreshTokenTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}

	sessionService, err := auth.NewService(auth.Config{}, tokenManager, userRepo)
	if err != nil {
		return nil, fmt.Errorf("error while creating session service. Err: %w", err)
	}

	media, err := mediastore.New(ctx, mediastore.Config{
		AccessKey:     c.S3AccessKey,
		SecretKey:     c.S3SecretKey,
		Region:        c.S3Region,
		Endpoint:      c.S3Endpoint,
		Bucket:        c.S3Bucket,
		PublicBaseURL: c.S3PublicURL,
	})
	if err != nil {
		return nil, fmt.Errorf("error while creating media store. Err: %w", err)
	}

	profileService, err := user.NewService(userRepo, media)
	if err != nil {
		return nil, fmt.Errorf("error while creating profile service. Err: %w", err)
	}

	// Initialize handlers and complete them as router
	router := handlers.NewRouter(
		handlers.NewAuth(sessionService, media, log),
		handlers.NewUser(profileService, log),
		middleware.AuthMiddleware(sessionService),
		middleware.LoggerMiddleware(log),
	)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    router,
		log:        log,
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			s.log.Error("HTTP server shutdown timeout exceeded, forcing shutdown")
		}
		s.log.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.log.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}
