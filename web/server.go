package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"local-guide/config"
	"local-guide/guide"
	"local-guide/web/handlers"
	"local-guide/web/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	router  *gin.Engine
	guide   *guide.Service
	limiter *middleware.ClientRateLimiter
	logger  *zap.Logger
	config  *config.Config
}

func NewServer(svc *guide.Service, logger *zap.Logger, cfg *config.Config) (*Server, error) {
	// Set Gin mode based on environment
	gin.SetMode(gin.ReleaseMode)

	limiter, err := middleware.NewClientRateLimiter(middleware.RateLimiterConfig{
		RequestsPerMinute: cfg.RateLimitRequestsPerMin,
		BurstSize:         cfg.RateLimitBurstSize,
		MaxClients:        cfg.RateLimitClients,
	})
	if err != nil {
		return nil, err
	}

	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(func(c *gin.Context) {
		// Add logger to context
		c.Set("logger", logger)
		c.Next()
	})
	router.Use(middleware.RequestIDMiddleware())
	router.Use(cors.New(corsConfig(cfg.CORSAllowedOrigins)))

	server := &Server{
		router:  router,
		guide:   svc,
		limiter: limiter,
		logger:  logger,
		config:  cfg,
	}

	server.setupRoutes()
	return server, nil
}

func corsConfig(origins []string) cors.Config {
	c := cors.DefaultConfig()
	c.AllowHeaders = append(c.AllowHeaders, middleware.RequestIDHeader)
	c.ExposeHeaders = []string{middleware.RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining"}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	return c
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	guideHandler := handlers.NewGuideHandler(s.guide, s.config.DocumentPath, s.logger)

	s.router.GET("/healthz", guideHandler.Health)
	s.router.GET("/readyz", guideHandler.Ready)
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.guide.Metrics().Registry(), promhttp.HandlerOpts{})))

	api := s.router.Group("/api")
	api.GET("/status", guideHandler.Status)
	api.GET("/items", guideHandler.Items)
	api.GET("/items/:id", guideHandler.Item)
	api.POST("/answer", middleware.RateLimitMiddleware(s.limiter), guideHandler.Answer)
	api.POST("/reload", middleware.RateLimitMiddleware(s.limiter), guideHandler.Reload)
}

func (s *Server) Start(ctx context.Context, addr string) error {
	s.logger.Info("Starting web server", zap.String("address", addr))

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	// Start server in a goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Web server failed to start", zap.Error(err))
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down web server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
