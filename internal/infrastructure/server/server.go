package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lumos-edit/lumos/backend/internal/api/middleware"
	"github.com/lumos-edit/lumos/backend/internal/infrastructure/config"
	"github.com/lumos-edit/lumos/backend/internal/infrastructure/logging"
	"github.com/lumos-edit/lumos/backend/internal/infrastructure/monitoring"
	"github.com/lumos-edit/lumos/backend/internal/proxy"
	"github.com/lumos-edit/lumos/backend/internal/relay"
	"github.com/lumos-edit/lumos/backend/internal/relay/registry"
)

// Server wraps the HTTP server and its dependencies
type Server struct {
	router  *gin.Engine
	store   registry.Store
	relay   *relay.Handler
	proxy   *proxy.Handler
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics
}

// NewServer creates a fully wired server instance
func NewServer(cfg *config.Config) (*Server, error) {
	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else {
		logger = logging.NewDefault()
	}

	logger.Info("Initializing Lumos server",
		zap.String("port", cfg.Server.Port),
		zap.String("relay_path", cfg.Relay.Path),
	)

	metrics := monitoring.NewMetrics()

	store := registry.NewMemoryStore()
	relayHandler := relay.NewHandler(store, logger, cfg.Relay).WithMetrics(metrics)

	fetcher := proxy.NewFetcher(cfg.Proxy)
	proxyHandler := proxy.NewHandler(fetcher, logger).WithMetrics(metrics)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "lumos-backend",
			"status":  "running",
		})
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"sessions": store.Len(),
		})
	})

	router.GET("/api/proxy", proxyHandler.Handle)
	router.GET("/api/bootstrap.js", proxyHandler.ServeBootstrap)

	router.GET(cfg.Relay.Path, relayHandler.HandleConnection)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	logger.Info("Server initialized successfully")

	return &Server{
		router:  router,
		store:   store,
		relay:   relayHandler,
		proxy:   proxyHandler,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
	}, nil
}

// Router exposes the gin engine, mainly for tests
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run starts the HTTP server
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.logger.Info("Starting HTTP server", zap.String("addr", addr))
	return s.router.Run(addr)
}

// Close gracefully shuts down the server
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")
	s.logger.Sync()
	return nil
}
