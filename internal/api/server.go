package api

import (
	"io/fs"
	"net/http"
	"time"

	"diner/internal/controller"
	"diner/internal/monitoring"
	"diner/internal/session"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Options configures the HTTP server
type Options struct {
	Controller     *controller.Controller
	Tokens         *session.Tokens
	Hub            *Hub
	Monitor        *monitoring.Monitor
	Assets         fs.FS
	AllowedOrigins []string
	Logger         *log.Logger
}

// Server is the HTTP transport of the ordering service
type Server struct {
	router  *gin.Engine
	ctrl    *controller.Controller
	tokens  *session.Tokens
	hub     *Hub
	monitor *monitoring.Monitor
	assets  fs.FS
	logger  *log.Logger
}

// NewServer creates a new server instance with all routes registered
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}
	hub := opts.Hub
	if hub == nil {
		hub = NewHub(logger)
	}
	monitor := opts.Monitor
	if monitor == nil {
		monitor = monitoring.NewMonitor()
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger))
	if len(opts.AllowedOrigins) > 0 {
		router.Use(corsMiddleware(opts.AllowedOrigins))
	}

	s := &Server{
		router:  router,
		ctrl:    opts.Controller,
		tokens:  opts.Tokens,
		hub:     hub,
		monitor: monitor,
		assets:  opts.Assets,
		logger:  logger,
	}
	hub.allowedOrigins = opts.AllowedOrigins

	s.setupRoutes()
	return s
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	if s.assets != nil {
		s.router.GET("/", s.handleHome)
		s.router.StaticFS("/static", http.FS(s.assets))
	}
	s.router.GET("/ws", s.handleWebSocket)

	api := s.router.Group("/api")
	{
		api.GET("/menu", s.handleMenu)
		api.POST("/session", s.handleStartSession)

		authed := api.Group("")
		authed.Use(sessionAuth(s.tokens))
		{
			authed.DELETE("/session", s.handleEndSession)
			authed.GET("/order", s.handleGetOrder)
			authed.POST("/order/items/:id", s.handleAddItem)
			authed.DELETE("/order/items/:id", s.handleRemoveItem)
			authed.POST("/order/complete", s.handleComplete)
			authed.POST("/order/cancel", s.handleCancel)
			authed.POST("/order/pay", s.handlePay)
		}
	}
}

// Router returns the Gin router
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) handleHome(c *gin.Context) {
	c.FileFromFS("/", http.FS(s.assets))
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"metrics": s.monitor.GetMetrics(),
	})
}

// corsMiddleware lets the listed origins call the API from the browser
func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "DELETE"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}
	for _, origin := range origins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			return cors.New(cfg)
		}
	}
	cfg.AllowOrigins = origins
	return cors.New(cfg)
}
