package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"diner/internal/api"
	"diner/internal/catalog"
	"diner/internal/config"
	"diner/internal/controller"
	"diner/internal/database"
	"diner/internal/logging"
	"diner/internal/metrics"
	"diner/internal/monitoring"
	"diner/internal/order"
	"diner/internal/session"
	"diner/web"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
)

const tokenTTL = 12 * time.Hour

var (
	port        = flag.Int("port", 0, "API server port (overrides config)")
	metricsPort = flag.Int("metrics-port", 0, "Metrics server port (overrides config)")
	configFile  = flag.String("config", "configs/config.yaml", "Path to configuration file")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *metricsPort != 0 {
		cfg.Server.MetricsPort = *metricsPort
	}

	if err := run(cfg); err != nil {
		log.Fatalf("diner: %v", err)
	}
}

// run serves until SIGINT/SIGTERM; every deferred cleanup runs before it returns
func run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	if !logger.IsLevelEnabled(log.DebugLevel) {
		gin.SetMode(gin.ReleaseMode)
	}

	tp := logging.NewTracerProvider(logger)
	otel.SetTracerProvider(tp)
	defer tp.Shutdown(context.Background())

	menu, err := catalog.LoadFile(cfg.Menu.File)
	if err != nil {
		return fmt.Errorf("load menu: %w", err)
	}
	logger.WithFields(log.Fields{"items": menu.Len(), "file": cfg.Menu.File}).Info("menu loaded")

	processor, receipts, closeDB, err := initializeProcessor(cfg, logger)
	if err != nil {
		return err
	}
	defer closeDB()

	secret := cfg.Session.Secret
	if secret == "" {
		secret = strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
		logger.Warn("no session secret configured, generated one for this process")
	}
	tokens, err := session.NewTokens(secret, tokenTTL)
	if err != nil {
		return fmt.Errorf("initialize session tokens: %w", err)
	}

	store := session.NewStore(menu, cfg.Session.IdleTimeout, logger)
	metricsCollector := metrics.NewMetricsCollector()
	monitor := monitoring.NewMonitor()
	hub := api.NewHub(logger)

	ctrl := controller.New(controller.Options{
		Catalog:   menu,
		Store:     store,
		Processor: processor,
		Publisher: hub,
		Metrics:   metricsCollector,
		Monitor:   monitor,
		Logger:    logger,
	})

	apiServer := api.NewServer(api.Options{
		Controller:     ctrl,
		Tokens:         tokens,
		Hub:            hub,
		Monitor:        monitor,
		Assets:         web.Static(),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         logger,
	})

	go store.Run(ctx, cfg.Session.SweepInterval, func(ids []string) {
		hub.CloseSession(ids...)
		ctrl.Expired(ids)
	})

	metricsServer := newMetricsServer(cfg.Server.MetricsPort, metricsCollector, receipts)
	go func() {
		logger.WithField("port", cfg.Server.MetricsPort).Info("Starting metrics server")
		if err := metricsServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("Metrics server error")
		}
	}()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case <-sigChan:
		case <-ctx.Done():
			return
		}

		logger.Info("Shutting down servers...")
		shutdown(server, metricsServer, logger)
		cancel()
	}()

	logger.WithField("port", cfg.Server.Port).Info("Starting API server")
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Error("API server error")
		shutdown(server, metricsServer, logger)
		return fmt.Errorf("serve api: %w", err)
	}
	<-ctx.Done()
	return nil
}

func shutdown(server, metricsServer *http.Server, logger *log.Logger) {
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("API server shutdown error")
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Metrics server shutdown error")
	}
}

// initializeProcessor records payments in the receipt database when one is
// configured and only logs them otherwise
func initializeProcessor(cfg *config.Config, logger *log.Logger) (order.PaymentProcessor, *database.ReceiptStore, func(), error) {
	if !cfg.Database.Enabled {
		return order.NewLogProcessor(logger), nil, func() {}, nil
	}

	db, err := database.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("initialize database: %w", err)
	}
	logger.WithField("driver", cfg.Database.Driver).Info("receipt database ready")

	store := database.NewReceiptStore(db, logger)
	return store, store, func() {
		if err := db.Close(); err != nil {
			logger.WithError(err).Warn("close database")
		}
	}, nil
}

func newMetricsServer(port int, collector *metrics.MetricsCollector, receipts *database.ReceiptStore) *http.Server {
	metricsRouter := gin.New()
	metricsRouter.Use(gin.Recovery())
	metricsRouter.GET("/metrics", gin.WrapH(collector.Handler()))
	if receipts != nil {
		metricsRouter.GET("/receipts", api.ReceiptsHandler(receipts))
	}

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           metricsRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
