package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"petboard/api"
	"petboard/backend/db"
	"petboard/backend/metrics"
	"petboard/backend/rabbitmq"
	"petboard/config"
	"petboard/listing"

	"github.com/apex/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StartService serves the report API until SIGINT or SIGTERM.
func StartService(cfg *config.Config) error {
	log.Info("Starting the service...")
	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	dbc, err := reportStore()
	if err != nil {
		return err
	}
	defer closeReportStore()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = db.EnsureSchema(ctx, dbc)
	cancel()
	if err != nil {
		return err
	}

	var publisher EventPublisher
	if cfg.AMQPURL != "" {
		p, err := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.ReportsExchange, cfg.ReportCreatedRoutingKey)
		if err != nil {
			return err
		}
		defer p.Close()
		publisher = p
	} else {
		log.Warn("AMQP_URL is not set, report events will not be published")
	}

	metrics.Register()
	router := setupRouter(NewHandlers(dbc, publisher))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}
	go func() {
		log.Infof("Starting HTTP server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("Server exited")
	return nil
}

func setupRouter(h *Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestID(), requestLogger(), observe())
	router.Use(gzip.Gzip(gzip.DefaultCompression))
	router.Use(cors.New(cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", api.RequestIDHeader},
		AllowOrigins:     []string{"*"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET(api.LostEndpoint, h.ListReports(listing.Lost))
	router.GET(api.FoundEndpoint, h.ListReports(listing.Found))
	router.GET(api.SearchEndpoint, h.SearchReports)
	router.GET(api.LostRadiusEndpoint, h.RadiusReports(listing.Lost))
	router.GET(api.FoundRadiusEndpoint, h.RadiusReports(listing.Found))
	router.GET(api.ReportByIDEndpoint, h.ReadReport)
	router.POST(api.ReportsEndpoint, h.CreateReport)

	router.GET(api.HealthEndpoint, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "petboard-backend",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})
	router.GET(api.MetricsEndpoint, gin.WrapH(promhttp.Handler()))

	return router
}

// requestID propagates the caller's request id or assigns a new one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(api.RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(api.RequestIDHeader, id)
		c.Header(api.RequestIDHeader, id)
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		log.WithFields(log.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"request_id": c.GetString(api.RequestIDHeader),
			"elapsed":    time.Since(started).String(),
		}).Info("request")
	}
}

func observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RequestsTotal.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.RequestDurationSeconds.WithLabelValues(route).Observe(time.Since(started).Seconds())
	}
}
