// Package http exposes the REST surface: sensor catalog CRUD, measurement
// schema registration, and the JSON/CSV reading ingestion and export
// endpoints.
package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/openairmap/sensor-api/config"
	"github.com/openairmap/sensor-api/db"
)

// Server bundles router and dependencies for the REST API.
type Server struct {
	cfg    config.Config
	store  *db.Store
	log    *slog.Logger
	engine *gin.Engine
}

// New constructs a server with routes and middleware.
func New(cfg config.Config, store *db.Store, log *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.MaxMultipartMemory = int64(cfg.MaxCSVUploadMB) << 20
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(log))
	engine.Use(corsMiddleware())

	server := &Server{cfg: cfg, store: store, log: log, engine: engine}
	server.registerRoutes()
	return server
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run starts the HTTP server and blocks until shutdown.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.ListenAddr(),
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", s.handleHealth)

	v2 := s.engine.Group("/api/v2")
	if s.cfg.BearerToken != "" {
		v2.Use(bearerAuthMiddleware(s.cfg.BearerToken))
	}

	sensors := v2.Group("/sensors")
	{
		sensors.GET("", s.handleListSensors)
		sensors.GET("/:sensor_brand", s.handleListSensorsByBrand)
		sensors.GET("/:sensor_brand/:sensor_id", s.handleGetSensor)
		sensors.POST("/:sensor_brand/:sensor_id", s.handleRegisterSensor)
		sensors.PUT("/:sensor_brand/:sensor_id/location", s.handleUpdateSensorLocation)
		sensors.PUT("/:sensor_brand/:sensor_id/deprecate", s.handleDeprecateSensor)
	}

	schemas := v2.Group("/sensor-schemas")
	{
		schemas.GET("", s.handleListSchemas)
		schemas.GET("/:sensor_brand/:sensor_id", s.handleListSchemasForSensor)
		schemas.POST("/:sensor_brand/:sensor_id/:measurement_type/:measurement_time_interval", s.handleRegisterSchema)
		schemas.POST("/:sensor_brand/:sensor_id/:measurement_type/:measurement_time_interval/:measurement_model", s.handleRegisterSchema)
		schemas.PUT("/:sensor_brand/:sensor_id/:measurement_type/:measurement_time_interval", s.handleUpdateSchema)
		schemas.PUT("/:sensor_brand/:sensor_id/:measurement_type/:measurement_time_interval/:measurement_model", s.handleUpdateSchema)
	}

	readings := v2.Group("/readings")
	{
		readings.GET("/json/:sensor_brand/:sensor_id/:measurement_model/:measurement_type/:measurement_time_interval", s.handleQueryReadingsJSON)
		readings.POST("/json/:sensor_brand/:sensor_id/:measurement_model/:measurement_type/:measurement_time_interval", s.handleIngestReadingsJSON)
		readings.GET("/csv/:sensor_brand/:sensor_id/:measurement_model/:measurement_type/:measurement_time_interval", s.handleExportReadingsCSV)
		readings.POST("/csv/:sensor_brand/:sensor_id/:measurement_model/:measurement_type/:measurement_time_interval", s.handleIngestReadingsCSV)
		readings.GET("/last/:sensor_brand/:sensor_id/:measurement_model/:measurement_type/:measurement_time_interval", s.handleLastReading)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := s.store.Healthy(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// opContext derives the per-request operation context with the configured
// timeout. Every storage call runs under it.
func (s *Server) opContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), s.cfg.RequestTimeout)
}

// respondStoreError maps the storage error taxonomy onto HTTP statuses.
func respondStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, db.ErrNotFound), errors.Is(err, db.ErrNoData):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, db.ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, db.ErrSchemaMismatch),
		errors.Is(err, db.ErrInvalidSchema),
		errors.Is(err, db.ErrNoDateColumn):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.New().String()
		c.Header("X-Request-ID", requestID)

		start := time.Now()
		c.Next()

		log.Info("request",
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func bearerAuthMiddleware(expected string) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		if token != expected {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
