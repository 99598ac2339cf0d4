// Package server exposes transfers over HTTP: one request copies one object.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sgl-project/gcs2drive/internal/transfer"
	"github.com/sgl-project/gcs2drive/pkg/logging"
	"github.com/sgl-project/gcs2drive/pkg/logging/ginlog"
)

const (
	msgBucketMissing   = "Bucket is missing"
	msgFileNameMissing = "File name is missing"
)

// Transferrer runs a single transfer
type Transferrer interface {
	Transfer(ctx context.Context, req transfer.Request) (*transfer.Result, error)
}

// Server wraps the HTTP server and its dependencies
type Server struct {
	config       *Config
	transferrer  Transferrer
	healthChecks []HealthChecker
	gatherer     prometheus.Gatherer
	zapLogger    *zap.Logger
	logger       logging.Interface
	engine       *gin.Engine
	httpServer   *http.Server
}

// NewServer creates a new server instance. A nil gatherer serves the default registry.
func NewServer(config *Config, transferrer Transferrer, gatherer prometheus.Gatherer, zapLogger *zap.Logger,
	healthChecks ...HealthChecker) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}

	s := &Server{
		config:       config,
		transferrer:  transferrer,
		healthChecks: healthChecks,
		gatherer:     gatherer,
		zapLogger:    zapLogger,
		logger:       logging.OrNop(config.AnotherLogger),
	}
	s.engine = s.setupRoutes()
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", config.Port),
		Handler:           s.engine,
		ReadHeaderTimeout: 30 * time.Second,
	}
	return s
}

// Handler returns the routed gin engine
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) setupRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginlog.RequestLogger(s.zapLogger, s.config.RequestLogger.Opts()...))

	router.GET("/", s.handleTransfer)
	router.POST("/", s.handleTransfer)
	router.GET("/healthz", s.handleHealthz)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	return router
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	s.logger.Infof("Starting transfer server on port %d", s.config.Port)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down transfer server")
	return s.httpServer.Shutdown(ctx)
}

// handleTransfer copies one object. Parameters come from a JSON body, a form body or the query string.
// GET|POST /?bucket=B&filename=F
func (s *Server) handleTransfer(c *gin.Context) {
	logger := ginlog.GetRequestLogging(c)

	req, err := bindRequest(c)
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}
	if req.Bucket == "" {
		c.String(http.StatusBadRequest, msgBucketMissing)
		return
	}
	if req.Object == "" {
		c.String(http.StatusBadRequest, msgFileNameMissing)
		return
	}

	logger = logger.WithField("bucket", req.Bucket).WithField("object", req.Object)
	result, err := s.transferrer.Transfer(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		c.String(http.StatusInternalServerError, err.Error())
		return
	}

	logger.WithField("drive_id", result.DriveID).Infof("Transfer finished with status %s", result.Status)
	c.JSON(http.StatusOK, result)
}

// bindRequest prefers body values and falls back to the query string.
func bindRequest(c *gin.Context) (transfer.Request, error) {
	var req transfer.Request

	if c.Request.Method == http.MethodPost && c.ContentType() == binding.MIMEJSON {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			return req, fmt.Errorf("invalid JSON body: %w", err)
		}
	} else if err := c.ShouldBind(&req); err != nil {
		return req, fmt.Errorf("invalid request: %w", err)
	}

	if req.Bucket == "" {
		req.Bucket = c.Query("bucket")
	}
	if req.Object == "" {
		req.Object = c.Query("filename")
	}
	return req, nil
}

func (s *Server) handleHealthz(c *gin.Context) {
	for _, check := range s.healthChecks {
		if err := check.Check(c.Request); err != nil {
			s.logger.WithError(err).Warnf("Health check %s failed", check.Name())
			c.String(http.StatusInternalServerError, "%s failed: %v", check.Name(), err)
			return
		}
	}
	c.String(http.StatusOK, "ok")
}
