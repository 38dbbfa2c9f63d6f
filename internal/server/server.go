package server

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/guiyumin/igget/internal/core/config"
	"github.com/guiyumin/igget/internal/core/downloader"
	"github.com/guiyumin/igget/internal/core/extractor"
	"github.com/guiyumin/igget/internal/core/i18n"
	"github.com/guiyumin/igget/internal/core/logging"
	"github.com/guiyumin/igget/internal/core/version"
)

// Response is the standard API response structure
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// Resolver turns a post URL into its media metadata
type Resolver interface {
	Extract(ctx context.Context, rawURL string) (*extractor.Result, error)
}

// AssetOpener opens a media URL for relaying
type AssetOpener interface {
	Open(ctx context.Context, mediaURL string, kind downloader.Kind) (*downloader.Asset, error)
}

// Server is the HTTP server for igget
type Server struct {
	port           int
	apiKey         string
	requestTimeout time.Duration
	cfg            *config.Config
	logger         *slog.Logger
	metrics        *Metrics

	resolver Resolver
	streamer AssetOpener

	server *http.Server
	engine *gin.Engine
}

// NewServer creates a server with the extraction pipeline and streamer
// described by cfg
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	s := newServer(cfg, logger)

	ex, err := extractor.New(cfg.ExtractorOptions(), s.observe)
	if err != nil {
		return nil, fmt.Errorf("failed to build extractor: %w", err)
	}
	s.resolver = ex
	s.streamer = downloader.NewStreamer(cfg.Download.Platform, cfg.Download.Timeout)

	return s, nil
}

func newServer(cfg *config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	port := cfg.Server.Port
	if port <= 0 {
		port = 8080
	}
	return &Server{
		port:           port,
		apiKey:         cfg.Server.APIKey,
		requestTimeout: cfg.Server.RequestTimeout,
		cfg:            cfg,
		logger:         logger,
		metrics:        NewMetrics(),
	}
}

// Handler returns the gin engine, building it on first use
func (s *Server) Handler() http.Handler {
	if s.engine == nil {
		s.engine = s.routes()
	}
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	engine := gin.New()

	engine.Use(s.requestIDMiddleware())
	engine.Use(s.loggingMiddleware())
	engine.Use(gin.CustomRecovery(s.recoverPanic))

	// API routes
	api := engine.Group("/api")
	api.GET("/health", s.handleHealth)
	api.GET("/i18n", s.handleI18n)
	api.GET("/metrics", s.handleMetrics)

	ig := api.Group("/instagram")
	if s.apiKey != "" {
		ig.Use(s.authMiddleware())
	}
	ig.POST("/fetch", s.handleFetch)
	ig.POST("/download", s.handleDownload)

	engine.GET("/metrics", s.handlePrometheus)

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, Response{Success: false, Message: s.translations(c).Errors.NotFound})
	})

	return engine
}

// Start starts the HTTP server
func (s *Server) Start() error {
	if !config.Exists() {
		t := i18n.GetTranslations(s.cfg.Language)
		s.logger.Warn(t.Server.NoConfigWarning)
		s.logger.Warn(t.Server.RunInitHint)
	}

	gin.SetMode(gin.ReleaseMode)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // No timeout for asset relays
		IdleTimeout:  120 * time.Second,
	}

	s.logger.Info("starting igget server",
		"port", s.port,
		"version", version.Version,
		"strategies", s.cfg.Instagram.Strategies,
		"auth", s.apiKey != "",
	)

	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Middleware

func (s *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Header("X-Request-ID", id)
		c.Request = c.Request.WithContext(logging.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if path == "/api/health" || path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		s.metrics.ObserveRequest(status)

		log := logging.FromContext(c.Request.Context(), s.logger)
		attrs := []any{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"latency", time.Since(start),
		}
		switch {
		case status >= 500:
			log.Error("request", attrs...)
		case status >= 400:
			log.Warn("request", attrs...)
		default:
			log.Info("request", attrs...)
		}
	}
}

func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(apiKey), []byte(s.apiKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Message: s.translations(c).Errors.Unauthorized,
			})
			return
		}
		c.Next()
	}
}

// recoverPanic turns a handler panic into a generic localized 500
func (s *Server) recoverPanic(c *gin.Context, recovered any) {
	logging.FromContext(c.Request.Context(), s.logger).Error("panic while handling request",
		"path", c.Request.URL.Path,
		"panic", fmt.Sprint(recovered),
	)
	c.AbortWithStatusJSON(http.StatusInternalServerError, Response{
		Success: false,
		Message: s.translations(c).Errors.ServerError,
	})
}

// language picks the Accept-Language primary tag when a locale exists for
// it, otherwise the configured language
func (s *Server) language(c *gin.Context) string {
	if header := c.GetHeader("Accept-Language"); header != "" {
		tag := strings.SplitN(header, ",", 2)[0]
		tag = strings.SplitN(tag, ";", 2)[0]
		tag = strings.ToLower(strings.TrimSpace(strings.SplitN(tag, "-", 2)[0]))
		if i18n.IsSupported(tag) {
			return tag
		}
	}
	return s.cfg.Language
}

func (s *Server) translations(c *gin.Context) *i18n.Translations {
	return i18n.GetTranslations(s.language(c))
}

// observe receives one event per strategy attempt
func (s *Server) observe(ctx context.Context, ev extractor.AttemptEvent) {
	s.metrics.ObserveAttempt(ev)

	log := logging.FromContext(ctx, s.logger).With(
		"strategy", ev.Strategy,
		"shortcode", ev.Shortcode,
		"outcome", ev.Outcome,
		"latency", ev.Latency,
	)
	if ev.Status > 0 {
		log = log.With("status", ev.Status)
	}
	if ev.Err != nil {
		log.Warn("strategy attempt failed", "error", ev.Err)
		return
	}
	log.Debug("strategy attempt succeeded")
}

// Handlers

func (s *Server) handleHealth(c *gin.Context) {
	info := version.Get()
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: gin.H{
			"status":  "ok",
			"version": info.Version,
			"commit":  info.Commit,
		},
	})
}

func (s *Server) handleI18n(c *gin.Context) {
	lang := s.language(c)
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: gin.H{
			"language":      lang,
			"messages":      i18n.GetTranslations(lang),
			"config_exists": config.Exists(),
		},
	})
}

func (s *Server) handleMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, Response{Success: true, Data: s.metrics.Snapshot()})
}

func (s *Server) handlePrometheus(c *gin.Context) {
	c.Header("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	c.Status(http.StatusOK)
	s.metrics.WritePrometheus(c.Writer)
}
