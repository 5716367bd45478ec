package router

import (
	"context"
	"net/http"
	"time"

	"whatsable-relay/internal/config"
	"whatsable-relay/internal/handlers"
	"whatsable-relay/pkg/logger"
	"whatsable-relay/pkg/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Version is reported by /health; set at build time with -ldflags
var Version = "dev"

// HealthChecker reports whether the store is reachable
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Handlers groups the route handlers the router dispatches to
type Handlers struct {
	Auth        *handlers.AuthHandler
	Integration *handlers.IntegrationHandler
	Webhook     *handlers.WebhookHandler
	Settings    *handlers.SettingsHandler
}

type Router struct {
	engine *gin.Engine
	health HealthChecker
}

// NewRouter builds the full route table behind the shared middleware stack
func NewRouter(cfg *config.Config, h Handlers, health HealthChecker) *Router {
	if cfg == nil {
		panic("config cannot be nil")
	}

	r := &Router{
		engine: gin.New(),
		health: health,
	}

	r.engine.HandleMethodNotAllowed = true
	r.engine.Use(gin.Recovery())
	if cfg.Security.ForceHTTPS {
		r.engine.Use(middleware.HTTPSRedirectMiddleware())
	}
	r.engine.Use(
		middleware.RequestIDMiddleware(),
		middleware.AuditLogMiddleware(),
		middleware.SecurityHeadersMiddleware(),
		middleware.CORSMiddleware(cfg.Security.CORSOrigins),
		middleware.RequestSizeLimitMiddleware(cfg.Security.MaxBodyBytes),
	)

	r.engine.GET("/health", r.handleHealth)
	r.engine.NoRoute(r.handleNotFound)
	r.engine.NoMethod(r.handleMethodNotAllowed)

	if h.Auth != nil {
		r.engine.GET("/auth/callback", h.Auth.Callback)
	}
	if h.Webhook != nil {
		r.engine.POST("/webhooks/whatsable", h.Webhook.WhatsAble)
	}

	authed := middleware.Auth(cfg.JWT.SigningSecret)

	if h.Integration != nil {
		integration := r.engine.Group("/integration", authed)
		{
			integration.POST("/send-on-create", h.Integration.SendOnCreate)
			integration.POST("/send-on-update", h.Integration.SendOnUpdate)
			integration.POST("/send-on-column-change", h.Integration.SendOnColumnChange)
			integration.POST("/send-template", h.Integration.SendTemplate)
		}
	}

	if h.Settings != nil {
		settings := r.engine.Group("/settings", authed)
		{
			settings.GET("", h.Settings.Get)
			settings.POST("", h.Settings.Save)
			settings.POST("/test-connection", h.Settings.TestConnection)
			settings.GET("/templates", h.Settings.Templates)
		}
	}

	return r
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.engine.ServeHTTP(w, req)
}

// Engine exposes the underlying gin engine
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func (r *Router) handleHealth(c *gin.Context) {
	body := gin.H{
		"status":  "ok",
		"time":    time.Now().UTC(),
		"version": Version,
		"service": "whatsable-relay",
	}

	if r.health != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := r.health.Ping(ctx); err != nil {
			logger.Error("Health check failed", zap.Error(err))
			body["status"] = "unavailable"
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
	}

	c.JSON(http.StatusOK, body)
}

func (r *Router) handleNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
}

func (r *Router) handleMethodNotAllowed(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
}
