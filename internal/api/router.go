// Package api wires the HTTP surface: middleware chain, route table, and
// handler construction.
package api

import (
	"log/slog"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/thib420/AI-Table-sub000/internal/api/handlers"
	"github.com/thib420/AI-Table-sub000/internal/api/middleware"
	"github.com/thib420/AI-Table-sub000/internal/repository"
	"github.com/thib420/AI-Table-sub000/internal/services"
	"github.com/thib420/AI-Table-sub000/internal/websocket"
)

// RouterConfig holds the constructed services and security settings the
// router wires together. Middleware reads everything from here; nothing
// consults the environment at request time.
type RouterConfig struct {
	DB         *gorm.DB
	Store      *repository.Store
	Engine     *services.SyncEngine
	Cache      *services.MailCache
	Propagator *services.ContactPropagator
	Scheduler  *services.SyncScheduler
	Hub        *websocket.Hub
	Upgrader   gorillaws.Upgrader
	Logger     *slog.Logger

	// OwnerID is the mailbox account this deployment serves
	OwnerID string

	APIKey         string   // API key for authentication (empty = disabled)
	AllowedOrigins []string // Allowed CORS origins
	RateLimit      float64  // Requests per second per client IP
	RateBurst      int      // Burst size for rate limiter
}

// NewRouter creates and configures the Echo router with all routes
func NewRouter(cfg *RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Middleware in order: recover first, request ids before anything that
	// logs, headers and CORS before rate limiting, logging last so it sees
	// the final status
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.SecureHeaders())
	e.Use(middleware.CORS(cfg.AllowedOrigins))
	if cfg.RateLimit > 0 {
		e.Use(middleware.RateLimiter(cfg.RateLimit, cfg.RateBurst, cfg.Logger))
	}
	if cfg.Logger != nil {
		e.Use(middleware.RequestLogger(cfg.Logger))
	}

	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Store, cfg.Scheduler)
	mailboxHandler := handlers.NewMailboxHandler(cfg.Cache, cfg.Store, cfg.OwnerID)
	syncHandler := handlers.NewSyncHandler(cfg.Engine, cfg.Store, cfg.OwnerID)
	contactHandler := handlers.NewContactHandler(cfg.Store, cfg.Propagator, cfg.OwnerID)
	calendarHandler := handlers.NewCalendarHandler(cfg.Store, cfg.OwnerID)
	wsHandler := handlers.NewWSHandler(cfg.Hub, cfg.Upgrader, cfg.Logger)

	// Health routes (no auth required)
	e.GET("/health", healthHandler.Health)
	e.GET("/ready", healthHandler.Ready)

	// Websocket push; origin checks live in the upgrader
	e.GET("/ws", wsHandler.Handle)

	api := e.Group("/api")
	api.Use(middleware.APIKeyAuth(cfg.APIKey, cfg.Logger))

	v1 := api.Group("/v1")

	mailbox := v1.Group("/mailbox")
	mailbox.GET("/snapshot", mailboxHandler.Snapshot)
	mailbox.GET("/messages", mailboxHandler.ListMessages)
	mailbox.GET("/search", mailboxHandler.Search)
	mailbox.GET("/stats", mailboxHandler.Stats)
	mailbox.PATCH("/messages/:id/read", mailboxHandler.MarkRead)
	mailbox.POST("/messages/:id/star", mailboxHandler.ToggleStar)
	mailbox.DELETE("/messages/:id", mailboxHandler.Delete)

	v1.POST("/sync", syncHandler.Trigger)
	v1.GET("/sync/status", syncHandler.Status)

	contactGroup := v1.Group("/contacts")
	contactGroup.POST("/propagate", contactHandler.Propagate)
	contactGroup.GET("", contactHandler.List)
	contactGroup.GET("/:email", contactHandler.Get)

	v1.GET("/calendar/events", calendarHandler.Events)

	return e
}
