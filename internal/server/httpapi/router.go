// Package httpapi serves the task REST API over gin.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"todo/internal/service"
)

// TaskService is the task logic the handlers call. Every call is scoped to
// the owner taken from the bearer token.
type TaskService interface {
	List(ctx context.Context, ownerID string) ([]service.Task, error)
	Create(ctx context.Context, ownerID, title string) (service.Task, error)
	Update(ctx context.Context, ownerID, id string, patch service.Patch) (service.Task, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// Config holds everything the router needs.
type Config struct {
	Tasks  TaskService
	Logger zerolog.Logger

	// Bearer tokens must be HS256, signed with SigningKey and issued by Issuer.
	Issuer     string
	SigningKey []byte

	AllowOrigins []string
}

type handler struct {
	logger zerolog.Logger
	tasks  TaskService
	tokens *tokenParser
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(cfg Config) *gin.Engine {
	h := &handler{
		logger: cfg.Logger,
		tasks:  cfg.Tasks,
		tokens: newTokenParser(cfg.Issuer, cfg.SigningKey),
	}

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := gin.New()
	r.Use(h.logRequest, gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS", "HEAD"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length", "Content-Type"},
		MaxAge:        12 * time.Hour,
	}))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1", h.authenticate)
	{
		v1.GET("/tasks", h.listTasks)
		v1.POST("/tasks", h.createTask)
		v1.PATCH("/tasks/:id", h.updateTask)
		v1.DELETE("/tasks/:id", h.deleteTask)
	}

	r.NoRoute(func(c *gin.Context) {
		abort(c, http.StatusNotFound, errorResponse{Message: "Not found", Code: service.CodeNotFound})
	})
	return r
}

// logRequest logs one line per request after it completes.
func (h *handler) logRequest(c *gin.Context) {
	start := time.Now()
	c.Next()

	status := c.Writer.Status()
	var ev *zerolog.Event
	switch {
	case status >= http.StatusInternalServerError:
		ev = h.logger.Error()
	case status >= http.StatusBadRequest:
		ev = h.logger.Warn()
	default:
		ev = h.logger.Info()
	}
	ev.Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Int("status", status).
		Dur("latency", time.Since(start)).
		Str("client_ip", c.ClientIP()).
		Msg("request")
}
