// Package httpapi exposes the exhibit register over HTTP with gin.
package httpapi

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"exhibitcore/docs/schema/openapi"
	"exhibitcore/internal/projection"
	"exhibitcore/internal/receipt"
	"exhibitcore/pkg/domain"
)

// DefaultMaxImportBytes caps import payloads when no limit is configured.
const DefaultMaxImportBytes int64 = 10 << 20

// Service is the subset of the lifecycle manager the handlers call.
type Service interface {
	Create(ctx context.Context, form domain.ExhibitForm) (domain.Exhibit, error)
	Get(ctx context.Context, id string) (domain.Exhibit, error)
	Query(ctx context.Context, q projection.Query) ([]domain.Exhibit, error)
	Statistics(ctx context.Context) (projection.Stats, error)
	Update(ctx context.Context, id string, patch domain.ExhibitPatch) (domain.Exhibit, error)
	MarkExploited(ctx context.Context, id string) (domain.Exhibit, error)
	MarkCollected(ctx context.Context, id string, data domain.CollectionData) (domain.Exhibit, error)
	Delete(ctx context.Context, id string) (bool, error)
	Export(ctx context.Context, w io.Writer) error
	Import(ctx context.Context, r io.Reader) ([]domain.Exhibit, error)
}

// Options configure the router. Zero values fall back to sensible defaults.
type Options struct {
	Logger         *slog.Logger
	CORSOrigins    []string
	MaxImportBytes int64
	Receipts       *receipt.Renderer
	// Metrics, when set, is mounted at /metrics.
	Metrics http.Handler
	// Vars, when set, is mounted at /debug/vars.
	Vars http.Handler
	Now     func() time.Time
}

// Handler holds the collaborators shared by the route handlers.
type Handler struct {
	svc      Service
	logger   *slog.Logger
	receipts *receipt.Renderer
	maxBytes int64
	now      func() time.Time
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(svc Service, opts Options) (*gin.Engine, error) {
	h := &Handler{
		svc:      svc,
		logger:   opts.Logger,
		receipts: opts.Receipts,
		maxBytes: opts.MaxImportBytes,
		now:      opts.Now,
	}
	if h.logger == nil {
		h.logger = slog.New(slog.DiscardHandler)
	}
	if h.maxBytes <= 0 {
		h.maxBytes = DefaultMaxImportBytes
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.receipts == nil {
		r, err := receipt.New(receipt.Options{})
		if err != nil {
			return nil, err
		}
		h.receipts = r
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(h.logger))
	if len(opts.CORSOrigins) > 0 {
		useCORS(r, opts.CORSOrigins)
	}

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics))
	}
	if opts.Vars != nil {
		r.GET("/debug/vars", gin.WrapH(opts.Vars))
	}

	api := r.Group("/api/v1")
	{
		api.GET("/openapi.yaml", func(c *gin.Context) { c.Data(http.StatusOK, openapi.ContentType, openapi.Spec()) })
		api.GET("/exhibits", h.listExhibits)
		api.POST("/exhibits", h.createExhibit)
		api.GET("/exhibits/:id", h.getExhibit)
		api.PATCH("/exhibits/:id", h.updateExhibit)
		api.DELETE("/exhibits/:id", h.deleteExhibit)
		api.POST("/exhibits/:id/exploit", h.exploitExhibit)
		api.POST("/exhibits/:id/collect", h.collectExhibit)
		api.GET("/exhibits/:id/receipt", h.submissionReceipt)
		api.GET("/exhibits/:id/collection-report", h.collectionReport)
		api.GET("/export", h.exportExhibits)
		api.POST("/import", h.importExhibits)
		api.GET("/stats", h.statistics)
	}
	return r, nil
}

func useCORS(r *gin.Engine, origins []string) {
	cfg := cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	r.Use(cors.New(cfg))
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		level := slog.LevelInfo
		switch {
		case status >= http.StatusInternalServerError:
			level = slog.LevelError
		case status >= http.StatusBadRequest:
			level = slog.LevelWarn
		}
		logger.LogAttrs(c.Request.Context(), level, "http request",
			slog.String("method", c.Request.Method),
			slog.String("route", c.FullPath()),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", status),
			slog.Duration("duration", time.Since(start)),
		)
	}
}
