package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tagtrack/internal/ingest"
	"tagtrack/internal/logging"
	"tagtrack/internal/store"
	"tagtrack/internal/workflow"
)

// Submitter admits inbound batches.
type Submitter interface {
	Submit(ctx context.Context, sub ingest.Submission) (ingest.Result, error)
}

// Store is the read side the views need.
type Store interface {
	LatestImport(ctx context.Context) (*store.ImportBatch, error)
	GetImport(ctx context.Context, id string) (*store.ImportBatch, error)
	ListImports(ctx context.Context, opts store.ListOptions) ([]*store.ImportBatch, error)
	LocationsByImport(ctx context.Context, importID string) ([]*store.LocationRecord, error)
	LatestPerTag(ctx context.Context) ([]*store.LocationRecord, error)
	LocationsByTag(ctx context.Context, tag string, limit, offset int) ([]*store.LocationRecord, error)
	LocationsBetween(ctx context.Context, from, to time.Time, limit, offset int) ([]*store.LocationRecord, error)
	Ping(ctx context.Context) error
}

// StatusProvider reports workflow diagnostics.
type StatusProvider interface {
	Status(ctx context.Context) workflow.StatusSummary
}

// Options wires the router's collaborators. Status may be nil.
type Options struct {
	Submitter    Submitter
	Store        Store
	Status       StatusProvider
	MaxBodyBytes int64
	Logger       *slog.Logger
}

type handlers struct {
	submitter    Submitter
	store        Store
	status       StatusProvider
	maxBodyBytes int64
	logger       *slog.Logger
	now          func() time.Time
}

// NewRouter builds the gin engine serving every endpoint.
func NewRouter(opts Options) *gin.Engine {
	h := &handlers{
		submitter:    opts.Submitter,
		store:        opts.Store,
		status:       opts.Status,
		maxBodyBytes: opts.MaxBodyBytes,
		logger:       logging.NewComponentLogger(opts.Logger, "api"),
		now:          time.Now,
	}

	router := gin.New()
	router.Use(RequestID(), Recovery(opts.Logger), RequestLogger(opts.Logger))

	router.POST("/recv", h.recv)
	router.GET("/healthz", h.health)

	group := router.Group("/api")
	group.GET("/imports", h.listImports)
	group.GET("/imports/latest", h.latestImport)
	group.GET("/imports/:id", h.getImport)
	group.GET("/tags", h.latestTags)
	group.GET("/tags/:tag/locations", h.tagLocations)
	group.GET("/locations", h.locationsBetween)
	group.GET("/status", h.workflowStatus)

	router.NoRoute(func(c *gin.Context) {
		h.writeError(c, http.StatusNotFound, "not found")
	})
	return router
}

func (h *handlers) writeError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Status:    "error",
		Error:     message,
		RequestID: GetRequestID(c),
		Timestamp: formatTime(h.now()),
	})
}

func (h *handlers) health(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		_ = c.Error(err)
		h.writeError(c, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": formatTime(h.now())})
}
