// Package flowapi serves a FlowStore over the REST shape consumed by
// persistence.HTTPFlowStore. It backs local development servers and the
// HTTP client tests.
package flowapi

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/petrijr/flowkit/internal/persistence"
	"github.com/petrijr/flowkit/pkg/api"
)

type resource struct {
	ID         string     `json:"id"`
	Attributes attributes `json:"attributes"`
}

type attributes struct {
	Name      string     `json:"name"`
	Status    api.Status `json:"status"`
	Published bool       `json:"published"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	Data      api.Graph  `json:"data"`
}

type writeRequest struct {
	Data api.FlowAttributes `json:"data"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toResource(f *api.Flow) resource {
	return resource{
		ID: f.ID,
		Attributes: attributes{
			Name:      f.Name,
			Status:    f.Status,
			Published: f.Published,
			CreatedAt: f.CreatedAt,
			UpdatedAt: f.UpdatedAt,
			Data:      f.Data.Clone(),
		},
	}
}

type handler struct {
	store  persistence.FlowStore
	logger *slog.Logger
}

// NewRouter builds the gin router exposing store under basePath
// (e.g. "/api"). A nil logger uses slog.Default().
func NewRouter(store persistence.FlowStore, basePath string, logger *slog.Logger) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}
	h := &handler{store: store, logger: logger}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(h.logRequests)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now().Unix()})
	})

	g := r.Group(basePath)
	g.GET("/flows", h.list)
	g.GET("/flows/:id", h.fetch)
	g.POST("/flows", h.create)
	g.PUT("/flows/:id", h.persist)
	g.DELETE("/flows/:id", h.delete)
	return r
}

func (h *handler) logRequests(c *gin.Context) {
	start := time.Now()
	c.Next()
	h.logger.DebugContext(c.Request.Context(), "flowapi_request",
		slog.String("method", c.Request.Method),
		slog.String("path", c.FullPath()),
		slog.Int("status", c.Writer.Status()),
		slog.Duration("duration", time.Since(start)),
	)
}

func (h *handler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, api.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, api.ErrEmptyInput), errors.Is(err, api.ErrInvalidDocument):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(c.Request.Context(), "flowapi_error", slog.Any("error", err))
	}
	c.AbortWithStatusJSON(status, errorResponse{Error: err.Error()})
}

func (h *handler) list(c *gin.Context) {
	flows, err := h.store.ListFlows(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	out := make([]resource, 0, len(flows))
	for _, f := range flows {
		out = append(out, toResource(f))
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

func (h *handler) fetch(c *gin.Context) {
	f, err := h.store.FetchFlow(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": toResource(f)})
}

func (h *handler) create(c *gin.Context) {
	var req writeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: "invalid JSON: " + err.Error()})
		return
	}
	f, err := h.store.CreateFlow(c.Request.Context(), req.Data.Name)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": toResource(f)})
}

// persist rejects graphs that do not validate, so a misbehaving client
// cannot store an inconsistent document.
func (h *handler) persist(c *gin.Context) {
	var req writeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: "invalid JSON: " + err.Error()})
		return
	}
	if err := api.ValidateGraph(req.Data.Data); err != nil {
		h.fail(c, err)
		return
	}
	f, err := h.store.PersistFlow(c.Request.Context(), c.Param("id"), req.Data)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": toResource(f)})
}

func (h *handler) delete(c *gin.Context) {
	if err := h.store.DeleteFlow(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
