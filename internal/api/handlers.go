// Package api exposes the discovery pipeline over HTTP.
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"marketplace-discovery/internal/common/errors"
	"marketplace-discovery/internal/common/logger"
	"marketplace-discovery/internal/discovery/pipeline"
	"marketplace-discovery/internal/models"
)

// Discoverer is the part of the pipeline the handlers call.
type Discoverer interface {
	Discover(ctx context.Context, q pipeline.Query) (*models.ListingPage, error)
	DiscoverLanding(ctx context.Context, slug string, page, pageSize int) (*models.ListingPage, error)
}

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error     string    `json:"error"`
	Code      string    `json:"code"`
	Details   string    `json:"details,omitempty"`
	RequestID string    `json:"requestId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type Handler struct {
	discovery Discoverer
	checks    map[string]Pinger
	logger    logger.Logger
}

// NewHandler creates a handler. checks are pinged by the readiness check,
// keyed by dependency name.
func NewHandler(discovery Discoverer, checks map[string]Pinger, log logger.Logger) *Handler {
	if checks == nil {
		checks = map[string]Pinger{}
	}
	return &Handler{discovery: discovery, checks: checks, logger: log}
}

// CategorySuppliers serves GET /categories/:category/suppliers.
func (h *Handler) CategorySuppliers(c *gin.Context) {
	h.listing(c, pipeline.Query{CategorySlug: c.Param("category")})
}

// CategoryLocationSuppliers serves GET /categories/:category/locations/:location/suppliers.
func (h *Handler) CategoryLocationSuppliers(c *gin.Context) {
	h.listing(c, pipeline.Query{
		CategorySlug: c.Param("category"),
		LocationSlug: c.Param("location"),
	})
}

// LocationSuppliers serves GET /locations/:location/suppliers.
func (h *Handler) LocationSuppliers(c *gin.Context) {
	h.listing(c, pipeline.Query{LocationSlug: c.Param("location")})
}

// SearchSuppliers serves GET /suppliers/search?q=.
func (h *Handler) SearchSuppliers(c *gin.Context) {
	h.listing(c, pipeline.Query{Term: c.Query("q")})
}

// LandingSuppliers serves GET /landing/:slug/suppliers.
func (h *Handler) LandingSuppliers(c *gin.Context) {
	page, pageSize, err := parsePagination(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	result, err := h.discovery.DiscoverLanding(c.Request.Context(), c.Param("slug"), page, pageSize)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) listing(c *gin.Context, q pipeline.Query) {
	page, pageSize, err := parsePagination(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	q.Page = page
	q.PageSize = pageSize

	result, err := h.discovery.Discover(c.Request.Context(), q)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// parsePagination reads page and pageSize (page_size is accepted too).
// Missing values are left at zero for the pipeline to default.
func parsePagination(c *gin.Context) (page, pageSize int, err error) {
	if page, err = intParam(c, "page"); err != nil {
		return 0, 0, err
	}
	if pageSize, err = intParam(c, "pageSize", "page_size"); err != nil {
		return 0, 0, err
	}
	return page, pageSize, nil
}

func intParam(c *gin.Context, names ...string) (int, error) {
	for _, name := range names {
		raw, ok := c.GetQuery(name)
		if !ok || raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return 0, errors.NewValidationError(name + " must be an integer")
		}
		return v, nil
	}
	return 0, nil
}

func (h *Handler) respondError(c *gin.Context, err error) {
	stdErr := errors.AsStandardError(err)
	status := errors.HTTPStatus(stdErr.Code)

	fields := map[string]interface{}{
		"path":      c.Request.URL.Path,
		"code":      string(stdErr.Code),
		"details":   stdErr.Details,
		"requestId": requestID(c),
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("listing request failed", fields)
	} else {
		h.logger.Warn("listing request rejected", fields)
	}

	c.JSON(status, ErrorResponse{
		Error:     stdErr.Message,
		Code:      string(stdErr.Code),
		Details:   stdErr.Details,
		RequestID: requestID(c),
		Timestamp: time.Now().UTC(),
	})
}

// HealthCheck reports liveness.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	})
}

// ReadinessCheck pings every backing service.
func (h *Handler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(h.checks))
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not ready"
	}
	c.JSON(status, gin.H{
		"status":       state,
		"dependencies": deps,
		"timestamp":    time.Now().UTC(),
	})
}
