// Package http exposes the non-WebSocket surfaces: health, per-session
// diagnostics, the lock-file artifact and the report archive download.
package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/facetlabs/facet/internal/domain/session"
	"github.com/facetlabs/facet/internal/infrastructure/monitoring"
	"github.com/facetlabs/facet/internal/shared/id"
)

// Handlers serves the REST endpoints backed by the live session manager.
type Handlers struct {
	manager   *session.Manager
	metrics   *monitoring.Metrics
	startTime time.Time
}

// NewHandlers creates the HTTP handler set.
func NewHandlers(manager *session.Manager) *Handlers {
	return &Handlers{
		manager:   manager,
		startTime: time.Now(),
	}
}

// WithMetrics adds metrics tracking to the handlers.
func (h *Handlers) WithMetrics(metrics *monitoring.Metrics) *Handlers {
	h.metrics = metrics
	return h
}

// Register wires the routes onto the router.
func (h *Handlers) Register(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/sessions/:id/diagnostics", h.Diagnostics)
	r.GET("/sessions/:id/lockfile", h.Lockfile)
	r.GET("/sessions/:id/report", h.Report)
}

// Health returns server liveness and the live session count.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"sessions": h.manager.Count(),
		"uptime":   time.Since(h.startTime).Seconds(),
	})
}

// Diagnostics returns the session-info popup payload.
func (h *Handlers) Diagnostics(c *gin.Context) {
	sess, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess.Diagnostics())
}

// Lockfile serves the TOML lock-file artifact for an active session.
func (h *Handlers) Lockfile(c *gin.Context) {
	sess, ok := h.lookup(c)
	if !ok {
		return
	}
	doc, err := sess.Lockfile()
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.lock.toml", sess.ID))
	c.Data(http.StatusOK, "application/toml", doc)
}

// Report streams the session's report archive as a gzipped tarball.
func (h *Handlers) Report(c *gin.Context) {
	sess, ok := h.lookup(c)
	if !ok {
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s-report.tar.gz", sess.ID))
	c.Header("Content-Type", "application/gzip")
	c.Status(http.StatusOK)
	if err := sess.Reporter().Archive(c.Writer); err != nil {
		// Headers are already out; nothing to do but log via gin.
		c.Error(err) //nolint:errcheck
		return
	}
	if h.metrics != nil {
		h.metrics.IncReportDownloads()
	}
}

func (h *Handlers) lookup(c *gin.Context) (*session.Session, bool) {
	raw := c.Param("id")
	if !id.IsValid(raw) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return nil, false
	}
	sess, ok := h.manager.Get(id.SessionID(raw))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return nil, false
	}
	return sess, true
}
