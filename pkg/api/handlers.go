package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/athulya-anil/queue-sweeper/pkg/models"
)

// ReportSource is the read side of the scheduler's report registry
type ReportSource interface {
	Latest() []models.CycleReport
	Get(service string) (models.CycleReport, bool)
}

// API serves read-only status about recent cleanup cycles
type API struct {
	reports     ReportSource
	interval    time.Duration
	startedAt   time.Time
	sseInterval time.Duration
}

// NewAPI creates a new API instance
func NewAPI(reports ReportSource, interval time.Duration) *API {
	return &API{
		reports:     reports,
		interval:    interval,
		startedAt:   time.Now(),
		sseInterval: 2 * time.Second,
	}
}

// SetupRoutes configures all API routes
func (a *API) SetupRoutes(router *gin.Engine) {
	router.GET("/health", a.healthCheck)
	router.GET("/status", a.getStatus)
	router.GET("/status/:service", a.getServiceStatus)

	// SSE endpoint for live updates
	router.GET("/events/status", a.statusSSE)
}

// NewRouter returns a gin engine with recovery and all routes registered
func (a *API) NewRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	a.SetupRoutes(router)
	return router
}

// healthCheck handles GET /health
func (a *API) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
	})
}

// getStatus handles GET /status
func (a *API) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, a.statusData())
}

// getServiceStatus handles GET /status/:service
func (a *API) getServiceStatus(c *gin.Context) {
	report, ok := a.reports.Get(c.Param("service"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no cycle has completed for this service"})
		return
	}

	c.JSON(http.StatusOK, report)
}

func (a *API) statusData() gin.H {
	reports := a.reports.Latest()
	return gin.H{
		"interval_seconds": int64(a.interval / time.Second),
		"uptime_seconds":   int64(time.Since(a.startedAt) / time.Second),
		"services":         reports,
		"count":            len(reports),
		"timestamp":        time.Now(),
	}
}
