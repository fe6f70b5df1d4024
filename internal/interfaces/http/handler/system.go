package handler

import (
	"context"
	"errors"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/inventree/backend/internal/infrastructure/scheduler"
	"github.com/inventree/backend/internal/interfaces/http/dto"
)

// Pinger checks a backing dependency, e.g. *sql.DB
type Pinger interface {
	PingContext(ctx context.Context) error
}

// JobRunner submits and reports background jobs
type JobRunner interface {
	Submit(name string) (*scheduler.Job, error)
	History() []scheduler.Job
}

// SystemHandler handles health and operational endpoints
type SystemHandler struct {
	BaseHandler
	name      string
	version   string
	startTime time.Time
	db        Pinger
	jobs      JobRunner
}

// NewSystemHandler creates a new SystemHandler. db and jobs may be nil.
func NewSystemHandler(name, version string, db Pinger, jobs JobRunner) *SystemHandler {
	return &SystemHandler{
		name:      name,
		version:   version,
		startTime: time.Now(),
		db:        db,
		jobs:      jobs,
	}
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
}

// PingResponse represents the ping response
type PingResponse struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// JobResponse is the API representation of a background job run
type JobResponse struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Status      string     `json:"status"`
	Error       string     `json:"error,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	RetryCount  int        `json:"retry_count"`
}

// RegisterRoutes implements router.RouteRegistrar
func (h *SystemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/system")
	g.GET("/info", h.GetSystemInfo)
	g.GET("/ping", h.Ping)
	g.GET("/health", h.Health)
	g.GET("/jobs", h.ListJobs)
	g.POST("/jobs/:name", h.RunJob)
}

// GetSystemInfo handles GET /system/info
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	h.Success(c, SystemInfoResponse{
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	})
}

// Ping handles GET /system/ping
func (h *SystemHandler) Ping(c *gin.Context) {
	h.Success(c, PingResponse{
		Message:   "pong",
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// Health handles GET /system/health
func (h *SystemHandler) Health(c *gin.Context) {
	status := gin.H{"database": "unknown"}
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			status["database"] = "down"
			c.JSON(http.StatusServiceUnavailable, dto.Response{Success: false, Data: status})
			return
		}
		status["database"] = "up"
	}
	h.Success(c, status)
}

// ListJobs handles GET /system/jobs
func (h *SystemHandler) ListJobs(c *gin.Context) {
	if h.jobs == nil {
		h.Success(c, []JobResponse{})
		return
	}
	history := h.jobs.History()
	out := make([]JobResponse, len(history))
	for i, j := range history {
		out[i] = JobResponse{
			ID:          j.ID,
			Name:        j.Name,
			Status:      string(j.Status),
			Error:       j.Error,
			StartedAt:   j.StartedAt,
			CompletedAt: j.CompletedAt,
			RetryCount:  j.RetryCount,
		}
	}
	h.Success(c, out)
}

// RunJob handles POST /system/jobs/:name
func (h *SystemHandler) RunJob(c *gin.Context) {
	if h.jobs == nil {
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeInternal, "Scheduler is disabled")
		return
	}
	name := c.Param("name")
	job, err := h.jobs.Submit(name)
	switch {
	case errors.Is(err, scheduler.ErrUnknownJob):
		h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, "Unknown job "+name)
		return
	case errors.Is(err, scheduler.ErrSchedulerNotRunning), errors.Is(err, scheduler.ErrJobQueueFull):
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeInternal, err.Error())
		return
	case err != nil:
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(gin.H{"id": job.ID, "name": name}))
}
