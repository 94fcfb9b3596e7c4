package handler

import (
	"context"
	"log"
	"time"

	"taskboard/utils"

	"github.com/gin-gonic/gin"
)

// HealthCheck probes one dependency, returning nil when it is reachable.
type HealthCheck func(ctx context.Context) error

type HealthHandler struct {
	checks  map[string]HealthCheck
	started time.Time
	timeout time.Duration
}

func NewHealthHandler(checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks, started: time.Now(), timeout: 2 * time.Second}
}

func (h *HealthHandler) GetHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	healthy := true
	results := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			log.Printf("Health check %s failed: %v", name, err)
			results[name] = "down"
			healthy = false
			continue
		}
		results[name] = "up"
	}

	status := "ok"
	if !healthy {
		status = "degraded"
	}
	body := gin.H{
		"status":         status,
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
		"checks":         results,
		"system": gin.H{
			"cpu_percent":    utils.GetCPUUsage(0),
			"memory_percent": utils.GetMemoryUsage(),
		},
		"mongo_pool": utils.GetMongoMetrics(),
	}

	if !healthy {
		utils.ServiceUnavailable(c, "One or more dependencies are unavailable", body)
		return
	}
	utils.Success(c, body)
}
