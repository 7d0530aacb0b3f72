package handlers

import (
	"context"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/yourorg/crewtrack/internal/cache"
	"github.com/yourorg/crewtrack/internal/realtime"
)

// HealthResponse representa el estado de salud del sistema
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
	Version   string            `json:"version,omitempty"`
}

var startTime = time.Now()

// Health proporciona un health check del sistema
func Health(c *fiber.Ctx) error {
	services := make(map[string]string)
	overall := "healthy"

	// ============================================================================
	// CHECK: Base de Datos
	// ============================================================================
	db := getDBConn()
	if db != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			services["database"] = "unhealthy: " + err.Error()
			overall = "degraded"
		} else {
			services["database"] = "healthy"
		}
	} else {
		services["database"] = "not_initialized"
		overall = "degraded"
	}

	statusCode := fiber.StatusOK
	if overall == "degraded" {
		statusCode = fiber.StatusServiceUnavailable
	}

	return c.Status(statusCode).JSON(HealthResponse{
		Status:    overall,
		Timestamp: time.Now(),
		Services:  services,
		Version:   os.Getenv("APP_VERSION"),
	})
}

// StatusHandler expone métricas livianas para el dashboard.
type StatusHandler struct {
	hub *realtime.Hub
}

func NewStatusHandler(hub *realtime.Hub) *StatusHandler {
	return &StatusHandler{hub: hub}
}

// GetStatus maneja GET /api/status
func (h *StatusHandler) GetStatus(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"uptime_seconds":   int64(time.Since(startTime).Seconds()),
		"realtime_clients": h.hub.ClientCount(),
		"caches":           cache.GetAllCacheStats(),
	})
}
