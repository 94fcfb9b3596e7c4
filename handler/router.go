package handler

import (
	"time"

	"taskboard/config"
	"taskboard/middleware"
	"taskboard/usecase"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterConfig struct {
	Service      *usecase.TasksService
	Server       config.ServerConfig
	Auth         config.AuthConfig
	HealthChecks map[string]HealthCheck
	// CalendarMaxAge is how long clients may keep an exported calendar.
	CalendarMaxAge time.Duration
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.RequestTracingMiddleware(),
		middleware.EnhancedRecoveryMiddleware(),
		middleware.MetricsMiddleware(),
		middleware.CORSMiddleware(cfg.Server.AllowedOrigins),
	)
	if cfg.Server.MaxBodyBytes > 0 {
		router.Use(middleware.RequestSizeLimiter(cfg.Server.MaxBodyBytes))
	}

	health := NewHealthHandler(cfg.HealthChecks)
	router.GET("/health", health.GetHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	tasks := NewTaskHandler(cfg.Service)
	dashboard := NewDashboardHandler(cfg.Service)

	// Protected routes (authentication required)
	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(cfg.Auth.JWTSecret, cfg.Auth.Issuer), middleware.RequireJSON())
	{
		t := protected.Group("/tasks")
		{
			t.POST("", tasks.CreateTask)
			t.GET("", tasks.ListTasks)
			t.GET("/:id", tasks.GetTask)
			t.PUT("/:id", tasks.UpdateTask)
			t.DELETE("/:id", tasks.DeleteTask)

			// Recurrence
			t.POST("/:id/complete", tasks.CompleteTask)
			t.GET("/:id/occurrences", tasks.GetOccurrences)
			t.GET("/:id/calendar.ics", middleware.CacheControlMiddleware(cfg.CalendarMaxAge), tasks.ExportCalendar)
		}

		d := protected.Group("/dashboard")
		{
			d.GET("/deadlines", dashboard.GetDeadlines)
			d.GET("/status", dashboard.GetStatusCounts)
		}
	}

	return router
}
