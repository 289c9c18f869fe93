package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/andresuchdata/sportstore-dash/backend-go/internal/api/handlers"
	"github.com/andresuchdata/sportstore-dash/backend-go/internal/api/middleware"
	"github.com/andresuchdata/sportstore-dash/backend-go/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Services struct {
	DashboardService *service.DashboardService
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	if services != nil && services.DashboardService != nil {
		dashboardHandler := handlers.NewDashboardHandler(services.DashboardService)
		apiGroup.GET("/pages", dashboardHandler.ListPages)

		pageGroup := apiGroup.Group("/pages/:page")
		{
			pageGroup.GET("", dashboardHandler.GetPage)
			pageGroup.GET("/dashboard", dashboardHandler.GetDashboard)
			pageGroup.GET("/options", dashboardHandler.GetOptions)
			pageGroup.GET("/aggregate", dashboardHandler.GetAggregate)
			pageGroup.POST("/aggregate", dashboardHandler.PostAggregate)
			pageGroup.GET("/records", dashboardHandler.GetRecords)
			pageGroup.POST("/refresh", dashboardHandler.Refresh)
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
