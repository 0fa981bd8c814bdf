package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"labrisk-backend/internal/riskrecords"
	"labrisk-backend/internal/shared/config"
	"labrisk-backend/internal/shared/metrics"
	"labrisk-backend/internal/shared/server/middleware"
	"labrisk-backend/internal/shared/server/respond"
	"labrisk-backend/internal/users"
)

// RouterDeps carries the handlers the router mounts.
type RouterDeps struct {
	Config      config.Config
	RiskRecords *riskrecords.Handler
	Users       *users.Handler
}

// NewRouter builds the gin engine with the shared middleware chain and the
// versioned API group.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(),
		middleware.RateLimit(middleware.RateLimitConfig{
			GroupFor: func(c *gin.Context) string {
				if c.Request.Method == http.MethodPost && c.FullPath() == "/api/v1/risk-records" {
					return "UPLOAD"
				}
				return ""
			},
			Rules: map[string]middleware.RateLimitRule{
				"UPLOAD": {Rate: 0.5, Burst: 5},
			},
		}),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.OK(c, gin.H{"status": "ok"})
	})

	if deps.Users != nil {
		deps.Users.RegisterRoutes(api)
	}
	if deps.RiskRecords != nil {
		deps.RiskRecords.RegisterRoutes(api)
	}

	r.NoRoute(func(c *gin.Context) {
		respond.Error(c, http.StatusNotFound, "not_found", "route not found", nil)
	})

	return r
}

// Addr formats the listen address for the configured port.
func Addr(port string) string {
	if port == "" {
		port = "8080"
	}
	return ":" + port
}
