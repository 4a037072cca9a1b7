package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"interview-backend/internal/interviews"
	"interview-backend/internal/services/health"
	"interview-backend/internal/shared/config"
	"interview-backend/internal/shared/metrics"
	"interview-backend/internal/shared/server/middleware"
)

const uploadGroup = "UPLOAD"

// RouterDeps holds the handlers mounted by NewRouter.
type RouterDeps struct {
	Config     config.Config
	Interviews *interviews.Handler
	Health     *health.Handler
	Limiter    *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.MaxMultipartMemory = deps.Config.MaxUploadBytes() + (1 << 20)

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.RateLimit(middleware.RateLimitConfig{
			GroupFor: groupFor,
			Limiter:  deps.Limiter,
			Rules: map[string]middleware.RateLimitRule{
				uploadGroup: {Rate: deps.Config.RateLimitRPS, Burst: deps.Config.RateLimitBurst},
			},
		}),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	if deps.Health != nil {
		deps.Health.RegisterRoutes(api)
	} else {
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"ok": true})
		})
	}
	if deps.Interviews != nil {
		deps.Interviews.RegisterPage(r)
		deps.Interviews.RegisterRoutes(api)
	}
	return r
}

// groupFor puts every upload route in the rate-limited group.
func groupFor(c *gin.Context) string {
	if c.Request.Method != http.MethodPost {
		return ""
	}
	switch c.FullPath() {
	case "/", "/api/v1/interviews":
		return uploadGroup
	}
	return ""
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
