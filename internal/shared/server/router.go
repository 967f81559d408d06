package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"recruit-backend/internal/applications"
	"recruit-backend/internal/cvanalysis"
	"recruit-backend/internal/dashboard"
	"recruit-backend/internal/jobs"
	"recruit-backend/internal/notifications"
	"recruit-backend/internal/services/health"
	"recruit-backend/internal/shared/config"
	"recruit-backend/internal/shared/metrics"
	"recruit-backend/internal/shared/server/middleware"
	"recruit-backend/internal/shared/server/respond"
	"recruit-backend/internal/users"
)

const (
	rateGroupDefault = "DEFAULT"
	rateGroupAI      = "AI"
	rateGroupPolling = "POLLING"
)

// RouterDeps carries the handlers mounted under /api/v1. Nil handlers are
// skipped.
type RouterDeps struct {
	Config              config.Config
	Health              *health.Service
	Users               *users.Service
	UserHandler         *users.Handler
	JobHandler          *jobs.Handler
	ApplicationHandler  *applications.Handler
	NotificationHandler *notifications.Handler
	DashboardHandler    *dashboard.Handler
	AnalysisHandler     *cvanalysis.Handler
	RateLimiter         *middleware.RateLimiter
	DisableRateLimit    bool
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(),
	)
	if deps.Users != nil {
		r.Use(users.EnsureUser(deps.Users))
	}
	if !deps.DisableRateLimit {
		r.Use(middleware.RateLimit(middleware.RateLimitConfig{
			DefaultGroup: rateGroupDefault,
			GroupFor:     rateGroupFor,
			Limiter:      deps.RateLimiter,
			Rules: map[string]middleware.RateLimitRule{
				rateGroupDefault: {Rate: 5, Burst: 30},
				rateGroupAI:      {Rate: 0.5, Burst: 5},
				rateGroupPolling: {Rate: 10, Burst: 40},
			},
		}))
	}

	healthSvc := deps.Health
	if healthSvc == nil {
		healthSvc = health.NewService(nil, nil)
	}

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		report := healthSvc.Status(c.Request.Context())
		status := http.StatusOK
		if !report.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, report)
	})
	api.GET("/metrics", metrics.Handler())

	if deps.UserHandler != nil {
		deps.UserHandler.RegisterRoutes(api)
	}
	if deps.JobHandler != nil {
		deps.JobHandler.RegisterRoutes(api)
	}
	if deps.ApplicationHandler != nil {
		deps.ApplicationHandler.RegisterRoutes(api)
	}
	if deps.NotificationHandler != nil {
		deps.NotificationHandler.RegisterRoutes(api)
	}
	if deps.DashboardHandler != nil {
		deps.DashboardHandler.RegisterRoutes(api)
	}
	if deps.AnalysisHandler != nil {
		deps.AnalysisHandler.RegisterRoutes(api)
	}

	return r
}

// rateGroupFor puts CV uploads in a tight bucket and the cheap polling
// endpoints in a generous one.
func rateGroupFor(c *gin.Context) string {
	path := c.FullPath()
	switch {
	case c.Request.Method == http.MethodPost && strings.HasPrefix(path, "/api/v1/ai/"):
		return rateGroupAI
	case c.Request.Method == http.MethodPost && strings.HasSuffix(path, "/score"):
		return rateGroupAI
	case c.Request.Method == http.MethodGet && (path == "/api/v1/notifications/unread-count" || path == "/api/v1/ai/status"):
		return rateGroupPolling
	default:
		return rateGroupDefault
	}
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
