package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"recruit-backend/internal/shared/telemetry"
)

// Context keys handlers set so the access log can name the resources and
// the application status change a request touched.
const (
	JobIDKey            = "jobId"
	ApplicationIDKey    = "applicationId"
	StatusTransitionKey = "statusTransition"
)

var quietPaths = map[string]bool{
	"/api/v1/health":  true,
	"/api/v1/metrics": true,
}

// Logging writes one access line per request. Preflights and successful
// health or metrics scrapes are skipped; 5xx lines are logged as errors.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if quietPaths[route] && status < http.StatusInternalServerError {
			return
		}
		if route == "" {
			route = c.Request.URL.Path
		}
		fields := map[string]any{
			"request_id":        RequestIDFromContext(c),
			"method":            c.Request.Method,
			"route":             route,
			"status":            status,
			"bytes":             c.Writer.Size(),
			"duration_ms":       float64(time.Since(start).Microseconds()) / 1000.0,
			"user_id":           UserIDFromContext(c),
			"role":              UserRoleFromContext(c),
			"job_id":            c.GetString(JobIDKey),
			"application_id":    c.GetString(ApplicationIDKey),
			"status_transition": c.GetString(StatusTransitionKey),
			"client_ip":         c.ClientIP(),
		}
		if status >= http.StatusInternalServerError {
			telemetry.Error("request.complete", fields)
			return
		}
		telemetry.Info("request.complete", fields)
	}
}
