package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"recruit-backend/internal/shared/auth"
	"recruit-backend/internal/shared/telemetry"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	t.Cleanup(telemetry.SetOutput(&buf))
	return &buf
}

func lastLogLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var payload map[string]any
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &payload); err != nil {
		t.Fatalf("decode log json: %v (%s)", err, buf.String())
	}
	return payload
}

func TestLoggingIncludesRequestFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", "test-secret")
	logs := captureLogs(t)

	router := gin.New()
	router.Use(RequestID(), Auth(), Logging())
	router.PATCH("/api/v1/applications/:id/status", func(c *gin.Context) {
		c.Set(JobIDKey, "job-1")
		c.Set(ApplicationIDKey, "app-1")
		c.Set(StatusTransitionKey, "pending->reviewing")
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	token, err := auth.SignJWT(auth.Claims{Sub: "user-1", Role: RoleRecruiter})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/applications/app-1/status", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(httptest.NewRecorder(), req)

	payload := lastLogLine(t, logs)
	want := map[string]any{
		"msg":               "request.complete",
		"level":             "info",
		"route":             "/api/v1/applications/:id/status",
		"user_id":           "user-1",
		"role":              RoleRecruiter,
		"job_id":            "job-1",
		"application_id":    "app-1",
		"status_transition": "pending->reviewing",
	}
	for key, val := range want {
		if payload[key] != val {
			t.Fatalf("%s: expected %v, got %v", key, val, payload[key])
		}
	}
	for _, key := range []string{"request_id", "duration_ms", "status", "bytes"} {
		if _, ok := payload[key]; !ok {
			t.Fatalf("missing log field: %s", key)
		}
	}
}

func TestLoggingSkipsHealthAndFlagsServerErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logs := captureLogs(t)

	router := gin.New()
	router.Use(RequestID(), Logging())
	router.GET("/api/v1/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/api/v1/jobs", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if logs.Len() != 0 {
		t.Fatalf("health check should not be logged: %s", logs.String())
	}

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/jobs", nil))
	if payload := lastLogLine(t, logs); payload["level"] != "error" {
		t.Fatalf("expected error level for 500, got %v", payload["level"])
	}
}
