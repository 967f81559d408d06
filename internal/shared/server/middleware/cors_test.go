package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func corsRouter(origins ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS(origins))
	r.POST("/api/v1/jobs/:id/applications", func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"ok": true})
	})
	return r
}

func corsRequest(r *gin.Engine, method, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/api/v1/jobs/123/applications", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestCORSPreflightFromAllowedOrigin(t *testing.T) {
	resp := corsRequest(corsRouter("http://localhost:5173/"), http.MethodOptions, "http://localhost:5173")

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
	if got := resp.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("unexpected Allow-Origin %q", got)
	}
	if resp.Header().Get("Access-Control-Allow-Methods") == "" || resp.Header().Get("Access-Control-Allow-Headers") == "" {
		t.Fatalf("expected preflight method and header lists")
	}
	if got := resp.Header().Get("Access-Control-Max-Age"); got != "600" {
		t.Fatalf("expected Max-Age 600, got %q", got)
	}
}

func TestCORSSimpleRequestCarriesCredentials(t *testing.T) {
	resp := corsRequest(corsRouter("http://localhost:5173"), http.MethodPost, "http://localhost:5173")

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected handler to run, got %d", resp.Code)
	}
	if resp.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Fatalf("expected credentials header")
	}
	if resp.Header().Get("Access-Control-Allow-Methods") != "" {
		t.Fatalf("method list belongs to preflights only")
	}
}

func TestCORSRejectsUnknownOriginPreflight(t *testing.T) {
	r := corsRouter("http://localhost:5173")

	if resp := corsRequest(r, http.MethodOptions, "http://evil.example"); resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
	resp := corsRequest(r, http.MethodPost, "http://evil.example")
	if resp.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("unknown origin must not be echoed")
	}
}

func TestCORSWildcard(t *testing.T) {
	resp := corsRequest(corsRouter("*"), http.MethodPost, "http://anywhere.example")

	if got := resp.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected wildcard, got %q", got)
	}
	if resp.Header().Get("Access-Control-Allow-Credentials") != "" {
		t.Fatalf("wildcard must not allow credentials")
	}
}
