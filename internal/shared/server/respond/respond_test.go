package respond

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func serve(t *testing.T, h gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		c.Set("requestId", "req-1")
		h(c)
	})
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/x", nil))
	return resp
}

func TestListSendsEmptyArrayForNil(t *testing.T) {
	resp := serve(t, func(c *gin.Context) { List[string](c, nil) })
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if got := resp.Body.String(); got != `{"items":[],"count":0}` {
		t.Fatalf("unexpected body %s", got)
	}
}

func TestErrorEnvelopeCarriesRequestID(t *testing.T) {
	resp := serve(t, func(c *gin.Context) {
		Error(c, http.StatusConflict, "duplicate_application", "Already applied", map[string]any{"jobId": "job-1"})
	})
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.Code)
	}
	var body ErrorResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "duplicate_application" || body.Error.RequestID != "req-1" {
		t.Fatalf("unexpected error body %+v", body.Error)
	}
}

func TestCreated(t *testing.T) {
	resp := serve(t, func(c *gin.Context) { Created(c, gin.H{"id": "job-1"}) })
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}
}
