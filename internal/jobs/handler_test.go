package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"recruit-backend/internal/shared/auth"
	"recruit-backend/internal/shared/server/middleware"
)

type countStub int

func (c countStub) CountAll(context.Context) (int, error) { return int(c), nil }

func setupRouter(t *testing.T) (*gin.Engine, *MemoryRepo) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	gin.SetMode(gin.TestMode)

	repo := NewMemoryRepo()
	r := gin.New()
	r.Use(middleware.Auth())
	NewHandler(NewService(repo, countStub(7))).RegisterRoutes(r.Group("/api/v1"))
	return r, repo
}

func bearer(t *testing.T, sub, role string) string {
	t.Helper()
	token, err := auth.SignJWT(auth.Claims{Sub: sub, Role: role})
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return "Bearer " + token
}

func call(r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func decodeJob(t *testing.T, resp *httptest.ResponseRecorder) Job {
	t.Helper()
	var job Job
	if err := json.Unmarshal(resp.Body.Bytes(), &job); err != nil {
		t.Fatalf("decode job: %v", err)
	}
	return job
}

func newJobBody() map[string]any {
	return map[string]any{
		"title":              "Backend Engineer",
		"category":           "IT",
		"companyName":        "Acme",
		"description":        "Build APIs in Go",
		"requirements":       "SQL, Docker",
		"location":           "Casablanca",
		"isRemote":           true,
		"experienceRequired": "1-3",
		"skillsRequired":     "go, sql, docker",
	}
}

func TestCreateJobAsRecruiter(t *testing.T) {
	r, _ := setupRouter(t)
	token := bearer(t, "rec-1", "recruiter")

	resp := call(r, http.MethodPost, "/api/v1/jobs", token, newJobBody())
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	job := decodeJob(t, resp)
	if job.Status != StatusDraft || job.PostedBy != "rec-1" || job.ContractType != ContractCDI || job.MaxApplications != 100 {
		t.Fatalf("unexpected job %+v", job)
	}
}

func TestCreateJobRejectsCandidate(t *testing.T) {
	r, _ := setupRouter(t)
	resp := call(r, http.MethodPost, "/api/v1/jobs", bearer(t, "cand-1", "candidate"), newJobBody())
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
}

func TestCreateJobValidation(t *testing.T) {
	r, _ := setupRouter(t)
	token := bearer(t, "rec-1", "recruiter")

	body := newJobBody()
	body["salaryMin"] = 5000
	body["salaryMax"] = 1000
	if resp := call(r, http.MethodPost, "/api/v1/jobs", token, body); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for salary range, got %d", resp.Code)
	}

	body = newJobBody()
	body["contractType"] = "permanent"
	if resp := call(r, http.MethodPost, "/api/v1/jobs", token, body); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for contract type, got %d", resp.Code)
	}

	body = newJobBody()
	delete(body, "title")
	if resp := call(r, http.MethodPost, "/api/v1/jobs", token, body); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing title, got %d", resp.Code)
	}
}

func TestJobLifecycle(t *testing.T) {
	r, _ := setupRouter(t)
	owner := bearer(t, "rec-1", "recruiter")
	other := bearer(t, "rec-2", "recruiter")

	job := decodeJob(t, call(r, http.MethodPost, "/api/v1/jobs", owner, newJobBody()))
	base := "/api/v1/jobs/" + job.ID

	if resp := call(r, http.MethodPost, base+"/pause", owner, nil); resp.Code != http.StatusConflict {
		t.Fatalf("pause from draft: expected 409, got %d", resp.Code)
	}
	if resp := call(r, http.MethodPost, base+"/publish", other, nil); resp.Code != http.StatusForbidden {
		t.Fatalf("publish by non-owner: expected 403, got %d", resp.Code)
	}

	steps := []struct {
		action string
		want   string
	}{
		{"publish", StatusPublished},
		{"pause", StatusPaused},
		{"publish", StatusPublished},
		{"close", StatusClosed},
	}
	for _, step := range steps {
		resp := call(r, http.MethodPost, base+"/"+step.action, owner, nil)
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d: %s", step.action, resp.Code, resp.Body.String())
		}
		if got := decodeJob(t, resp).Status; got != step.want {
			t.Fatalf("%s: expected %s, got %s", step.action, step.want, got)
		}
	}

	for _, action := range []string{"publish", "pause", "close"} {
		if resp := call(r, http.MethodPost, base+"/"+action, owner, nil); resp.Code != http.StatusConflict {
			t.Fatalf("%s on closed job: expected 409, got %d", action, resp.Code)
		}
	}
	if resp := call(r, http.MethodPatch, base, owner, map[string]any{"title": "New"}); resp.Code != http.StatusConflict {
		t.Fatalf("edit closed job: expected 409, got %d", resp.Code)
	}
}

func TestAdminCanManageAnyJob(t *testing.T) {
	r, _ := setupRouter(t)
	job := decodeJob(t, call(r, http.MethodPost, "/api/v1/jobs", bearer(t, "rec-1", "recruiter"), newJobBody()))

	resp := call(r, http.MethodPost, "/api/v1/jobs/"+job.ID+"/publish", bearer(t, "admin-1", "admin"), nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestJobDetailVisibilityAndViews(t *testing.T) {
	r, repo := setupRouter(t)
	owner := bearer(t, "rec-1", "recruiter")
	job := decodeJob(t, call(r, http.MethodPost, "/api/v1/jobs", owner, newJobBody()))
	path := "/api/v1/jobs/" + job.ID

	if resp := call(r, http.MethodGet, path, "", nil); resp.Code != http.StatusNotFound {
		t.Fatalf("anonymous draft read: expected 404, got %d", resp.Code)
	}
	if resp := call(r, http.MethodGet, path, owner, nil); resp.Code != http.StatusOK {
		t.Fatalf("owner draft read: expected 200, got %d", resp.Code)
	}

	call(r, http.MethodPost, path+"/publish", owner, nil)
	resp := call(r, http.MethodGet, path, "", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("anonymous published read: expected 200, got %d", resp.Code)
	}
	if got := decodeJob(t, resp).ViewsCount; got != 2 {
		t.Fatalf("expected 2 views, got %d", got)
	}
	stored, _ := repo.GetByID(context.Background(), job.ID)
	if stored.ViewsCount != 2 {
		t.Fatalf("expected stored views 2, got %d", stored.ViewsCount)
	}
}

func TestListPublishedJobsWithFilters(t *testing.T) {
	r, _ := setupRouter(t)
	owner := bearer(t, "rec-1", "recruiter")

	goJob := decodeJob(t, call(r, http.MethodPost, "/api/v1/jobs", owner, newJobBody()))
	body := newJobBody()
	body["title"] = "Teacher"
	body["description"] = "Teach maths"
	body["skillsRequired"] = "pedagogy"
	body["isRemote"] = false
	body["location"] = "Rabat"
	teacherJob := decodeJob(t, call(r, http.MethodPost, "/api/v1/jobs", owner, body))
	decodeJob(t, call(r, http.MethodPost, "/api/v1/jobs", owner, newJobBody())) // stays draft

	call(r, http.MethodPost, "/api/v1/jobs/"+goJob.ID+"/publish", owner, nil)
	call(r, http.MethodPost, "/api/v1/jobs/"+teacherJob.ID+"/publish", owner, nil)

	cases := []struct {
		query string
		want  int
	}{
		{"", 2},
		{"?q=apis", 1},
		{"?remote=true", 1},
		{"?location=rab", 1},
		{"?skills=go,docker", 1},
		{"?skills=rust", 0},
		{"?contractType=cdi", 2},
		{"?experience=1-3", 2},
	}
	for _, tc := range cases {
		resp := call(r, http.MethodGet, "/api/v1/jobs"+tc.query, "", nil)
		if resp.Code != http.StatusOK {
			t.Fatalf("%q: expected 200, got %d", tc.query, resp.Code)
		}
		var payload struct {
			Count int   `json:"count"`
			Items []Job `json:"items"`
		}
		if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if payload.Count != tc.want {
			t.Fatalf("%q: expected %d jobs, got %d", tc.query, tc.want, payload.Count)
		}
	}

	if resp := call(r, http.MethodGet, "/api/v1/jobs?remote=maybe", "", nil); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad remote flag, got %d", resp.Code)
	}
}

func TestMineAndStats(t *testing.T) {
	r, _ := setupRouter(t)
	owner := bearer(t, "rec-1", "recruiter")
	a := decodeJob(t, call(r, http.MethodPost, "/api/v1/jobs", owner, newJobBody()))
	decodeJob(t, call(r, http.MethodPost, "/api/v1/jobs", owner, newJobBody()))
	decodeJob(t, call(r, http.MethodPost, "/api/v1/jobs", bearer(t, "rec-2", "recruiter"), newJobBody()))
	call(r, http.MethodPost, "/api/v1/jobs/"+a.ID+"/publish", owner, nil)

	resp := call(r, http.MethodGet, "/api/v1/jobs/mine", owner, nil)
	var mine struct {
		Count int `json:"count"`
	}
	_ = json.Unmarshal(resp.Body.Bytes(), &mine)
	if resp.Code != http.StatusOK || mine.Count != 2 {
		t.Fatalf("expected 2 own jobs, got %d (%d)", mine.Count, resp.Code)
	}

	resp = call(r, http.MethodGet, "/api/v1/jobs/stats", "", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var stats Stats
	if err := json.Unmarshal(resp.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.TotalJobs != 3 || stats.ActiveJobs != 1 || stats.TotalApplications != 7 || len(stats.RecentJobs) != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if len(stats.TopCategories) != 1 || stats.TopCategories[0] != (CategoryCount{Category: "IT", Count: 1}) {
		t.Fatalf("unexpected categories %+v", stats.TopCategories)
	}
}
