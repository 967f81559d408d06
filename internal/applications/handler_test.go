package applications

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"recruit-backend/internal/cvanalysis"
	"recruit-backend/internal/jobs"
	"recruit-backend/internal/notifications"
	"recruit-backend/internal/shared/auth"
	"recruit-backend/internal/shared/server/middleware"
	"recruit-backend/internal/shared/storage/object/local"
)

type fakeQueue struct {
	ids []string
}

func (q *fakeQueue) Enqueue(_ context.Context, applicationID string, _ int) error {
	q.ids = append(q.ids, applicationID)
	return nil
}

type fakeScorer struct {
	score float64
	texts []string
}

func (f *fakeScorer) ScoreText(fileName, text string, job cvanalysis.JobCriteria) (cvanalysis.JobResult, error) {
	f.texts = append(f.texts, text)
	return cvanalysis.JobResult{
		Result:        cvanalysis.Result{Filename: fileName, Analysis: cvanalysis.Analysis{Domain: "information_technology", Quality: cvanalysis.QualityGood}},
		JobMatchScore: f.score,
	}, nil
}

type fixture struct {
	router *gin.Engine
	svc    *Service
	repo   *MemoryRepo
	jobs   *jobs.Service
	notes  *notifications.Service
	queue  *fakeQueue
	scorer *fakeScorer
	job    jobs.Job
}

func strPtr(s string) *string { return &s }

func setup(t *testing.T) *fixture {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	f := &fixture{
		repo:   NewMemoryRepo(),
		notes:  notifications.NewService(notifications.NewMemoryRepo()),
		queue:  &fakeQueue{},
		scorer: &fakeScorer{score: 72.5},
	}
	f.jobs = jobs.NewService(jobs.NewMemoryRepo(), f.repo)
	f.svc = NewService(f.repo, f.jobs, local.New(t.TempDir()), f.notes, f.queue, f.scorer)

	recruiter := jobs.Actor{ID: "rec-1", Role: "recruiter"}
	maxApps := 2
	job, err := f.jobs.Create(ctx, recruiter, jobs.Input{
		Title:           strPtr("Go Developer"),
		CompanyName:     strPtr("Acme"),
		Description:     strPtr("APIs"),
		SkillsRequired:  strPtr("go, sql"),
		MaxApplications: &maxApps,
	})
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	if f.job, _, err = f.jobs.Publish(ctx, recruiter, job.ID); err != nil {
		t.Fatalf("publish job: %v", err)
	}

	f.router = gin.New()
	f.router.Use(middleware.Auth())
	NewHandler(f.svc).RegisterRoutes(f.router.Group("/api/v1"))
	return f
}

func token(t *testing.T, sub, role string) string {
	t.Helper()
	tok, err := auth.SignJWT(auth.Claims{Sub: sub, Role: role})
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return "Bearer " + tok
}

func (f *fixture) apply(t *testing.T, sub, jobID, fileName string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("cv_file", fileName)
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	_, _ = part.Write([]byte("%PDF-1.4 fake"))
	_ = w.WriteField("cover_letter", "Hello")
	_ = w.WriteField("salary_expectation", "12000")
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs/"+jobID+"/applications", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", token(t, sub, "candidate"))
	resp := httptest.NewRecorder()
	f.router.ServeHTTP(resp, req)
	return resp
}

func (f *fixture) call(t *testing.T, method, path, auth string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp := httptest.NewRecorder()
	f.router.ServeHTTP(resp, req)
	return resp
}

func decodeApp(t *testing.T, resp *httptest.ResponseRecorder) Application {
	t.Helper()
	var app Application
	if err := json.Unmarshal(resp.Body.Bytes(), &app); err != nil {
		t.Fatalf("decode application: %v", err)
	}
	return app
}

func unreadFor(t *testing.T, f *fixture, userID string) int {
	t.Helper()
	n, err := f.notes.UnreadCount(context.Background(), userID)
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	return n
}

func TestSubmitApplication(t *testing.T) {
	f := setup(t)

	resp := f.apply(t, "cand-1", f.job.ID, "cv.pdf")
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	app := decodeApp(t, resp)
	if app.Status != StatusPending || app.CandidateID != "cand-1" || app.CoverLetter != "Hello" || app.SalaryExpectation == nil || *app.SalaryExpectation != 12000 {
		t.Fatalf("unexpected application %+v", app)
	}
	if strings.Contains(resp.Body.String(), "cvStorageKey") {
		t.Fatalf("storage key must not be exposed: %s", resp.Body.String())
	}
	if len(f.queue.ids) != 1 || f.queue.ids[0] != app.ID {
		t.Fatalf("expected application to be enqueued, got %v", f.queue.ids)
	}
	if got := unreadFor(t, f, "rec-1"); got != 1 {
		t.Fatalf("expected job owner to be notified, got %d", got)
	}

	if resp := f.apply(t, "cand-1", f.job.ID, "cv.pdf"); resp.Code != http.StatusConflict {
		t.Fatalf("duplicate: expected 409, got %d", resp.Code)
	}
}

func TestSubmitRejections(t *testing.T) {
	f := setup(t)

	if resp := f.apply(t, "cand-1", f.job.ID, "cv.txt"); resp.Code != http.StatusBadRequest {
		t.Fatalf("bad extension: expected 400, got %d", resp.Code)
	}
	if resp := f.apply(t, "cand-1", "missing", "cv.pdf"); resp.Code != http.StatusNotFound {
		t.Fatalf("unknown job: expected 404, got %d", resp.Code)
	}

	f.apply(t, "cand-1", f.job.ID, "cv.pdf")
	f.apply(t, "cand-2", f.job.ID, "cv.docx")
	if resp := f.apply(t, "cand-3", f.job.ID, "cv.pdf"); resp.Code != http.StatusConflict || !strings.Contains(resp.Body.String(), "job_full") {
		t.Fatalf("full job: expected 409 job_full, got %d %s", resp.Code, resp.Body.String())
	}

	if _, _, err := f.jobs.Pause(context.Background(), jobs.Actor{ID: "rec-1", Role: "recruiter"}, f.job.ID); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if resp := f.apply(t, "cand-4", f.job.ID, "cv.pdf"); resp.Code != http.StatusConflict || !strings.Contains(resp.Body.String(), "job_closed") {
		t.Fatalf("paused job: expected 409 job_closed, got %d %s", resp.Code, resp.Body.String())
	}
}

func TestSubmitRequiresCandidate(t *testing.T) {
	f := setup(t)
	resp := f.call(t, http.MethodPost, "/api/v1/jobs/"+f.job.ID+"/applications", token(t, "rec-1", "recruiter"), nil)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
}

func TestListAndGetVisibility(t *testing.T) {
	f := setup(t)
	mine := decodeApp(t, f.apply(t, "cand-1", f.job.ID, "cv.pdf"))
	other := decodeApp(t, f.apply(t, "cand-2", f.job.ID, "cv.pdf"))

	var list struct {
		Count int `json:"count"`
	}
	resp := f.call(t, http.MethodGet, "/api/v1/applications", token(t, "cand-1", "candidate"), nil)
	_ = json.Unmarshal(resp.Body.Bytes(), &list)
	if list.Count != 1 {
		t.Fatalf("candidate should see 1 application, got %d", list.Count)
	}
	resp = f.call(t, http.MethodGet, "/api/v1/applications?jobId="+f.job.ID, token(t, "rec-1", "recruiter"), nil)
	_ = json.Unmarshal(resp.Body.Bytes(), &list)
	if list.Count != 2 {
		t.Fatalf("recruiter should see 2 applications, got %d", list.Count)
	}

	if resp := f.call(t, http.MethodGet, "/api/v1/applications/"+other.ID, token(t, "cand-1", "candidate"), nil); resp.Code != http.StatusNotFound {
		t.Fatalf("foreign application: expected 404, got %d", resp.Code)
	}
	if resp := f.call(t, http.MethodGet, "/api/v1/applications/"+mine.ID, token(t, "cand-1", "candidate"), nil); resp.Code != http.StatusOK {
		t.Fatalf("own application: expected 200, got %d", resp.Code)
	}
}

func TestStatusUpdates(t *testing.T) {
	f := setup(t)
	app := decodeApp(t, f.apply(t, "cand-1", f.job.ID, "cv.pdf"))
	path := "/api/v1/applications/" + app.ID + "/status"
	rec := token(t, "rec-1", "recruiter")

	if resp := f.call(t, http.MethodPatch, path, rec, map[string]any{"status": "withdrawn"}); resp.Code != http.StatusBadRequest {
		t.Fatalf("recruiter withdraw: expected 400, got %d", resp.Code)
	}
	if resp := f.call(t, http.MethodPatch, path, token(t, "cand-1", "candidate"), map[string]any{"status": "accepted"}); resp.Code != http.StatusForbidden {
		t.Fatalf("candidate status change: expected 403, got %d", resp.Code)
	}

	resp := f.call(t, http.MethodPatch, path, rec, map[string]any{"status": "shortlisted", "recruiterNotes": "strong"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if got := decodeApp(t, resp); got.Status != StatusShortlisted || got.RecruiterNotes != "strong" {
		t.Fatalf("unexpected application %+v", got)
	}
	if got := unreadFor(t, f, "cand-1"); got != 1 {
		t.Fatalf("expected candidate notification, got %d", got)
	}

	if resp := f.call(t, http.MethodPatch, path, rec, map[string]any{"status": "rejected"}); resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if resp := f.call(t, http.MethodPatch, path, rec, map[string]any{"status": "interview"}); resp.Code != http.StatusConflict {
		t.Fatalf("terminal change: expected 409, got %d", resp.Code)
	}
	if resp := f.call(t, http.MethodPost, "/api/v1/applications/"+app.ID+"/withdraw", token(t, "cand-1", "candidate"), nil); resp.Code != http.StatusConflict {
		t.Fatalf("withdraw terminal: expected 409, got %d", resp.Code)
	}
}

func TestWithdraw(t *testing.T) {
	f := setup(t)
	app := decodeApp(t, f.apply(t, "cand-1", f.job.ID, "cv.pdf"))
	path := "/api/v1/applications/" + app.ID + "/withdraw"

	if resp := f.call(t, http.MethodPost, path, token(t, "cand-2", "candidate"), nil); resp.Code != http.StatusNotFound {
		t.Fatalf("foreign withdraw: expected 404, got %d", resp.Code)
	}
	resp := f.call(t, http.MethodPost, path, token(t, "cand-1", "candidate"), nil)
	if resp.Code != http.StatusOK || decodeApp(t, resp).Status != StatusWithdrawn {
		t.Fatalf("expected withdrawn, got %d %s", resp.Code, resp.Body.String())
	}
}

func TestScoreStoresAIResult(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	stored, err := f.svc.Store.Save(ctx, "cand-1", "cv.txt", strings.NewReader("Go developer with 5 years of experience in SQL"))
	if err != nil {
		t.Fatalf("save cv: %v", err)
	}
	app := Application{ID: "app-1", CandidateID: "cand-1", JobID: f.job.ID, CVStorageKey: stored.Key, CVFileName: "cv.txt", Status: StatusReviewing}
	if err := f.repo.Create(ctx, app); err != nil {
		t.Fatalf("create: %v", err)
	}

	if resp := f.call(t, http.MethodPost, "/api/v1/applications/app-1/score", token(t, "cand-1", "candidate"), nil); resp.Code != http.StatusForbidden {
		t.Fatalf("candidate score: expected 403, got %d", resp.Code)
	}
	resp := f.call(t, http.MethodPost, "/api/v1/applications/app-1/score", token(t, "rec-1", "recruiter"), nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	scored := decodeApp(t, resp)
	if scored.AIScore == nil || *scored.AIScore != 72.5 || scored.Status != StatusAIFiltered {
		t.Fatalf("unexpected scored application %+v", scored)
	}
	var analysis map[string]any
	if err := json.Unmarshal(scored.AIAnalysis, &analysis); err != nil {
		t.Fatalf("decode analysis: %v", err)
	}
	if analysis["domain"] != "information_technology" || analysis["job_match_score"] != 72.5 {
		t.Fatalf("unexpected analysis %v", analysis)
	}
	if len(f.scorer.texts) != 1 || !strings.Contains(f.scorer.texts[0], "Go developer") {
		t.Fatalf("scorer did not receive extracted text: %v", f.scorer.texts)
	}
}

func TestAnalyzeKeepsAdvancedStatus(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	stored, _ := f.svc.Store.Save(ctx, "cand-1", "cv.txt", strings.NewReader("python sql"))
	_ = f.repo.Create(ctx, Application{ID: "app-2", CandidateID: "cand-1", JobID: f.job.ID, CVStorageKey: stored.Key, CVFileName: "cv.txt", Status: StatusInterview})

	app, err := f.svc.Analyze(ctx, "app-2")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if app.Status != StatusInterview || app.AIScore == nil {
		t.Fatalf("expected status kept and score set, got %+v", app)
	}
}
