package applications

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"
)

type MemoryRepo struct {
	mu   sync.RWMutex
	apps map[string]Application
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{apps: make(map[string]Application)}
}

func (r *MemoryRepo) Create(ctx context.Context, app Application) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.apps {
		if existing.CandidateID == app.CandidateID && existing.JobID == app.JobID {
			return ErrDuplicate
		}
	}
	now := time.Now().UTC()
	if app.CreatedAt.IsZero() {
		app.CreatedAt = now
	}
	app.UpdatedAt = now
	r.apps[app.ID] = app
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Application, error) {
	if err := ctx.Err(); err != nil {
		return Application{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	app, ok := r.apps[id]
	if !ok {
		return Application{}, ErrNotFound
	}
	return app, nil
}

func (r *MemoryRepo) List(ctx context.Context, filter Filter) ([]Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := []Application{}
	for _, a := range r.apps {
		if filter.CandidateID != "" && a.CandidateID != filter.CandidateID {
			continue
		}
		if filter.JobID != "" && a.JobID != filter.JobID {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		out = append(out, a)
	}
	r.mu.RUnlock()

	newestFirst(out)
	if filter.Offset >= len(out) {
		return []Application{}, nil
	}
	out = out[filter.Offset:]
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *MemoryRepo) Exists(ctx context.Context, candidateID, jobID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.apps {
		if a.CandidateID == candidateID && a.JobID == jobID {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryRepo) CountByJob(ctx context.Context, jobID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, a := range r.apps {
		if a.JobID == jobID {
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepo) CountAll(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.apps), nil
}

func (r *MemoryRepo) UpdateReview(ctx context.Context, app Application) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.apps[app.ID]
	if !ok {
		return ErrNotFound
	}
	existing.Status = app.Status
	existing.RecruiterNotes = app.RecruiterNotes
	existing.InterviewDate = app.InterviewDate
	existing.UpdatedAt = time.Now().UTC()
	r.apps[app.ID] = existing
	return nil
}

func (r *MemoryRepo) SetAIResult(ctx context.Context, id string, score float64, analysis json.RawMessage, promoteTo string, promoteFrom ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.apps[id]
	if !ok {
		return ErrNotFound
	}
	app.AIScore = &score
	app.AIAnalysis = append(json.RawMessage(nil), analysis...)
	for _, from := range promoteFrom {
		if app.Status == from {
			app.Status = promoteTo
			break
		}
	}
	app.UpdatedAt = time.Now().UTC()
	r.apps[id] = app
	return nil
}

func (r *MemoryRepo) Summary(ctx context.Context, recent int) (Summary, error) {
	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}
	r.mu.RLock()
	all := make([]Application, 0, len(r.apps))
	for _, a := range r.apps {
		all = append(all, a)
	}
	r.mu.RUnlock()

	s := Summary{Total: len(all), ByStatus: map[string]int{}}
	sum, scored := 0.0, 0
	for _, a := range all {
		s.ByStatus[a.Status]++
		if a.AIScore != nil {
			sum += *a.AIScore
			scored++
		}
	}
	if scored > 0 {
		avg := sum / float64(scored)
		s.AvgAIScore = &avg
	}
	newestFirst(all)
	if len(all) > recent {
		all = all[:recent]
	}
	s.Recent = all
	return s, nil
}

func newestFirst(apps []Application) {
	sort.Slice(apps, func(i, j int) bool {
		if apps[i].CreatedAt.Equal(apps[j].CreatedAt) {
			return apps[i].ID < apps[j].ID
		}
		return apps[i].CreatedAt.After(apps[j].CreatedAt)
	})
}
