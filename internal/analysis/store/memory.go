package store

import (
	"context"
	"sync"
	"time"

	"lexdraft/internal/analysis/models"
	id "lexdraft/pkg/domain"
	"lexdraft/pkg/platform/sentinel"
)

// MemoryStore is an in-memory job store for unit tests.
type MemoryStore struct {
	mu        sync.Mutex
	jobs      map[id.AnalysisID]*models.Job
	byVersion map[id.VersionID][]id.AnalysisID
	order     []id.AnalysisID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs:      make(map[id.AnalysisID]*models.Job),
		byVersion: make(map[id.VersionID][]id.AnalysisID),
	}
}

func (s *MemoryStore) ReplaceForVersion(_ context.Context, versionID id.VersionID, jobs []*models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stale := make(map[id.AnalysisID]bool, len(s.byVersion[versionID]))
	for _, jobID := range s.byVersion[versionID] {
		stale[jobID] = true
		delete(s.jobs, jobID)
	}
	kept := s.order[:0]
	for _, jobID := range s.order {
		if !stale[jobID] {
			kept = append(kept, jobID)
		}
	}
	s.order = kept

	ids := make([]id.AnalysisID, 0, len(jobs))
	for _, job := range jobs {
		copied := *job
		s.jobs[job.ID] = &copied
		s.order = append(s.order, job.ID)
		ids = append(ids, job.ID)
	}
	s.byVersion[versionID] = ids
	return nil
}

func (s *MemoryStore) ClaimPending(_ context.Context, limit int) ([]*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var claimed []*models.Job
	for _, jobID := range s.order {
		if len(claimed) >= limit {
			break
		}
		job := s.jobs[jobID]
		if job == nil || job.State != models.JobPending {
			continue
		}
		job.State = models.JobRunning
		job.UpdatedAt = time.Now()
		copied := *job
		claimed = append(claimed, &copied)
	}
	return claimed, nil
}

func (s *MemoryStore) Complete(_ context.Context, jobID id.AnalysisID, result *models.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return sentinel.ErrNotFound
	}
	copied := *result
	job.State = models.JobDone
	job.Error = ""
	job.Result = &copied
	job.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) Fail(_ context.Context, jobID id.AnalysisID, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return sentinel.ErrNotFound
	}
	job.State = models.JobFailed
	job.Error = errMsg
	job.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) ListByVersion(_ context.Context, versionID id.VersionID) ([]*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.Job, 0, len(s.byVersion[versionID]))
	for _, jobID := range s.byVersion[versionID] {
		job := s.jobs[jobID]
		if job == nil {
			continue
		}
		copied := *job
		if job.Result != nil {
			result := *job.Result
			copied.Result = &result
		}
		out = append(out, &copied)
	}
	return out, nil
}
