package papers

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo for dev mode and tests.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Paper // id -> paper
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Paper)}
}

// Create stores a new paper. A duplicate DOI is rejected.
func (r *MemoryRepo) Create(ctx context.Context, paper Paper) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if paper.HasDOI() {
		for _, existing := range r.data {
			if existing.DOI == paper.DOI {
				return ErrDuplicateDOI
			}
		}
	}
	r.data[paper.ID.String()] = paper
	return nil
}

// GetByID returns a paper or ErrNotFound.
func (r *MemoryRepo) GetByID(ctx context.Context, id PaperID) (Paper, error) {
	if err := ctx.Err(); err != nil {
		return Paper{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	paper, ok := r.data[id.String()]
	if !ok {
		return Paper{}, ErrNotFound
	}
	return paper, nil
}

// GetByDOI returns a paper by DOI. Absence is not an error.
func (r *MemoryRepo) GetByDOI(ctx context.Context, doi string) (Paper, bool, error) {
	if err := ctx.Err(); err != nil {
		return Paper{}, false, err
	}
	if doi == "" {
		return Paper{}, false, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, paper := range r.data {
		if paper.DOI == doi {
			return paper, true, nil
		}
	}
	return Paper{}, false, nil
}

// ExistsByID reports whether a paper with this id is recorded.
func (r *MemoryRepo) ExistsByID(ctx context.Context, id PaperID) (bool, error) {
	_, err := r.GetByID(ctx, id)
	if err == ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ExistsByDOI reports whether a paper with this DOI is recorded.
func (r *MemoryRepo) ExistsByDOI(ctx context.Context, doi string) (bool, error) {
	_, ok, err := r.GetByDOI(ctx, doi)
	return ok, err
}

// ClaimForAnalysis performs the PENDING -> PROCESSING compare-and-swap.
func (r *MemoryRepo) ClaimForAnalysis(ctx context.Context, id PaperID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	paper, ok := r.data[id.String()]
	if !ok {
		return false, ErrNotFound
	}
	if paper.Metadata.Status != StatusPending {
		return false, nil
	}
	r.data[id.String()] = paper.WithMetadata(paper.Metadata.WithStatus(StatusProcessing))
	return true, nil
}

// CompleteAnalysis moves a PROCESSING paper to COMPLETED and records the
// extracted full text.
func (r *MemoryRepo) CompleteAnalysis(ctx context.Context, id PaperID, fullText string, processedAt time.Time) error {
	return r.finish(ctx, id, StatusCompleted, fullText, processedAt)
}

// FailAnalysis moves a PROCESSING paper to FAILED.
func (r *MemoryRepo) FailAnalysis(ctx context.Context, id PaperID, processedAt time.Time) error {
	return r.finish(ctx, id, StatusFailed, "", processedAt)
}

func (r *MemoryRepo) finish(ctx context.Context, id PaperID, status ProcessingStatus, fullText string, processedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	paper, ok := r.data[id.String()]
	if !ok {
		return ErrNotFound
	}
	if paper.Metadata.Status != StatusProcessing {
		return fmt.Errorf("paper %s: %w", id, ErrNotProcessing)
	}
	meta := paper.Metadata.WithStatus(status)
	meta.ProcessedAt = &processedAt
	paper = paper.WithMetadata(meta)
	if fullText != "" {
		paper.FullText = fullText
	}
	r.data[id.String()] = paper
	return nil
}

// ListPending returns ids of PENDING papers, oldest upload first.
func (r *MemoryRepo) ListPending(ctx context.Context, limit int) ([]PaperID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	var pending []Paper
	for _, paper := range r.data {
		if paper.Metadata.Status == StatusPending {
			pending = append(pending, paper)
		}
	}
	r.mu.RUnlock()

	sort.Slice(pending, func(i, j int) bool {
		return pending[i].Metadata.UploadedAt.Before(pending[j].Metadata.UploadedAt)
	})
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	ids := make([]PaperID, len(pending))
	for i, paper := range pending {
		ids[i] = paper.ID
	}
	return ids, nil
}

// FailStaleProcessing fails papers whose processing started before deadline.
func (r *MemoryRepo) FailStaleProcessing(ctx context.Context, deadline time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	changed := 0
	for key, paper := range r.data {
		if paper.Metadata.Status != StatusProcessing {
			continue
		}
		started := paper.Metadata.UploadedAt
		if paper.Metadata.ProcessedAt != nil {
			started = *paper.Metadata.ProcessedAt
		}
		if started.Before(deadline) {
			meta := paper.Metadata.WithStatus(StatusFailed)
			r.data[key] = paper.WithMetadata(meta)
			changed++
		}
	}
	return changed, nil
}

var _ Repo = (*MemoryRepo)(nil)
