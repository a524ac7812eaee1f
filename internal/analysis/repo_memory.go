package analysis

import (
	"context"
	"sync"

	"scholarai-backend/internal/papers"
)

// MemoryRepo stores analysis results in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu      sync.RWMutex
	byID    map[string]Analysis
	byPaper map[string]Analysis
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:    make(map[string]Analysis),
		byPaper: make(map[string]Analysis),
	}
}

// Create stores the analysis. A later analysis of the same paper replaces
// the earlier one for lookup by paper.
func (r *MemoryRepo) Create(ctx context.Context, a Analysis) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[a.ID] = a
	r.byPaper[a.PaperID.String()] = a
	return nil
}

// GetByID returns an analysis by its ID.
func (r *MemoryRepo) GetByID(ctx context.Context, analysisID string) (Analysis, error) {
	if err := ctx.Err(); err != nil {
		return Analysis{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byID[analysisID]
	if !ok {
		return Analysis{}, ErrNotFound
	}
	return a, nil
}

// GetByPaperID returns the latest analysis for a paper.
func (r *MemoryRepo) GetByPaperID(ctx context.Context, paperID papers.PaperID) (Analysis, error) {
	if err := ctx.Err(); err != nil {
		return Analysis{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byPaper[paperID.String()]
	if !ok {
		return Analysis{}, ErrNotFound
	}
	return a, nil
}

// ExistsForPaper reports whether any analysis is stored for the paper.
func (r *MemoryRepo) ExistsForPaper(ctx context.Context, paperID papers.PaperID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byPaper[paperID.String()]
	return ok, nil
}

var _ Repo = (*MemoryRepo)(nil)
