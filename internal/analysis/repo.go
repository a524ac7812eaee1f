package analysis

import (
	"context"

	"scholarai-backend/internal/papers"
)

// Repo defines persistence operations for analysis results.
type Repo interface {
	Create(ctx context.Context, a Analysis) error
	GetByID(ctx context.Context, analysisID string) (Analysis, error)
	GetByPaperID(ctx context.Context, paperID papers.PaperID) (Analysis, error)
	ExistsForPaper(ctx context.Context, paperID papers.PaperID) (bool, error)
}
