package papers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"scholarai-backend/internal/shared/metrics"
	"scholarai-backend/internal/shared/storage/object"
	"scholarai-backend/internal/shared/telemetry"
	"scholarai-backend/internal/shared/util"
)

const (
	// PropOriginalFileName is the property-bag key remembering the
	// client-supplied file name.
	PropOriginalFileName = "originalFileName"

	defaultDownloadName = "download.pdf"
	placeholderAuthor   = "Unknown"
)

// Service sequences the paper lifecycle: store content, record metadata,
// serve lookups and downloads. It wraps collaborator failures with context
// but never masks their kind.
type Service struct {
	Store object.ObjectStore
	Repo  Repo
}

// Upload stores the byte stream and records a new paper in PENDING state.
// Input is validated before any side effect; when the content store fails,
// no paper record becomes visible.
func (s *Service) Upload(ctx context.Context, r io.Reader, fileName string, size int64, sourceURL string) (Paper, error) {
	if strings.TrimSpace(fileName) == "" {
		return Paper{}, fmt.Errorf("%w: file name is required", ErrInvalidInput)
	}
	if size <= 0 {
		return Paper{}, fmt.Errorf("%w: file size must be positive", ErrInvalidInput)
	}
	if r == nil {
		return Paper{}, fmt.Errorf("%w: file stream is required", ErrInvalidInput)
	}

	storageKey, _, _, err := s.Store.Save(ctx, fileName, r)
	if err != nil {
		return Paper{}, fmt.Errorf("store content for %q: %w", fileName, err)
	}

	// Analysis has not run yet: provisional title from the file name,
	// placeholder author, no abstract or full text.
	paper, err := NewPaper(util.StripExtension(fileName), []string{placeholderAuthor}, "", "", nil, "")
	if err != nil {
		return Paper{}, err
	}

	meta, err := NewMetadata(sourceURL, storageKey, size, "application/pdf", paper.Metadata.UploadedAt,
		map[string]string{PropOriginalFileName: fileName})
	if err != nil {
		return Paper{}, err
	}
	paper = paper.WithMetadata(meta)

	if err := s.Repo.Create(ctx, paper); err != nil {
		return Paper{}, fmt.Errorf("persist paper %s: %w", paper.ID, err)
	}

	metrics.IncPaperUploaded()
	telemetry.Info("paper.uploaded", map[string]any{
		"paper_id":    paper.ID.String(),
		"file_name":   fileName,
		"size_bytes":  size,
		"storage_key": storageKey,
	})
	return paper, nil
}

// Get returns a paper by id or ErrNotFound.
func (s *Service) Get(ctx context.Context, id PaperID) (Paper, error) {
	paper, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Paper{}, ErrNotFound
		}
		return Paper{}, fmt.Errorf("load paper %s: %w", id, err)
	}
	return paper, nil
}

// GetByDOI returns a paper by DOI. A missing DOI is a soft existence check,
// not an error, so duplicate-detection flows can use it directly.
func (s *Service) GetByDOI(ctx context.Context, doi string) (Paper, bool, error) {
	paper, ok, err := s.Repo.GetByDOI(ctx, doi)
	if err != nil {
		return Paper{}, false, fmt.Errorf("load paper by doi %q: %w", doi, err)
	}
	return paper, ok, nil
}

// Exists reports whether a paper with this id is recorded.
func (s *Service) Exists(ctx context.Context, id PaperID) (bool, error) {
	return s.Repo.ExistsByID(ctx, id)
}

// Download resolves the paper and opens its stored content. A paper that was
// never given content fails with ErrNoContent; an unreadable blob surfaces as
// ErrStorageRead, distinct from ErrNotFound.
func (s *Service) Download(ctx context.Context, id PaperID) (io.ReadCloser, string, error) {
	paper, err := s.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if !paper.Metadata.HasStoredContent() {
		return nil, "", fmt.Errorf("paper %s: %w", id, ErrNoContent)
	}

	body, err := s.Store.Open(ctx, paper.Metadata.StorageKey)
	if err != nil {
		telemetry.Error("paper.download_failed", map[string]any{
			"paper_id":    id.String(),
			"storage_key": paper.Metadata.StorageKey,
			"error":       err.Error(),
		})
		return nil, "", fmt.Errorf("paper %s key %s: %w", id, paper.Metadata.StorageKey, ErrStorageRead)
	}

	return body, paper.Metadata.Property(PropOriginalFileName, defaultDownloadName), nil
}

// ClaimForAnalysis attempts the PENDING -> PROCESSING transition.
// False means another caller holds the claim or the paper is terminal.
func (s *Service) ClaimForAnalysis(ctx context.Context, id PaperID) (bool, error) {
	claimed, err := s.Repo.ClaimForAnalysis(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("claim paper %s: %w", id, err)
	}
	return claimed, nil
}

// CompleteAnalysis records a successful analysis outcome.
func (s *Service) CompleteAnalysis(ctx context.Context, id PaperID, fullText string) error {
	if err := s.Repo.CompleteAnalysis(ctx, id, fullText, time.Now().UTC()); err != nil {
		return fmt.Errorf("complete paper %s: %w", id, err)
	}
	return nil
}

// FailAnalysis records a failed analysis outcome.
func (s *Service) FailAnalysis(ctx context.Context, id PaperID) error {
	if err := s.Repo.FailAnalysis(ctx, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("fail paper %s: %w", id, err)
	}
	return nil
}
