package analysis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"scholarai-backend/internal/embed"
	"scholarai-backend/internal/papers"
)

type stubStore struct {
	content []byte
	openErr error
}

func (s *stubStore) Save(ctx context.Context, fileName string, r io.Reader) (string, int64, string, error) {
	n, _ := io.Copy(io.Discard, r)
	return "stub-key", n, "application/pdf", nil
}

func (s *stubStore) Open(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	if s.openErr != nil {
		return nil, s.openErr
	}
	return io.NopCloser(strings.NewReader(string(s.content))), nil
}

func storedPaper(t *testing.T, repo papers.Repo) papers.Paper {
	t.Helper()
	paper, err := papers.NewPaper("Stored", []string{"Doe"}, "", "", nil, "")
	if err != nil {
		t.Fatalf("NewPaper: %v", err)
	}
	meta, err := papers.NewMetadata("", "stub-key", 10, "application/pdf", time.Now().UTC(), nil)
	if err != nil {
		t.Fatalf("NewMetadata: %v", err)
	}
	paper = paper.WithMetadata(meta)
	if err := repo.Create(context.Background(), paper); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return paper
}

func newTestService(paperRepo papers.Repo, store *stubStore) *Service {
	return &Service{
		Papers:    paperRepo,
		Store:     store,
		Repo:      NewMemoryRepo(),
		Embedder:  embed.Placeholder{},
		ChunkSize: 200,
	}
}

func TestAnalyzeUnknownPaper(t *testing.T) {
	svc := newTestService(papers.NewMemoryRepo(), &stubStore{})
	if _, err := svc.Analyze(context.Background(), papers.NewPaperID()); !errors.Is(err, papers.ErrNotFound) {
		t.Fatalf("got %v, want papers.ErrNotFound", err)
	}
}

func TestAnalyzeRequiresStoredContent(t *testing.T) {
	ctx := context.Background()
	repo := papers.NewMemoryRepo()
	svc := newTestService(repo, &stubStore{})

	bare, err := papers.NewPaper("No Content", []string{"Doe"}, "", "", nil, "")
	if err != nil {
		t.Fatalf("NewPaper: %v", err)
	}
	if err := repo.Create(ctx, bare); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Analyze(ctx, bare.ID); !errors.Is(err, ErrNoContent) {
		t.Fatalf("got %v, want ErrNoContent", err)
	}

	// The guard runs before the claim, so the paper stays claimable.
	loaded, err := repo.GetByID(ctx, bare.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if loaded.Metadata.Status != papers.StatusPending {
		t.Fatalf("status = %s, want PENDING", loaded.Metadata.Status)
	}
}

func TestAnalyzeRejectsNonPendingPaper(t *testing.T) {
	ctx := context.Background()
	repo := papers.NewMemoryRepo()
	svc := newTestService(repo, &stubStore{})

	paper := storedPaper(t, repo)
	if _, err := repo.ClaimForAnalysis(ctx, paper.ID); err != nil {
		t.Fatalf("Claim: %v", err)
	}

	if _, err := svc.Analyze(ctx, paper.ID); !errors.Is(err, ErrAlreadyClaimed) {
		t.Fatalf("got %v, want ErrAlreadyClaimed", err)
	}
}

func TestAnalyzeFailureMarksPaperFailed(t *testing.T) {
	ctx := context.Background()
	repo := papers.NewMemoryRepo()
	// Not a parseable PDF, so extraction fails after the claim.
	svc := newTestService(repo, &stubStore{content: []byte("not a pdf")})

	paper := storedPaper(t, repo)

	if _, err := svc.Analyze(ctx, paper.ID); err == nil {
		t.Fatalf("expected extraction failure")
	}

	loaded, err := repo.GetByID(ctx, paper.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if loaded.Metadata.Status != papers.StatusFailed {
		t.Fatalf("status = %s, want FAILED", loaded.Metadata.Status)
	}
	if loaded.Metadata.ProcessedAt == nil {
		t.Fatalf("expected processed timestamp on failure")
	}
}

func TestAnalyzeStorageFailureMarksPaperFailed(t *testing.T) {
	ctx := context.Background()
	repo := papers.NewMemoryRepo()
	svc := newTestService(repo, &stubStore{openErr: errors.New("backend down")})

	paper := storedPaper(t, repo)

	if _, err := svc.Analyze(ctx, paper.ID); err == nil {
		t.Fatalf("expected storage failure")
	}

	loaded, err := repo.GetByID(ctx, paper.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if loaded.Metadata.Status != papers.StatusFailed {
		t.Fatalf("status = %s, want FAILED", loaded.Metadata.Status)
	}
}

func TestGetForPaperNotFound(t *testing.T) {
	svc := newTestService(papers.NewMemoryRepo(), &stubStore{})
	if _, err := svc.GetForPaper(context.Background(), papers.NewPaperID()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

// fixedEmbedder returns a constant vector so pipeline tests can run without
// an embedding backend.
type fixedEmbedder struct{ dims int }

func (f fixedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	v := make([]float32, f.dims)
	for i := range v {
		v[i] = float32(i + 1)
	}
	return v, nil
}

func (f fixedEmbedder) Dimensions() int { return f.dims }

func (f fixedEmbedder) Model() string { return "fixed-test" }

// onePagePDF builds a parseable one-page PDF carrying the given text, with
// the cross-reference table computed from actual byte offsets.
func onePagePDF(text string) []byte {
	content := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
	objects := []string{
		"1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n",
		"2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n",
		"3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 5 0 R >> >> /Contents 4 0 R >>\nendobj\n",
		fmt.Sprintf("4 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n", len(content), content),
		"5 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, 0, len(objects))
	for _, obj := range objects {
		offsets = append(offsets, buf.Len())
		buf.WriteString(obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestAnalyzeCompletesPaper(t *testing.T) {
	ctx := context.Background()
	repo := papers.NewMemoryRepo()
	svc := newTestService(repo, &stubStore{content: onePagePDF("Retrieval models for scholarly citation graphs")})
	svc.Embedder = fixedEmbedder{dims: 4}

	paper := storedPaper(t, repo)

	result, err := svc.Analyze(ctx, paper.ID)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if result.ChunkCount() == 0 {
		t.Fatalf("expected chunks")
	}
	if len(result.Embeddings) != len(result.Chunks) {
		t.Fatalf("embeddings %d != chunks %d", len(result.Embeddings), len(result.Chunks))
	}

	loaded, err := repo.GetByID(ctx, paper.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if loaded.Metadata.Status != papers.StatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", loaded.Metadata.Status)
	}
	if loaded.FullText == "" {
		t.Fatalf("expected extracted full text on the paper")
	}

	if _, err := svc.GetForPaper(ctx, paper.ID); err != nil {
		t.Fatalf("GetForPaper after completion: %v", err)
	}
}

// completionFailRepo loses the database just as the final status update
// runs, after the pipeline itself has succeeded.
type completionFailRepo struct {
	*papers.MemoryRepo
	completeErr error
}

func (r *completionFailRepo) CompleteAnalysis(ctx context.Context, id papers.PaperID, fullText string, processedAt time.Time) error {
	return r.completeErr
}

func TestAnalyzeCompletionFailureMarksPaperFailed(t *testing.T) {
	ctx := context.Background()
	repo := &completionFailRepo{
		MemoryRepo:  papers.NewMemoryRepo(),
		completeErr: errors.New("connection lost"),
	}
	svc := newTestService(repo, &stubStore{content: onePagePDF("Error handling in distributed ingestion pipelines")})
	svc.Embedder = fixedEmbedder{dims: 4}

	paper := storedPaper(t, repo)

	if _, err := svc.Analyze(ctx, paper.ID); !errors.Is(err, repo.completeErr) {
		t.Fatalf("got %v, want the completion error", err)
	}

	// The claim moved the paper out of PENDING, so the failed completion
	// must not strand it in PROCESSING.
	loaded, err := repo.GetByID(ctx, paper.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if loaded.Metadata.Status != papers.StatusFailed {
		t.Fatalf("status = %s, want FAILED", loaded.Metadata.Status)
	}
	if loaded.Metadata.ProcessedAt == nil {
		t.Fatalf("expected processed timestamp on failure")
	}
}
