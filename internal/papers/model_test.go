package papers

import (
	"testing"
	"time"
)

func TestNewPaperValidatesTitleAndAuthors(t *testing.T) {
	if _, err := NewPaper("", []string{"Doe"}, "", "", nil, ""); err == nil {
		t.Fatalf("expected error for empty title")
	}
	if _, err := NewPaper("Entropy", nil, "", "", nil, ""); err == nil {
		t.Fatalf("expected error for missing authors")
	}

	paper, err := NewPaper("Entropy", []string{"Doe"}, "", "", nil, "10.1000/demo")
	if err != nil {
		t.Fatalf("NewPaper: %v", err)
	}
	if paper.ID.IsZero() {
		t.Fatalf("expected generated id")
	}
	if paper.Metadata.Status != StatusPending {
		t.Fatalf("expected PENDING, got %s", paper.Metadata.Status)
	}
	if !paper.HasDOI() {
		t.Fatalf("expected HasDOI")
	}
}

func TestNewPaperCopiesAuthors(t *testing.T) {
	authors := []string{"Doe"}
	paper, err := NewPaper("Entropy", authors, "", "", nil, "")
	if err != nil {
		t.Fatalf("NewPaper: %v", err)
	}
	authors[0] = "changed"
	if paper.Authors[0] != "Doe" {
		t.Fatalf("aggregate aliases caller slice")
	}
}

func TestWithStatusPreservesFieldsAndStampsTime(t *testing.T) {
	meta, err := NewMetadata("https://example.org/p.pdf", "key-1", 42, "application/pdf",
		time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		map[string]string{PropOriginalFileName: "p.pdf"})
	if err != nil {
		t.Fatalf("NewMetadata: %v", err)
	}
	if meta.ProcessedAt != nil {
		t.Fatalf("fresh metadata should have no processed time")
	}

	next := meta.WithStatus(StatusProcessing)
	if next.Status != StatusProcessing {
		t.Fatalf("expected PROCESSING, got %s", next.Status)
	}
	if next.ProcessedAt == nil {
		t.Fatalf("expected processed timestamp")
	}
	if next.StorageKey != meta.StorageKey || next.FileSize != meta.FileSize || next.SourceURL != meta.SourceURL {
		t.Fatalf("WithStatus dropped fields: %+v", next)
	}
	if next.Property(PropOriginalFileName, "") != "p.pdf" {
		t.Fatalf("WithStatus dropped properties")
	}
	// The original snapshot is untouched.
	if meta.Status != StatusPending || meta.ProcessedAt != nil {
		t.Fatalf("WithStatus mutated the receiver")
	}
}

func TestWithStatusCopiesProperties(t *testing.T) {
	meta, _ := NewMetadata("", "key", 1, "application/pdf", time.Now().UTC(),
		map[string]string{"a": "1"})
	next := meta.WithStatus(StatusCompleted)
	next.Properties["a"] = "2"
	if meta.Properties["a"] != "1" {
		t.Fatalf("snapshot shares property map with successor")
	}
}

func TestNewMetadataRejectsNegativeSize(t *testing.T) {
	if _, err := NewMetadata("", "key", -1, "application/pdf", time.Now().UTC(), nil); err == nil {
		t.Fatalf("expected error for negative size")
	}
}

func TestStatusTerminal(t *testing.T) {
	cases := map[ProcessingStatus]bool{
		StatusPending:    false,
		StatusProcessing: false,
		StatusCompleted:  true,
		StatusFailed:     true,
	}
	for status, want := range cases {
		if got := status.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", status, got, want)
		}
	}
	if ProcessingStatus("BOGUS").Valid() {
		t.Fatalf("unknown status reported valid")
	}
}

func TestParsePaperID(t *testing.T) {
	id := NewPaperID()
	parsed, err := ParsePaperID(id.String())
	if err != nil {
		t.Fatalf("ParsePaperID: %v", err)
	}
	if parsed != id {
		t.Fatalf("round-trip mismatch: %s vs %s", parsed, id)
	}
	if _, err := ParsePaperID("not-a-uuid"); err == nil {
		t.Fatalf("expected error for malformed id")
	}
}
