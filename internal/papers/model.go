package papers

import (
	"time"

	"github.com/google/uuid"
)

// ProcessingStatus is the lifecycle stage of a paper's analysis.
type ProcessingStatus string

const (
	StatusPending    ProcessingStatus = "PENDING"
	StatusProcessing ProcessingStatus = "PROCESSING"
	StatusCompleted  ProcessingStatus = "COMPLETED"
	StatusFailed     ProcessingStatus = "FAILED"
)

// Terminal reports whether no further transition is defined from this status.
// Re-analysis never mutates a terminal record in place; it creates a new snapshot.
func (s ProcessingStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Valid reports whether s is one of the known lifecycle values.
func (s ProcessingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// PaperID is the opaque identity of a paper.
type PaperID struct {
	value uuid.UUID
}

// NewPaperID generates a fresh random identifier.
func NewPaperID() PaperID {
	return PaperID{value: uuid.New()}
}

// ParsePaperID parses the string form of a paper identifier.
func ParsePaperID(s string) (PaperID, error) {
	v, err := uuid.Parse(s)
	if err != nil {
		return PaperID{}, ErrInvalidInput
	}
	return PaperID{value: v}, nil
}

func (id PaperID) String() string { return id.value.String() }

// IsZero reports whether the identifier was never generated.
func (id PaperID) IsZero() bool { return id.value == uuid.Nil }

// Metadata is an immutable snapshot of a paper's storage and lifecycle state.
// Status changes always produce a new snapshot via WithStatus.
type Metadata struct {
	SourceURL   string
	StorageKey  string
	FileSize    int64
	FileType    string
	UploadedAt  time.Time
	ProcessedAt *time.Time
	Status      ProcessingStatus
	Properties  map[string]string
}

// DefaultMetadata returns the snapshot attached to papers created without content.
func DefaultMetadata() Metadata {
	return Metadata{
		FileType:   "application/pdf",
		UploadedAt: time.Now().UTC(),
		Status:     StatusPending,
	}
}

// NewMetadata builds a snapshot, copying the property bag so later caller
// mutations cannot leak into the stored value.
func NewMetadata(sourceURL, storageKey string, fileSize int64, fileType string, uploadedAt time.Time, props map[string]string) (Metadata, error) {
	if fileSize < 0 {
		return Metadata{}, ErrInvalidInput
	}
	return Metadata{
		SourceURL:  sourceURL,
		StorageKey: storageKey,
		FileSize:   fileSize,
		FileType:   fileType,
		UploadedAt: uploadedAt,
		Status:     StatusPending,
		Properties: copyProps(props),
	}, nil
}

// WithStatus returns a new snapshot with the given status and a fresh
// processed timestamp. Every other field is preserved.
func (m Metadata) WithStatus(status ProcessingStatus) Metadata {
	next := m
	now := time.Now().UTC()
	next.ProcessedAt = &now
	next.Status = status
	next.Properties = copyProps(m.Properties)
	return next
}

// Property looks up a key in the property bag, falling back to def.
func (m Metadata) Property(key, def string) string {
	if v, ok := m.Properties[key]; ok {
		return v
	}
	return def
}

// HasStoredContent reports whether the snapshot references persisted bytes.
func (m Metadata) HasStoredContent() bool { return m.StorageKey != "" }

// Processed reports whether analysis finished successfully.
func (m Metadata) Processed() bool { return m.Status == StatusCompleted }

// Failed reports whether analysis ended in failure.
func (m Metadata) Failed() bool { return m.Status == StatusFailed }

func copyProps(props map[string]string) map[string]string {
	if len(props) == 0 {
		return nil
	}
	out := make(map[string]string, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out
}

// Paper is the bibliographic aggregate plus its metadata snapshot.
type Paper struct {
	ID            PaperID
	Title         string
	Authors       []string
	Abstract      string
	FullText      string
	PublishedDate *time.Time
	DOI           string
	Metadata      Metadata
}

// NewPaper constructs a paper with a freshly generated identity.
// The authors slice is copied so the aggregate never aliases caller memory.
func NewPaper(title string, authors []string, abstract, fullText string, publishedDate *time.Time, doi string) (Paper, error) {
	if title == "" {
		return Paper{}, ErrInvalidInput
	}
	if len(authors) == 0 {
		return Paper{}, ErrInvalidInput
	}
	return Paper{
		ID:            NewPaperID(),
		Title:         title,
		Authors:       append([]string(nil), authors...),
		Abstract:      abstract,
		FullText:      fullText,
		PublishedDate: publishedDate,
		DOI:           doi,
		Metadata:      DefaultMetadata(),
	}, nil
}

// HasDOI reports whether the paper carries a DOI.
func (p Paper) HasDOI() bool { return p.DOI != "" }

// HasFullText reports whether extracted full text is present.
func (p Paper) HasFullText() bool { return p.FullText != "" }

// Analyzable reports whether the paper has enough content to analyze:
// at least one of full text or abstract.
func (p Paper) Analyzable() bool {
	return p.HasFullText() || p.Abstract != ""
}

// MultiAuthored reports whether more than one author is recorded.
func (p Paper) MultiAuthored() bool { return len(p.Authors) > 1 }

// CitationString renders a short human-readable citation,
// e.g. "Knuth et al. (1974). Structured Programming.".
func (p Paper) CitationString() string {
	author := p.Authors[0]
	if p.MultiAuthored() {
		author += " et al."
	}
	year := ""
	if p.PublishedDate != nil {
		year = p.PublishedDate.Format(" (2006)")
	}
	return author + year + ". " + p.Title + "."
}

// WithMetadata returns a copy of the paper carrying the given snapshot.
func (p Paper) WithMetadata(m Metadata) Paper {
	next := p
	next.Metadata = m
	return next
}
