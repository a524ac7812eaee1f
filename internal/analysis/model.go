package analysis

import (
	"fmt"
	"math"
	"strings"
	"time"

	"scholarai-backend/internal/papers"
)

// CitationType classifies where a citation was found.
type CitationType string

const (
	CitationInText        CitationType = "IN_TEXT"
	CitationFootnote      CitationType = "FOOTNOTE"
	CitationBibliography  CitationType = "BIBLIOGRAPHY"
	CitationReferenceList CitationType = "REFERENCE_LIST"
)

// Citation is one reference extracted from a paper.
type Citation struct {
	Text       string       `json:"text"`
	Authors    []string     `json:"authors,omitempty"`
	Year       int          `json:"year,omitempty"`
	Title      string       `json:"title,omitempty"`
	Venue      string       `json:"venue,omitempty"`
	DOI        string       `json:"doi,omitempty"`
	PageNumber int          `json:"pageNumber"`
	Type       CitationType `json:"type"`
}

// NewCitation validates and builds a citation, copying the authors slice.
func NewCitation(text string, authors []string, year int, title, venue, doi string, pageNumber int, kind CitationType) (Citation, error) {
	if strings.TrimSpace(text) == "" {
		return Citation{}, fmt.Errorf("%w: citation text is blank", ErrConsistency)
	}
	if kind == "" {
		return Citation{}, fmt.Errorf("%w: citation type is required", ErrConsistency)
	}
	return Citation{
		Text:       text,
		Authors:    append([]string(nil), authors...),
		Year:       year,
		Title:      title,
		Venue:      venue,
		DOI:        doi,
		PageNumber: pageNumber,
		Type:       kind,
	}, nil
}

// Complete reports whether the citation carries at least one author, a year,
// and a non-blank title.
func (c Citation) Complete() bool {
	return len(c.Authors) > 0 && c.Year != 0 && strings.TrimSpace(c.Title) != ""
}

// HasDOI reports whether the citation carries a DOI.
func (c Citation) HasDOI() bool { return strings.TrimSpace(c.DOI) != "" }

// Formatted renders the citation in a short human-readable style, e.g.
// "Shannon et al. (1948). A Mathematical Theory of Communication. BSTJ".
func (c Citation) Formatted() string {
	var sb strings.Builder
	if len(c.Authors) > 0 {
		sb.WriteString(c.Authors[0])
		if len(c.Authors) > 1 {
			sb.WriteString(" et al.")
		}
	}
	if c.Year != 0 {
		fmt.Fprintf(&sb, " (%d)", c.Year)
	}
	if c.Title != "" {
		sb.WriteString(". ")
		sb.WriteString(c.Title)
	}
	if c.Venue != "" {
		sb.WriteString(". ")
		sb.WriteString(c.Venue)
	}
	return sb.String()
}

// ChunkMeta records where in the source document a chunk came from.
type ChunkMeta struct {
	Section   string `json:"section,omitempty"`
	Page      int    `json:"page"`
	Paragraph int    `json:"paragraph"`
}

// TextChunk is one contiguous, non-overlapping span of a paper's text.
type TextChunk struct {
	Content string    `json:"content"`
	Start   int       `json:"start"`
	End     int       `json:"end"`
	Index   int       `json:"index"`
	Meta    ChunkMeta `json:"meta"`
}

// NewTextChunk validates and builds a chunk.
func NewTextChunk(content string, start, end, index int, meta ChunkMeta) (TextChunk, error) {
	if strings.TrimSpace(content) == "" {
		return TextChunk{}, fmt.Errorf("%w: chunk content is blank", ErrConsistency)
	}
	if start < 0 {
		return TextChunk{}, fmt.Errorf("%w: chunk start is negative", ErrConsistency)
	}
	if end <= start {
		return TextChunk{}, fmt.Errorf("%w: chunk end %d not past start %d", ErrConsistency, end, start)
	}
	if index < 0 {
		return TextChunk{}, fmt.Errorf("%w: chunk index is negative", ErrConsistency)
	}
	if meta.Page < 0 || meta.Paragraph < 0 {
		return TextChunk{}, fmt.Errorf("%w: chunk provenance is negative", ErrConsistency)
	}
	return TextChunk{Content: content, Start: start, End: end, Index: index, Meta: meta}, nil
}

// Length returns the chunk content length.
func (t TextChunk) Length() int { return len(t.Content) }

// ContainsPosition reports whether the absolute position falls inside the chunk.
func (t TextChunk) ContainsPosition(pos int) bool {
	return pos >= t.Start && pos < t.End
}

// Embedding is a fixed-length vector representing one chunk's content.
type Embedding struct {
	Vector     []float32 `json:"vector"`
	Dimensions int       `json:"dimensions"`
	Model      string    `json:"model"`
	ChunkIndex int       `json:"chunkIndex"`
}

// NewEmbedding validates vector length against the stated dimensionality and
// copies the vector.
func NewEmbedding(vector []float32, dimensions int, model string, chunkIndex int) (Embedding, error) {
	if len(vector) == 0 {
		return Embedding{}, fmt.Errorf("%w: embedding vector is empty", ErrConsistency)
	}
	if len(vector) != dimensions {
		return Embedding{}, fmt.Errorf("%w: vector length %d does not match dimensions %d", ErrConsistency, len(vector), dimensions)
	}
	if chunkIndex < 0 {
		return Embedding{}, fmt.Errorf("%w: chunk index is negative", ErrConsistency)
	}
	return Embedding{
		Vector:     append([]float32(nil), vector...),
		Dimensions: dimensions,
		Model:      model,
		ChunkIndex: chunkIndex,
	}, nil
}

// Magnitude returns the Euclidean norm of the vector.
func (e Embedding) Magnitude() float64 {
	sum := 0.0
	for _, v := range e.Vector {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

// Normalize returns a unit-length copy. A zero vector is returned unchanged.
func (e Embedding) Normalize() Embedding {
	mag := e.Magnitude()
	if mag == 0 {
		return e
	}
	normalized := make([]float32, len(e.Vector))
	for i, v := range e.Vector {
		normalized[i] = float32(float64(v) / mag)
	}
	return Embedding{Vector: normalized, Dimensions: e.Dimensions, Model: e.Model, ChunkIndex: e.ChunkIndex}
}

// CosineSimilarity computes similarity with another embedding of the same
// dimensionality.
func (e Embedding) CosineSimilarity(other Embedding) (float64, error) {
	if e.Dimensions != other.Dimensions {
		return 0, fmt.Errorf("%w: dimensions %d vs %d", ErrConsistency, e.Dimensions, other.Dimensions)
	}
	dot := 0.0
	for i := range e.Vector {
		dot += float64(e.Vector[i]) * float64(other.Vector[i])
	}
	magProduct := e.Magnitude() * other.Magnitude()
	if magProduct == 0 {
		return 0, nil
	}
	return dot / magProduct, nil
}

// Metrics aggregates measurable outcomes of one analysis run.
type Metrics struct {
	ProcessingTimeMs int64   `json:"processingTimeMs"`
	TotalTokens      int     `json:"totalTokens"`
	AvgChunkSize     float64 `json:"avgChunkSize"`
	UniqueCitations  int     `json:"uniqueCitations"`
}

// Validate rejects negative metrics.
func (m Metrics) Validate() error {
	if m.ProcessingTimeMs < 0 || m.TotalTokens < 0 || m.AvgChunkSize < 0 || m.UniqueCitations < 0 {
		return fmt.Errorf("%w: negative analysis metric", ErrConsistency)
	}
	return nil
}

// Analysis is the persisted result of analyzing one paper.
type Analysis struct {
	ID         string
	PaperID    papers.PaperID
	Citations  []Citation
	Chunks     []TextChunk
	Embeddings []Embedding
	AnalyzedAt time.Time
	Metrics    Metrics
}

// ValidateEmbeddingsMatchChunks enforces the 1:1 chunk/embedding contract.
func (a Analysis) ValidateEmbeddingsMatchChunks() error {
	if len(a.Embeddings) != len(a.Chunks) {
		return fmt.Errorf("%w: embedding count %d does not match chunk count %d",
			ErrConsistency, len(a.Embeddings), len(a.Chunks))
	}
	return nil
}

// CitationCount returns the number of extracted citations.
func (a Analysis) CitationCount() int { return len(a.Citations) }

// ChunkCount returns the number of text chunks.
func (a Analysis) ChunkCount() int { return len(a.Chunks) }
