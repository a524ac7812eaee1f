package analysis

import "time"

// AnalysisResponse is the outward-facing representation of an analysis run.
// Raw embedding vectors are summarized rather than returned wholesale.
type AnalysisResponse struct {
	AnalysisID string             `json:"analysisId"`
	PaperID    string             `json:"paperId"`
	AnalyzedAt time.Time          `json:"analyzedAt"`
	Chunks     []ChunkResponse    `json:"chunks"`
	Citations  []CitationResponse `json:"citations"`
	Embeddings EmbeddingSummary   `json:"embeddings"`
	Metrics    Metrics            `json:"metrics"`
}

// ChunkResponse describes one chunk without repeating the full content.
type ChunkResponse struct {
	Index     int    `json:"index"`
	Start     int    `json:"start"`
	End       int    `json:"end"`
	Length    int    `json:"length"`
	Section   string `json:"section,omitempty"`
	Page      int    `json:"page"`
	Paragraph int    `json:"paragraph"`
	Preview   string `json:"preview"`
}

// CitationResponse is the outward-facing citation shape.
type CitationResponse struct {
	Text      string   `json:"text"`
	Authors   []string `json:"authors,omitempty"`
	Year      int      `json:"year,omitempty"`
	Title     string   `json:"title,omitempty"`
	DOI       string   `json:"doi,omitempty"`
	Page      int      `json:"page"`
	Type      string   `json:"type"`
	Complete  bool     `json:"complete"`
	Formatted string   `json:"formatted,omitempty"`
}

// EmbeddingSummary reports embedding counts instead of the vectors themselves.
type EmbeddingSummary struct {
	Count      int    `json:"count"`
	Dimensions int    `json:"dimensions"`
	Model      string `json:"model,omitempty"`
}

const previewLength = 120

func toResponse(a Analysis) AnalysisResponse {
	chunks := make([]ChunkResponse, 0, len(a.Chunks))
	for _, c := range a.Chunks {
		preview := c.Content
		if len(preview) > previewLength {
			preview = preview[:previewLength]
		}
		chunks = append(chunks, ChunkResponse{
			Index:     c.Index,
			Start:     c.Start,
			End:       c.End,
			Length:    c.Length(),
			Section:   c.Meta.Section,
			Page:      c.Meta.Page,
			Paragraph: c.Meta.Paragraph,
			Preview:   preview,
		})
	}

	citations := make([]CitationResponse, 0, len(a.Citations))
	for _, c := range a.Citations {
		citations = append(citations, CitationResponse{
			Text:      c.Text,
			Authors:   c.Authors,
			Year:      c.Year,
			Title:     c.Title,
			DOI:       c.DOI,
			Page:      c.PageNumber,
			Type:      string(c.Type),
			Complete:  c.Complete(),
			Formatted: c.Formatted(),
		})
	}

	summary := EmbeddingSummary{Count: len(a.Embeddings)}
	if len(a.Embeddings) > 0 {
		summary.Dimensions = a.Embeddings[0].Dimensions
		summary.Model = a.Embeddings[0].Model
	}

	return AnalysisResponse{
		AnalysisID: a.ID,
		PaperID:    a.PaperID.String(),
		AnalyzedAt: a.AnalyzedAt,
		Chunks:     chunks,
		Citations:  citations,
		Embeddings: summary,
		Metrics:    a.Metrics,
	}
}
