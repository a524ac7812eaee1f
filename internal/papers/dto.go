package papers

import "time"

// PaperResponse is the outward-facing representation of a paper.
type PaperResponse struct {
	PaperID       string            `json:"paperId"`
	Title         string            `json:"title"`
	Authors       []string          `json:"authors"`
	Abstract      string            `json:"abstract,omitempty"`
	DOI           string            `json:"doi,omitempty"`
	PublishedDate *time.Time        `json:"publishedDate,omitempty"`
	FileSize      int64             `json:"fileSize"`
	FileType      string            `json:"fileType"`
	SourceURL     string            `json:"sourceUrl,omitempty"`
	Status        string            `json:"status"`
	UploadedAt    time.Time         `json:"uploadedAt"`
	ProcessedAt   *time.Time        `json:"processedAt,omitempty"`
	Properties    map[string]string `json:"properties,omitempty"`
}

func toResponse(p Paper) PaperResponse {
	return PaperResponse{
		PaperID:       p.ID.String(),
		Title:         p.Title,
		Authors:       p.Authors,
		Abstract:      p.Abstract,
		DOI:           p.DOI,
		PublishedDate: p.PublishedDate,
		FileSize:      p.Metadata.FileSize,
		FileType:      p.Metadata.FileType,
		SourceURL:     p.Metadata.SourceURL,
		Status:        string(p.Metadata.Status),
		UploadedAt:    p.Metadata.UploadedAt,
		ProcessedAt:   p.Metadata.ProcessedAt,
		Properties:    p.Metadata.Properties,
	}
}
