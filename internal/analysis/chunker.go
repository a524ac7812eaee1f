package analysis

import (
	"strings"
	"unicode/utf8"

	"scholarai-backend/internal/extract"
)

const defaultChunkSize = 1200

// buildChunks segments per-page text into ordered, non-overlapping chunks
// with page and paragraph provenance, breaking at word boundaries. It also
// returns the reassembled full text so offsets stay meaningful.
func buildChunks(pages []extract.Page, chunkSize int) ([]TextChunk, string, error) {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}

	var sb strings.Builder
	var chunks []TextChunk
	index := 0

	for _, page := range pages {
		pageStart := sb.Len()
		content := page.Text
		start := 0
		paragraph := 0

		for start < len(content) {
			end := start + chunkSize
			if end > len(content) {
				end = len(content)
			}
			if end < len(content) {
				// end is a byte offset, so it may land inside a multibyte
				// rune. Back it onto a rune boundary before any slicing.
				for end > start && !utf8.RuneStart(content[end]) {
					end--
				}
				if end == start {
					_, size := utf8.DecodeRuneInString(content[start:])
					end = start + size
				}
				if lastSpace := strings.LastIndex(content[start:end], " "); lastSpace > 0 {
					end = start + lastSpace
				}
			}

			piece := strings.TrimSpace(content[start:end])
			if piece != "" {
				chunk, err := NewTextChunk(piece, pageStart+start, pageStart+end, index, ChunkMeta{
					Section:   sectionForPage(page.Text),
					Page:      page.Number,
					Paragraph: paragraph,
				})
				if err != nil {
					return nil, "", err
				}
				chunks = append(chunks, chunk)
				index++
				paragraph++
			}

			start = end
			for start < len(content) && (content[start] == ' ' || content[start] == '\n') {
				start++
			}
		}

		sb.WriteString(content)
		sb.WriteString("\n")
	}

	return chunks, strings.TrimSpace(sb.String()), nil
}

// sectionForPage takes the first short line of a page as a best-effort
// section label. Empty when the page opens mid-paragraph.
func sectionForPage(text string) string {
	line, _, _ := strings.Cut(text, "\n")
	line = strings.TrimSpace(line)
	if line == "" || len(line) > 80 {
		return ""
	}
	return line
}

func countTokens(text string) int {
	return len(strings.Fields(text))
}

func averageChunkSize(chunks []TextChunk) float64 {
	if len(chunks) == 0 {
		return 0
	}
	total := 0
	for _, c := range chunks {
		total += c.Length()
	}
	return float64(total) / float64(len(chunks))
}
