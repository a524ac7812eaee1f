// Package extract pulls plain text out of stored PDF documents.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"scholarai-backend/internal/shared/storage/object"
)

// Page holds the text of a single PDF page, 1-based.
type Page struct {
	Number int
	Text   string
}

// Pages reads a stored object and extracts per-page plain text, preserving
// page numbers for chunk provenance.
func Pages(ctx context.Context, store object.ObjectStore, storageKey string) ([]Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	body, err := store.Open(ctx, storageKey)
	if err != nil {
		return nil, fmt.Errorf("extract key=%s: %w", storageKey, err)
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("extract key=%s: read: %w", storageKey, err)
	}

	pages, err := PagesFromBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("extract key=%s: %w", storageKey, err)
	}
	return pages, nil
}

// PagesFromBytes extracts per-page text from an in-memory PDF payload.
// The parser panics on some malformed files, so recover into an error.
func PagesFromBytes(data []byte) (pages []Page, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("parse pdf: %v", r)
		}
	}()

	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse pdf: %w", err)
	}

	total := pdfReader.NumPage()
	pages = make([]Page, 0, total)
	for i := 1; i <= total; i++ {
		page := pdfReader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		pages = append(pages, Page{Number: i, Text: text})
	}
	return pages, nil
}
