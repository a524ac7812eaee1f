package analysis

import (
	"regexp"
	"strconv"
	"strings"

	"scholarai-backend/internal/extract"
)

var (
	referencesHeading = regexp.MustCompile(`(?im)^\s*(references|bibliography|works cited)\s*$`)

	// "Smith, J., Doe, A. (2021). Title of the paper. Venue, 12(3), 45-67."
	bibliographyEntry = regexp.MustCompile(`(?m)^(?P<authors>[A-Z][^()]{2,200}?)\s*\((?P<year>(?:19|20)\d{2})[a-z]?\)\.?\s*(?P<title>[^.]{3,300})\.`)

	// "(Smith, 2021)", "(Smith et al., 2021)" or "(Smith & Doe, 2021)"
	inTextCitation = regexp.MustCompile(`\((?P<authors>[A-Z][A-Za-z\-']+(?:\s*(?:&|and)\s*[A-Z][A-Za-z\-']+)?(?:\s+et\s+al\.)?),?\s*(?P<year>(?:19|20)\d{2})\)`)

	doiPattern = regexp.MustCompile(`10\.\d{4,9}/[-._;()/:A-Za-z0-9]+`)

	authorSplitter = regexp.MustCompile(`\s*(?:,|&|\band\b)\s*`)
)

// extractCitations scans page text for in-text citations and, once a
// references heading has been seen, bibliography entries. Bibliography
// entries carry a parsed title and so can satisfy completeness; in-text
// citations never do.
func extractCitations(pages []extract.Page) []Citation {
	var citations []Citation
	seen := make(map[string]struct{})
	inReferences := false

	for _, page := range pages {
		body := page.Text
		if loc := referencesHeading.FindStringIndex(body); loc != nil {
			citations = appendInText(citations, seen, body[:loc[0]], page.Number)
			citations = appendBibliography(citations, seen, body[loc[1]:], page.Number)
			inReferences = true
			continue
		}
		if inReferences {
			citations = appendBibliography(citations, seen, body, page.Number)
			continue
		}
		citations = appendInText(citations, seen, body, page.Number)
	}

	return citations
}

func appendInText(citations []Citation, seen map[string]struct{}, body string, page int) []Citation {
	for _, m := range inTextCitation.FindAllStringSubmatch(body, -1) {
		raw := strings.TrimSpace(m[0])
		key := strings.ToLower(raw)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		authors := splitAuthors(m[inTextCitation.SubexpIndex("authors")])
		year, _ := strconv.Atoi(m[inTextCitation.SubexpIndex("year")])
		c, err := NewCitation(raw, authors, year, "", "", "", page, CitationInText)
		if err != nil {
			continue
		}
		citations = append(citations, c)
	}
	return citations
}

func appendBibliography(citations []Citation, seen map[string]struct{}, body string, page int) []Citation {
	for _, m := range bibliographyEntry.FindAllStringSubmatch(body, -1) {
		raw := strings.TrimSpace(m[0])
		key := strings.ToLower(raw)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		authors := splitAuthors(m[bibliographyEntry.SubexpIndex("authors")])
		year, _ := strconv.Atoi(m[bibliographyEntry.SubexpIndex("year")])
		title := strings.TrimSpace(m[bibliographyEntry.SubexpIndex("title")])
		doi := strings.TrimRight(doiPattern.FindString(surrounding(body, raw)), ".")

		c, err := NewCitation(raw, authors, year, title, "", doi, page, CitationReferenceList)
		if err != nil {
			continue
		}
		citations = append(citations, c)
	}
	return citations
}

func splitAuthors(s string) []string {
	parts := authorSplitter.Split(strings.TrimSpace(s), -1)
	var authors []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			authors = append(authors, p)
		}
	}
	return authors
}

// surrounding returns the entry text plus the 160 characters after it,
// enough to pick up a trailing DOI.
func surrounding(body, entry string) string {
	idx := strings.Index(body, entry)
	if idx < 0 {
		return entry
	}
	end := idx + len(entry) + 160
	if end > len(body) {
		end = len(body)
	}
	return body[idx:end]
}

func uniqueCitationCount(citations []Citation) int {
	keys := make(map[string]struct{}, len(citations))
	for _, c := range citations {
		keys[strings.ToLower(strings.TrimSpace(c.Text))] = struct{}{}
	}
	return len(keys)
}
