package util

import (
	"errors"
	"path/filepath"
	"strings"
)

// SanitizeFileName removes path separators and rejects traversal patterns.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errors.New("invalid file name")
	}
	s := strings.TrimSpace(name)
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	if s == "" {
		return "", errors.New("invalid file name")
	}
	return s, nil
}

// FileExtension returns the final extension of name including the dot,
// defaulting to ".pdf" when the name has none.
func FileExtension(name string) string {
	ext := filepath.Ext(name)
	if ext == "" || ext == name {
		return ".pdf"
	}
	return ext
}

// StripExtension removes only the final extension from a file name.
// "draft.v2.pdf" becomes "draft.v2"; a dotless or leading-dot name is
// returned unchanged.
func StripExtension(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx > 0 {
		return name[:idx]
	}
	return name
}
