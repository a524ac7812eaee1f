package analysis

import "errors"

var (
	// ErrNotFound means no analysis exists for the requested paper.
	ErrNotFound = errors.New("analysis not found")

	// ErrNoContent means the paper has no stored content to analyze.
	ErrNoContent = errors.New("paper has no content to analyze")

	// ErrAlreadyClaimed means another caller holds the processing claim or
	// the paper already reached a terminal status. The loser performs no
	// further side effect.
	ErrAlreadyClaimed = errors.New("analysis already claimed")

	// ErrConsistency marks a programming-contract failure (chunk/embedding
	// mismatch, negative metric, malformed value object). Always fatal to
	// the current operation, never suppressed.
	ErrConsistency = errors.New("analysis consistency violation")
)
