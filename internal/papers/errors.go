package papers

import "errors"

var (
	// ErrNotFound means the paper does not exist. Expected in normal
	// operation and always surfaced distinctly to callers.
	ErrNotFound = errors.New("paper not found")

	// ErrInvalidInput covers rejected input: blank title or filename,
	// empty author list, non-positive size. Raised before any side effect.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoContent means the paper exists but its metadata carries no
	// storage key, so there are no bytes to serve.
	ErrNoContent = errors.New("paper has no stored content")

	// ErrDuplicateDOI means a paper with the same DOI is already recorded.
	ErrDuplicateDOI = errors.New("paper with this doi already exists")

	// ErrStorageRead means the paper exists but its backing bytes could not
	// be read. Kept distinct from ErrNotFound so callers can tell "no such
	// paper" from "paper exists but content is unavailable".
	ErrStorageRead = errors.New("stored content unavailable")

	// ErrNotProcessing means a completion or failure update found the paper
	// no longer in PROCESSING, typically because a stale-claim reaper got
	// there first. The update did not apply.
	ErrNotProcessing = errors.New("paper is not processing")
)
